package sorting

import (
	"context"
	"strings"
	"time"

	"github.com/flowbaker/sortinghat/pkg/domain"
	"github.com/flowbaker/sortinghat/pkg/transform"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	fallbackConfidence = 0.6

	// genericSubject is used when neither the model nor the caller described the subject
	genericSubject = "The uploaded subject"
)

var fallbackSteps = []string{
	"Oh my! The magic is acting up...",
	"*adjusts brim thoughtfully*",
	"Let me try that again with a different approach...",
	"Ah yes, I see it now!",
}

const fallbackReasoning = "Even ancient magic has its quirky moments! Based on what I can sense, this belongs here."

// Outcome is everything produced for one sorting request.
type Outcome struct {
	RequestID      string                      `json:"requestId"`
	Classification domain.ClassificationResult `json:"sorting"`
	Transformation domain.TransformationResult `json:"transformedImage"`
}

type OrchestratorDependencies struct {
	PromptBuilder *PromptBuilder
	Client        ClassificationClient
	Strategy      transform.Strategy
	Random        domain.RandomSource

	// ExampleCount is the number of worked examples per prompt; negative means DefaultExampleCount
	ExampleCount int

	ClassificationTimeout time.Duration
	TransformationTimeout time.Duration
}

// Orchestrator runs prompt building, classification and transformation in
// sequence. Apart from invalid input, it never returns an error.
type Orchestrator struct {
	prompts  *PromptBuilder
	client   ClassificationClient
	strategy transform.Strategy
	random   domain.RandomSource

	exampleCount          int
	classificationTimeout time.Duration
	transformationTimeout time.Duration
}

func NewOrchestrator(deps OrchestratorDependencies) *Orchestrator {
	random := deps.Random
	if random == nil {
		random = domain.NewRandomSource()
	}

	exampleCount := deps.ExampleCount
	if exampleCount < 0 {
		exampleCount = DefaultExampleCount
	}

	return &Orchestrator{
		prompts:               deps.PromptBuilder,
		client:                deps.Client,
		strategy:              deps.Strategy,
		random:                random,
		exampleCount:          exampleCount,
		classificationTimeout: deps.ClassificationTimeout,
		transformationTimeout: deps.TransformationTimeout,
	}
}

// Run classifies input and then restyles the subject for the chosen category.
func (o *Orchestrator) Run(ctx context.Context, input domain.ClassificationInput) (Outcome, error) {
	if err := input.Validate(); err != nil {
		return Outcome{}, err
	}

	requestID := RequestIDFrom(ctx)
	logger := requestLogger(requestID, input)

	started := time.Now()

	classification := o.classify(ctx, logger, input)
	req := o.TransformationRequestFor(input, classification)
	transformation := o.transform(ctx, logger, req)

	logger.Info().
		Str("category", string(classification.Category)).
		Bool("transformed", transformation.Success).
		Dur("duration", time.Since(started)).
		Msg("Sorting complete")

	return Outcome{
		RequestID:      requestID,
		Classification: classification,
		Transformation: transformation,
	}, nil
}

// Classify sorts input without transforming it. Only invalid input produces an error.
func (o *Orchestrator) Classify(ctx context.Context, input domain.ClassificationInput) (domain.ClassificationResult, error) {
	if err := input.Validate(); err != nil {
		return domain.ClassificationResult{}, err
	}

	logger := requestLogger(RequestIDFrom(ctx), input)

	return o.classify(ctx, logger, input), nil
}

// Transform restyles a subject. Failures come back as a degraded result.
func (o *Orchestrator) Transform(ctx context.Context, req domain.TransformationRequest) domain.TransformationResult {
	logger := log.With().Str("request_id", RequestIDFrom(ctx)).Logger()

	return o.transform(ctx, logger, req)
}

// TransformationRequestFor derives the transformation request from the input and its classification.
func (o *Orchestrator) TransformationRequestFor(input domain.ClassificationInput, classification domain.ClassificationResult) domain.TransformationRequest {
	req := domain.TransformationRequest{
		SubjectDescription: subjectDescription(input, classification),
		Category:           classification.Category,
	}

	if input.Kind == domain.InputKindImage && input.Image != nil {
		req.OriginalImage = input.Image
		if o.strategy.RequiresSourceImage() {
			req.SourceImage = input.Image
		}
	}

	return req
}

func (o *Orchestrator) classify(ctx context.Context, logger zerolog.Logger, input domain.ClassificationInput) domain.ClassificationResult {
	prompt := o.prompts.Build(input, o.exampleCount)

	callCtx, cancel := withTimeout(ctx, o.classificationTimeout)
	defer cancel()

	started := time.Now()

	raw, err := o.client.Complete(callCtx, prompt, input.Image)
	if err != nil {
		logger.Error().Err(err).Dur("duration", time.Since(started)).Msg("Classification call failed, using fallback sorting")
		return o.fallbackClassification()
	}

	logger.Debug().Dur("duration", time.Since(started)).Int("response_length", len(raw)).Msg("Classification call returned")

	return Parse(raw)
}

func (o *Orchestrator) transform(ctx context.Context, logger zerolog.Logger, req domain.TransformationRequest) domain.TransformationResult {
	callCtx, cancel := withTimeout(ctx, o.transformationTimeout)
	defer cancel()

	logger.Info().
		Str("strategy", o.strategy.Name()).
		Str("category", string(req.Category)).
		Msg("Generating transformed image")

	result := o.strategy.Transform(callCtx, req)
	if !result.Success {
		logger.Warn().Str("error", result.ErrorDetail).Msg("Transformation degraded to original")
	}

	return result
}

func (o *Orchestrator) fallbackClassification() domain.ClassificationResult {
	steps := make([]string, len(fallbackSteps))
	copy(steps, fallbackSteps)

	return domain.ClassificationResult{
		NarrativeSteps:     steps,
		Category:           domain.AllCategories[o.random.IntN(len(domain.AllCategories))],
		Reasoning:          fallbackReasoning,
		Confidence:         fallbackConfidence,
		NeedsClarification: false,
	}
}

func subjectDescription(input domain.ClassificationInput, classification domain.ClassificationResult) string {
	if desc := strings.TrimSpace(classification.SubjectDescription); desc != "" {
		return desc
	}
	if subject := strings.TrimSpace(input.Subject()); subject != "" {
		return subject
	}
	return genericSubject
}

type requestIDKey struct{}

// WithRequestID attaches a caller-chosen request id to ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFrom returns the request id carried by ctx, or a fresh one.
func RequestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

func requestLogger(requestID string, input domain.ClassificationInput) zerolog.Logger {
	return log.With().
		Str("request_id", requestID).
		Str("input_kind", string(input.Kind)).
		Logger()
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
