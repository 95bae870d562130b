package transform

import (
	"context"
	"errors"
	"fmt"

	"github.com/flowbaker/sortinghat/pkg/ai-sdk/provider/gemini"
	"github.com/flowbaker/sortinghat/pkg/domain"
	"github.com/rs/zerolog/log"
)

const (
	StrategyGenerate   = "generate"
	StrategyEdit       = "edit"
	StrategyMultimodal = "multimodal"
)

const (
	DefaultImageSize = 1024

	pngMIMEType = "image/png"
)

var (
	ErrUnknownStrategy = errors.New("unknown transformation strategy")
	ErrClientNotSet    = errors.New("image provider client not set")
	ErrImageTooLarge   = errors.New("source image dimensions too large")
)

// Strategy restyles a subject for a category. Transform never fails: any
// provider problem is reported through a degraded result carrying the original image.
type Strategy interface {
	Name() string

	// RequiresSourceImage reports whether the strategy conditions on the uploaded image.
	RequiresSourceImage() bool

	Transform(ctx context.Context, req domain.TransformationRequest) domain.TransformationResult
}

// Options selects and configures the active strategy. Only the client the
// selected strategy uses needs to be set.
type Options struct {
	Name  string
	Model string
	Size  int

	// Templates overrides DefaultStyleTemplates; it must cover every category.
	Templates map[domain.Category]string

	Generator ImageGenerator
	Editor    ImageEditor
	Content   gemini.ContentGenerator
}

// DefaultModel returns the image model a strategy uses when none is configured.
func DefaultModel(name string) string {
	switch name {
	case StrategyGenerate:
		return "dall-e-3"
	case StrategyEdit:
		return "dall-e-2"
	case StrategyMultimodal:
		return "gemini-2.5-flash-image"
	default:
		return ""
	}
}

// New builds the strategy named in opts. Errors here are configuration errors.
func New(opts Options) (Strategy, error) {
	if opts.Model == "" {
		opts.Model = DefaultModel(opts.Name)
	}
	if opts.Size <= 0 {
		opts.Size = DefaultImageSize
	}

	templates, err := newStyleTemplates(opts.Templates)
	if err != nil {
		return nil, err
	}

	switch opts.Name {
	case StrategyGenerate:
		if opts.Generator == nil {
			return nil, fmt.Errorf("%s: %w", opts.Name, ErrClientNotSet)
		}
		return newGenerateStrategy(opts.Generator, opts.Model, opts.Size, templates), nil
	case StrategyEdit:
		if opts.Editor == nil {
			return nil, fmt.Errorf("%s: %w", opts.Name, ErrClientNotSet)
		}
		return newEditStrategy(opts.Editor, opts.Model, opts.Size, templates), nil
	case StrategyMultimodal:
		if opts.Content == nil {
			return nil, fmt.Errorf("%s: %w", opts.Name, ErrClientNotSet)
		}
		return newMultimodalStrategy(opts.Content, opts.Model, templates), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, opts.Name)
	}
}

// degrade logs the failure and returns the original image flagged as untransformed.
func degrade(strategy string, req domain.TransformationRequest, err error) domain.TransformationResult {
	log.Warn().
		Err(err).
		Str("strategy", strategy).
		Str("category", string(req.Category)).
		Bool("has_original", req.Original() != nil).
		Msg("Image transformation failed, returning original")

	return domain.DegradedResult(req.Original(), err)
}

// recoverDegraded turns a panic inside provider code into a degraded result.
// It must be deferred directly by Transform.
func recoverDegraded(strategy string, req domain.TransformationRequest, result *domain.TransformationResult) {
	if r := recover(); r != nil {
		*result = degrade(strategy, req, fmt.Errorf("%w: %s panicked: %v", domain.ErrExternalCall, strategy, r))
	}
}

func transformed(data []byte) domain.TransformationResult {
	return domain.TransformationResult{
		Success:    true,
		ImageData:  data,
		MIMEType:   pngMIMEType,
		IsOriginal: false,
	}
}
