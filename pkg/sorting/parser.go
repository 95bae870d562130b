package sorting

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flowbaker/sortinghat/pkg/domain"
	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	defaultConfidence   = 0.5
	reasoningPreviewLen = 300
)

const responseSchemaJSON = `{
  "type": "object",
  "required": ["category", "narrativeSteps", "reasoning"],
  "properties": {
    "category": {"type": "string", "minLength": 1},
    "narrativeSteps": {"type": "array", "minItems": 1, "items": {"type": "string"}},
    "reasoning": {"type": "string", "minLength": 1}
  }
}`

var responseSchema = jsonschema.MustCompileString("classification-response.json", responseSchemaJSON)

var placeholderSteps = []string{
	"Hmm... this is quite unusual...",
	"I see many interesting traits here...",
	"Let me think carefully...",
	"Yes... yes, I see it now...",
}

// ParseTier turns raw model text into a result or reports why it could not.
type ParseTier func(raw string) (domain.ClassificationResult, error)

// parseChain is tried left to right; the first tier to succeed wins.
var parseChain = []ParseTier{
	ParseStructured,
	ParseHeuristic,
}

// Parse converts raw model output into a validated ClassificationResult. It never fails.
func Parse(raw string) domain.ClassificationResult {
	for _, tier := range parseChain {
		result, err := tier(raw)
		if err == nil {
			return result
		}

		log.Debug().Err(err).Msg("Parse tier failed, falling back")
	}

	result, _ := ParseHeuristic(raw)
	return result
}

type structuredResponse struct {
	NarrativeSteps []string `json:"narrativeSteps"`
	Category       string   `json:"category"`
	Reasoning      string   `json:"reasoning"`
}

// ParseStructured decodes the outermost {...} span of raw. Ambiguous spans such
// as two separate objects fail to decode and are left to the next tier.
func ParseStructured(raw string) (domain.ClassificationResult, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return domain.ClassificationResult{}, fmt.Errorf("%w: no JSON object found", domain.ErrParse)
	}

	span := []byte(raw[start : end+1])

	var doc any
	if err := json.Unmarshal(span, &doc); err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	if err := responseSchema.Validate(doc); err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	var resp structuredResponse
	if err := json.Unmarshal(span, &resp); err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	category, err := domain.ParseCategory(resp.Category)
	if err != nil {
		log.Warn().
			Str("category", resp.Category).
			Str("default", string(domain.DefaultCategory)).
			Msg("Model returned an invalid category, using default")

		category = domain.DefaultCategory
	}

	result := domain.ClassificationResult{
		NarrativeSteps: resp.NarrativeSteps,
		Category:       category,
		Reasoning:      resp.Reasoning,
		Confidence:     defaultConfidence,
	}

	// Optional fields of the wrong type fall back to their defaults.
	fields, _ := doc.(map[string]any)
	if v, ok := fields["confidence"].(float64); ok {
		result.Confidence = clamp01(v)
	}
	if v, ok := fields["needsClarification"].(bool); ok {
		result.NeedsClarification = v
	}
	if v, ok := fields["imageDescription"].(string); ok {
		result.SubjectDescription = strings.TrimSpace(v)
	}

	return result, nil
}

// ParseHeuristic looks for house names anywhere in raw, in canonical order. It always succeeds.
func ParseHeuristic(raw string) (domain.ClassificationResult, error) {
	lower := strings.ToLower(raw)

	category := domain.DefaultCategory
	for _, candidate := range domain.AllCategories {
		if strings.Contains(lower, string(candidate)) {
			category = candidate
			break
		}
	}

	steps := make([]string, len(placeholderSteps))
	copy(steps, placeholderSteps)

	return domain.ClassificationResult{
		NarrativeSteps:     steps,
		Category:           category,
		Reasoning:          truncateRunes(raw, reasoningPreviewLen) + "...",
		Confidence:         defaultConfidence,
		NeedsClarification: false,
	}, nil
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
