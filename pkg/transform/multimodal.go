package transform

import (
	"context"
	"fmt"

	"github.com/flowbaker/sortinghat/pkg/ai-sdk/provider/gemini"
	"github.com/flowbaker/sortinghat/pkg/domain"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

var responseModalities = []string{"TEXT", "IMAGE"}

// multimodalStrategy hands the uploaded image and the style prompt to an
// image-capable Gemini model in a single request.
type multimodalStrategy struct {
	models    gemini.ContentGenerator
	model     string
	templates styleTemplates
}

func newMultimodalStrategy(models gemini.ContentGenerator, model string, templates styleTemplates) *multimodalStrategy {
	return &multimodalStrategy{
		models:    models,
		model:     model,
		templates: templates,
	}
}

func (s *multimodalStrategy) Name() string {
	return StrategyMultimodal
}

func (s *multimodalStrategy) RequiresSourceImage() bool {
	return true
}

func (s *multimodalStrategy) Transform(ctx context.Context, req domain.TransformationRequest) (result domain.TransformationResult) {
	defer recoverDegraded(s.Name(), req, &result)

	if req.SourceImage == nil || len(req.SourceImage.Data) == 0 {
		return degrade(s.Name(), req, domain.ErrSourceImageRequired)
	}

	template, err := s.templates.lookup(req.Category)
	if err != nil {
		return degrade(s.Name(), req, err)
	}

	parts := []*genai.Part{
		genai.NewPartFromText(editInstruction + template),
		{InlineData: &genai.Blob{MIMEType: req.SourceImage.MIMEType, Data: req.SourceImage.Data}},
	}

	log.Debug().Str("model", s.model).Msg("Requesting multimodal image edit")

	resp, err := s.models.GenerateContent(ctx, s.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{ResponseModalities: responseModalities},
	)
	if err != nil {
		return degrade(s.Name(), req, fmt.Errorf("%w: %w", domain.ErrExternalCall, err))
	}

	blob, err := firstInlineImage(resp)
	if err != nil {
		return degrade(s.Name(), req, err)
	}

	data, err := toPNG(blob.Data, blob.MIMEType)
	if err != nil {
		return degrade(s.Name(), req, fmt.Errorf("%w: %w", domain.ErrEmptyImage, err))
	}

	return transformed(data)
}

// firstInlineImage returns the first inline data part of the first candidate.
func firstInlineImage(resp *genai.GenerateContentResponse) (*genai.Blob, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: response has no candidates", domain.ErrEmptyImage)
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData, nil
		}
	}

	return nil, fmt.Errorf("%w: first candidate has no inline image", domain.ErrEmptyImage)
}
