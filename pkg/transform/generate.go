package transform

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/flowbaker/sortinghat/pkg/domain"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// ImageGenerator is the part of the go-openai client used for text-to-image generation.
type ImageGenerator interface {
	CreateImage(ctx context.Context, request openai.ImageRequest) (openai.ImageResponse, error)
}

// generateStrategy synthesizes a new image from the subject description alone.
type generateStrategy struct {
	client    ImageGenerator
	model     string
	size      int
	templates styleTemplates
}

func newGenerateStrategy(client ImageGenerator, model string, size int, templates styleTemplates) *generateStrategy {
	return &generateStrategy{
		client:    client,
		model:     model,
		size:      size,
		templates: templates,
	}
}

func (s *generateStrategy) Name() string {
	return StrategyGenerate
}

func (s *generateStrategy) RequiresSourceImage() bool {
	return false
}

func (s *generateStrategy) Transform(ctx context.Context, req domain.TransformationRequest) (result domain.TransformationResult) {
	defer recoverDegraded(s.Name(), req, &result)

	template, err := s.templates.lookup(req.Category)
	if err != nil {
		return degrade(s.Name(), req, err)
	}

	prompt := strings.TrimSpace(req.SubjectDescription + " " + template)

	log.Debug().Str("model", s.model).Str("prompt", prompt).Msg("Requesting generated image")

	resp, err := s.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          s.model,
		N:              1,
		Size:           squareSize(s.size),
		Quality:        openai.CreateImageQualityStandard,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return degrade(s.Name(), req, fmt.Errorf("%w: %w", domain.ErrExternalCall, err))
	}

	data, err := firstB64Image(resp)
	if err != nil {
		return degrade(s.Name(), req, err)
	}

	return transformed(data)
}

func squareSize(size int) string {
	return fmt.Sprintf("%dx%d", size, size)
}

func firstB64Image(resp openai.ImageResponse) ([]byte, error) {
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("%w: response carried no image", domain.ErrEmptyImage)
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode generated image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: decoded image is empty", domain.ErrEmptyImage)
	}

	return data, nil
}
