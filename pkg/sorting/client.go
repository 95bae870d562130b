package sorting

import (
	"context"
	"fmt"
	"strings"

	"github.com/flowbaker/sortinghat/pkg/ai-sdk/provider"
	"github.com/flowbaker/sortinghat/pkg/ai-sdk/types"
	"github.com/flowbaker/sortinghat/pkg/domain"
)

// ClassificationClient sends a composed prompt, with an optional image, to a
// vision-capable model and returns its raw text. Calls are not retried.
type ClassificationClient interface {
	Complete(ctx context.Context, prompt string, image *domain.Image) (string, error)
}

type ModelClientConfig struct {
	Temperature float32
	MaxTokens   int
}

type modelClient struct {
	model  provider.LanguageModel
	config ModelClientConfig
}

// NewModelClient adapts a LanguageModel into a ClassificationClient.
func NewModelClient(model provider.LanguageModel, config ModelClientConfig) ClassificationClient {
	return &modelClient{
		model:  model,
		config: config,
	}
}

func (c *modelClient) Complete(ctx context.Context, prompt string, image *domain.Image) (string, error) {
	var attachments []types.Attachment
	if image != nil && len(image.Data) > 0 {
		if !c.model.Capabilities().SupportsVision {
			return "", fmt.Errorf("%w: %s: %w", domain.ErrExternalCall, c.model.ID(), types.ErrVisionUnsupported)
		}
		attachments = append(attachments, types.Attachment{MIMEType: image.MIMEType, Data: image.Data})
	}

	temperature := c.config.Temperature

	resp, err := c.model.Generate(ctx, provider.GenerateRequest{
		Messages:    []types.Message{types.NewUserMessage(prompt, attachments...)},
		Temperature: &temperature,
		MaxTokens:   c.config.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrExternalCall, err)
	}

	if strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrExternalCall, c.model.ID(), types.ErrEmptyResponse)
	}

	return resp.Content, nil
}
