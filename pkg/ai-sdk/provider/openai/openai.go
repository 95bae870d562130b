package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"strings"

	"github.com/flowbaker/sortinghat/pkg/ai-sdk/provider"
	"github.com/flowbaker/sortinghat/pkg/ai-sdk/types"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

// ChatCompleter is the part of the go-openai client used by the provider
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Provider implements the LanguageModel interface for OpenAI
type Provider struct {
	client ChatCompleter
	model  string
}

// NewWithClient creates a provider around an existing client
func NewWithClient(client ChatCompleter, model string) *Provider {
	return &Provider{
		client: client,
		model:  model,
	}
}

// Generate implements the Generate method of the LanguageModel interface
func (p *Provider) Generate(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: p.convertMessages(req.Messages),
	}

	if req.Temperature != nil {
		chatReq.Temperature = *req.Temperature
		// go-openai omits a zero temperature from the payload
		if chatReq.Temperature == 0 {
			chatReq.Temperature = math.SmallestNonzeroFloat32
		}
	}

	if req.MaxTokens > 0 {
		if isMaxCompletionTokensModel(p.model) {
			chatReq.MaxCompletionTokens = req.MaxTokens
		} else {
			chatReq.MaxTokens = req.MaxTokens
		}
	}

	log.Debug().
		Str("model", chatReq.Model).
		Float32("temperature", chatReq.Temperature).
		Msg("Sending chat completion request")

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, types.ErrEmptyResponse
	}

	choice := resp.Choices[0]

	return &types.GenerateResponse{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Model:        resp.Model,
		Usage: types.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// ID returns the model identifier
func (p *Provider) ID() string {
	return fmt.Sprintf("openai:%s", p.model)
}

// Capabilities returns the model's capabilities
func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		SupportsVision:   isVisionModel(p.model),
		MaxContextTokens: getMaxContextTokens(p.model),
		MaxOutputTokens:  getMaxOutputTokens(p.model),
	}
}

// Helper functions
func (p *Provider) convertMessages(messages []types.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))

	for _, msg := range messages {
		oaiMsg := openai.ChatCompletionMessage{
			Role: string(msg.Role),
		}

		var images []types.Attachment
		for _, att := range msg.Attachments {
			if att.IsImage() {
				images = append(images, att)
			}
		}

		// Content and MultiContent are mutually exclusive in go-openai
		if len(images) == 0 {
			oaiMsg.Content = msg.Content
		} else {
			parts := make([]openai.ChatMessagePart, 0, len(images)+1)
			if msg.Content != "" {
				parts = append(parts, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeText,
					Text: msg.Content,
				})
			}
			for _, img := range images {
				parts = append(parts, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    toDataURL(img),
						Detail: openai.ImageURLDetailAuto,
					},
				})
			}
			oaiMsg.MultiContent = parts
		}

		result = append(result, oaiMsg)
	}

	return result
}

func toDataURL(att types.Attachment) string {
	return fmt.Sprintf("data:%s;base64,%s", att.MIMEType, base64.StdEncoding.EncodeToString(att.Data))
}

// Model capability helpers
var maxCompletionTokensModels = map[string]bool{
	"o1": true, "o1-2024-12-17": true, "o1-mini": true, "o1-mini-2024-09-12": true,
	"o1-preview": true, "o1-preview-2024-09-12": true,
	"o3": true, "o3-mini": true,
	"gpt-5": true, "gpt-5-mini": true, "gpt-5-nano": true,
}

func isMaxCompletionTokensModel(model string) bool {
	return maxCompletionTokensModels[model]
}

func isVisionModel(model string) bool {
	visionModels := map[string]bool{
		"gpt-4-vision-preview": true, "gpt-4-turbo": true,
		"gpt-4o": true, "gpt-4o-mini": true,
		"gpt-4.1": true, "gpt-4.1-mini": true,
		"gpt-5": true, "gpt-5-mini": true, "gpt-5-nano": true,
	}
	return visionModels[model] || strings.HasPrefix(model, "gpt-4o-")
}

func getMaxContextTokens(model string) int {
	contextLimits := map[string]int{
		"gpt-5":         400000,
		"gpt-5-mini":    400000,
		"gpt-5-nano":    400000,
		"gpt-4.1":       1047576,
		"gpt-4.1-mini":  1047576,
		"gpt-4":         8192,
		"gpt-4o":        128000,
		"gpt-4o-mini":   128000,
		"gpt-3.5-turbo": 16385,
	}
	if limit, ok := contextLimits[model]; ok {
		return limit
	}
	return 8192 // default
}

func getMaxOutputTokens(model string) int {
	outputLimits := map[string]int{
		"gpt-5":         128000,
		"gpt-5-mini":    128000,
		"gpt-5-nano":    128000,
		"gpt-4.1":       32768,
		"gpt-4.1-mini":  32768,
		"gpt-4":         4096,
		"gpt-4o":        4096,
		"gpt-4o-mini":   16384,
		"gpt-3.5-turbo": 4096,
	}
	if limit, ok := outputLimits[model]; ok {
		return limit
	}
	return 4096 // default
}
