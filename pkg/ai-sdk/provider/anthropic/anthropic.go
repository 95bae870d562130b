package anthropic

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/flowbaker/sortinghat/pkg/ai-sdk/provider"
	"github.com/flowbaker/sortinghat/pkg/ai-sdk/types"
)

// Provider implements the LanguageModel interface for Anthropic Claude
type Provider struct {
	client anthropic.Client
	model  string
	config Config
}

// Config holds Anthropic-specific configuration
type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
}

// NewWithConfig creates a new Anthropic provider with custom configuration
func NewWithConfig(config Config) *Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		// retries are the caller's policy, calls here fail fast
		option.WithMaxRetries(0),
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	client := anthropic.NewClient(opts...)

	return &Provider{
		client: client,
		model:  config.Model,
		config: config,
	}
}

// ID returns the model identifier
func (p *Provider) ID() string {
	return fmt.Sprintf("anthropic:%s", p.model)
}

// Capabilities returns the model's capabilities
func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		SupportsVision:   true,   // All Claude 3+ models support vision
		MaxContextTokens: 200000, // All Claude models have 200k context
		MaxOutputTokens:  getMaxOutputTokens(p.model),
	}
}

// Generate implements the Generate method of the LanguageModel interface
func (p *Provider) Generate(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
	msgReq, err := p.messageParams(req)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Messages.New(ctx, msgReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	response := &types.GenerateResponse{
		Model:        string(resp.Model),
		FinishReason: string(resp.StopReason),
		Usage: types.Usage{
			PromptTokens:      int(resp.Usage.InputTokens),
			CompletionTokens:  int(resp.Usage.OutputTokens),
			TotalTokens:       int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
			CachedInputTokens: int(resp.Usage.CacheReadInputTokens),
		},
	}

	var textContent strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			textContent.WriteString(block.Text)
		}
	}

	response.Content = textContent.String()

	return response, nil
}

func (p *Provider) messageParams(req provider.GenerateRequest) (anthropic.MessageNewParams, error) {
	messages, systemPrompt := p.convertMessages(req.Messages)
	if len(messages) == 0 {
		return anthropic.MessageNewParams{}, types.ErrInvalidMessage
	}

	msgReq := anthropic.MessageNewParams{
		Model:    anthropic.Model(p.model),
		Messages: messages,
	}

	if len(systemPrompt) > 0 {
		msgReq.System = systemPrompt
	}

	if req.MaxTokens > 0 {
		msgReq.MaxTokens = int64(req.MaxTokens)
	} else if p.config.MaxTokens > 0 {
		msgReq.MaxTokens = int64(p.config.MaxTokens)
	} else {
		// Anthropic requires max_tokens, set a reasonable default
		msgReq.MaxTokens = int64(4096)
	}

	if req.Temperature != nil {
		msgReq.Temperature = anthropic.Float(float64(*req.Temperature))
	}

	return msgReq, nil
}

// convertMessages converts SDK messages to Anthropic format and extracts system messages.
// Image attachments are placed before the text of their message, as Anthropic recommends.
func (p *Provider) convertMessages(messages []types.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	result := make([]anthropic.MessageParam, 0, len(messages))

	var systemTexts []string

	for _, msg := range messages {
		if msg.Role == types.RoleSystem {
			systemTexts = append(systemTexts, msg.Content)
			continue
		}

		var contentBlocks []anthropic.ContentBlockParamUnion

		for _, att := range msg.Attachments {
			if !att.IsImage() {
				continue
			}
			contentBlocks = append(contentBlocks, anthropic.NewImageBlockBase64(
				att.MIMEType,
				base64.StdEncoding.EncodeToString(att.Data),
			))
		}

		if msg.Content != "" {
			contentBlocks = append(contentBlocks, anthropic.NewTextBlock(msg.Content))
		}

		if len(contentBlocks) == 0 {
			continue
		}

		result = append(result, anthropic.MessageParam{
			Role:    anthropic.MessageParamRole(msg.Role),
			Content: contentBlocks,
		})
	}

	var system []anthropic.TextBlockParam
	if len(systemTexts) > 0 {
		system = []anthropic.TextBlockParam{{
			Text: strings.Join(systemTexts, "\n\n"),
			Type: "text",
		}}
	}

	return result, system
}

// getMaxOutputTokens returns the maximum output tokens for a model
func getMaxOutputTokens(model string) int {
	// Claude 3.5 Sonnet and newer models support 8192 output tokens
	if strings.Contains(model, "claude-3-5") ||
		strings.Contains(model, "claude-4") ||
		strings.Contains(model, "sonnet-4") ||
		strings.Contains(model, "opus-4") {
		return 8192
	}
	// Older Claude 3 models support 4096 output tokens
	return 4096
}
