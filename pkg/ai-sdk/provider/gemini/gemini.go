package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/flowbaker/sortinghat/pkg/ai-sdk/provider"
	"github.com/flowbaker/sortinghat/pkg/ai-sdk/types"
	"google.golang.org/genai"
)

// ContentGenerator is the part of genai.Models used by the provider
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Provider implements the LanguageModel interface for Google Gemini
type Provider struct {
	models ContentGenerator
	model  string
}

// defaultMaxOutputTokens applies when the request carries no limit
const defaultMaxOutputTokens = 4096

// NewClient creates a Gemini API client. It is shared with the image editing strategy.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return client, nil
}

func NewWithGenerator(models ContentGenerator, model string) *Provider {
	return &Provider{
		models: models,
		model:  model,
	}
}

// Generate implements the Generate method of the LanguageModel interface
func (p *Provider) Generate(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: defaultMaxOutputTokens,
	}

	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	if req.Temperature != nil {
		config.Temperature = genai.Ptr(*req.Temperature)
	}

	contents, system := p.convertMessages(req.Messages)

	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(system)},
		}
	}

	resp, err := p.models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini api error: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates: %w", types.ErrEmptyResponse)
	}

	candidate := resp.Candidates[0]

	response := &types.GenerateResponse{
		FinishReason: mapFinishReason(candidate.FinishReason),
		Model:        p.model,
	}

	if resp.UsageMetadata != nil {
		response.Usage = types.Usage{
			PromptTokens:      int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens:  int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:       int(resp.UsageMetadata.TotalTokenCount),
			CachedInputTokens: int(resp.UsageMetadata.CachedContentTokenCount),
		}
	}

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" && !part.Thought {
				response.Content += part.Text
			}
		}
	}

	return response, nil
}

// ID returns the model identifier
func (p *Provider) ID() string {
	return fmt.Sprintf("gemini:%s", p.model)
}

// Capabilities returns the model's capabilities
func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		SupportsVision:   true,
		MaxContextTokens: 1048576,
		MaxOutputTokens:  65536,
	}
}

// convertMessages converts SDK messages to Gemini contents. System messages are
// joined into the returned instruction since Gemini takes them separately.
func (p *Provider) convertMessages(messages []types.Message) ([]*genai.Content, string) {
	contents := make([]*genai.Content, 0, len(messages))

	var systemTexts []string
	for _, msg := range messages {
		if msg.Role == types.RoleSystem {
			systemTexts = append(systemTexts, msg.Content)
			continue
		}

		var parts []*genai.Part
		for _, att := range msg.Attachments {
			if att.IsImage() {
				parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: att.MIMEType, Data: att.Data}})
			}
		}
		if msg.Content != "" {
			parts = append(parts, genai.NewPartFromText(msg.Content))
		}
		if len(parts) == 0 {
			continue
		}

		role := genai.Role(genai.RoleUser)
		if msg.Role == types.RoleAssistant {
			role = genai.RoleModel
		}

		contents = append(contents, genai.NewContentFromParts(parts, role))
	}

	return contents, strings.Join(systemTexts, "\n\n")
}

func mapFinishReason(reason genai.FinishReason) string {
	switch reason {
	case genai.FinishReasonStop:
		return types.FinishReasonStop
	case genai.FinishReasonMaxTokens:
		return types.FinishReasonLength
	case genai.FinishReasonSafety, genai.FinishReasonRecitation, genai.FinishReasonProhibitedContent:
		return types.FinishReasonContentFilter
	case "":
		return ""
	default:
		return types.FinishReasonError
	}
}
