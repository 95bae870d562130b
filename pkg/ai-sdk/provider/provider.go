package provider

import (
	"context"

	"github.com/flowbaker/sortinghat/pkg/ai-sdk/types"
)

// LanguageModel defines the interface that all LLM providers must implement
type LanguageModel interface {
	// Generate produces a complete response (blocking)
	Generate(ctx context.Context, req GenerateRequest) (*types.GenerateResponse, error)

	// ID returns the unique identifier for this model
	ID() string

	// Capabilities returns the capabilities of this model
	Capabilities() Capabilities
}

// GenerateRequest contains all parameters for generating text
type GenerateRequest struct {
	// Messages is the conversation history
	Messages []types.Message `json:"messages"`

	// Temperature controls randomness (0.0 to 2.0). Nil leaves the provider default,
	// zero is sent as an explicit zero.
	Temperature *float32 `json:"temperature,omitempty"`

	// MaxTokens is the maximum number of tokens to generate
	MaxTokens int `json:"max_tokens,omitempty"`
}

// Capabilities describes what a model can do
type Capabilities struct {
	// SupportsVision indicates if the model supports image inputs
	SupportsVision bool `json:"supports_vision"`

	// MaxContextTokens is the maximum context window size
	MaxContextTokens int `json:"max_context_tokens"`

	// MaxOutputTokens is the maximum output tokens
	MaxOutputTokens int `json:"max_output_tokens"`
}
