package initialization

import (
	"context"
	"testing"
	"time"

	"github.com/flowbaker/sortinghat/internal/config"
	"github.com/flowbaker/sortinghat/pkg/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		HTTPAddress:           ":0",
		ClassifierProvider:    config.ProviderAnthropic,
		ClassifierModel:       "claude-sonnet-4-5-20250929",
		ClassifierTemperature: 0.8,
		ClassifierMaxTokens:   2000,
		ExampleCount:          3,
		TransformStrategy:     transform.StrategyGenerate,
		ImageSize:             1024,
		AnthropicAPIKey:       "sk-ant-test",
		OpenAIAPIKey:          "sk-openai-test",
		ClassificationTimeout: time.Minute,
		TransformationTimeout: time.Minute,
		MaxUploadBytes:        1 << 20,
		LogLevel:              "info",
	}
}

func TestNewContainer(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{name: "anthropic with generate", mutate: func(c *config.Config) {}},
		{name: "openai with edit", mutate: func(c *config.Config) {
			c.ClassifierProvider = config.ProviderOpenAI
			c.ClassifierModel = "gpt-4o"
			c.TransformStrategy = transform.StrategyEdit
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			container, err := NewContainer(context.Background(), cfg)
			require.NoError(t, err)

			assert.NotNil(t, container.GetOrchestrator())
			assert.NotNil(t, container.GetSortingController())
			assert.Same(t, cfg, container.GetConfig())
		})
	}
}

func TestNewContainerErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{name: "missing knowledge dir", mutate: func(c *config.Config) { c.KnowledgeDir = t.TempDir() }},
		{name: "openai classifier without key", mutate: func(c *config.Config) {
			c.ClassifierProvider = config.ProviderOpenAI
			c.OpenAIAPIKey = ""
		}},
		{name: "generate without openai key", mutate: func(c *config.Config) { c.OpenAIAPIKey = "" }},
		{name: "unknown strategy", mutate: func(c *config.Config) { c.TransformStrategy = "sketch" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			_, err := NewContainer(context.Background(), cfg)
			assert.Error(t, err)
		})
	}
}
