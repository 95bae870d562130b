package initialization

import (
	"context"
	"fmt"

	"github.com/flowbaker/sortinghat/internal/config"
	"github.com/flowbaker/sortinghat/internal/controllers"
	"github.com/flowbaker/sortinghat/pkg/ai-sdk/provider"
	"github.com/flowbaker/sortinghat/pkg/ai-sdk/provider/anthropic"
	"github.com/flowbaker/sortinghat/pkg/ai-sdk/provider/gemini"
	aiopenai "github.com/flowbaker/sortinghat/pkg/ai-sdk/provider/openai"
	"github.com/flowbaker/sortinghat/pkg/domain"
	"github.com/flowbaker/sortinghat/pkg/knowledge"
	"github.com/flowbaker/sortinghat/pkg/sorting"
	"github.com/flowbaker/sortinghat/pkg/transform"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// Container owns the long-lived components of a running sorting service
type Container struct {
	config       *config.Config
	orchestrator *sorting.Orchestrator
	controller   *controllers.SortingController
}

// NewContainer wires providers, the transformation strategy and the orchestrator
// from configuration. Any error is a startup error.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	log.Info().
		Str("provider", cfg.ClassifierProvider).
		Str("model", cfg.ClassifierModel).
		Str("strategy", cfg.TransformStrategy).
		Msg("Building sorting dependencies")

	kb, err := knowledge.Load(cfg.KnowledgeDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load knowledge base: %w", err)
	}

	clients, err := newProviderClients(ctx, cfg)
	if err != nil {
		return nil, err
	}

	model, err := newClassifierModel(cfg, clients)
	if err != nil {
		return nil, err
	}

	strategy, err := newStrategy(cfg, clients)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s transformation strategy: %w", cfg.TransformStrategy, err)
	}

	random := domain.NewRandomSource()

	promptBuilder, err := sorting.NewPromptBuilder(kb, random)
	if err != nil {
		return nil, err
	}

	orchestrator := sorting.NewOrchestrator(sorting.OrchestratorDependencies{
		PromptBuilder: promptBuilder,
		Client: sorting.NewModelClient(model, sorting.ModelClientConfig{
			Temperature: cfg.ClassifierTemperature,
			MaxTokens:   cfg.ClassifierMaxTokens,
		}),
		Strategy:              strategy,
		Random:                random,
		ExampleCount:          cfg.ExampleCount,
		ClassificationTimeout: cfg.ClassificationTimeout,
		TransformationTimeout: cfg.TransformationTimeout,
	})

	controller := controllers.NewSortingController(controllers.SortingControllerDependencies{
		Service:        orchestrator,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	log.Info().
		Int("examples", kb.ExampleCount()).
		Str("image_model", modelOrDefault(cfg)).
		Msg("Sorting dependencies built successfully")

	return &Container{
		config:       cfg,
		orchestrator: orchestrator,
		controller:   controller,
	}, nil
}

func (c *Container) GetConfig() *config.Config {
	return c.config
}

func (c *Container) GetOrchestrator() *sorting.Orchestrator {
	return c.orchestrator
}

func (c *Container) GetSortingController() *controllers.SortingController {
	return c.controller
}

// providerClients holds the SDK clients shared between classification and transformation
type providerClients struct {
	openai *openai.Client
	genai  *genai.Client
}

func newProviderClients(ctx context.Context, cfg *config.Config) (providerClients, error) {
	var clients providerClients

	if cfg.OpenAIAPIKey != "" {
		clients.openai = openai.NewClient(cfg.OpenAIAPIKey)
	}

	needsGemini := cfg.ClassifierProvider == config.ProviderGemini || cfg.TransformStrategy == transform.StrategyMultimodal
	if needsGemini && cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return providerClients{}, err
		}
		clients.genai = client
	}

	return clients, nil
}

func newClassifierModel(cfg *config.Config, clients providerClients) (provider.LanguageModel, error) {
	switch cfg.ClassifierProvider {
	case config.ProviderAnthropic:
		return anthropic.NewWithConfig(anthropic.Config{
			APIKey:    cfg.AnthropicAPIKey,
			Model:     cfg.ClassifierModel,
			MaxTokens: cfg.ClassifierMaxTokens,
		}), nil
	case config.ProviderOpenAI:
		if clients.openai == nil {
			return nil, fmt.Errorf("%s classifier: %w", cfg.ClassifierProvider, transform.ErrClientNotSet)
		}
		return aiopenai.NewWithClient(clients.openai, cfg.ClassifierModel), nil
	case config.ProviderGemini:
		if clients.genai == nil {
			return nil, fmt.Errorf("%s classifier: %w", cfg.ClassifierProvider, transform.ErrClientNotSet)
		}
		return gemini.NewWithGenerator(clients.genai.Models, cfg.ClassifierModel), nil
	default:
		return nil, fmt.Errorf("%w: unknown classifier provider %q", config.ErrInvalidConfig, cfg.ClassifierProvider)
	}
}

func newStrategy(cfg *config.Config, clients providerClients) (transform.Strategy, error) {
	opts := transform.Options{
		Name:  cfg.TransformStrategy,
		Model: cfg.ImageModel,
		Size:  cfg.ImageSize,
	}

	// Leave interface fields nil rather than holding a typed nil pointer
	if clients.openai != nil {
		opts.Generator = clients.openai
		opts.Editor = clients.openai
	}
	if clients.genai != nil {
		opts.Content = clients.genai.Models
	}

	return transform.New(opts)
}

func modelOrDefault(cfg *config.Config) string {
	if cfg.ImageModel != "" {
		return cfg.ImageModel
	}
	return transform.DefaultModel(cfg.TransformStrategy)
}
