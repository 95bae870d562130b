package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/flowbaker/sortinghat/pkg/transform"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
)

var (
	providers  = []string{ProviderAnthropic, ProviderOpenAI, ProviderGemini}
	strategies = []string{transform.StrategyGenerate, transform.StrategyEdit, transform.StrategyMultimodal}

	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds all sorting service configuration
type Config struct {
	HTTPAddress string

	// Classification
	ClassifierProvider    string
	ClassifierModel       string
	ClassifierTemperature float32
	ClassifierMaxTokens   int
	ExampleCount          int
	KnowledgeDir          string

	// Transformation
	TransformStrategy string
	ImageModel        string
	ImageSize         int

	// Provider credentials
	AnthropicAPIKey string
	OpenAIAPIKey    string
	GeminiAPIKey    string

	ClassificationTimeout time.Duration
	TransformationTimeout time.Duration

	MaxUploadBytes int
	LogLevel       string
}

var envMappings = map[string]string{
	"HTTPAddress":           "HTTP_ADDRESS",
	"ClassifierProvider":    "CLASSIFIER_PROVIDER",
	"ClassifierModel":       "CLASSIFIER_MODEL",
	"ClassifierTemperature": "CLASSIFIER_TEMPERATURE",
	"ClassifierMaxTokens":   "CLASSIFIER_MAX_TOKENS",
	"ExampleCount":          "EXAMPLE_COUNT",
	"KnowledgeDir":          "KNOWLEDGE_DIR",
	"TransformStrategy":     "TRANSFORM_STRATEGY",
	"ImageModel":            "IMAGE_MODEL",
	"ImageSize":             "IMAGE_SIZE",
	"AnthropicAPIKey":       "ANTHROPIC_API_KEY",
	"OpenAIAPIKey":          "OPENAI_API_KEY",
	"GeminiAPIKey":          "GEMINI_API_KEY",
	"ClassificationTimeout": "CLASSIFICATION_TIMEOUT",
	"TransformationTimeout": "TRANSFORMATION_TIMEOUT",
	"MaxUploadBytes":        "MAX_UPLOAD_BYTES",
	"LogLevel":              "LOG_LEVEL",
}

// LoadConfig loads configuration from sortinghat.yaml (if present) and environment variables
func LoadConfig() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	// Configure environment variables before reading config
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for configKey, envVar := range envMappings {
		if err := v.BindEnv(configKey, envVar); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", envVar, configKey)
		}
	}

	v.SetConfigName("sortinghat")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.sortinghat")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Info().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.ClassifierProvider = strings.ToLower(strings.TrimSpace(config.ClassifierProvider))
	config.TransformStrategy = strings.ToLower(strings.TrimSpace(config.TransformStrategy))

	if err := config.Validate(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("provider", config.ClassifierProvider).
		Str("model", config.ClassifierModel).
		Str("strategy", config.TransformStrategy).
		Msg("Config loaded")

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTPAddress", ":3000")

	v.SetDefault("ClassifierProvider", ProviderAnthropic)
	v.SetDefault("ClassifierModel", "claude-sonnet-4-5-20250929")
	v.SetDefault("ClassifierTemperature", 0.8)
	v.SetDefault("ClassifierMaxTokens", 2000)
	v.SetDefault("ExampleCount", 3)

	v.SetDefault("TransformStrategy", transform.StrategyGenerate)
	v.SetDefault("ImageSize", transform.DefaultImageSize)

	v.SetDefault("ClassificationTimeout", 60*time.Second)
	v.SetDefault("TransformationTimeout", 120*time.Second)

	v.SetDefault("MaxUploadBytes", 10*1024*1024)
	v.SetDefault("LogLevel", "info")
}

// Validate checks option values and that the selected providers have credentials.
func (c *Config) Validate() error {
	var problems []string

	if !slices.Contains(providers, c.ClassifierProvider) {
		problems = append(problems, fmt.Sprintf("CLASSIFIER_PROVIDER must be one of %s, got %q", strings.Join(providers, ", "), c.ClassifierProvider))
	}
	if !slices.Contains(strategies, c.TransformStrategy) {
		problems = append(problems, fmt.Sprintf("TRANSFORM_STRATEGY must be one of %s, got %q", strings.Join(strategies, ", "), c.TransformStrategy))
	}
	if c.ExampleCount < 0 {
		problems = append(problems, "EXAMPLE_COUNT must not be negative")
	}
	if c.ImageSize <= 0 {
		problems = append(problems, "IMAGE_SIZE must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		problems = append(problems, "MAX_UPLOAD_BYTES must be positive")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, fmt.Sprintf("LOG_LEVEL %q is not a valid level", c.LogLevel))
	}

	var missingVars []string
	for _, envVar := range c.requiredKeys() {
		if c.apiKey(envVar) == "" && !slices.Contains(missingVars, envVar) {
			missingVars = append(missingVars, envVar)
		}
	}
	if len(missingVars) > 0 {
		problems = append(problems, "missing required environment variables: "+strings.Join(missingVars, ", "))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}

	return nil
}

// requiredKeys lists the credential variables the selected provider and strategy need.
func (c *Config) requiredKeys() []string {
	var keys []string

	switch c.ClassifierProvider {
	case ProviderAnthropic:
		keys = append(keys, "ANTHROPIC_API_KEY")
	case ProviderOpenAI:
		keys = append(keys, "OPENAI_API_KEY")
	case ProviderGemini:
		keys = append(keys, "GEMINI_API_KEY")
	}

	switch c.TransformStrategy {
	case transform.StrategyGenerate, transform.StrategyEdit:
		keys = append(keys, "OPENAI_API_KEY")
	case transform.StrategyMultimodal:
		keys = append(keys, "GEMINI_API_KEY")
	}

	return keys
}

func (c *Config) apiKey(envVar string) string {
	switch envVar {
	case "ANTHROPIC_API_KEY":
		return c.AnthropicAPIKey
	case "OPENAI_API_KEY":
		return c.OpenAIAPIKey
	case "GEMINI_API_KEY":
		return c.GeminiAPIKey
	default:
		return ""
	}
}

// Level returns the configured log level, falling back to info.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
