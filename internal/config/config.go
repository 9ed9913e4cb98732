package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var (
	ErrMissingRequired = errors.New("missing required configuration")
	ErrInvalidValue    = errors.New("invalid configuration value")
)

const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

type Config struct {
	InputPath  string `envconfig:"INPUT_PATH"`
	OutputPath string `envconfig:"OUTPUT_PATH"`

	ParagraphsPerPage int  `envconfig:"PARAGRAPHS_PER_PAGE" default:"3"`
	ChunkSize         int  `envconfig:"CHUNK_SIZE" default:"50"`
	NumChunks         int  `envconfig:"NUM_CHUNKS" default:"1"`
	GenerateImages    bool `envconfig:"GENERATE_IMAGES" default:"true"`
	ShowProgress      bool `envconfig:"SHOW_PROGRESS" default:"false"`
	Workers           int  `envconfig:"WORKERS" default:"1"`

	// Completion service
	LLMProvider       string  `envconfig:"LLM_PROVIDER" default:"ollama"`
	OllamaURL         string  `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	LLMModel          string  `envconfig:"LLM_MODEL" default:"mistral-nemo"`
	GeminiAPIKey      string  `envconfig:"GEMINI_API_KEY"`
	GeminiModel       string  `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	LLMRateLimit      float64 `envconfig:"LLM_RATE_LIMIT" default:"0"` // requests per second, 0 = unlimited
	LLMTimeoutSeconds int     `envconfig:"LLM_TIMEOUT_SECONDS" default:"0"`

	// Image generation. An empty URL is allowed; every image request then fails.
	// Headers use envconfig's "Key:Value,Key:Value" map form, so values cannot
	// contain commas.
	ImageURL      string            `envconfig:"IMAGE_GENERATION_URL"`
	ImageHeaders  map[string]string `envconfig:"IMAGE_GENERATION_HEADERS" default:"Content-Type:application/json"`
	StylePreamble string            `envconfig:"STYLE_PREAMBLE"`

	// Result stream
	NSQDHost    string `envconfig:"NSQD_HOST"`
	ResultTopic string `envconfig:"RESULT_TOPIC" default:"page.result"`

	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"3"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"1"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	// A missing .env is fine; the shell may provide everything.
	_ = godotenv.Load(".env")

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("%w: INPUT_PATH", ErrMissingRequired)
	}
	if c.OutputPath == "" {
		return fmt.Errorf("%w: OUTPUT_PATH", ErrMissingRequired)
	}
	if c.ParagraphsPerPage <= 0 {
		return fmt.Errorf("%w: PARAGRAPHS_PER_PAGE must be positive", ErrInvalidValue)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: CHUNK_SIZE must be positive", ErrInvalidValue)
	}
	if c.NumChunks < 0 {
		return fmt.Errorf("%w: NUM_CHUNKS must not be negative", ErrInvalidValue)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: WORKERS must be at least 1", ErrInvalidValue)
	}
	if c.LLMRateLimit < 0 {
		return fmt.Errorf("%w: LLM_RATE_LIMIT must not be negative", ErrInvalidValue)
	}
	if c.NSQDHost != "" {
		if c.BootstrapRetryAttempts < 1 {
			return fmt.Errorf("%w: BOOTSTRAP_RETRY_ATTEMPTS must be at least 1", ErrInvalidValue)
		}
		if c.BootstrapRetryDelaySeconds < 0 {
			return fmt.Errorf("%w: BOOTSTRAP_RETRY_DELAY_SECONDS must not be negative", ErrInvalidValue)
		}
	}
	switch c.LLMProvider {
	case ProviderOllama:
		if c.OllamaURL == "" {
			return fmt.Errorf("%w: OLLAMA_URL", ErrMissingRequired)
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingRequired)
		}
	default:
		return fmt.Errorf("%w: unknown LLM_PROVIDER %q", ErrInvalidValue, c.LLMProvider)
	}
	return nil
}

func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}
