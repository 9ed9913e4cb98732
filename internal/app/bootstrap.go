package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nsqio/go-nsq"

	"bookillustrator/internal/adapter/gemini"
	"bookillustrator/internal/adapter/imagegen"
	"bookillustrator/internal/adapter/ollama"
	"bookillustrator/internal/config"
	"bookillustrator/internal/prompt"
	"bookillustrator/internal/worker"
)

type Dependencies struct {
	Completer   prompt.Completer
	Images      *imagegen.Client
	NSQProducer *nsq.Producer // nil when publishing is off

	closers []func()
}

// Publisher returns the result publisher, or nil when no nsqd is reachable.
func (d *Dependencies) Publisher() worker.TaskPublisher {
	if d.NSQProducer == nil {
		return nil
	}
	return d.NSQProducer
}

// Close releases clients in reverse construction order.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func Bootstrap(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	deps := &Dependencies{}

	// Completion service
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		c, err := gemini.NewCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("gemini client error: %w", err)
		}
		deps.Completer = c
		deps.closers = append(deps.closers, func() {
			if err := c.Close(); err != nil {
				slog.Warn("failed to close gemini client", "error", err)
			}
		})
	case config.ProviderOllama:
		deps.Completer = ollama.NewClient(cfg.OllamaURL, cfg.LLMModel, cfg.LLMTimeout())
	default:
		return nil, fmt.Errorf("%w: unknown LLM_PROVIDER %q", config.ErrInvalidValue, cfg.LLMProvider)
	}
	slog.Info("completion service configured", "provider", cfg.LLMProvider)

	// Image service
	if cfg.ImageURL == "" && cfg.GenerateImages {
		slog.Warn("IMAGE_GENERATION_URL is not set; image requests will fail")
	}
	deps.Images = imagegen.NewClient(cfg.ImageURL,
		imagegen.WithHeaders(cfg.ImageHeaders),
		imagegen.WithStylePreamble(cfg.StylePreamble),
	)

	// NSQ Producer
	if cfg.NSQDHost != "" {
		producer, err := nsq.NewProducer(cfg.NSQDHost, nsq.NewConfig())
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("nsq producer error: %w", err)
		}
		producer.SetLoggerLevel(nsq.LogLevelWarning)

		retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second
		if err := PingWithRetry(ctx, producer, cfg.BootstrapRetryAttempts, retryDelay); err != nil {
			slog.Warn("nsqd unreachable, result publishing disabled", "host", cfg.NSQDHost, "error", err)
			producer.Stop()
		} else {
			deps.NSQProducer = producer
			deps.closers = append(deps.closers, producer.Stop)
			slog.Info("publishing page results", "host", cfg.NSQDHost, "topic", cfg.ResultTopic)
		}
	}

	return deps, nil
}

type Pinger interface {
	Ping() error
}

// PingWithRetry pings until it succeeds, attempts run out or ctx ends.
func PingWithRetry(ctx context.Context, p Pinger, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = p.Ping(); err == nil {
			return nil
		}
		slog.Warn("failed to ping nsqd, retrying...", "attempt", i+1, "max_attempts", attempts)
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	if err == nil {
		err = fmt.Errorf("no ping attempts configured")
	}
	return err
}
