package app

import (
	"context"
	"io"
	"log/slog"

	"bookillustrator/internal/config"
	"bookillustrator/internal/pipeline"
	"bookillustrator/internal/prompt"
	"bookillustrator/internal/worker"
)

type App struct {
	Processor *pipeline.Processor
}

// Outputs are the writers used for the optional progress display.
type Outputs struct {
	Progress io.Writer
	Live     io.Writer
}

func New(
	cfg *config.Config,
	completer prompt.Completer,
	images pipeline.ImageGenerator,
	taskPub worker.TaskPublisher,
	out Outputs,
) *App {
	chain := prompt.NewChain(completer, prompt.WithRateLimit(cfg.LLMRateLimit))

	var reporters []pipeline.Reporter
	if cfg.ShowProgress {
		reporters = append(reporters, pipeline.NewTracker(out.Progress, out.Live))
	}
	if taskPub != nil {
		reporters = append(reporters, worker.NewResultPublisher(taskPub, cfg.ResultTopic))
	}

	processor := pipeline.NewProcessor(pipeline.Options{
		InputPath:         cfg.InputPath,
		OutputPath:        cfg.OutputPath,
		ParagraphsPerPage: cfg.ParagraphsPerPage,
		ChunkSize:         cfg.ChunkSize,
		NumChunks:         cfg.NumChunks,
		GenerateImages:    cfg.GenerateImages,
		Workers:           cfg.Workers,
	}, chain, images, reporters...)

	return &App{Processor: processor}
}

func (a *App) Run(ctx context.Context) error {
	results, err := a.Processor.Run(ctx)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "illustration run finished", "pages", len(results))
	return nil
}
