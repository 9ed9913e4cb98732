package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bookillustrator/internal/app"
	"bookillustrator/internal/config"
	"bookillustrator/internal/logger"
	"bookillustrator/internal/middleware"
)

func main() {
	// LOG_LEVEL is read before config so config errors are logged consistently.
	slog.SetDefault(logger.New(os.Stdout, os.Getenv("LOG_LEVEL")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.ErrorContext(ctx, "illustration run failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(logger.New(os.Stdout, cfg.LogLevel))
	ctx = middleware.WithCorrelationID(ctx, middleware.NewCorrelationID())

	// 2. Collaborators
	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	// 3. Pipeline
	a := app.New(cfg, deps.Completer, deps.Images, deps.Publisher(), app.Outputs{Progress: os.Stderr, Live: os.Stderr})
	slog.InfoContext(ctx, "starting illustration run",
		"input", cfg.InputPath,
		"output", cfg.OutputPath,
		"paragraphs_per_page", cfg.ParagraphsPerPage,
		"chunk_size", cfg.ChunkSize,
		"num_chunks", cfg.NumChunks,
		"generate_images", cfg.GenerateImages,
	)
	return a.Run(ctx)
}
