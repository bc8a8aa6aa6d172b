// Package bootstrap provides dependency initialization for the scanner.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/davekimi14/wav-silence-cleaner/internal/action"
	"github.com/davekimi14/wav-silence-cleaner/internal/config"
	"github.com/davekimi14/wav-silence-cleaner/internal/scan"
	"github.com/davekimi14/wav-silence-cleaner/internal/storage"
)

// Dependencies holds all initialized dependencies for one scan run.
type Dependencies struct {
	Pipeline   *scan.Pipeline
	ReportSink storage.Sink
}

// NewDependencies creates and wires all dependencies from the validated
// configuration. The report sink is constructed first so an unwritable
// destination aborts the run before any file is touched.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	sink, err := initSink(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	executor := action.NewExecutor(logger)
	pipeline := scan.NewPipeline(cfg, executor, logger)

	return &Dependencies{
		Pipeline:   pipeline,
		ReportSink: sink,
	}, nil
}

// initSink creates the report sink for the configured destination.
func initSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Sink, error) {
	sink, err := storage.NewSink(ctx, cfg.ReportDestination, storage.S3Settings{
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create report sink: %w", err)
	}

	if strings.HasPrefix(cfg.ReportDestination, "s3://") {
		logger.Info("S3 report destination configured",
			slog.String("destination", cfg.ReportDestination),
			slog.String("region", cfg.S3Region),
		)
	} else {
		logger.Info("local report destination configured",
			slog.String("destination", cfg.ReportDestination),
		)
	}

	return sink, nil
}
