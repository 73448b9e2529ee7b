package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/petasbytes/stock-analyzer/internal/app"
	"github.com/petasbytes/stock-analyzer/internal/config"
	"github.com/petasbytes/stock-analyzer/internal/logging"
	"github.com/petasbytes/stock-analyzer/internal/metrics"
	"github.com/petasbytes/stock-analyzer/internal/provider"
	"github.com/petasbytes/stock-analyzer/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	// Ctrl-C (SIGINT) / SIGTERM cancel the run wait.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = telemetry.WithSessionID(ctx, telemetry.NewSessionID())

	client := provider.NewOpenAIClient(cfg.APIKey, cfg.BaseURL)
	res, err := app.New(cfg, client, os.Stdout, logger).Run(ctx)

	if cfg.MetricsTextfile != "" {
		if werr := metrics.WriteTextfile(cfg.MetricsTextfile); werr != nil {
			logger.Warn().Err(werr).Str("path", cfg.MetricsTextfile).Msg("failed to write metrics")
		}
	}
	if err != nil {
		stop()
		logger.Fatal().Err(err).Msg("stock analyzer run failed")
	}
	logger.Info().
		Str("assistant_id", res.AssistantID).
		Str("thread_id", res.ThreadID).
		Str("run_id", res.RunID).
		Str("status", string(res.RunStatus)).
		Msg("done")
}
