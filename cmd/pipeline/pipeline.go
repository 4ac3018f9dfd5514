// Package pipelinecmd exposes the ingestion cycle as a CLI command.
package pipelinecmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/plantwatch/plantwatch-go/internal/conf"
	"github.com/plantwatch/plantwatch-go/internal/datastore"
	"github.com/plantwatch/plantwatch-go/internal/logging"
	"github.com/plantwatch/plantwatch-go/internal/observability"
	"github.com/plantwatch/plantwatch-go/internal/pipeline"
)

// Command creates the pipeline command: one fetch → transform → load cycle,
// or a watch loop when an interval is given.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		interval      time.Duration
		metricsListen string
	)

	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run the sensor ingestion cycle",
		Long: "Fetch the latest reading for every expected plant, normalize them, " +
			"and load them into the warm database. Runs once by default; " +
			"--interval keeps it running on a fixed cadence.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, settings, interval, metricsListen)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Run continuously with this period between cycles (0 runs once)")
	cmd.Flags().StringVar(&metricsListen, "metrics-listen", viper.GetString("metrics.listen"), "Listen address for the Prometheus endpoint (watch mode only)")
	_ = viper.BindPFlags(cmd.Flags())

	return cmd
}

func run(cmd *cobra.Command, settings *conf.Settings, interval time.Duration, metricsListen string) error {
	logger := logging.ForComponent("cmd.pipeline")

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}

	store, err := datastore.New(settings)
	if err != nil {
		return err
	}
	if err := store.Open(); err != nil {
		return err
	}
	defer closeStore(store, logger)

	p := pipeline.New(settings, store, metrics)

	if interval <= 0 {
		loaded, err := p.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		logger.Info("pipeline run finished", "loaded", loaded)
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if metricsListen != "" {
		mux := http.NewServeMux()
		metrics.RegisterHandlers(mux)
		go func() {
			logger.Info("serving metrics", "addr", metricsListen)
			if err := http.ListenAndServe(metricsListen, mux); err != nil {
				logger.Error("metrics endpoint failed", "error", err)
			}
		}()
	}

	logger.Info("watching feed", "interval", interval)
	if err := p.Watch(ctx, interval); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func closeStore(store datastore.Interface, logger *slog.Logger) {
	if err := store.Close(); err != nil {
		logger.Error("closing datastore", "error", err)
	}
}
