// Package healthcheckcmd exposes the anomaly health check as a CLI command.
package healthcheckcmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/plantwatch/plantwatch-go/internal/alerting"
	"github.com/plantwatch/plantwatch-go/internal/anomaly"
	"github.com/plantwatch/plantwatch-go/internal/conf"
	"github.com/plantwatch/plantwatch-go/internal/datastore"
	"github.com/plantwatch/plantwatch-go/internal/logging"
	"github.com/plantwatch/plantwatch-go/internal/observability"
)

// Command creates the healthcheck command: detect outliers and missing
// reporters over the warm history, and deliver the report when anything
// is wrong.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check recent readings for anomalies",
		Long: "Compare each plant's recent readings against its own history, list " +
			"plants that stopped reporting, and send the combined report to the " +
			"configured notification services.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, settings)
		},
	}

	setupFlags(cmd, settings)
	return cmd
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().Float64Var(&settings.HealthCheck.Sigma, "sigma", viper.GetFloat64("healthcheck.sigma"), "Standard deviations from the plant mean before a reading is flagged")
	cmd.Flags().DurationVar(&settings.HealthCheck.Window, "window", viper.GetDuration("healthcheck.window"), "Trailing window inspected for outliers and missing reporters")
	_ = viper.BindPFlags(cmd.Flags())
}

func run(cmd *cobra.Command, settings *conf.Settings) error {
	logger := logging.ForComponent("cmd.healthcheck")

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
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("closing datastore", "error", err)
		}
	}()

	recordings, err := store.GetAllRecordings()
	if err != nil {
		return err
	}

	detector := anomaly.New(settings.HealthCheck, settings.Plants, metrics.Detector)
	result := detector.Check(recordings)

	if result.Empty() {
		logger.Info("all plants healthy", "recordings", len(recordings))
		return nil
	}

	service, err := alerting.NewService(settings.Alert)
	if err != nil {
		return err
	}
	return service.Send(cmd.Context(), result, settings.HealthCheck.Window)
}
