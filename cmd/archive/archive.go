// Package archivecmd exposes the warm-to-cold offload as a CLI command.
package archivecmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/plantwatch/plantwatch-go/internal/archive"
	"github.com/plantwatch/plantwatch-go/internal/coldstore"
	"github.com/plantwatch/plantwatch-go/internal/conf"
	"github.com/plantwatch/plantwatch-go/internal/datastore"
	"github.com/plantwatch/plantwatch-go/internal/logging"
	"github.com/plantwatch/plantwatch-go/internal/observability"
)

// Command creates the archive command: summarize the warm history, upload
// it to cold storage, and reset the fact table.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Offload the warm history to cold storage",
		Long: "Serialize the per-plant summary and anomaly extract as CSV, upload " +
			"both to the configured bucket, and truncate the fact table once the " +
			"upload is confirmed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, settings)
		},
	}

	cmd.Flags().StringVar(&settings.ColdStore.Bucket, "bucket", viper.GetString("coldstore.bucket"), "Destination bucket for archived extracts")
	_ = viper.BindPFlags(cmd.Flags())

	return cmd
}

func run(cmd *cobra.Command, settings *conf.Settings) error {
	logger := logging.ForComponent("cmd.archive")

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

	blobs, err := coldstore.NewS3(cmd.Context(), settings.ColdStore)
	if err != nil {
		return err
	}

	archiver := archive.New(store, blobs, settings.HealthCheck, metrics.Detector)
	rows, err := archiver.Run(cmd.Context())
	if err != nil {
		return err
	}

	logger.Info("archive run finished", "rows", rows)
	return nil
}
