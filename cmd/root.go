package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	archivecmd "github.com/plantwatch/plantwatch-go/cmd/archive"
	healthcheckcmd "github.com/plantwatch/plantwatch-go/cmd/healthcheck"
	pipelinecmd "github.com/plantwatch/plantwatch-go/cmd/pipeline"
	supportcmd "github.com/plantwatch/plantwatch-go/cmd/support"
	"github.com/plantwatch/plantwatch-go/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "plantwatch",
		Short:         "PlantWatch CLI",
		Long:          "Ingest, health-check, and archive plant sensor readings.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(
		pipelinecmd.Command(settings),
		healthcheckcmd.Command(settings),
		archivecmd.Command(settings),
		supportcmd.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return conf.ValidateSettings(settings)
	}

	return rootCmd
}

// setupFlags configures the global flags for the root command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	cmd.PersistentFlags().StringVar(&settings.Feed.BaseURL, "feed-url", viper.GetString("feed.baseurl"), "Base URL of the plant sensor API")
	cmd.PersistentFlags().IntVar(&settings.Plants.Count, "plants", viper.GetInt("plants.count"), "Size of the expected plant population")

	_ = viper.BindPFlags(cmd.PersistentFlags())
}
