package main

import (
	"github.com/plantwatch/plantwatch-go/cmd"
	"github.com/plantwatch/plantwatch-go/internal/conf"
	"github.com/plantwatch/plantwatch-go/internal/logging"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		logging.Init(false)
		logging.Fatal("loading configuration", "error", err)
	}

	logging.Init(settings.Debug)

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		logging.Fatal("command failed", "error", err)
	}
}
