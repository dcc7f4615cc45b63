package cmd

import (
	"fmt"
	"os"

	"mixvault/config"
	"mixvault/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mixvault",
	Short: "MixVault is a self-hosted DJ mix sharing service.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

// loadConfig loads the environment configuration and initializes logging.
func loadConfig() *config.Config {
	cfg := config.Load()
	logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogOutputPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})
	return cfg
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
