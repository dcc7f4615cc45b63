package cmd

import (
	"mixvault/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MixVault HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg := loadConfig()
	return server.Start(cfg)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
