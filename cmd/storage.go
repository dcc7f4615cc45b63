package cmd

import (
	"context"
	"fmt"
	"time"

	"mixvault/storage"

	"github.com/spf13/cobra"
)

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Object storage maintenance commands",
}

var storageStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show bucket usage per object prefix",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		store, err := storage.New(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		for _, prefix := range []string{storage.PrefixMixes, storage.PrefixCovers} {
			stats, err := store.Stats(ctx, prefix+"/")
			if err != nil {
				return fmt.Errorf("failed to stat prefix %s: %w", prefix, err)
			}
			fmt.Printf("%-8s %6d objects  %8.1f MB", prefix, stats.TotalObjects,
				float64(stats.TotalSize)/(1<<20))
			if !stats.LastModified.IsZero() {
				fmt.Printf("  last write %s", stats.LastModified.Format(time.RFC3339))
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	storageCmd.AddCommand(storageStatusCmd)
	rootCmd.AddCommand(storageCmd)
}
