package cmd

import (
	"context"
	"fmt"
	"time"

	"mixvault/cache"
	"mixvault/db"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Cache maintenance commands",
}

var cachePingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check Redis connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if err := db.ConnectRedis(cfg); err != nil {
			return err
		}
		defer db.CloseRedis()
		fmt.Println("redis: ok")
		return nil
	},
}

var cacheFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Drop all cached feed pages and mix entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if err := db.ConnectRedis(cfg); err != nil {
			return err
		}
		defer db.CloseRedis()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		client := cache.NewClient(db.RedisClient)
		for _, pattern := range []string{cache.MixListPattern, "mix:*", "stream:*", "waveform:*"} {
			client.DeletePattern(ctx, pattern)
		}
		client.Delete(ctx, cache.SettingsPublicKey)
		fmt.Println("cache flushed")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePingCmd)
	cacheCmd.AddCommand(cacheFlushCmd)
	rootCmd.AddCommand(cacheCmd)
}
