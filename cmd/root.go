package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fsotosa-ops/meridian-bdr/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "meridian",
	Short: "Lead-generation pipeline for B2B prospecting",
	Long: "Harvests prospect profiles from a listing, stores them without duplicates, " +
		"researches each company, scores it against the ideal customer profile and sends a digest.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		// Keyring access fails on headless hosts; env and file values still work.
		if err := cfg.ResolveSecrets(); err != nil {
			zap.L().Warn("keyring unavailable, using configured credentials only", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
