package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fsotosa-ops/meridian-bdr/internal/config"
)

var fullScheduled bool

var fullCmd = &cobra.Command{
	Use:   "full",
	Short: "Run extraction, evaluation and the digest",
	Long: "Runs scrape then research, sends the digest when any lead was evaluated and prints the store status.\n" +
		"With --scheduled the run only happens when the Config tab's auto-run flag is on.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		s, err := openSession(ctx, cfg, config.ModeFull)
		if err != nil {
			return err
		}
		defer s.Close()

		if fullScheduled && !s.runner.Settings(ctx).AutoRun {
			zap.L().Info("auto-run is off, skipping scheduled run")
			return nil
		}

		rep, err := s.runner.Full(ctx)
		if err != nil {
			return err
		}
		formatScrapeReport(os.Stdout, rep.Scrape)
		fmt.Fprintln(os.Stdout)
		formatEvaluateReport(os.Stdout, rep.Evaluate)

		status, err := s.runner.Status(ctx)
		if err != nil {
			zap.L().Warn("status unavailable", zap.Error(err))
			return nil
		}
		fmt.Fprintln(os.Stdout)
		formatStatusReport(os.Stdout, status)
		return nil
	},
}

func init() {
	fullCmd.Flags().BoolVar(&fullScheduled, "scheduled", false, "only run when the Config tab enables auto-run")
	rootCmd.AddCommand(fullCmd)
}
