package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/fsotosa-ops/meridian-bdr/internal/config"
	"github.com/fsotosa-ops/meridian-bdr/internal/listing"
)

var importSource string

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Ingest candidates from a YAML file",
	Long: "Extracts and stores candidates listed in a YAML file, with the same deduplication and\n" +
		"per-run cap as scrape. The file holds raw_text and profile_url entries.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		candidates, err := listing.NewFileSource(args[0]).Fetch(ctx, "", 0)
		if err != nil {
			return err
		}

		cfg.Pipeline.Source = importSource
		s, err := openSession(ctx, cfg, config.ModeScrape)
		if err != nil {
			return err
		}
		defer s.Close()

		rep, err := s.runner.Ingest(ctx, candidates, s.runner.Settings(ctx).MaxLeads)
		if err != nil {
			return err
		}
		formatScrapeReport(os.Stdout, rep)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importSource, "source", "import", "source tag written on imported leads")
	rootCmd.AddCommand(importCmd)
}
