package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/fsotosa-ops/meridian-bdr/internal/config"
	"github.com/fsotosa-ops/meridian-bdr/internal/pipeline"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Harvest new leads from the listing",
	Long:  "Reads the listing pages, extracts each profile and appends leads not already in the store as pending.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		s, err := openSession(ctx, cfg, config.ModeScrape)
		if err != nil {
			return err
		}
		defer s.Close()

		rep, err := s.runner.Scrape(ctx)
		if err != nil {
			if errors.Is(err, pipeline.ErrNoListingURL) {
				cmd.PrintErrln("Set the listing URL in the Config tab (B4) or listing.url.")
			}
			return err
		}
		formatScrapeReport(os.Stdout, rep)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
}
