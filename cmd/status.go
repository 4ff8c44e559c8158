package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/fsotosa-ops/meridian-bdr/internal/config"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show lead counts per status and the top leads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		s, err := openSession(ctx, cfg, config.ModeStatus)
		if err != nil {
			return err
		}
		defer s.Close()

		rep, err := s.runner.Status(ctx)
		if err != nil {
			return err
		}
		if statusJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}
		formatStatusReport(os.Stdout, rep)
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(statusCmd)
}
