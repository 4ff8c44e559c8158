package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/fsotosa-ops/meridian-bdr/internal/config"
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Research and score pending leads",
	Long:  "Researches each pending lead's company, scores it against the ICP, routes it by score and sends the digest.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		s, err := openSession(ctx, cfg, config.ModeResearch)
		if err != nil {
			return err
		}
		defer s.Close()

		rep, err := s.runner.Research(ctx)
		if err != nil {
			return err
		}
		formatEvaluateReport(os.Stdout, rep)

		if rep.Evaluated > 0 {
			s.runner.Notify(ctx, rep.Digest)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(researchCmd)
}
