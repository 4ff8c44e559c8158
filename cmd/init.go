package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/fsotosa-ops/meridian-bdr/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the Leads header and Config labels into the store",
	Long:  "Bootstraps an empty store. Existing headers and labels are left untouched.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		s, err := openSession(ctx, cfg, config.ModeInit)
		if err != nil {
			return err
		}
		defer s.Close()

		created, err := s.repo.EnsureLayout(ctx)
		if err != nil {
			return eris.Wrap(err, "init store")
		}
		if created {
			cmd.Println("Store initialised.")
		} else {
			cmd.Println("Store already initialised.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
