package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fsotosa-ops/meridian-bdr/internal/config"
	"github.com/fsotosa-ops/meridian-bdr/internal/notify"
)

var notifyTestCmd = &cobra.Command{
	Use:   "notify-test",
	Short: "Send a sample digest through the configured channels",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate(config.ModeNotify); err != nil {
			return err
		}
		n, err := newNotifier(cfg)
		if err != nil {
			return err
		}
		if err := n.Notify(cmd.Context(), notify.Sample(time.Now(), sheetURL(cfg))); err != nil {
			return err
		}
		cmd.Println("Sample digest sent.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notifyTestCmd)
}
