package main

import (
	"bufio"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/fsotosa-ops/meridian-bdr/internal/secrets"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage credentials stored in the OS keyring",
	Long: "Credentials left empty in config.yaml and the environment are read from the OS keyring.\n" +
		"Known names: " + strings.Join(secrets.Names(), ", "),
}

var secretsSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Store a credential read from stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !secrets.Known(name) {
			return eris.Errorf("unknown credential %q", name)
		}
		value, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && value == "" {
			return eris.Wrap(err, "read credential from stdin")
		}
		if err := secrets.Set(name, strings.TrimSpace(value)); err != nil {
			return err
		}
		cmd.Printf("Stored %s.\n", name)
		return nil
	},
}

var secretsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove a stored credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := secrets.Delete(args[0]); err != nil {
			return err
		}
		cmd.Printf("Deleted %s.\n", args[0])
		return nil
	},
}

func init() {
	secretsCmd.AddCommand(secretsSetCmd, secretsDeleteCmd)
	rootCmd.AddCommand(secretsCmd)
}
