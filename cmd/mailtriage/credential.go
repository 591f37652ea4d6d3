package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"mailtriage/internal/credential"
)

var credentialCmd = &cobra.Command{
	Use:   "credential",
	Short: "Store secrets in the system keyring",
	Long: `Store or remove secrets in the system keyring. Stored values are used
when neither the environment nor the configuration provides them.

Keys: ` + strings.Join(credential.Keys, ", "),
}

var credentialSetCmd = &cobra.Command{
	Use:       "set KEY",
	Short:     "Prompt for a secret and store it",
	Args:      cobra.ExactArgs(1),
	ValidArgs: credential.Keys,
	RunE: func(cmd *cobra.Command, args []string) error {
		var value string
		input := huh.NewInput().
			Title("Value for " + args[0]).
			EchoMode(huh.EchoModePassword).
			Value(&value).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("value is required")
				}
				return nil
			})
		if err := huh.NewForm(huh.NewGroup(input)).RunWithContext(cmd.Context()); err != nil {
			return err
		}
		if err := credential.Set(args[0], strings.TrimSpace(value)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stored %s\n", args[0])
		return nil
	},
}

var credentialDeleteCmd = &cobra.Command{
	Use:       "delete KEY",
	Short:     "Remove a stored secret",
	Args:      cobra.ExactArgs(1),
	ValidArgs: credential.Keys,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := credential.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	credentialCmd.AddCommand(credentialSetCmd, credentialDeleteCmd)
}
