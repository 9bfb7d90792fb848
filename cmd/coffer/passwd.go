package main

import (
	"github.com/spf13/cobra"
)

var (
	passwdCurrent string
	passwdNew     string
)

var passwdCmd = &cobra.Command{
	Use:   "passwd <vault-id>",
	Short: "Change a vault's password without re-encrypting its files",
	Args:  cobra.ExactArgs(1),
	RunE:  runPasswd,
}

func init() {
	rootCmd.AddCommand(passwdCmd)
	passwdCmd.Flags().StringVar(&passwdCurrent, "current-password", "", "current vault password (will prompt if not provided)")
	passwdCmd.Flags().StringVar(&passwdNew, "new-password", "", "new vault password (will prompt if not provided)")
}

func runPasswd(cmd *cobra.Command, args []string) error {
	id := args[0]

	current := passwdCurrent
	if current == "" {
		var err error
		current, err = promptPassword("Current password: ")
		if err != nil {
			return err
		}
	}

	newPassword := passwdNew
	if newPassword == "" {
		var err error
		newPassword, err = promptPassword("New password: ")
		if err != nil {
			return err
		}
	}

	if err := manager.ChangePassword(id, current, newPassword); err != nil {
		if jsonOutput {
			printJSON(map[string]interface{}{"success": false, "error": err.Error()})
		} else {
			printError("Failed to change password: %v", err)
		}
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"success": true})
	} else {
		printSuccess("Password changed")
	}
	return nil
}
