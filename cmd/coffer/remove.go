package main

import (
	"context"

	"github.com/spf13/cobra"
)

var removePassword string

var removeCmd = &cobra.Command{
	Use:   "remove <vault-id>",
	Short: "Remove a vault, unlocking it first if necessary",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
	removeCmd.Flags().StringVarP(&removePassword, "password", "p", "", "vault password, if the vault is locked")
}

func runRemove(cmd *cobra.Command, args []string) error {
	id := args[0]

	if err := manager.RemoveVault(context.Background(), id, removePassword, cliProgress(id)); err != nil {
		if jsonOutput {
			printJSON(map[string]interface{}{"success": false, "error": err.Error()})
		} else {
			printError("Failed to remove vault: %v", err)
		}
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"success": true})
	} else {
		printSuccess("Removed vault %s", id)
	}
	return nil
}
