package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/loganross/coffer/internal/models"
)

var lockPassword string

var lockCmd = &cobra.Command{
	Use:   "lock <vault-id>",
	Short: "Encrypt a vault's files in place",
	Args:  cobra.ExactArgs(1),
	RunE:  runLock,
}

func init() {
	rootCmd.AddCommand(lockCmd)
	lockCmd.Flags().StringVarP(&lockPassword, "password", "p", "", "vault password (will prompt if not provided)")
}

func runLock(cmd *cobra.Command, args []string) error {
	id := args[0]

	password := lockPassword
	if password == "" {
		var err error
		password, err = promptPassword("Vault password: ")
		if err != nil {
			return err
		}
	}

	vault, err := manager.LockVault(context.Background(), id, password, cliProgress(id))
	if err != nil {
		var filesInUse *models.FilesInUseError
		if errors.As(err, &filesInUse) {
			if jsonOutput {
				printJSON(map[string]interface{}{"success": false, "error": err.Error(), "paths": filesInUse.Paths})
			} else {
				printError("Failed to lock vault: files are open in another application:")
				for _, p := range filesInUse.Paths {
					printError("  %s", p)
				}
			}
			return err
		}
		if jsonOutput {
			printJSON(map[string]interface{}{"success": false, "error": err.Error()})
		} else {
			printError("Failed to lock vault: %v", err)
		}
		return err
	}

	if jsonOutput {
		printJSON(vault)
	} else {
		printSuccess("Locked vault %q", vault.Name)
	}
	return nil
}
