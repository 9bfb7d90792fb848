package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/loganross/coffer/internal/models"
)

var (
	unlockPassword  string
	unlockBiometric bool
)

var unlockCmd = &cobra.Command{
	Use:   "unlock <vault-id>",
	Short: "Decrypt a vault's files in place",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnlock,
}

func init() {
	rootCmd.AddCommand(unlockCmd)
	unlockCmd.Flags().StringVarP(&unlockPassword, "password", "p", "", "vault password")
	unlockCmd.Flags().BoolVar(&unlockBiometric, "biometric", false, "unlock using biometrics instead of a password")
}

func runUnlock(cmd *cobra.Command, args []string) error {
	id := args[0]
	ctx := context.Background()

	if unlockBiometric {
		vault, err := manager.UnlockVaultBiometric(ctx, id, cliProgress(id))
		return reportUnlockResult(vault, err)
	}

	password := unlockPassword
	if password == "" {
		var err error
		password, err = promptPassword("Vault password: ")
		if err != nil {
			return err
		}
	}

	vault, err := manager.UnlockVaultPassword(ctx, id, password, cliProgress(id))
	return reportUnlockResult(vault, err)
}

func reportUnlockResult(vault *models.Vault, err error) error {
	if err != nil {
		if jsonOutput {
			printJSON(map[string]interface{}{"success": false, "error": err.Error()})
		} else {
			printError("Failed to unlock vault: %v", err)
		}
		return err
	}

	if jsonOutput {
		printJSON(vault)
	} else {
		printSuccess("Unlocked vault")
	}
	return nil
}
