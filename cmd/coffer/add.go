package main

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	addName            string
	addPassword        string
	addUseBiometric    bool
	addAutoLockMinutes int
	addLockImmediately bool
)

var addCmd = &cobra.Command{
	Use:   "add <folder>",
	Short: "Add a folder as a new vault",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVarP(&addName, "name", "n", "", "vault display name (default: folder base name)")
	addCmd.Flags().StringVarP(&addPassword, "password", "p", "", "vault password (will prompt if not provided)")
	addCmd.Flags().BoolVar(&addUseBiometric, "biometric", false, "enable biometric unlock if available")
	addCmd.Flags().IntVar(&addAutoLockMinutes, "auto-lock-minutes", 5, "minutes of inactivity before auto-lock")
	addCmd.Flags().BoolVar(&addLockImmediately, "lock", false, "lock the vault immediately after adding it")
}

func runAdd(cmd *cobra.Command, args []string) error {
	folder := args[0]
	name := addName
	if name == "" {
		name = filepath.Base(folder)
	}

	password := addPassword
	if password == "" {
		var err error
		password, err = promptPassword("Vault password: ")
		if err != nil {
			return err
		}
	}

	autoLockMinutes := addAutoLockMinutes
	if !cmd.Flags().Changed("auto-lock-minutes") {
		autoLockMinutes = cfg.Vault.DefaultIdleMinutes
	}

	vault, err := manager.AddVault(context.Background(), name, folder, password, addUseBiometric, autoLockMinutes, addLockImmediately)
	if err != nil {
		if jsonOutput {
			printJSON(map[string]interface{}{"success": false, "error": err.Error()})
		} else {
			printError("Failed to add vault: %v", err)
		}
		return err
	}

	if jsonOutput {
		printJSON(vault)
	} else {
		printSuccess("Added vault %q (%s) at %s", vault.Name, vault.ID, vault.FolderPath)
	}
	return nil
}
