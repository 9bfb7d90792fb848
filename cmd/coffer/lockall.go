package main

import (
	"context"

	"github.com/spf13/cobra"
)

var lockAllPassword string

var lockAllCmd = &cobra.Command{
	Use:   "lock-all",
	Short: "Lock every currently unlocked vault with the same password",
	RunE:  runLockAll,
}

func init() {
	rootCmd.AddCommand(lockAllCmd)
	lockAllCmd.Flags().StringVarP(&lockAllPassword, "password", "p", "", "password shared by all unlocked vaults")
}

func runLockAll(cmd *cobra.Command, args []string) error {
	password := lockAllPassword
	if password == "" {
		var err error
		password, err = promptPassword("Password: ")
		if err != nil {
			return err
		}
	}

	errs := manager.LockAll(context.Background(), password, nil)
	if len(errs) > 0 {
		if jsonOutput {
			msgs := make([]string, len(errs))
			for i, e := range errs {
				msgs[i] = e.Error()
			}
			printJSON(map[string]interface{}{"success": false, "errors": msgs})
		} else {
			for _, e := range errs {
				printError("%v", e)
			}
		}
		return errs[0]
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"success": true})
	} else {
		printSuccess("Locked all vaults")
	}
	return nil
}
