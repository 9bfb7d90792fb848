package main

import "github.com/spf13/cobra"

var interruptedCmd = &cobra.Command{
	Use:   "interrupted",
	Short: "List vaults with a lock pass left incomplete by a crash",
	RunE:  runInterrupted,
}

func init() {
	rootCmd.AddCommand(interruptedCmd)
}

func runInterrupted(cmd *cobra.Command, args []string) error {
	vaults, err := manager.InterruptedVaults()
	if err != nil {
		if jsonOutput {
			printJSON(map[string]interface{}{"success": false, "error": err.Error()})
		} else {
			printError("Failed to scan for interrupted vaults: %v", err)
		}
		return err
	}

	if jsonOutput {
		printJSON(vaults)
		return nil
	}

	if len(vaults) == 0 {
		printInfo("No interrupted vaults.")
		return nil
	}
	for _, v := range vaults {
		printInfo("%-36s  %-30s  %s", v.ID, v.Name, v.FolderPath)
	}
	return nil
}
