package main

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured vaults",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	vaults, err := manager.ListVaults()
	if err != nil {
		if jsonOutput {
			printJSON(map[string]interface{}{"success": false, "error": err.Error()})
		} else {
			printError("Failed to list vaults: %v", err)
		}
		return err
	}

	if jsonOutput {
		printJSON(vaults)
		return nil
	}

	if len(vaults) == 0 {
		printInfo("No vaults configured.")
		return nil
	}
	for _, v := range vaults {
		printInfo("%-36s  %-10s  %-30s  %s", v.ID, v.State, v.Name, v.FolderPath)
	}
	return nil
}
