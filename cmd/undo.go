/*
Copyright © 2025 The TaskTide Authors
*/
package cmd

import (
	"github.com/spf13/cobra"
)

// undoCmd represents the undo command
var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Reverse the most recent change",
	Long: `Reverse the most recent recorded change: a completion is reopened (and a
spawned next occurrence removed), a soft delete is restored, and an edit is
rolled back to its previous snapshot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		taskStore, err := GetStore()
		if err != nil {
			HandleFatalError("Error: Could not initialize the task store.", err)
		}
		defer func() { _ = taskStore.Close() }()

		svc, err := newTaskService(taskStore)
		if err != nil {
			HandleFatalError("Error: Could not set up task services.", err)
		}

		description, ok, err := svc.Undo()
		if err != nil {
			PrintError("Error: Could not undo the last change.", err)
			return err
		}
		if !ok {
			cmd.Println("Nothing to undo.")
			return nil
		}

		if isJSON() {
			return printJSON(cmd.OutOrStdout(), map[string]any{"undone": description})
		}
		cmd.Printf("Undid: %s\n", description)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(undoCmd)
}
