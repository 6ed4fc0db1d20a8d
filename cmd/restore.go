/*
Copyright © 2025 The TaskTide Authors
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tasktide/tasktide/models"
)

// restoreCmd represents the restore command
var restoreCmd = &cobra.Command{
	Use:   "restore [task]",
	Short: "Bring back a soft-deleted task",
	Long: `Clear the tombstone on a soft-deleted task so it shows up in listings and
suggestions again. Without a reference, an interactive list of deleted tasks
is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskStore, err := GetStore()
		if err != nil {
			HandleFatalError("Error: Could not initialize the task store.", err)
		}
		defer func() { _ = taskStore.Close() }()

		t, err := pickTask(taskStore, args, func(t models.Task) bool { return t.Deleted }, "Select task to restore")
		if err != nil {
			if pickAborted(err) {
				return nil
			}
			return err
		}
		if !t.Deleted {
			return fmt.Errorf("task '%s' is not deleted", t.Title)
		}

		svc, err := newTaskService(taskStore)
		if err != nil {
			HandleFatalError("Error: Could not set up task services.", err)
		}
		restored, err := svc.Restore(t.ID)
		if err != nil {
			PrintError(fmt.Sprintf("Error: Could not restore task '%s'.", t.Title), err)
			return err
		}

		if isJSON() {
			return printJSON(cmd.OutOrStdout(), restored)
		}
		cmd.Printf("Restored task '%s' (ID: %s)\n", restored.Title, restored.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}
