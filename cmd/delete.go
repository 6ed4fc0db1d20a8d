/*
Copyright © 2025 The TaskTide Authors
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tasktide/tasktide/internal/ui"
	"github.com/tasktide/tasktide/models"
)

var (
	deleteHard bool
	deleteYes  bool
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete [task]",
	Short: "Delete a task",
	Long: `Delete a task. By default this is a soft delete: the task is tombstoned,
kept out of listings and suggestions, and can be brought back with restore or
undo. --hard removes it permanently, along with its subtasks.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskStore, err := GetStore()
		if err != nil {
			HandleFatalError("Error: Could not initialize the task store.", err)
		}
		defer func() { _ = taskStore.Close() }()

		t, err := pickTask(taskStore, args, func(t models.Task) bool { return !t.Deleted }, "Select task to delete")
		if err != nil {
			if pickAborted(err) {
				return nil
			}
			return err
		}

		if !deleteYes {
			verb := "Delete"
			if deleteHard {
				verb = "Permanently delete"
			}
			if !confirmOrAbort(fmt.Sprintf("%s task '%s' (ID: %s)", verb, t.Title, ui.TruncateID(t.ID))) {
				return nil
			}
		}

		svc, err := newTaskService(taskStore)
		if err != nil {
			HandleFatalError("Error: Could not set up task services.", err)
		}
		if err := svc.Delete(t.ID, deleteHard); err != nil {
			PrintError(fmt.Sprintf("Error: Could not delete task '%s'.", t.Title), err)
			return err
		}

		if isJSON() {
			return printJSON(cmd.OutOrStdout(), map[string]any{"id": t.ID, "deleted": true, "hard": deleteHard})
		}
		if deleteHard {
			cmd.Printf("Permanently deleted task '%s'.\n", t.Title)
		} else {
			cmd.Printf("Deleted task '%s'. Use 'tasktide undo' or 'tasktide restore' to bring it back.\n", t.Title)
		}
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolVar(&deleteHard, "hard", false, "Remove the task permanently instead of tombstoning it")
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}
