/*
Copyright © 2025 The TaskTide Authors
*/
package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tasktide/tasktide/models"
)

// doneCmd represents the done command
var doneCmd = &cobra.Command{
	Use:     "done [task]",
	Aliases: []string{"finish", "complete", "d"},
	Short:   "Mark a task as done",
	Long:    `Mark a task as completed. Recurring tasks immediately spawn their next occurrence; subtask completion rolls up to the parent. Without an argument an interactive list is shown.`,
	Example: `  # Interactive mode
  tasktide done

  # Complete a specific task by ID prefix
  tasktide done a1b2c3`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskStore, err := GetStore()
		if err != nil {
			HandleFatalError("Error: Could not initialize the task store.", err)
		}
		defer func() { _ = taskStore.Close() }()

		notDone := func(t models.Task) bool { return t.IsActionable() }
		t, err := pickTask(taskStore, args, notDone, "Select task to mark as done")
		if err != nil {
			if pickAborted(err) {
				return nil
			}
			return err
		}

		if t.IsCompleted() {
			cmd.Printf("Task '%s' (ID: %s) is already completed.\n", t.Title, t.ID)
			return nil
		}

		svc, err := newTaskService(taskStore)
		if err != nil {
			HandleFatalError("Error: Could not set up task services.", err)
		}
		completed, spawned, err := svc.Complete(t.ID)
		if err != nil {
			PrintError("Error: Failed to mark task '"+t.Title+"' as done.", err)
			return err
		}

		if isJSON() {
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"completed": completed,
				"spawned":   spawned,
			})
		}

		cmd.Printf("🎉 Task '%s' (ID: %s) marked as done!\n", completed.Title, completed.ID)
		if completed.Recurrence != nil && completed.Recurrence.IsIntraday() {
			cmd.Printf("   %d of today's occurrences done.\n", completed.IntradayCountOn(time.Now()))
		}
		if spawned != nil {
			when := "-"
			if at := spawned.DueAt(); at != nil {
				when = at.Format("Mon Jan 2 15:04")
			}
			cmd.Printf("   Next occurrence scheduled for %s (ID: %s)\n", when, spawned.ID)
		}

		cmd.Printf("\n💡 What's next?\n")
		cmd.Printf("   • Find next task: tasktide next\n")
		cmd.Printf("   • View all tasks: tasktide list\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doneCmd)
}
