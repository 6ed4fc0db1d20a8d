/*
Copyright © 2025 The TaskTide Authors
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tasktide/tasktide/models"
)

// archiveCmd represents the archive command
var archiveCmd = &cobra.Command{
	Use:   "archive [task]",
	Short: "Archive a task",
	Long: `Archive a task. Archived tasks keep their history but drop out of listings,
suggestions, and calendar sync. Use unarchive to bring one back.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskStore, err := GetStore()
		if err != nil {
			HandleFatalError("Error: Could not initialize the task store.", err)
		}
		defer func() { _ = taskStore.Close() }()

		t, err := pickTask(taskStore, args, func(t models.Task) bool { return !t.Archived && !t.Deleted }, "Select task to archive")
		if err != nil {
			if pickAborted(err) {
				return nil
			}
			return err
		}
		if t.Archived {
			cmd.Printf("Task '%s' is already archived.\n", t.Title)
			return nil
		}

		svc, err := newTaskService(taskStore)
		if err != nil {
			HandleFatalError("Error: Could not set up task services.", err)
		}
		archived, err := svc.Update(t.ID, map[string]interface{}{"archived": true})
		if err != nil {
			PrintError(fmt.Sprintf("Error: Could not archive task '%s'.", t.Title), err)
			return err
		}

		if isJSON() {
			return printJSON(cmd.OutOrStdout(), archived)
		}
		cmd.Printf("Archived task '%s'.\n", archived.Title)
		return nil
	},
}

var unarchiveCmd = &cobra.Command{
	Use:   "unarchive [task]",
	Short: "Bring back an archived task",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskStore, err := GetStore()
		if err != nil {
			HandleFatalError("Error: Could not initialize the task store.", err)
		}
		defer func() { _ = taskStore.Close() }()

		t, err := pickTask(taskStore, args, func(t models.Task) bool { return t.Archived && !t.Deleted }, "Select task to unarchive")
		if err != nil {
			if pickAborted(err) {
				return nil
			}
			return err
		}
		if !t.Archived {
			cmd.Printf("Task '%s' is not archived.\n", t.Title)
			return nil
		}

		svc, err := newTaskService(taskStore)
		if err != nil {
			HandleFatalError("Error: Could not set up task services.", err)
		}
		restored, err := svc.Update(t.ID, map[string]interface{}{"archived": false})
		if err != nil {
			PrintError(fmt.Sprintf("Error: Could not unarchive task '%s'.", t.Title), err)
			return err
		}

		if isJSON() {
			return printJSON(cmd.OutOrStdout(), restored)
		}
		cmd.Printf("Unarchived task '%s'.\n", restored.Title)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(unarchiveCmd)
}
