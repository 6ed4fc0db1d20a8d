/*
Copyright © 2025 The TaskTide Authors
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tasktide/tasktide/internal/ui"
	"github.com/tasktide/tasktide/models"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start [task]",
	Short: "Start working a task",
	Long:  `Start the work timer on a task. Only one task runs at a time; starting a task pauses whichever one was running. Parent tasks move to in-progress without a timer of their own.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskStore, err := GetStore()
		if err != nil {
			HandleFatalError("Error: Could not initialize the task store.", err)
		}
		defer func() { _ = taskStore.Close() }()

		startable := func(t models.Task) bool { return t.IsActionable() && t.StartedAt == nil }
		t, err := pickTask(taskStore, args, startable, "Select task to start")
		if err != nil {
			if pickAborted(err) {
				return nil
			}
			return err
		}

		svc, err := newTaskService(taskStore)
		if err != nil {
			HandleFatalError("Error: Could not set up task services.", err)
		}
		started, err := svc.Start(t.ID)
		if err != nil {
			PrintError("Error: Could not start task '"+t.Title+"'.", err)
			return err
		}

		if isJSON() {
			return printJSON(cmd.OutOrStdout(), started)
		}
		cmd.Printf("▶ Started '%s' (ID: %s)\n", started.Title, started.ID)
		return nil
	},
}

// stopCmd represents the stop command
var stopCmd = &cobra.Command{
	Use:   "stop [task]",
	Short: "Pause the work timer on a task",
	Long:  `Pause the running work timer, folding the elapsed time into the task's accumulated total. The task stays in progress.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskStore, err := GetStore()
		if err != nil {
			HandleFatalError("Error: Could not initialize the task store.", err)
		}
		defer func() { _ = taskStore.Close() }()

		running := func(t models.Task) bool { return t.StartedAt != nil }
		t, err := pickTask(taskStore, args, running, "Select task to stop")
		if err != nil {
			if pickAborted(err) {
				return nil
			}
			return err
		}

		svc, err := newTaskService(taskStore)
		if err != nil {
			HandleFatalError("Error: Could not set up task services.", err)
		}
		stopped, err := svc.Stop(t.ID)
		if err != nil {
			PrintError("Error: Could not stop task '"+t.Title+"'.", err)
			return err
		}

		if isJSON() {
			return printJSON(cmd.OutOrStdout(), stopped)
		}
		cmd.Printf("⏸ Paused '%s', %s worked so far\n", stopped.Title, ui.FormatTimer(stopped.AccumulatedSeconds))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
}
