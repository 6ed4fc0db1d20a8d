/*
Copyright © 2025 The TaskTide Authors
*/
package cmd

import (
	"github.com/spf13/cobra"

	tasksync "github.com/tasktide/tasktide/internal/sync"
	"github.com/tasktide/tasktide/internal/timeutil"
)

var (
	syncForwardOnly bool
	syncReverseOnly bool
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the calendar sync passes once",
	Long: `Mirror scheduled tasks into the local calendar and pull external calendar
edits back. The forward pass pushes tasks with a due day, due time, and
estimate; the reverse pass applies event moves, renames, deletions, and
checked-off titles to their tasks. 'tasktide watch' runs both continuously.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncForwardOnly && syncReverseOnly {
			syncForwardOnly, syncReverseOnly = false, false
		}

		cfg := GetConfig()
		if !cfg.Calendar.SyncEnabled {
			cmd.Println("Calendar sync is disabled (calendar.syncEnabled). Nothing to do.")
			return nil
		}

		taskStore, err := GetStore()
		if err != nil {
			HandleFatalError("Error: Could not initialize the task store.", err)
		}
		defer func() { _ = taskStore.Close() }()

		cal, err := openCalendarStore()
		if err != nil {
			PrintError("Error: Could not open the calendar store.", err)
			return err
		}
		defer func() { _ = cal.Close() }()

		svc, err := newTaskService(taskStore)
		if err != nil {
			HandleFatalError("Error: Could not set up task services.", err)
		}

		orch := tasksync.NewOrchestrator(taskStore, cal, svc, newNotifier(), timeutil.RealClock{}, tasksync.Options{
			BusyOnly:         cfg.Calendar.BusyOnly,
			CompletionPolicy: cfg.Calendar.CompletionPolicy,
		})

		out := map[string]any{}
		if !syncReverseOnly {
			stats := orch.SyncForward()
			out["forward"] = stats
			if !isJSON() {
				cmd.Printf("forward: %s\n", stats)
			}
		}
		if !syncForwardOnly {
			stats := orch.SyncReverse()
			out["reverse"] = stats
			if !isJSON() {
				cmd.Printf("reverse: %s\n", stats)
			}
		}

		if isJSON() {
			return printJSON(cmd.OutOrStdout(), out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().BoolVar(&syncForwardOnly, "forward", false, "run only the task→calendar pass")
	syncCmd.Flags().BoolVar(&syncReverseOnly, "reverse", false, "run only the calendar→task pass")
}
