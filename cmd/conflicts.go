/*
Copyright © 2025 The TaskTide Authors
*/
package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tasktide/tasktide/internal/conflict"
	"github.com/tasktide/tasktide/internal/ui"
	"github.com/tasktide/tasktide/models"
)

// conflictsCmd represents the conflicts command
var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Show schedule conflicts",
	Long:  `Check every scheduled task against the calendar and against other tasks, and list the collisions, most severe first. Conflicts entirely in the past are not shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		tasks, err := taskStore.ListTasks(func(t models.Task) bool { return t.IsActionable() }, nil)
		if err != nil {
			PrintError("Error: Could not list tasks.", err)
			return err
		}

		now := time.Now()
		detector := conflict.NewDetector(cal)
		conflicts, err := detector.Scan(tasks, now)
		if err != nil {
			PrintError("Error: Conflict scan failed.", err)
			return err
		}

		if isJSON() {
			return printJSON(cmd.OutOrStdout(), conflicts)
		}
		if len(conflicts) == 0 {
			cmd.Println("No schedule conflicts. 🎐")
			return nil
		}

		tbl := ui.NewTable(cmd.OutOrStdout(), "SEVERITY", "WHEN", "CONFLICT")
		for _, c := range conflicts {
			tbl.AddRow(
				renderSeverity(c.Severity),
				c.At.Format("Mon 15:04"),
				c.Describe(),
			)
		}
		tbl.Render()
		cmd.Println()
		cmd.Println(ui.FaintStyle.Render("Move a task with: tasktide update <task> --due ... --at ..."))
		return nil
	},
}

func renderSeverity(s conflict.Severity) string {
	switch s {
	case conflict.SeverityHigh:
		return ui.ErrorStyle.Render(string(s))
	case conflict.SeverityMedium:
		return ui.WarnStyle.Render(string(s))
	default:
		return ui.FaintStyle.Render(string(s))
	}
}

func init() {
	rootCmd.AddCommand(conflictsCmd)
}
