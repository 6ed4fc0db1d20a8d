/*
Copyright © 2025 The TaskTide Authors
*/
package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tasktide/tasktide/internal/ui"
	"github.com/tasktide/tasktide/models"
	"github.com/tasktide/tasktide/store"
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:     "show [task]",
	Aliases: []string{"view", "info"},
	Short:   "Show a task in full, including its score breakdown",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskStore, err := GetStore()
		if err != nil {
			HandleFatalError("Error: Could not initialize the task store.", err)
		}
		defer func() { _ = taskStore.Close() }()

		t, err := pickTask(taskStore, args, func(t models.Task) bool { return !t.Deleted }, "Select task to show")
		if err != nil {
			if pickAborted(err) {
				return nil
			}
			return err
		}

		now := time.Now()
		engine, feedback, err := newEngine()
		if err != nil {
			PrintError("Error: Could not load learning data.", err)
			return err
		}
		breakdown, effective := engine.Effective(t, now)

		if isJSON() {
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"task":      t,
				"breakdown": breakdown,
				"effective": effective,
			})
		}

		out := cmd.OutOrStdout()
		cmd.Println(ui.TitleStyle.Render(t.Title))
		cmd.Printf("%s %s\n", ui.SubtitleStyle.Render("ID:"), t.ID)
		cmd.Printf("%s %s   %s %s   %s %s\n",
			ui.SubtitleStyle.Render("Status:"), statusCell(t),
			ui.SubtitleStyle.Render("Priority:"), ui.RenderPriority(t.Priority),
			ui.SubtitleStyle.Render("Category:"), t.EffectiveCategory(),
		)
		if t.Notes != "" {
			cmd.Printf("%s %s\n", ui.SubtitleStyle.Render("Notes:"), t.Notes)
		}
		if t.ListName != nil {
			cmd.Printf("%s %s\n", ui.SubtitleStyle.Render("List:"), *t.ListName)
		}

		if at := t.DueAt(); at != nil {
			cmd.Printf("%s %s (%s)\n", ui.SubtitleStyle.Render("Due:"),
				at.Format("Mon Jan 2 2006 15:04"), ui.FormatDue(*at, t.DueTime != nil, now))
		}
		if t.EstimatedMinutes != nil {
			cmd.Printf("%s %s\n", ui.SubtitleStyle.Render("Estimate:"), ui.FormatMinutes(*t.EstimatedMinutes))
		}
		if t.ReminderAt != nil {
			cmd.Printf("%s %s\n", ui.SubtitleStyle.Render("Reminder:"), t.ReminderAt.Format("Mon Jan 2 15:04"))
		}
		if t.Recurrence != nil {
			cmd.Printf("%s %s", ui.SubtitleStyle.Render("Repeats:"), describeRecurrence(t.Recurrence))
			if t.Recurrence.IsIntraday() {
				cmd.Printf("  (%d done today)", t.IntradayCountOn(now))
			}
			cmd.Println()
		}
		if t.AccumulatedSeconds > 0 || t.StartedAt != nil {
			total := t.AccumulatedSeconds
			running := ""
			if t.StartedAt != nil {
				total += int64(now.Sub(*t.StartedAt) / time.Second)
				running = " (running)"
			}
			cmd.Printf("%s %s%s\n", ui.SubtitleStyle.Render("Worked:"), ui.FormatTimer(total), running)
		}

		if t.CalendarEventID != nil {
			cmd.Printf("%s event %s", ui.SubtitleStyle.Render("Calendar:"), ui.TruncateID(*t.CalendarEventID))
			if t.SyncedStart != nil && t.SyncedEnd != nil {
				cmd.Printf(", synced %s-%s", t.SyncedStart.Format("15:04"), t.SyncedEnd.Format("15:04"))
			}
			cmd.Println()
		}

		if t.ParentID != nil {
			if parent, err := taskStore.GetTask(*t.ParentID); err == nil {
				cmd.Printf("%s %s (%s)\n", ui.SubtitleStyle.Render("Parent:"), parent.Title, ui.TruncateID(parent.ID))
			}
		}
		if len(t.SubtaskIDs) > 0 {
			cmd.Printf("%s\n", ui.SubtitleStyle.Render("Subtasks:"))
			for _, id := range t.SubtaskIDs {
				sub, err := taskStore.GetTask(id)
				if err != nil {
					continue
				}
				mark := " "
				if sub.IsCompleted() {
					mark = "✓"
				}
				cmd.Printf("  [%s] %s (%s)\n", mark, sub.Title, ui.TruncateID(sub.ID))
			}
		}

		if t.IsActionable() {
			cmd.Println()
			cmd.Println(ui.SubtitleStyle.Render("Score breakdown"))
			tbl := ui.NewTable(out, "FACTOR", "POINTS")
			tbl.AddRow("due urgency", ui.FormatScore(breakdown.Due))
			tbl.AddRow("priority", ui.FormatScore(breakdown.Priority))
			tbl.AddRow("age", ui.FormatScore(breakdown.Age))
			tbl.AddRow("quick win", ui.FormatScore(breakdown.QuickWin))
			tbl.AddRow("time fit", ui.FormatScore(breakdown.TimeFit))
			tbl.AddRow("momentum", ui.FormatScore(breakdown.Momentum))
			tbl.AddRow("base total", ui.FormatScore(breakdown.Total))
			if adj := feedback.Adjustment(t.ID); adj != 0 {
				tbl.AddRow("feedback", ui.FormatScore(adj))
			}
			tbl.AddRow("effective", ui.RenderScore(effective))
			tbl.Render()
			if len(breakdown.Reasons) > 0 {
				cmd.Println(ui.ReasonStyle.Render(strings.Join(breakdown.Reasons, "; ")))
			}
			if until, ok := feedback.SnoozedUntil(t.ID); ok && until.After(now) {
				cmd.Println(ui.WarnStyle.Render("snoozed until " + until.Format("Mon 15:04")))
			}
		}

		cmd.Printf("\n%s created %s, updated %s\n", ui.FaintStyle.Render("·"),
			ui.FormatRelative(t.CreatedAt, now), ui.FormatRelative(t.UpdatedAt, now))
		return nil
	},
}

// pickTask resolves the optional positional reference or falls back to an
// interactive selection.
func pickTask(taskStore store.TaskStore, args []string, filter func(models.Task) bool, label string) (models.Task, error) {
	if len(args) > 0 {
		t, err := resolveTask(taskStore, args[0])
		if err != nil {
			PrintError("Error: Could not find task '"+args[0]+"'.", err)
		}
		return t, err
	}
	return selectTaskInteractive(taskStore, filter, label)
}

func init() {
	rootCmd.AddCommand(showCmd)
}
