/*
Copyright © 2025 The TaskTide Authors
*/
package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tasktide/tasktide/internal/taskutil"
	"github.com/tasktide/tasktide/internal/ui"
	"github.com/tasktide/tasktide/models"
)

var (
	listAll      bool
	listDeleted  bool
	listStatus   string
	listCategory string
	listList     string
	listOverdue  bool
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List tasks",
	Long:    `List tasks. By default only actionable tasks are shown, ordered by their current effective score. Filters narrow the set; --all includes completed and archived tasks.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		taskStore, err := GetStore()
		if err != nil {
			HandleFatalError("Error: Could not initialize the task store.", err)
		}
		defer func() { _ = taskStore.Close() }()

		if listStatus != "" {
			status, err := taskutil.NormalizeStatus(listStatus)
			if err != nil {
				return err
			}
			listStatus = string(status)
		}

		now := time.Now()
		filter := buildListFilter(now)
		tasks, err := taskStore.ListTasks(filter, nil)
		if err != nil {
			PrintError("Error: Could not list tasks.", err)
			return err
		}

		if isJSON() {
			return printJSON(cmd.OutOrStdout(), tasks)
		}
		if len(tasks) == 0 {
			cmd.Println("No tasks found.")
			cmd.Println("Add one with: tasktide add \"Your first task\"")
			return nil
		}

		// The default actionable view ranks by score; filtered views that
		// can include finished work fall back to creation order.
		scored := !listAll && !listDeleted && listStatus != string(models.StatusCompleted)
		if scored {
			engine, _, err := newEngine()
			if err != nil {
				PrintError("Error: Could not load learning data.", err)
				return err
			}
			ranked := engine.Rank(tasks, now)
			tbl := ui.NewTable(cmd.OutOrStdout(), "ID", "SCORE", "PRI", "TITLE", "DUE", "EST", "CATEGORY", "STATUS")
			for _, s := range ranked {
				tbl.AddRow(
					ui.IDStyle.Render(ui.TruncateID(s.Task.ID)),
					ui.RenderScore(s.Effective),
					ui.RenderPriority(s.Task.Priority),
					titleCell(s.Task),
					dueCell(s.Task, now),
					estimateCell(s.Task),
					s.Task.EffectiveCategory(),
					ui.RenderStatus(s.Task.Status),
				)
			}
			tbl.Render()
			return nil
		}

		sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].CreatedAt.Before(tasks[j].CreatedAt) })
		tbl := ui.NewTable(cmd.OutOrStdout(), "ID", "PRI", "TITLE", "DUE", "CATEGORY", "STATUS")
		for _, t := range tasks {
			tbl.AddRow(
				ui.IDStyle.Render(ui.TruncateID(t.ID)),
				ui.RenderPriority(t.Priority),
				titleCell(t),
				dueCell(t, now),
				t.EffectiveCategory(),
				statusCell(t),
			)
		}
		tbl.Render()
		return nil
	},
}

func buildListFilter(now time.Time) func(models.Task) bool {
	return func(t models.Task) bool {
		if listDeleted {
			return t.Deleted
		}
		if t.Deleted {
			return false
		}
		if !listAll && (t.Archived || t.IsCompleted()) {
			return false
		}
		if listStatus != "" && t.Status != models.TaskStatus(listStatus) {
			return false
		}
		if listCategory != "" && !strings.EqualFold(t.EffectiveCategory(), listCategory) {
			return false
		}
		if listList != "" && (t.ListName == nil || !strings.EqualFold(*t.ListName, listList)) {
			return false
		}
		if listOverdue {
			at := t.DueAt()
			if at == nil || !at.Before(now) {
				return false
			}
		}
		return true
	}
}

func titleCell(t models.Task) string {
	title := ui.Truncate(t.Title, 48)
	if t.Recurrence != nil {
		title += " ↻"
	}
	if n := len(t.SubtaskIDs); n > 0 {
		title += ui.FaintStyle.Render(fmt.Sprintf(" [%d sub]", n))
	}
	return title
}

func dueCell(t models.Task, now time.Time) string {
	at := t.DueAt()
	if at == nil {
		return "-"
	}
	text := ui.FormatDue(*at, t.DueTime != nil, now)
	if at.Before(now) && !t.IsCompleted() {
		return ui.ErrorStyle.Render(text)
	}
	return text
}

func estimateCell(t models.Task) string {
	if t.EstimatedMinutes == nil {
		return "-"
	}
	return ui.FormatMinutes(*t.EstimatedMinutes)
}

func statusCell(t models.Task) string {
	switch {
	case t.Deleted:
		return ui.FaintStyle.Render("deleted")
	case t.Archived:
		return ui.FaintStyle.Render("archived")
	default:
		return ui.RenderStatus(t.Status)
	}
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVar(&listAll, "all", false, "include completed and archived tasks")
	listCmd.Flags().BoolVar(&listDeleted, "deleted", false, "show only soft-deleted tasks")
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status (pending|in-progress|completed)")
	listCmd.Flags().StringVar(&listCategory, "category", "", "filter by effective category")
	listCmd.Flags().StringVar(&listList, "list", "", "filter by list name")
	listCmd.Flags().BoolVar(&listOverdue, "overdue", false, "only tasks past their due instant")
}
