/*
Copyright © 2025 The TaskTide Authors
*/
package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tasktide/tasktide/internal/taskutil"
	"github.com/tasktide/tasktide/models"
)

var (
	addNotes    string
	addPriority string
	addCategory string
	addList     string
	addDue      string
	addAt       string
	addEstimate string
	addRemind   string
	addEvery    string
	addUntil    string
	addParent   string
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:     "add \"task title\"",
	Aliases: []string{"a", "new"},
	Short:   "Add a new task",
	Long:    `Add a new task. The title is taken from the arguments; schedule, estimate, recurrence, and grouping come from flags.`,
	Example: `  # Quick capture
  tasktide add "Call the dentist"

  # Scheduled with an estimate (eligible for calendar sync)
  tasktide add "Write weekly report" --due tomorrow --at 14:00 --estimate 45m --priority high

  # Recurring, three times a day within active hours
  tasktide add "Drink water" --every 3x/day --category health

  # Weekly on specific days until a date
  tasktide add "Team standup" --every mon,wed,fri --until 2025-12-31 --at 9:30 --estimate 15`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskStore, err := GetStore()
		if err != nil {
			HandleFatalError("Error: Could not initialize the task store.", err)
		}
		defer func() { _ = taskStore.Close() }()

		prio, err := taskutil.NormalizePriority(addPriority)
		if err != nil {
			return err
		}

		now := time.Now()
		t := models.Task{
			Title:    strings.Join(args, " "),
			Notes:    addNotes,
			Priority: prio,
			Status:   models.StatusPending,
		}

		if err := applyCategory(&t, addCategory); err != nil {
			return err
		}
		if addList != "" {
			t.ListName = &addList
		}
		if addParent != "" {
			parent, err := resolveTask(taskStore, addParent)
			if err != nil {
				return fmt.Errorf("resolve parent: %w", err)
			}
			t.ParentID = &parent.ID
		}

		if addDue != "" {
			day, err := parseDueDate(addDue, now)
			if err != nil {
				return err
			}
			t.DueDate = &day
		}
		if addAt != "" {
			at, err := parseClock(addAt)
			if err != nil {
				return err
			}
			if t.DueDate == nil {
				day, _ := parseDueDate("today", now)
				t.DueDate = &day
			}
			t.DueTime = &at
		}
		if addEstimate != "" {
			minutes, err := parseEstimate(addEstimate)
			if err != nil {
				return err
			}
			t.EstimatedMinutes = &minutes
		}
		if addRemind != "" {
			if err := applyReminder(&t, addRemind); err != nil {
				return err
			}
		}

		if addEvery != "" {
			rule, err := parseRecurrence(addEvery)
			if err != nil {
				return err
			}
			if addUntil != "" {
				end, err := parseDueDate(addUntil, now)
				if err != nil {
					return err
				}
				rule.EndDate = &end
			}
			t.Recurrence = rule
		} else if addUntil != "" {
			return fmt.Errorf("--until requires --every")
		}

		svc, err := newTaskService(taskStore)
		if err != nil {
			HandleFatalError("Error: Could not set up task services.", err)
		}
		created, err := svc.Create(t)
		if err != nil {
			PrintError("Error: Could not create the task.", err)
			return err
		}

		if isJSON() {
			return printJSON(cmd.OutOrStdout(), created)
		}

		cmd.Printf("Added task '%s' (ID: %s)\n", created.Title, created.ID)
		if created.Recurrence != nil {
			cmd.Printf("  repeats %s\n", describeRecurrence(created.Recurrence))
		}
		if at := created.DueAt(); at != nil {
			cmd.Printf("  due %s\n", at.Format("Mon Jan 2 15:04"))
		}
		if created.IsScheduled() {
			cmd.Println("  scheduled: will sync to the calendar")
		}
		return nil
	},
}

// applyCategory maps a name onto the built-in category set or falls back to a
// custom category.
func applyCategory(t *models.Task, name string) error {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return nil
	}
	switch models.TaskCategory(name) {
	case models.CategoryNone, models.CategoryWork, models.CategoryPersonal, models.CategoryHealth,
		models.CategoryErrands, models.CategoryFinance, models.CategoryLearning, models.CategoryHome:
		t.Category = models.TaskCategory(name)
	default:
		custom := name
		t.CustomCategory = &custom
	}
	return nil
}

// applyReminder sets ReminderAt from a lead duration before the due instant.
func applyReminder(t *models.Task, lead string) error {
	d, err := time.ParseDuration(lead)
	if err != nil || d < 0 {
		return fmt.Errorf("unrecognized reminder lead %q (use a duration like 30m or 1h)", lead)
	}
	at := t.DueAt()
	if at == nil {
		return fmt.Errorf("--remind requires a due date")
	}
	reminder := at.Add(-d)
	t.ReminderAt = &reminder
	return nil
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVarP(&addNotes, "notes", "n", "", "free-form notes")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "medium", "priority (none|low|medium|high|urgent)")
	addCmd.Flags().StringVar(&addCategory, "category", "", "category (work, health, ... or any custom name)")
	addCmd.Flags().StringVar(&addList, "list", "", "list/project name for grouping")
	addCmd.Flags().StringVarP(&addDue, "due", "d", "", "due day (today, tomorrow, +Nd, YYYY-MM-DD)")
	addCmd.Flags().StringVar(&addAt, "at", "", "due time of day (HH:MM); defaults the due day to today")
	addCmd.Flags().StringVarP(&addEstimate, "estimate", "e", "", "effort estimate (minutes or a duration like 1h30m)")
	addCmd.Flags().StringVar(&addRemind, "remind", "", "reminder lead before the due instant (e.g. 30m)")
	addCmd.Flags().StringVar(&addEvery, "every", "", "recurrence (day, week, mon,wed,fri, 2h, 3x/day, at 9:00,18:00, ...)")
	addCmd.Flags().StringVar(&addUntil, "until", "", "recurrence end day")
	addCmd.Flags().StringVar(&addParent, "parent", "", "parent task (ID, ID prefix, or title fragment)")
}
