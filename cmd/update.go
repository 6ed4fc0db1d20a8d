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

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update [task]",
	Short: "Update an existing task",
	Long: `Update an existing task's fields. If a task reference is provided it is
resolved directly (ID, ID prefix, or title fragment); otherwise an interactive
list is shown. Pass "none" to a flag to clear its field, e.g. --due none.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskStore, err := GetStore()
		if err != nil {
			HandleFatalError("Error: Could not initialize the task store.", err)
		}
		defer func() { _ = taskStore.Close() }()

		t, err := pickTask(taskStore, args, func(t models.Task) bool { return !t.Deleted }, "Select task to update")
		if err != nil {
			if pickAborted(err) {
				return nil
			}
			return err
		}

		now := time.Now()
		updates := make(map[string]interface{})

		// Projected due fields, so --remind can be computed against the
		// values this same invocation is setting.
		dueDate := t.DueDate
		dueTime := t.DueTime

		if cmd.Flags().Changed("title") {
			title, _ := cmd.Flags().GetString("title")
			if strings.TrimSpace(title) == "" {
				return fmt.Errorf("title cannot be empty")
			}
			updates["title"] = title
		}
		if cmd.Flags().Changed("notes") {
			notes, _ := cmd.Flags().GetString("notes")
			updates["notes"] = notes
		}
		if cmd.Flags().Changed("priority") {
			raw, _ := cmd.Flags().GetString("priority")
			prio, err := taskutil.NormalizePriority(raw)
			if err != nil {
				return err
			}
			updates["priority"] = prio
		}
		if cmd.Flags().Changed("category") {
			name, _ := cmd.Flags().GetString("category")
			applyCategoryUpdate(updates, name)
		}
		if cmd.Flags().Changed("list") {
			list, _ := cmd.Flags().GetString("list")
			if isClear(list) {
				updates["listName"] = nil
			} else {
				updates["listName"] = list
			}
		}
		if cmd.Flags().Changed("due") {
			due, _ := cmd.Flags().GetString("due")
			if isClear(due) {
				updates["dueDate"] = nil
				updates["dueTime"] = nil
				dueDate, dueTime = nil, nil
			} else {
				day, err := parseDueDate(due, now)
				if err != nil {
					return err
				}
				updates["dueDate"] = day
				dueDate = &day
			}
		}
		if cmd.Flags().Changed("at") {
			at, _ := cmd.Flags().GetString("at")
			if isClear(at) {
				updates["dueTime"] = nil
				dueTime = nil
			} else {
				clock, err := parseClock(at)
				if err != nil {
					return err
				}
				updates["dueTime"] = clock
				dueTime = &clock
				if dueDate == nil {
					day, _ := parseDueDate("today", now)
					updates["dueDate"] = day
					dueDate = &day
				}
			}
		}
		if cmd.Flags().Changed("estimate") {
			est, _ := cmd.Flags().GetString("estimate")
			if isClear(est) {
				updates["estimatedMinutes"] = nil
			} else {
				minutes, err := parseEstimate(est)
				if err != nil {
					return err
				}
				updates["estimatedMinutes"] = minutes
			}
		}
		if cmd.Flags().Changed("every") {
			every, _ := cmd.Flags().GetString("every")
			if isClear(every) {
				updates["recurrence"] = nil
			} else {
				rule, err := parseRecurrence(every)
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("until") {
					until, _ := cmd.Flags().GetString("until")
					end, err := parseDueDate(until, now)
					if err != nil {
						return err
					}
					rule.EndDate = &end
				}
				updates["recurrence"] = rule
			}
		} else if cmd.Flags().Changed("until") {
			if t.Recurrence == nil {
				return fmt.Errorf("--until requires a repeating task (set --every first)")
			}
			until, _ := cmd.Flags().GetString("until")
			rule := t.Recurrence.Clone()
			if isClear(until) {
				rule.EndDate = nil
			} else {
				end, err := parseDueDate(until, now)
				if err != nil {
					return err
				}
				rule.EndDate = &end
			}
			updates["recurrence"] = rule
		}
		if cmd.Flags().Changed("remind") {
			remind, _ := cmd.Flags().GetString("remind")
			if isClear(remind) {
				updates["reminderAt"] = nil
			} else {
				lead, err := time.ParseDuration(remind)
				if err != nil || lead < 0 {
					return fmt.Errorf("unrecognized reminder lead %q (use a duration like 30m or 1h)", remind)
				}
				due := combineDue(dueDate, dueTime)
				if due == nil {
					return fmt.Errorf("--remind requires a due date")
				}
				updates["reminderAt"] = due.Add(-lead)
			}
		}

		if len(updates) == 0 {
			cmd.Println("Nothing to update. Use flags like --title, --due, or --priority.")
			return nil
		}

		svc, err := newTaskService(taskStore)
		if err != nil {
			HandleFatalError("Error: Could not set up task services.", err)
		}
		updated, err := svc.Update(t.ID, updates)
		if err != nil {
			PrintError(fmt.Sprintf("Error: Could not update task '%s'.", t.Title), err)
			return err
		}

		if isJSON() {
			return printJSON(cmd.OutOrStdout(), updated)
		}
		cmd.Printf("Updated task '%s' (ID: %s)\n", updated.Title, updated.ID)
		if updated.Recurrence != nil {
			cmd.Printf("  repeats %s\n", describeRecurrence(updated.Recurrence))
		}
		if at := updated.DueAt(); at != nil {
			cmd.Printf("  due %s\n", at.Format("Mon Jan 2 15:04"))
		}
		return nil
	},
}

// isClear reports whether a flag value asks to unset the field.
func isClear(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "none")
}

// applyCategoryUpdate mirrors applyCategory for map-based updates. An empty
// name clears the category like "none" does.
func applyCategoryUpdate(updates map[string]interface{}, name string) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		name = string(models.CategoryNone)
	}
	switch models.TaskCategory(name) {
	case models.CategoryNone, models.CategoryWork, models.CategoryPersonal, models.CategoryHealth,
		models.CategoryErrands, models.CategoryFinance, models.CategoryLearning, models.CategoryHome:
		updates["category"] = name
		updates["customCategory"] = nil
	default:
		updates["category"] = string(models.CategoryNone)
		updates["customCategory"] = name
	}
}

// combineDue builds the due instant the same way Task.DueAt does.
func combineDue(dueDate, dueTime *time.Time) *time.Time {
	if dueDate == nil {
		return nil
	}
	y, m, d := dueDate.Date()
	at := time.Date(y, m, d, 0, 0, 0, 0, dueDate.Location())
	if dueTime != nil {
		at = time.Date(y, m, d, dueTime.Hour(), dueTime.Minute(), 0, 0, dueDate.Location())
	}
	return &at
}

func init() {
	updateCmd.Flags().String("title", "", "New title")
	updateCmd.Flags().String("notes", "", "New notes (empty string clears)")
	updateCmd.Flags().StringP("priority", "p", "", "New priority (none|low|medium|high|urgent)")
	updateCmd.Flags().String("category", "", "New category (built-in or custom)")
	updateCmd.Flags().String("list", "", "New list name, or none to clear")
	updateCmd.Flags().StringP("due", "d", "", "New due date (today, tomorrow, +Nd, YYYY-MM-DD), or none to clear")
	updateCmd.Flags().String("at", "", "New due time (HH:MM), or none to clear")
	updateCmd.Flags().StringP("estimate", "e", "", "New estimate (minutes or a duration like 1h30m), or none to clear")
	updateCmd.Flags().String("remind", "", "Reminder lead before the due time (e.g. 30m), or none to clear")
	updateCmd.Flags().String("every", "", "New recurrence rule, or none to clear")
	updateCmd.Flags().String("until", "", "Recurrence end date, or none to clear")
	rootCmd.AddCommand(updateCmd)
}
