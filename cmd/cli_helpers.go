/*
Copyright © 2025 The TaskTide Authors
*/
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/tasktide/tasktide/internal/calendar"
	"github.com/tasktide/tasktide/internal/learn"
	"github.com/tasktide/tasktide/internal/notify"
	"github.com/tasktide/tasktide/internal/priority"
	"github.com/tasktide/tasktide/internal/task"
	"github.com/tasktide/tasktide/internal/timeutil"
	"github.com/tasktide/tasktide/internal/undo"
	"github.com/tasktide/tasktide/models"
	"github.com/tasktide/tasktide/store"
)

func isJSON() bool {
	return viper.GetBool("json")
}

func isVerbose() bool {
	return viper.GetBool("verbose")
}

func printJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(output))
	return nil
}

// pickAborted reports pick errors that mean "nothing to do": an interactive
// cancel or an empty selection set. It prints the friendly line itself.
func pickAborted(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Println("Operation cancelled.")
		return true
	}
	if errors.Is(err, ErrNoTasksFound) {
		fmt.Println("No matching tasks.")
		return true
	}
	return false
}

// confirmOrAbort asks before a destructive action. JSON mode skips the
// prompt so scripted callers never block on a TTY.
func confirmOrAbort(label string) bool {
	if isJSON() {
		return true
	}
	confirm := promptui.Prompt{Label: label, IsConfirm: true}
	if _, err := confirm.Run(); err != nil {
		fmt.Println("Cancelled.")
		return false
	}
	return true
}

// resolveTask turns a user-supplied reference into a task: exact ID first,
// then a unique ID prefix, then a unique case-insensitive title match.
func resolveTask(taskStore store.TaskStore, ref string) (models.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Task{}, fmt.Errorf("empty task reference")
	}

	if t, err := taskStore.GetTask(ref); err == nil {
		return t, nil
	}

	tasks, err := taskStore.ListTasks(nil, nil)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to list tasks: %w", err)
	}

	var byPrefix []models.Task
	for _, t := range tasks {
		if strings.HasPrefix(t.ID, ref) {
			byPrefix = append(byPrefix, t)
		}
	}
	if len(byPrefix) == 1 {
		return byPrefix[0], nil
	}
	if len(byPrefix) > 1 {
		return models.Task{}, fmt.Errorf("reference %q matches %d task IDs; use more characters", ref, len(byPrefix))
	}

	lower := strings.ToLower(ref)
	var byTitle []models.Task
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), lower) {
			byTitle = append(byTitle, t)
		}
	}
	if len(byTitle) == 1 {
		return byTitle[0], nil
	}
	if len(byTitle) > 1 {
		return models.Task{}, fmt.Errorf("reference %q matches %d task titles; be more specific", ref, len(byTitle))
	}

	return models.Task{}, fmt.Errorf("no task matches %q: %w", ref, store.ErrTaskNotFound)
}

// dataPath resolves a state file name inside the data directory, creating the
// directory on first use.
func dataPath(name string) (string, error) {
	dir := GetDataDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return filepath.Join(dir, name), nil
}

func openFeedbackStore() (*learn.FeedbackStore, error) {
	path, err := dataPath("feedback.json")
	if err != nil {
		return nil, err
	}
	return learn.NewFeedbackStore(afero.NewOsFs(), path, time.Now())
}

func openPatternStore() (*learn.PatternStore, error) {
	path, err := dataPath("patterns.json")
	if err != nil {
		return nil, err
	}
	return learn.NewPatternStore(afero.NewOsFs(), path)
}

func openUndoLog() (*undo.Log, error) {
	path, err := dataPath("undo.json")
	if err != nil {
		return nil, err
	}
	return undo.NewLog(afero.NewOsFs(), path)
}

// openCalendarStore opens the configured local calendar mirror. An empty
// dbFile keeps everything in memory.
func openCalendarStore() (calendar.Store, error) {
	cfg := GetConfig()
	if cfg.Calendar.DBFile == "" {
		return calendar.NewMemoryStore(), nil
	}
	dbFile := cfg.Calendar.DBFile
	if !filepath.IsAbs(dbFile) {
		path, err := dataPath(dbFile)
		if err != nil {
			return nil, err
		}
		dbFile = path
	}
	return calendar.NewSQLiteStore(dbFile)
}

// newNotifier builds the notification sink for one-shot commands. Disabled
// notifications and JSON mode log nowhere.
func newNotifier() notify.Notifier {
	if !GetConfig().Notifications.Enabled || isJSON() {
		return notify.NewLogNotifier(slog.New(slog.NewTextHandler(io.Discard, nil)))
	}
	level := slog.LevelWarn
	if isVerbose() {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return notify.NewLogNotifier(slog.New(handler))
}

// newTaskService wires the lifecycle service over an open store.
func newTaskService(taskStore store.TaskStore) (*task.Service, error) {
	patterns, err := openPatternStore()
	if err != nil {
		return nil, err
	}
	undoLog, err := openUndoLog()
	if err != nil {
		return nil, err
	}
	return task.NewService(taskStore, patterns, newNotifier(), undoLog, timeutil.RealClock{}), nil
}

// newEngine wires the prioritization engine with its learning stores.
func newEngine() (*priority.Engine, *learn.FeedbackStore, error) {
	feedback, err := openFeedbackStore()
	if err != nil {
		return nil, nil, err
	}
	patterns, err := openPatternStore()
	if err != nil {
		return nil, nil, err
	}
	return priority.NewEngine(feedback, patterns), feedback, nil
}

// parseDueDate accepts today, tomorrow, +Nd, or an absolute YYYY-MM-DD day.
func parseDueDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "today":
		return timeutil.DayStart(now), nil
	case "tomorrow":
		return timeutil.DayStart(now.AddDate(0, 0, 1)), nil
	}
	if strings.HasPrefix(s, "+") && strings.HasSuffix(s, "d") {
		n, err := strconv.Atoi(s[1 : len(s)-1])
		if err == nil && n >= 0 {
			return timeutil.DayStart(now.AddDate(0, 0, n)), nil
		}
	}
	if day, err := time.ParseInLocation("2006-01-02", s, now.Location()); err == nil {
		return day, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q (use today, tomorrow, +Nd, or YYYY-MM-DD)", s)
}

// parseClock accepts a wall-clock time like 9:00 or 14:30.
func parseClock(s string) (time.Time, error) {
	for _, layout := range []string{"15:04", "15.04", "1504"} {
		if at, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return at, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q (use HH:MM)", s)
}

// parseEstimate accepts plain minutes ("45") or a duration ("1h30m").
func parseEstimate(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 {
			return 0, fmt.Errorf("estimate must be at least 1 minute")
		}
		return n, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < time.Minute {
		return 0, fmt.Errorf("unrecognized estimate %q (use minutes or a duration like 1h30m)", s)
	}
	return int(d / time.Minute), nil
}

// Sunday=1 through Saturday=7, matching timeutil.WeekdayNumber.
var weekdayNames = map[string]int{
	"sun": 1, "sunday": 1,
	"mon": 2, "monday": 2,
	"tue": 3, "tues": 3, "tuesday": 3,
	"wed": 4, "wednesday": 4,
	"thu": 5, "thur": 5, "thurs": 5, "thursday": 5,
	"fri": 6, "friday": 6,
	"sat": 7, "saturday": 7,
}

// parseRecurrence turns the --every shorthand into a rule:
//
//	day | daily | N days        daily / custom N-day cadence
//	week | N weeks | biweekly   weekly cadences
//	month | N months            monthly
//	year | N years              yearly
//	mon,wed,fri                 weekly on those days
//	Nh                          every N hours within active hours
//	Nx | Nx/day                 N times per day, evenly spread
//	at 9:00,13:00,18:00         at those times each day
func parseRecurrence(s string) (*models.RecurringRule, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return nil, fmt.Errorf("empty recurrence")
	}

	switch s {
	case "day", "daily":
		return &models.RecurringRule{Frequency: models.FreqDaily}, nil
	case "week", "weekly":
		return &models.RecurringRule{Frequency: models.FreqWeekly}, nil
	case "biweekly", "fortnightly":
		return &models.RecurringRule{Frequency: models.FreqBiweekly}, nil
	case "month", "monthly":
		return &models.RecurringRule{Frequency: models.FreqMonthly}, nil
	case "year", "yearly", "annually":
		return &models.RecurringRule{Frequency: models.FreqYearly}, nil
	}

	// "at 9:00,13:00" pins intraday occurrences to explicit times.
	if rest, ok := strings.CutPrefix(s, "at "); ok {
		var times []models.TimeOfDay
		for _, part := range strings.Split(rest, ",") {
			at, err := parseClock(part)
			if err != nil {
				return nil, err
			}
			times = append(times, models.TimeOfDay{Hour: at.Hour(), Minute: at.Minute()})
		}
		if len(times) == 0 {
			return nil, fmt.Errorf("no times given after %q", "at")
		}
		return &models.RecurringRule{
			Frequency:     models.FreqTimesPerDay,
			TimesPerDay:   len(times),
			SpecificTimes: times,
		}, nil
	}

	// "3h" hourly, "3x" / "3x/day" times-per-day.
	if n, err := strconv.Atoi(strings.TrimSuffix(s, "h")); err == nil && strings.HasSuffix(s, "h") {
		if n < 1 || n > 23 {
			return nil, fmt.Errorf("hour interval must be 1..23")
		}
		return &models.RecurringRule{Frequency: models.FreqHourly, HourInterval: n}, nil
	}
	if body, ok := strings.CutSuffix(strings.TrimSuffix(s, "/day"), "x"); ok {
		if n, err := strconv.Atoi(body); err == nil {
			if n < 1 || n > 48 {
				return nil, fmt.Errorf("times per day must be 1..48")
			}
			return &models.RecurringRule{Frequency: models.FreqTimesPerDay, TimesPerDay: n}, nil
		}
	}

	// "mon,wed,fri" selects weekdays.
	if days, ok := parseWeekdayList(s); ok {
		return &models.RecurringRule{Frequency: models.FreqWeekly, DaysOfWeek: days}, nil
	}

	// "N days" / "N weeks" / "N months" / "N years".
	fields := strings.Fields(s)
	if len(fields) == 2 {
		n, err := strconv.Atoi(fields[0])
		if err == nil && n >= 1 {
			switch strings.TrimSuffix(fields[1], "s") {
			case "day":
				if n == 1 {
					return &models.RecurringRule{Frequency: models.FreqDaily}, nil
				}
				return &models.RecurringRule{Frequency: models.FreqCustom, Interval: n}, nil
			case "week":
				return &models.RecurringRule{Frequency: models.FreqWeekly, Interval: n}, nil
			case "month":
				return &models.RecurringRule{Frequency: models.FreqMonthly, Interval: n}, nil
			case "year":
				return &models.RecurringRule{Frequency: models.FreqYearly, Interval: n}, nil
			}
		}
	}

	return nil, fmt.Errorf("unrecognized recurrence %q", s)
}

func parseWeekdayList(s string) ([]int, bool) {
	parts := strings.Split(s, ",")
	seen := make(map[int]bool)
	var days []int
	for _, part := range parts {
		n, ok := weekdayNames[strings.TrimSpace(part)]
		if !ok {
			return nil, false
		}
		if !seen[n] {
			seen[n] = true
			days = append(days, n)
		}
	}
	sort.Ints(days)
	return days, true
}

// describeRecurrence renders a rule back into the shorthand vocabulary.
func describeRecurrence(r *models.RecurringRule) string {
	if r == nil {
		return ""
	}
	var base string
	switch r.Frequency {
	case models.FreqDaily:
		base = "daily"
	case models.FreqWeekly:
		if len(r.DaysOfWeek) > 0 {
			names := []string{"", "sun", "mon", "tue", "wed", "thu", "fri", "sat"}
			var parts []string
			for _, d := range r.DaysOfWeek {
				if d >= 1 && d <= 7 {
					parts = append(parts, names[d])
				}
			}
			base = "weekly on " + strings.Join(parts, ",")
		} else if r.EffectiveInterval() > 1 {
			base = fmt.Sprintf("every %d weeks", r.EffectiveInterval())
		} else {
			base = "weekly"
		}
	case models.FreqBiweekly:
		base = "biweekly"
	case models.FreqMonthly:
		base = "monthly"
	case models.FreqYearly:
		base = "yearly"
	case models.FreqCustom:
		base = fmt.Sprintf("every %d days", r.EffectiveInterval())
	case models.FreqHourly:
		base = fmt.Sprintf("every %dh", r.EffectiveHourInterval())
	case models.FreqTimesPerDay:
		if len(r.SpecificTimes) > 0 {
			var parts []string
			for _, at := range r.SortedTimes() {
				parts = append(parts, fmt.Sprintf("%d:%02d", at.Hour, at.Minute))
			}
			base = "daily at " + strings.Join(parts, ",")
		} else {
			base = fmt.Sprintf("%dx/day", r.EffectiveTimesPerDay())
		}
	default:
		base = string(r.Frequency)
	}
	if r.EndDate != nil {
		base += " until " + r.EndDate.Format("2006-01-02")
	}
	return base
}
