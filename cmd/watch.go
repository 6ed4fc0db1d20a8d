/*
Copyright © 2025 The TaskTide Authors
*/
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tasktide/tasktide/internal/calendar"
	"github.com/tasktide/tasktide/internal/conflict"
	"github.com/tasktide/tasktide/internal/reconcile"
	tasksync "github.com/tasktide/tasktide/internal/sync"
	"github.com/tasktide/tasktide/internal/timeutil"
	"github.com/tasktide/tasktide/internal/ui"
)

var watchDashboard bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the reconciliation loop in the foreground",
	Long: `Watch the task file and the calendar mirror for changes and react to them:
re-rank suggestions, push scheduled tasks to the calendar, pull external edits
back, sweep expired snoozes, and surface new schedule conflicts.

With --dashboard, a live terminal board shows the current top picks and any
conflicts instead of log output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		taskStore, err := GetStore()
		if err != nil {
			return err
		}
		defer func() { _ = taskStore.Close() }()

		cal, err := openCalendarStore()
		if err != nil {
			return err
		}
		defer func() { _ = cal.Close() }()

		engine, feedback, err := newEngine()
		if err != nil {
			return err
		}
		svc, err := newTaskService(taskStore)
		if err != nil {
			return err
		}

		var orch *tasksync.Orchestrator
		if cfg.Calendar.SyncEnabled {
			orch = tasksync.NewOrchestrator(taskStore, cal, svc, newNotifier(), timeutil.RealClock{}, tasksync.Options{
				BusyOnly:         cfg.Calendar.BusyOnly,
				CompletionPolicy: cfg.Calendar.CompletionPolicy,
			})
		}

		calendarFile := ""
		if sq, ok := cal.(*calendar.SQLiteStore); ok {
			calendarFile = sq.Path()
		}

		rec := reconcile.New(reconcile.Deps{
			Store:    taskStore,
			Engine:   engine,
			Feedback: feedback,
			Sync:     orch,
			Detector: conflict.NewDetector(cal),
			Notifier: newNotifier(),
			Clock:    timeutil.RealClock{},
		}, reconcile.Config{
			TasksFile:      GetTaskFilePath(),
			CalendarDBFile: calendarFile,
			Debounce:       time.Duration(cfg.Watch.DebounceMs) * time.Millisecond,
			SnoozeTick:     time.Duration(cfg.Watch.SnoozeSweepSeconds) * time.Second,
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := rec.Start(ctx); err != nil {
			return err
		}
		defer rec.Stop()

		if watchDashboard {
			return ui.RunDashboard(rec)
		}

		slog.Info("watching", "tasks", GetTaskFilePath(), "calendar", calendarFile, "sync", cfg.Calendar.SyncEnabled)
		cmd.Println("Watching for changes. Press Ctrl+C to stop.")
		<-ctx.Done()
		cmd.Println("Stopped.")
		return nil
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchDashboard, "dashboard", false, "Show a live suggestions dashboard instead of log output")
	rootCmd.AddCommand(watchCmd)
}
