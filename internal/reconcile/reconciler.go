/*
Package reconcile runs the background engine behind the watch command. It
listens for task and calendar changes (in-process hooks plus fsnotify for
external writers), debounces the bursts, and drives re-ranking, the sync
orchestrator, and conflict scanning. Suggestion and conflict snapshots are
published whole under a mutex, so readers never observe a half-built list.
*/
package reconcile

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tasktide/tasktide/internal/conflict"
	"github.com/tasktide/tasktide/internal/learn"
	"github.com/tasktide/tasktide/internal/notify"
	"github.com/tasktide/tasktide/internal/priority"
	tasksync "github.com/tasktide/tasktide/internal/sync"
	"github.com/tasktide/tasktide/internal/timeutil"
	"github.com/tasktide/tasktide/models"
	"github.com/tasktide/tasktide/store"
)

const (
	defaultDebounce   = 500 * time.Millisecond
	defaultSnoozeTick = time.Minute
)

// Config holds the reconciler's knobs. Zero values pick sensible defaults.
type Config struct {
	// TasksFile is the task data file to watch for external writes.
	TasksFile string
	// CalendarDBFile is the local calendar mirror; empty disables calendar
	// watching (in-process hooks still work).
	CalendarDBFile string
	// Debounce is the quiet period before a change burst is processed.
	Debounce time.Duration
	// SnoozeTick is how often expired snoozes are swept.
	SnoozeTick time.Duration
}

// Deps are the reconciler's collaborators. Sync, Detector, and Notifier may
// be nil; the matching pipelines then become no-ops.
type Deps struct {
	Store    store.TaskStore
	Engine   *priority.Engine
	Feedback *learn.FeedbackStore
	Sync     *tasksync.Orchestrator
	Detector *conflict.Detector
	Notifier notify.Notifier
	Clock    timeutil.Clock
}

// Reconciler owns four debounced pipelines: task changes feed re-ranking and
// the forward sync pass, calendar changes feed the reverse pass and the
// conflict scan.
type Reconciler struct {
	store    store.TaskStore
	engine   *priority.Engine
	feedback *learn.FeedbackStore
	sync     *tasksync.Orchestrator
	detector *conflict.Detector
	notifier notify.Notifier
	clock    timeutil.Clock
	cfg      Config

	rankDebounce    *Debouncer
	forwardDebounce *Debouncer
	reverseDebounce *Debouncer
	scanDebounce    *Debouncer

	// feedbackMu serializes feedback recording with the re-rank that follows
	// it, so callers observe the two as one step.
	feedbackMu sync.Mutex

	mu          sync.Mutex
	suggestions []priority.Suggestion
	conflicts   []conflict.Conflict
	knownKeys   map[string]bool

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New wires a reconciler. Start must be called before it does anything.
func New(deps Deps, cfg Config) *Reconciler {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if cfg.SnoozeTick <= 0 {
		cfg.SnoozeTick = defaultSnoozeTick
	}
	if deps.Clock == nil {
		deps.Clock = timeutil.RealClock{}
	}

	r := &Reconciler{
		store:     deps.Store,
		engine:    deps.Engine,
		feedback:  deps.Feedback,
		sync:      deps.Sync,
		detector:  deps.Detector,
		notifier:  deps.Notifier,
		clock:     deps.Clock,
		cfg:       cfg,
		knownKeys: map[string]bool{},
	}
	r.rankDebounce = NewDebouncer(cfg.Debounce, r.rerank)
	r.forwardDebounce = NewDebouncer(cfg.Debounce, r.runForward)
	r.reverseDebounce = NewDebouncer(cfg.Debounce, r.runReverse)
	r.scanDebounce = NewDebouncer(cfg.Debounce, r.runScan)
	return r
}

// Start subscribes to store changes, begins watching the data files, and
// kicks off an initial full pass. The reconciler runs until Stop or until
// ctx is canceled.
func (r *Reconciler) Start(ctx context.Context) error {
	ctx, r.cancel = context.WithCancel(ctx)

	r.store.Subscribe(r.OnTaskChange)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	r.watcher = watcher
	for _, dir := range r.watchDirs() {
		if err := watcher.Add(dir); err != nil {
			slog.Warn("watch directory", "dir", dir, "error", err)
		}
	}

	r.wg.Add(1)
	go r.eventLoop(ctx)
	r.wg.Add(1)
	go r.snoozeLoop(ctx)

	r.OnTaskChange()
	r.OnCalendarChange()
	return nil
}

// Stop shuts the reconciler down and waits for its goroutines.
func (r *Reconciler) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	if r.watcher != nil {
		_ = r.watcher.Close()
	}
	r.rankDebounce.Stop()
	r.forwardDebounce.Stop()
	r.reverseDebounce.Stop()
	r.scanDebounce.Stop()
	r.wg.Wait()
}

func (r *Reconciler) watchDirs() []string {
	dirs := []string{filepath.Dir(r.cfg.TasksFile)}
	if r.cfg.CalendarDBFile != "" {
		if d := filepath.Dir(r.cfg.CalendarDBFile); d != dirs[0] {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// OnTaskChange is the in-process hook for task mutations. It is also wired
// as the store's change callback, so it must stay cheap and must not call
// back into the store.
func (r *Reconciler) OnTaskChange() {
	r.rankDebounce.Trigger()
	r.forwardDebounce.Trigger()
}

// OnCalendarChange is the in-process hook for calendar mutations.
func (r *Reconciler) OnCalendarChange() {
	r.reverseDebounce.Trigger()
	r.scanDebounce.Trigger()
}

func (r *Reconciler) eventLoop(ctx context.Context) {
	defer r.wg.Done()

	tasksBase := filepath.Base(r.cfg.TasksFile)
	calendarBase := ""
	if r.cfg.CalendarDBFile != "" {
		calendarBase = filepath.Base(r.cfg.CalendarDBFile)
	}

	for {
		select {
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			base := filepath.Base(event.Name)
			switch {
			case base == tasksBase:
				r.OnTaskChange()
			// SQLite writes land in the -wal sidecar, so match by prefix.
			case calendarBase != "" && strings.HasPrefix(base, calendarBase):
				r.OnCalendarChange()
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("file watcher", "error", err)

		case <-ctx.Done():
			return
		}
	}
}

// snoozeLoop sweeps expired snoozes. A shrinking snoozed set is the only
// clock-driven reason to re-rank; nothing else changes between ticks.
func (r *Reconciler) snoozeLoop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.SnoozeTick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweepSnoozes()
		case <-ctx.Done():
			return
		}
	}
}

func (r *Reconciler) sweepSnoozes() {
	pruned, err := r.feedback.PruneExpiredSnoozes(r.clock.Now())
	if err != nil {
		slog.Warn("prune snoozes", "error", err)
		return
	}
	if pruned > 0 {
		slog.Debug("snoozes expired", "count", pruned)
		r.rankDebounce.Trigger()
	}
}

// rerank rebuilds the published suggestion list from the store.
func (r *Reconciler) rerank() {
	now := r.clock.Now()
	tasks, err := r.store.ListTasks(func(t models.Task) bool { return t.IsActionable() }, nil)
	if err != nil {
		slog.Error("re-rank: list tasks", "error", err)
		return
	}
	ranked := r.engine.Rank(tasks, now)

	r.mu.Lock()
	r.suggestions = ranked
	r.mu.Unlock()
	slog.Debug("re-ranked", "tasks", len(ranked))
}

func (r *Reconciler) runForward() {
	if r.sync == nil {
		return
	}
	stats := r.sync.SyncForward()
	if stats.Created+stats.Updated+stats.Completed+stats.Unlinked > 0 {
		// Our own pushes changed the calendar; rescan for conflicts.
		r.scanDebounce.Trigger()
	}
}

func (r *Reconciler) runReverse() {
	if r.sync == nil {
		return
	}
	// Reverse-pass task writes re-enter via the store subscription, which
	// re-ranks and (guarded) forward-syncs.
	r.sync.SyncReverse()
}

// runScan rebuilds the conflict snapshot and notifies conflicts not seen in
// the previous scan.
func (r *Reconciler) runScan() {
	if r.detector == nil {
		return
	}
	now := r.clock.Now()
	tasks, err := r.store.ListTasks(func(t models.Task) bool { return t.IsActionable() }, nil)
	if err != nil {
		slog.Error("conflict scan: list tasks", "error", err)
		return
	}
	found, err := r.detector.Scan(tasks, now)
	if err != nil {
		slog.Error("conflict scan", "error", err)
		return
	}

	r.mu.Lock()
	r.conflicts = found
	fresh := make([]conflict.Conflict, 0)
	seen := make(map[string]bool, len(found))
	for _, c := range found {
		key := conflictKey(c)
		seen[key] = true
		if !r.knownKeys[key] {
			fresh = append(fresh, c)
		}
	}
	r.knownKeys = seen
	r.mu.Unlock()

	if r.notifier == nil {
		return
	}
	for _, c := range fresh {
		_ = r.notifier.Publish(notify.Event{
			Kind:   notify.KindConflict,
			TaskID: c.Task.ID,
			Title:  "Schedule conflict",
			Body:   c.Describe(),
			At:     c.At,
		})
	}
}

func conflictKey(c conflict.Conflict) string {
	ref := ""
	if c.Event != nil {
		ref = c.Event.ID
	} else if c.Other != nil {
		ref = c.Other.ID
	}
	return string(c.Kind) + "|" + c.Task.ID + "|" + ref + "|" + c.At.UTC().Format(time.RFC3339)
}

// RecordFeedback stores one feedback action and synchronously re-ranks, so
// the caller sees the adjusted order as soon as the call returns.
func (r *Reconciler) RecordFeedback(taskID string, action learn.FeedbackAction, category string) error {
	r.feedbackMu.Lock()
	defer r.feedbackMu.Unlock()

	if err := r.feedback.Record(taskID, action, category, r.clock.Now()); err != nil {
		return err
	}
	r.rerank()
	return nil
}

// Suggestions returns the latest published ranking.
func (r *Reconciler) Suggestions() []priority.Suggestion {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]priority.Suggestion, len(r.suggestions))
	copy(out, r.suggestions)
	return out
}

// Conflicts returns the latest published conflict scan.
func (r *Reconciler) Conflicts() []conflict.Conflict {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]conflict.Conflict, len(r.conflicts))
	copy(out, r.conflicts)
	return out
}
