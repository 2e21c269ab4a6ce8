// Package app wires the ibuddy services together.
//
// App is the only place where one service's result feeds another: finishing
// an arena task updates the ledger and the task list, ending a session
// writes the results handoff and awards coins. Each service still owns its
// own state and persistence; App holds no state of its own beyond the
// running countdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/amonks/ibuddy/arena"
	"github.com/amonks/ibuddy/internal/config"
	"github.com/amonks/ibuddy/internal/kv"
	"github.com/amonks/ibuddy/internal/logging"
	"github.com/amonks/ibuddy/internal/metrics"
	"github.com/amonks/ibuddy/notify"
	"github.com/amonks/ibuddy/progress"
	"github.com/amonks/ibuddy/results"
	"github.com/amonks/ibuddy/task"
	"github.com/amonks/ibuddy/theme"
)

// Options configures New and Open.
type Options struct {
	// Config defaults to config.Default().
	Config *config.Config

	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// AfterFunc schedules notification expiry. Defaults to time.AfterFunc.
	AfterFunc notify.AfterFunc

	// NewTickSource drives countdowns. Defaults to arena.TimeTicker.
	NewTickSource arena.NewTickSource

	// NewID returns session and summary IDs. Defaults to uuid.NewString.
	NewID func() string
}

// App is the composed application.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	blobs    kv.Blobs
	newTicks arena.NewTickSource
	closer   io.Closer

	tasks    *task.Store
	ledger   *progress.Ledger
	machine  *arena.Machine
	notices  *notify.Queue
	themes   *theme.Store

	mu        sync.Mutex
	countdown *arena.Countdown
	closed    bool
}

// Open opens the configured storage backend behind a kv.Writer and builds
// the application on it. Close flushes pending writes.
func Open(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	dir, err := cfg.StateDir()
	if err != nil {
		return nil, err
	}
	logger := logging.OrDiscard(opts.Logger)
	store, err := kv.Open(kv.Options{Backend: kv.Backend(cfg.Storage.Backend), Dir: dir, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
	}

	var a *App
	writer := kv.NewWriter(store, kv.WriterOptions{
		Logger: logger,
		OnError: func(ns kv.Namespace, err error) {
			if a != nil {
				a.persistenceFailed(ns, err)
			}
		},
	})
	opts.Config = cfg
	a = New(writer, opts)
	a.closer = writer
	return a, nil
}

// New builds the application on blobs.
func New(blobs kv.Blobs, opts Options) *App {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newTicks := opts.NewTickSource
	if newTicks == nil {
		newTicks = arena.TimeTicker
	}
	a := &App{
		cfg:      cfg,
		logger:   logging.OrDiscard(opts.Logger),
		metrics:  opts.Metrics,
		now:      now,
		blobs:    blobs,
		newTicks: newTicks,
	}

	a.notices = notify.New(notify.Options{
		Settings: notify.Settings{
			DefaultDuration:  cfg.Notifications.DefaultDuration.Duration,
			MaxNotifications: cfg.Notifications.MaxNotifications,
		},
		AfterFunc: opts.AfterFunc,
		Now:       now,
		OnEnqueue: func(n notify.Notification) { a.metrics.Notification(string(n.Type)) },
	})

	a.tasks = task.Open(blobs, task.Options{
		Logger:             a.logger,
		Now:                now,
		SeedDemo:           cfg.Tasks.SeedDemo,
		OnPersistenceError: a.persistenceFailed,
	})
	a.ledger = progress.Open(blobs, progress.Options{
		Logger:             a.logger,
		Now:                now,
		OnPersistenceError: a.persistenceFailed,
	})
	settings := arena.Settings{
		PomodoroLength:       cfg.Arena.PomodoroLength,
		ShortBreakLength:     cfg.Arena.ShortBreakLength,
		LongBreakLength:      cfg.Arena.LongBreakLength,
		TasksBeforeLongBreak: cfg.Arena.TasksBeforeLongBreak,
		AutoStartBreaks:      cfg.Arena.AutoStartBreaks,
		AutoStartPomodoros:   cfg.Arena.AutoStartPomodoros,
	}
	a.machine = arena.Open(blobs, arena.Options{
		Logger:             a.logger,
		Now:                now,
		NewID:              opts.NewID,
		Settings:           &settings,
		OnPersistenceError: a.persistenceFailed,
	})
	a.themes = theme.Open(blobs, theme.Options{
		Logger:             a.logger,
		OnPersistenceError: a.persistenceFailed,
	})
	return a
}

// persistenceFailed surfaces a storage failure as a dismissible warning.
// The service that hit it has already fallen back and logged.
func (a *App) persistenceFailed(ns kv.Namespace, err error) {
	a.metrics.PersistenceError(string(ns))
	title := "Could not save your data"
	if errors.Is(err, kv.ErrMalformed) {
		title = "Saved data was unreadable"
	}
	a.notices.Warning(title, fmt.Sprintf("%s: %v", ns, err))
}

// Close stops the countdown and flushes storage.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.stopCountdownLocked()
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// Config returns the configuration the app was built with.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Notifications returns the queued notifications, newest first.
func (a *App) Notifications() []notify.Notification {
	return a.notices.List()
}

// DismissNotification removes one notification.
func (a *App) DismissNotification(id string) {
	a.notices.Remove(id)
}

// ClearNotifications removes every notification.
func (a *App) ClearNotifications() {
	a.notices.Clear()
}

// Snapshot mirrors the persisted state into the metrics gauges.
func (a *App) Snapshot() metrics.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	taskStats := a.tasks.Stats()
	stats := a.ledger.Stats()
	s := metrics.Snapshot{
		TasksTotal:     taskStats.Total,
		TasksCompleted: taskStats.Completed,
		Coins:          stats.Coins,
		XP:             stats.XP,
		Level:          stats.Level,
		Streak:         stats.Streak,
		StressLevel:    stats.StressLevel,
		SessionHistory: len(a.machine.History()),
		SessionActive:  a.machine.Status() != arena.StatusIdle,
	}
	a.metrics.Observe(s)
	return s
}

// WriteMetrics observes the current state and writes the registry to w.
func (a *App) WriteMetrics(w io.Writer) error {
	if a.metrics == nil {
		return errors.New("metrics are not enabled")
	}
	a.Snapshot()
	return a.metrics.WriteText(w)
}

// Theme returns the stored theme preference.
func (a *App) Theme() theme.Theme {
	return a.themes.Get()
}

// SetTheme stores the theme preference.
func (a *App) SetTheme(name string) (theme.Theme, error) {
	t, err := theme.Parse(name)
	if err != nil {
		a.notices.Error("Unknown theme", err.Error())
		return "", err
	}
	if err := a.themes.Set(t); err != nil {
		return "", err
	}
	return t, nil
}

// ToggleTheme flips between light and dark given the system theme.
func (a *App) ToggleTheme(system theme.Theme) theme.Theme {
	return a.themes.Toggle(system)
}

// ConsumeResults reads and clears the last-session slot. Without a stored
// summary it returns placeholder results, so a second call after one
// session always gets the placeholder.
func (a *App) ConsumeResults() results.Results {
	a.mu.Lock()
	defer a.mu.Unlock()

	var summary arena.Summary
	ok, err := kv.LoadJSON(a.blobs, kv.NamespaceLastSession, &summary)
	if err != nil {
		a.logger.Warn("load last session", "error", err)
		a.persistenceFailed(kv.NamespaceLastSession, err)
	}
	if !ok {
		if err != nil {
			a.clearLastSession()
		}
		r := results.Aggregate(arena.PlaceholderSummary(a.now()), a.ledger.Stats())
		r.Placeholder = true
		return r
	}
	a.clearLastSession()
	return results.Aggregate(summary, a.ledger.Stats())
}

func (a *App) clearLastSession() {
	if err := a.blobs.Clear(kv.NamespaceLastSession); err != nil {
		a.persistenceFailed(kv.NamespaceLastSession, err)
	}
}

// StartCountdown runs the current task's countdown. onTick, if set, sees
// every tick after the app has handled it. When the countdown reaches zero
// the current task is completed; with auto-start enabled the next task's
// countdown starts right away.
func (a *App) StartCountdown(ctx context.Context, onTick func(arena.Tick)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.startCountdownLocked(ctx, onTick)
}

func (a *App) startCountdownLocked(ctx context.Context, onTick func(arena.Tick)) error {
	a.stopCountdownLocked()
	c, err := a.machine.StartCountdown(ctx, a.newTicks, func(t arena.Tick) {
		if t.Expired {
			if _, err := a.expire(ctx, t, onTick); err != nil {
				a.logger.Warn("complete expired task", "error", err)
			}
		}
		if onTick != nil {
			onTick(t)
		}
	})
	if err != nil {
		return err
	}
	a.countdown = c
	return nil
}

// StopCountdown stops the running countdown, if any.
func (a *App) StopCountdown() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopCountdownLocked()
}

func (a *App) stopCountdownLocked() {
	if a.countdown != nil {
		a.countdown.Stop()
		a.countdown = nil
	}
}

// expire completes the current task after its countdown ran out.
func (a *App) expire(ctx context.Context, tick arena.Tick, onTick func(arena.Tick)) (Advance, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || !a.expiryCurrentLocked(tick) {
		return Advance{}, nil
	}
	adv, err := a.completeCurrentLocked()
	if err != nil {
		return adv, err
	}
	a.countdown = nil
	if sess, ok := a.machine.Session(); ok && !adv.Ended && sess.Timer.Running {
		if err := a.startCountdownLocked(ctx, onTick); err != nil {
			return adv, err
		}
	}
	return adv, nil
}

// expiryCurrentLocked reports whether tick still describes the running
// task. Anything done to the session while the tick waited for the lock
// makes it stale.
func (a *App) expiryCurrentLocked(tick arena.Tick) bool {
	sess, ok := a.machine.Session()
	if !ok || sess.Status != arena.StatusActive || sess.CurrentIndex != tick.Index {
		return false
	}
	if slices.Contains(sess.Completed, tick.Index) || slices.Contains(sess.Skipped, tick.Index) {
		return false
	}
	return sess.Timer.Remaining == 0
}
