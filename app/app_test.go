package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/amonks/ibuddy/arena"
	"github.com/amonks/ibuddy/internal/config"
	"github.com/amonks/ibuddy/internal/kv"
	"github.com/amonks/ibuddy/internal/metrics"
	"github.com/amonks/ibuddy/notify"
	"github.com/amonks/ibuddy/progress"
	"github.com/amonks/ibuddy/task"
)

type noopTimer struct{}

func (noopTimer) Stop() bool { return true }

func neverFire(time.Duration, func()) notify.Timer { return noopTimer{} }

var testNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Storage.Backend = "memory"
	cfg.Notifications.MaxNotifications = 50
	return cfg
}

func newTestApp(t *testing.T, blobs kv.Blobs, cfg *config.Config) *App {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	a := New(blobs, Options{
		Config:    cfg,
		Metrics:   metrics.New(),
		Now:       func() time.Time { return testNow },
		AfterFunc: neverFire,
	})
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func addTasks(t *testing.T, a *App, titles ...string) []task.Task {
	t.Helper()
	var out []task.Task
	for _, title := range titles {
		tk, err := a.AddTask(task.NewTask{Title: title, Subject: "Math", EstimatedMinutes: 25})
		if err != nil {
			t.Fatalf("add %q: %v", title, err)
		}
		out = append(out, tk)
	}
	return out
}

func hasNotification(a *App, typ notify.Type, title string) bool {
	for _, n := range a.Notifications() {
		if n.Type == typ && n.Title == title {
			return true
		}
	}
	return false
}

func TestThreeTaskSession(t *testing.T) {
	blobs := kv.NewMemStore()
	a := newTestApp(t, blobs, nil)
	addTasks(t, a, "Integrals", "Essay", "Lab report")

	sess, err := a.StartArena()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(sess.Tasks) != 3 {
		t.Fatalf("expected 3 session tasks, got %d", len(sess.Tasks))
	}

	if adv, err := a.CompleteCurrent(); err != nil || adv.Ended {
		t.Fatalf("complete first: %+v %v", adv, err)
	}
	if adv, err := a.SkipCurrent(); err != nil || adv.Ended {
		t.Fatalf("skip second: %+v %v", adv, err)
	}
	adv, err := a.CompleteCurrent()
	if err != nil {
		t.Fatalf("complete last: %v", err)
	}
	if !adv.Ended {
		t.Fatalf("completing the last task must end the session")
	}

	s := adv.Summary
	if s.Status != arena.StatusCompleted || s.TasksCompleted != 2 || s.TotalTasks != 3 || s.FocusScore != 67 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.TotalTime != 75 || s.FocusTime != 50 || s.BreakTime != 5 {
		t.Fatalf("unexpected times %d/%d/%d", s.TotalTime, s.FocusTime, s.BreakTime)
	}

	stats := a.Stats()
	wantCoins := progress.StartingCoins + 26
	if stats.Coins != wantCoins {
		t.Fatalf("expected %d coins, got %d", wantCoins, stats.Coins)
	}
	if stats.FocusMinutes != 50 || stats.TasksCompleted != 2 || stats.Streak != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if a.ArenaState().Session != nil || len(a.ArenaHistory()) != 1 {
		t.Fatalf("ended session must move to history")
	}

	completed := 0
	for _, tk := range a.Tasks() {
		if tk.Completed {
			completed++
		}
	}
	if completed != 2 {
		t.Fatalf("expected the two source tasks completed, got %d", completed)
	}

	r := a.ConsumeResults()
	if r.Placeholder || r.Summary.FocusScore != 67 || r.CoinsEarned != 26 {
		t.Fatalf("unexpected results %+v", r)
	}
	if a.Stats().Coins != wantCoins {
		t.Fatalf("reading results must not award coins again")
	}
	if again := a.ConsumeResults(); !again.Placeholder || again.Summary.FocusScore != 85 {
		t.Fatalf("second read must fall back to the placeholder, got %+v", again)
	}
}

func TestStartArena_NoTasks(t *testing.T) {
	a := newTestApp(t, kv.NewMemStore(), nil)
	if _, err := a.StartArena(); !errors.Is(err, arena.ErrNoTasks) {
		t.Fatalf("expected ErrNoTasks, got %v", err)
	}
	if !hasNotification(a, notify.TypeError, "No tasks available") {
		t.Fatalf("expected an error notification, got %+v", a.Notifications())
	}
	if a.ArenaState().Session != nil {
		t.Fatalf("no session must start")
	}
}

func TestStartArena_SnapshotsIncompleteTasks(t *testing.T) {
	cfg := testConfig()
	cfg.Arena.MaxTasks = 2
	a := newTestApp(t, kv.NewMemStore(), cfg)
	tasks := addTasks(t, a, "one", "two", "three")
	if _, err := a.ToggleTask(tasks[2].ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	sess, err := a.StartArena()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(sess.Tasks) != 2 {
		t.Fatalf("expected the session capped at 2 tasks, got %d", len(sess.Tasks))
	}
	for _, at := range sess.Tasks {
		if at.ID == tasks[2].ID {
			t.Fatalf("completed task must not be snapshotted")
		}
	}

	if _, err := a.StartArena(); !errors.Is(err, arena.ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}
}

func TestSourceTaskDeletedDuringSession(t *testing.T) {
	a := newTestApp(t, kv.NewMemStore(), nil)
	tasks := addTasks(t, a, "only")
	if _, err := a.StartArena(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := a.DeleteTask(tasks[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	adv, err := a.CompleteCurrent()
	if err != nil || !adv.Ended || adv.Summary.TasksCompleted != 1 {
		t.Fatalf("expected the session to end normally, got %+v %v", adv, err)
	}
}

func TestExitArena(t *testing.T) {
	a := newTestApp(t, kv.NewMemStore(), nil)
	addTasks(t, a, "one", "two")
	if _, err := a.StartArena(); err != nil {
		t.Fatalf("start: %v", err)
	}
	summary, err := a.ExitArena()
	if err != nil {
		t.Fatalf("exit: %v", err)
	}
	if summary.Status != arena.StatusCancelled || summary.FocusScore != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	stats := a.Stats()
	if stats.Coins != progress.StartingCoins || stats.Streak != 0 {
		t.Fatalf("an empty cancelled session earns nothing, got %+v", stats)
	}
	if _, err := a.ExitArena(); !errors.Is(err, arena.ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
	if _, err := a.CompleteCurrent(); !errors.Is(err, arena.ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestAchievementsUnlockOnce(t *testing.T) {
	a := newTestApp(t, kv.NewMemStore(), nil)
	addTasks(t, a, "a", "b", "c", "d")
	if _, err := a.StartArena(); err != nil {
		t.Fatalf("start: %v", err)
	}
	var adv Advance
	for range 4 {
		var err error
		if adv, err = a.CompleteCurrent(); err != nil {
			t.Fatalf("complete: %v", err)
		}
	}
	var ids []string
	for _, b := range adv.Unlocked {
		ids = append(ids, b.ID)
	}
	if got := strings.Join(ids, ","); got != "focus-master,time-warrior,peak-performer" {
		t.Fatalf("unexpected unlocks %q", got)
	}
	if !hasNotification(a, notify.TypeSuccess, "Achievement unlocked!") {
		t.Fatalf("expected an achievement notification")
	}

	addTasks(t, a, "e", "f", "g", "h")
	if _, err := a.StartArena(); err != nil {
		t.Fatalf("start again: %v", err)
	}
	for range 4 {
		var err error
		if adv, err = a.CompleteCurrent(); err != nil {
			t.Fatalf("complete: %v", err)
		}
	}
	if len(adv.Unlocked) != 0 {
		t.Fatalf("achievements must unlock once, got %+v", adv.Unlocked)
	}
	if got := len(a.Profile().Achievements); got != 3 {
		t.Fatalf("expected 3 stored achievements, got %d", got)
	}
}

func TestHandleTick(t *testing.T) {
	a := newTestApp(t, kv.NewMemStore(), nil)
	addTasks(t, a, "one", "two")
	if _, err := a.StartArena(); err != nil {
		t.Fatalf("start: %v", err)
	}
	a.ResumeArena()

	if adv, err := a.HandleTick(30, true); err != nil || adv.Ended || adv.Next.ID != "" {
		t.Fatalf("a tick above zero must only update the timer, got %+v %v", adv, err)
	}
	adv, err := a.HandleTick(0, true)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if adv.Ended || adv.Next.Title != "one" || adv.BreakMinutes != 5 {
		t.Fatalf("expected to advance to the second task after a short break, got %+v", adv)
	}
	sess, _ := a.ArenaSession()
	if sess.CurrentIndex != 1 || sess.Timer.Running {
		t.Fatalf("unexpected session after expiry %+v", sess)
	}
}

func TestHandleTickWhilePaused(t *testing.T) {
	a := newTestApp(t, kv.NewMemStore(), nil)
	addTasks(t, a, "one", "two")
	if _, err := a.StartArena(); err != nil {
		t.Fatalf("start: %v", err)
	}
	a.PauseArena()

	adv, err := a.HandleTick(0, true)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if adv.Ended || adv.Next.ID != "" {
		t.Fatalf("a paused session must not advance, got %+v", adv)
	}
	sess, _ := a.ArenaSession()
	if sess.Status != arena.StatusPaused || sess.CurrentIndex != 0 || len(sess.Completed) != 0 || sess.Timer.Running {
		t.Fatalf("unexpected session after paused tick %+v", sess)
	}
	if a.Stats().FocusMinutes != 0 {
		t.Fatalf("expected no focus minutes, got %d", a.Stats().FocusMinutes)
	}
}

func TestHandleTickNegativeRemaining(t *testing.T) {
	a := newTestApp(t, kv.NewMemStore(), nil)
	addTasks(t, a, "one", "two")
	if _, err := a.StartArena(); err != nil {
		t.Fatalf("start: %v", err)
	}
	a.ResumeArena()

	if _, err := a.HandleTick(-1, true); err != nil {
		t.Fatalf("tick: %v", err)
	}
	sess, _ := a.ArenaSession()
	if sess.CurrentIndex != 1 || len(sess.Completed) != 1 {
		t.Fatalf("a tick below zero must complete the task, got %+v", sess)
	}
}

func TestStaleExpiryIgnored(t *testing.T) {
	a := newTestApp(t, kv.NewMemStore(), nil)
	addTasks(t, a, "one", "two", "three")
	if _, err := a.StartArena(); err != nil {
		t.Fatalf("start: %v", err)
	}
	a.ResumeArena()
	if _, err := a.HandleTick(1, true); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if err := a.machine.UpdateTimer(0, true); err != nil {
		t.Fatalf("update timer: %v", err)
	}
	expiring := arena.Tick{Index: 0, Timer: arena.Timer{Running: true}, Expired: true}

	// The student completes the task while the expiring tick waits.
	if _, err := a.CompleteCurrent(); err != nil {
		t.Fatalf("complete: %v", err)
	}
	a.ResumeArena()
	if err := a.machine.UpdateTimer(0, true); err != nil {
		t.Fatalf("update timer: %v", err)
	}
	if _, err := a.expire(context.Background(), expiring, nil); err != nil {
		t.Fatalf("expire: %v", err)
	}

	sess, _ := a.ArenaSession()
	if sess.CurrentIndex != 1 || len(sess.Completed) != 1 || len(sess.Skipped) != 0 {
		t.Fatalf("the stale expiry must not complete the next task, got %+v", sess)
	}
	if a.Stats().FocusMinutes != 25 {
		t.Fatalf("expected 25 focus minutes, got %d", a.Stats().FocusMinutes)
	}

	current := arena.Tick{Index: 1, Timer: arena.Timer{Running: true}, Expired: true}
	if _, err := a.expire(context.Background(), current, nil); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if sess, _ := a.ArenaSession(); sess.CurrentIndex != 2 || len(sess.Completed) != 2 {
		t.Fatalf("a current expiry must complete the task, got %+v", sess)
	}
}

func TestExpiryAfterCloseIgnored(t *testing.T) {
	a := newTestApp(t, kv.NewMemStore(), nil)
	addTasks(t, a, "one", "two")
	if _, err := a.StartArena(); err != nil {
		t.Fatalf("start: %v", err)
	}
	a.ResumeArena()
	if err := a.machine.UpdateTimer(0, true); err != nil {
		t.Fatalf("update timer: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	before := len(a.Notifications())

	adv, err := a.expire(context.Background(), arena.Tick{Index: 0, Expired: true}, nil)
	if err != nil || adv.Ended || adv.Next.ID != "" {
		t.Fatalf("expected a closed app to ignore the expiry, got %+v %v", adv, err)
	}
	if sess, _ := a.ArenaSession(); len(sess.Completed) != 0 {
		t.Fatalf("expected nothing completed after close, got %+v", sess)
	}
	if got := len(a.Notifications()); got != before {
		t.Fatalf("expected no new notifications, got %d want %d", got, before)
	}
}

type manualTicks struct{ c chan time.Time }

func (m manualTicks) C() <-chan time.Time { return m.c }
func (m manualTicks) Stop()               {}

func TestCountdownExpiryCompletesTask(t *testing.T) {
	cfg := testConfig()
	cfg.Arena.PomodoroLength = 1
	ticks := manualTicks{c: make(chan time.Time)}
	a := New(kv.NewMemStore(), Options{
		Config:        cfg,
		Now:           func() time.Time { return testNow },
		AfterFunc:     neverFire,
		NewTickSource: func(time.Duration) arena.TickSource { return ticks },
	})
	defer a.Close()
	addTasks(t, a, "one", "two")
	if _, err := a.StartArena(); err != nil {
		t.Fatalf("start: %v", err)
	}
	a.ResumeArena()

	expired := make(chan arena.Tick, 1)
	err := a.StartCountdown(context.Background(), func(tick arena.Tick) {
		if tick.Expired {
			expired <- tick
		}
	})
	if err != nil {
		t.Fatalf("start countdown: %v", err)
	}
	for range 60 {
		ticks.c <- testNow
	}
	select {
	case <-expired:
	case <-time.After(5 * time.Second):
		t.Fatalf("countdown never expired")
	}

	sess, ok := a.ArenaSession()
	if !ok || sess.CurrentIndex != 1 || len(sess.Completed) != 1 {
		t.Fatalf("expected the first task completed, got %+v", sess)
	}
	if a.Stats().FocusMinutes != 25 {
		t.Fatalf("expected 25 focus minutes, got %d", a.Stats().FocusMinutes)
	}
}

func TestCountdownRequiresRunningSession(t *testing.T) {
	a := newTestApp(t, kv.NewMemStore(), nil)
	addTasks(t, a, "one")
	if _, err := a.StartArena(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := a.StartCountdown(context.Background(), nil); !errors.Is(err, arena.ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}

type failingBlobs struct{ *kv.MemStore }

func (failingBlobs) Save(ns kv.Namespace, _ []byte) error {
	return kv.ErrPersistence
}

func TestPersistenceFailureNotifies(t *testing.T) {
	a := newTestApp(t, failingBlobs{kv.NewMemStore()}, nil)
	if _, err := a.AddTask(task.NewTask{Title: "x", Subject: "Math"}); err != nil {
		t.Fatalf("a failed save must not fail the operation: %v", err)
	}
	if !hasNotification(a, notify.TypeWarning, "Could not save your data") {
		t.Fatalf("expected a warning, got %+v", a.Notifications())
	}
	if len(a.Tasks()) != 1 {
		t.Fatalf("memory must stay authoritative")
	}
}

func TestConsumeResults_MalformedFallsBack(t *testing.T) {
	blobs := kv.NewMemStore()
	if err := blobs.Save(kv.NamespaceLastSession, []byte("{")); err != nil {
		t.Fatalf("save: %v", err)
	}
	a := newTestApp(t, blobs, nil)
	r := a.ConsumeResults()
	if !r.Placeholder {
		t.Fatalf("expected placeholder results")
	}
	if !hasNotification(a, notify.TypeWarning, "Saved data was unreadable") {
		t.Fatalf("expected a malformed warning")
	}
	if _, ok, _ := blobs.Load(kv.NamespaceLastSession); ok {
		t.Fatalf("malformed slot must be cleared")
	}
}

func TestSpendCoins(t *testing.T) {
	a := newTestApp(t, kv.NewMemStore(), nil)
	if !a.SpendCoins(40) {
		t.Fatalf("expected spend to succeed")
	}
	if a.SpendCoins(1000) {
		t.Fatalf("expected overspend to fail")
	}
	if a.Stats().Coins != progress.StartingCoins-40 {
		t.Fatalf("failed spend must not change the balance")
	}
	if !hasNotification(a, notify.TypeError, "Not enough coins") {
		t.Fatalf("expected an error notification")
	}
}

func TestStatePersistsAcrossApps(t *testing.T) {
	blobs := kv.NewMemStore()
	a := newTestApp(t, blobs, nil)
	addTasks(t, a, "one", "two")
	if _, err := a.StartArena(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := a.CompleteCurrent(); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := a.SetTheme("dark"); err != nil {
		t.Fatalf("theme: %v", err)
	}

	b := newTestApp(t, blobs, nil)
	sess, ok := b.ArenaSession()
	if !ok || sess.CurrentIndex != 1 {
		t.Fatalf("expected the session to survive a restart, got %+v", sess)
	}
	if b.Stats().FocusMinutes != 25 || b.Theme() != "dark" {
		t.Fatalf("expected ledger and theme to survive a restart")
	}
}

func TestSnapshot(t *testing.T) {
	a := newTestApp(t, kv.NewMemStore(), nil)
	addTasks(t, a, "one", "two")
	snap := a.Snapshot()
	if snap.TasksTotal != 2 || snap.Coins != progress.StartingCoins || snap.SessionActive {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	var b strings.Builder
	if err := a.WriteMetrics(&b); err != nil {
		t.Fatalf("write metrics: %v", err)
	}
	if !strings.Contains(b.String(), "ibuddy_") {
		t.Fatalf("expected ibuddy metrics, got %q", b.String())
	}
}
