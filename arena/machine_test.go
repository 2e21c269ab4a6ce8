package arena

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/amonks/ibuddy/internal/kv"
)

func openMachine(t *testing.T, blobs kv.Blobs) *Machine {
	t.Helper()
	n := 0
	return Open(blobs, Options{
		Now: func() time.Time { return testNow },
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
}

func TestMachine_PersistsAcrossOpen(t *testing.T) {
	blobs := kv.NewMemStore()
	m := openMachine(t, blobs)

	if _, err := m.Start(arenaTasks(25, 30)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.CompleteTask(0); err != nil {
		t.Fatalf("complete: %v", err)
	}
	m.Pause()

	reopened := openMachine(t, blobs)
	sess, ok := reopened.Session()
	if !ok {
		t.Fatalf("expected stored session")
	}
	if sess.Status != StatusPaused || len(sess.Completed) != 1 || sess.ID != "id-1" {
		t.Fatalf("unexpected reloaded session %+v", sess)
	}

	summary, err := reopened.End(StatusCancelled)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if summary.Status != StatusCancelled || summary.TasksCompleted != 1 || summary.FocusScore != 50 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	again := openMachine(t, blobs)
	if again.Status() != StatusIdle || len(again.History()) != 1 {
		t.Fatalf("expected idle with one summary, got %s and %d", again.Status(), len(again.History()))
	}
}

func TestMachine_MalformedFallsBack(t *testing.T) {
	blobs := kv.NewMemStore()
	if err := blobs.Save(kv.NamespaceArena, []byte("[[[")); err != nil {
		t.Fatalf("save: %v", err)
	}
	var reported error
	m := Open(blobs, Options{OnPersistenceError: func(_ kv.Namespace, err error) { reported = err }})
	if !errors.Is(reported, kv.ErrMalformed) {
		t.Fatalf("expected malformed report, got %v", reported)
	}
	if m.Settings() != DefaultSettings() || m.Status() != StatusIdle {
		t.Fatalf("expected default idle state")
	}
}

func TestMachine_DropsInvalidStoredSession(t *testing.T) {
	blobs := kv.NewMemStore()
	bad := State{
		Settings: DefaultSettings(),
		Session: &Session{
			Status:       StatusActive,
			Tasks:        arenaTasks(25),
			CurrentIndex: 3,
			Settings:     DefaultSettings(),
		},
	}
	if err := kv.SaveJSON(blobs, kv.NamespaceArena, bad); err != nil {
		t.Fatalf("save: %v", err)
	}
	m := openMachine(t, blobs)
	if m.Status() != StatusIdle {
		t.Fatalf("expected invalid session to be dropped")
	}
}

func TestMachine_ConfiguredSettingsOnlyOnMiss(t *testing.T) {
	custom := Settings{PomodoroLength: 50, ShortBreakLength: 10, LongBreakLength: 30, TasksBeforeLongBreak: 2}
	blobs := kv.NewMemStore()
	m := Open(blobs, Options{Settings: &custom})
	if m.Settings() != custom {
		t.Fatalf("expected configured settings, got %+v", m.Settings())
	}

	length := 40
	if _, err := m.UpdateSettings(SettingsPatch{PomodoroLength: &length}); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	reopened := Open(blobs, Options{Settings: &custom})
	if reopened.Settings().PomodoroLength != 40 {
		t.Fatalf("stored settings must win over configured ones, got %+v", reopened.Settings())
	}
}

func TestMachine_Queries(t *testing.T) {
	m := openMachine(t, kv.NewMemStore())

	if _, ok := m.CurrentTask(); ok {
		t.Fatalf("expected no current task while idle")
	}
	if m.Progress() != 0 || m.TasksRemaining() != 0 || m.Elapsed(testNow) != 0 {
		t.Fatalf("expected zero queries while idle")
	}

	if _, err := m.Start(arenaTasks(25, 30, 15)); err != nil {
		t.Fatalf("start: %v", err)
	}
	current, ok := m.CurrentTask()
	if !ok || current.Duration != 25 {
		t.Fatalf("unexpected current task %+v", current)
	}
	if got := m.TasksRemaining(); got != 2 {
		t.Fatalf("expected 2 remaining, got %d", got)
	}
	if m.IsLastTask() {
		t.Fatalf("first of three is not the last task")
	}
	if err := m.NextTask(); err != nil {
		t.Fatalf("next: %v", err)
	}
	if err := m.NextTask(); err != nil {
		t.Fatalf("next: %v", err)
	}
	if !m.IsLastTask() || m.Progress() != 100 {
		t.Fatalf("expected last task at 100%%, got %v", m.Progress())
	}
	if err := m.NextTask(); !errors.Is(err, ErrTaskIndexOutOfRange) {
		t.Fatalf("expected ErrTaskIndexOutOfRange, got %v", err)
	}
	if got := m.Elapsed(testNow.Add(90 * time.Second)); got != 90*time.Second {
		t.Fatalf("expected 90s elapsed, got %v", got)
	}
	if m.BreakAfterCurrent() != 5 {
		t.Fatalf("expected short break")
	}

	m.Reset()
	if m.Status() != StatusIdle {
		t.Fatalf("expected idle after reset")
	}
}

// fakeTicks is a TickSource driven by the test.
type fakeTicks struct {
	ch chan time.Time
}

func newFakeTicks() *fakeTicks {
	return &fakeTicks{ch: make(chan time.Time, 1)}
}

func (f *fakeTicks) C() <-chan time.Time { return f.ch }
func (f *fakeTicks) Stop()               {}

func (f *fakeTicks) source(time.Duration) TickSource { return f }

func waitDone(t *testing.T, c *Countdown) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("countdown did not stop")
	}
}

func runningMachine(t *testing.T, remaining int) *Machine {
	t.Helper()
	m := openMachine(t, kv.NewMemStore())
	if _, err := m.Start(arenaTasks(25, 25)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.UpdateTimer(remaining, true); err != nil {
		t.Fatalf("update timer: %v", err)
	}
	m.Resume()
	return m
}

func TestCountdown_TicksToExpiry(t *testing.T) {
	m := runningMachine(t, 2)
	ticks := newFakeTicks()
	got := make(chan Tick, 4)

	c, err := m.StartCountdown(context.Background(), ticks.source, func(tick Tick) { got <- tick })
	if err != nil {
		t.Fatalf("start countdown: %v", err)
	}

	ticks.ch <- testNow
	first := <-got
	if first.Timer.Remaining != 1 || first.Expired {
		t.Fatalf("unexpected first tick %+v", first)
	}

	ticks.ch <- testNow
	second := <-got
	if second.Timer.Remaining != 0 || !second.Expired || second.Index != 0 {
		t.Fatalf("unexpected second tick %+v", second)
	}
	waitDone(t, c)

	sess, _ := m.Session()
	if sess.Timer.Remaining != 0 {
		t.Fatalf("expected stored timer at 0, got %d", sess.Timer.Remaining)
	}
}

func TestCountdown_StopsOnPause(t *testing.T) {
	m := runningMachine(t, 30)
	ticks := newFakeTicks()
	var calls int
	c, err := m.StartCountdown(context.Background(), ticks.source, func(Tick) { calls++ })
	if err != nil {
		t.Fatalf("start countdown: %v", err)
	}

	m.Pause()
	ticks.ch <- testNow
	waitDone(t, c)

	if calls != 0 {
		t.Fatalf("expected no tick after pause, got %d", calls)
	}
	sess, _ := m.Session()
	if sess.Timer.Remaining != 30 {
		t.Fatalf("timer changed after pause: %d", sess.Timer.Remaining)
	}
}

func TestCountdown_StaleAfterResume(t *testing.T) {
	m := runningMachine(t, 30)
	ticks := newFakeTicks()
	c, err := m.StartCountdown(context.Background(), ticks.source, nil)
	if err != nil {
		t.Fatalf("start countdown: %v", err)
	}

	// Pausing and resuming makes the old countdown stale even though the
	// session is running again.
	m.Pause()
	m.Resume()
	ticks.ch <- testNow
	waitDone(t, c)

	sess, _ := m.Session()
	if sess.Timer.Remaining != 30 {
		t.Fatalf("stale countdown changed the timer: %d", sess.Timer.Remaining)
	}
}

func TestCountdown_StopAndContext(t *testing.T) {
	m := runningMachine(t, 30)

	c, err := m.StartCountdown(context.Background(), newFakeTicks().source, nil)
	if err != nil {
		t.Fatalf("start countdown: %v", err)
	}
	c.Stop()
	c.Stop()
	waitDone(t, c)

	ctx, cancel := context.WithCancel(context.Background())
	c, err = m.StartCountdown(ctx, newFakeTicks().source, nil)
	if err != nil {
		t.Fatalf("start countdown: %v", err)
	}
	cancel()
	waitDone(t, c)
}

func TestCountdown_RequiresRunningSession(t *testing.T) {
	m := openMachine(t, kv.NewMemStore())
	if _, err := m.StartCountdown(context.Background(), newFakeTicks().source, nil); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
	if _, err := m.Start(arenaTasks(25)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := m.StartCountdown(context.Background(), newFakeTicks().source, nil); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning before resume, got %v", err)
	}
}
