package arena

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"
	"time"
)

var testNow = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func arenaTasks(durations ...int) []ArenaTask {
	out := make([]ArenaTask, len(durations))
	for i, d := range durations {
		out[i] = ArenaTask{ID: string(rune('a' + i)), Title: "task", Subject: "Math", Duration: d}
	}
	return out
}

func mustReduce(t *testing.T, s State, cmds ...Command) State {
	t.Helper()
	for _, cmd := range cmds {
		var err error
		s, err = Reduce(s, cmd)
		if err != nil {
			t.Fatalf("reduce %T: %v", cmd, err)
		}
	}
	return s
}

func started(t *testing.T, n int) State {
	t.Helper()
	durations := make([]int, n)
	for i := range durations {
		durations[i] = 25
	}
	return mustReduce(t, NewState(), StartSession{ID: "s1", Tasks: arenaTasks(durations...), Now: testNow})
}

func TestReduce_StartSession(t *testing.T) {
	s := started(t, 3)

	if s.Status() != StatusActive {
		t.Fatalf("expected active, got %s", s.Status())
	}
	sess := s.Session
	if sess.CurrentIndex != 0 || len(sess.Completed) != 0 || len(sess.Skipped) != 0 {
		t.Fatalf("unexpected fresh session %+v", sess)
	}
	if sess.Timer.Remaining != 25*60 || sess.Timer.Running {
		t.Fatalf("expected stopped 25 minute timer, got %+v", sess.Timer)
	}

	if _, err := Reduce(s, StartSession{Tasks: arenaTasks(25)}); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}
	idle, err := Reduce(NewState(), StartSession{})
	if !errors.Is(err, ErrNoTasks) {
		t.Fatalf("expected ErrNoTasks, got %v", err)
	}
	if idle.Status() != StatusIdle {
		t.Fatalf("expected idle after failed start, got %s", idle.Status())
	}
}

func TestReduce_SettingsFrozenAtStart(t *testing.T) {
	length := 50
	s := mustReduce(t, NewState(), UpdateSettings{Patch: SettingsPatch{PomodoroLength: &length}})
	s = mustReduce(t, s, StartSession{ID: "s1", Tasks: arenaTasks(25, 25), Now: testNow})
	if s.Session.Timer.Remaining != 50*60 {
		t.Fatalf("expected 50 minute timer, got %d", s.Session.Timer.Remaining)
	}

	shorter := 10
	s = mustReduce(t, s, UpdateSettings{Patch: SettingsPatch{PomodoroLength: &shorter}}, NextTask{})
	if s.Session.Timer.Remaining != 50*60 {
		t.Fatalf("settings changed mid-session must not affect the session, got %d", s.Session.Timer.Remaining)
	}
	if s.Settings.PomodoroLength != 10 {
		t.Fatalf("expected updated settings for the next session")
	}

	zero := 0
	if _, err := Reduce(s, UpdateSettings{Patch: SettingsPatch{ShortBreakLength: &zero}}); !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("expected ErrInvalidSettings, got %v", err)
	}
}

func TestReduce_EndToEndScore(t *testing.T) {
	s := started(t, 3)
	s = mustReduce(t, s,
		CompleteTask{Index: 0}, NextTask{},
		SkipTask{Index: 1}, NextTask{},
		CompleteTask{Index: 2},
	)

	summary := Summarize(s.Session, "sum1", StatusCompleted, testNow.Add(time.Hour))
	if summary.TasksCompleted != 2 || summary.TotalTasks != 3 || summary.FocusScore != 67 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.TotalTime != 75 || summary.FocusTime != 50 || summary.BreakTime != 5 {
		t.Fatalf("unexpected times %+v", summary)
	}

	s = mustReduce(t, s, EndSession{Summary: summary})
	if s.Status() != StatusIdle || s.Session != nil {
		t.Fatalf("expected idle after end, got %s", s.Status())
	}
	if len(s.History) != 1 || s.History[0].ID != "sum1" {
		t.Fatalf("expected summary in history, got %+v", s.History)
	}
}

func TestReduce_EndRequiresTerminalStatus(t *testing.T) {
	s := started(t, 1)
	if _, err := Reduce(s, EndSession{Summary: Summary{Status: StatusActive}}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := Reduce(NewState(), EndSession{Summary: Summary{Status: StatusCompleted}}); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestReduce_CompleteIsIdempotent(t *testing.T) {
	s := started(t, 3)
	once := mustReduce(t, s, CompleteTask{Index: 0})
	twice := mustReduce(t, once, CompleteTask{Index: 0})
	if !slices.Equal(once.Session.Completed, twice.Session.Completed) {
		t.Fatalf("expected %v, got %v", once.Session.Completed, twice.Session.Completed)
	}
}

func TestReduce_CompletedAndSkippedStayDisjoint(t *testing.T) {
	s := started(t, 3)
	s = mustReduce(t, s, CompleteTask{Index: 0}, SkipTask{Index: 0})
	if len(s.Session.Skipped) != 0 {
		t.Fatalf("skipping a completed task must be a no-op, got %v", s.Session.Skipped)
	}

	s = mustReduce(t, s, NextTask{}, SkipTask{Index: 1}, CompleteTask{Index: 1})
	if !slices.Equal(s.Session.Completed, []int{0}) || !slices.Equal(s.Session.Skipped, []int{1}) {
		t.Fatalf("unexpected sets completed=%v skipped=%v", s.Session.Completed, s.Session.Skipped)
	}
	if !s.Session.Tasks[0].Completed || !s.Session.Tasks[1].Skipped || s.Session.Tasks[1].Completed {
		t.Fatalf("task flags out of step: %+v", s.Session.Tasks)
	}
}

func TestReduce_IndexErrorsLeaveStateUnchanged(t *testing.T) {
	s := started(t, 2)

	tests := []struct {
		name string
		cmd  Command
	}{
		{"negative", CompleteTask{Index: -1}},
		{"past end", SkipTask{Index: 2}},
		{"ahead of current", CompleteTask{Index: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Reduce(s, tt.cmd)
			if !errors.Is(err, ErrTaskIndexOutOfRange) {
				t.Fatalf("expected ErrTaskIndexOutOfRange, got %v", err)
			}
			if len(got.Session.Completed)+len(got.Session.Skipped) != 0 {
				t.Fatalf("state changed on error")
			}
		})
	}

	last := mustReduce(t, s, NextTask{})
	got, err := Reduce(last, NextTask{})
	if !errors.Is(err, ErrTaskIndexOutOfRange) {
		t.Fatalf("expected ErrTaskIndexOutOfRange past the last task, got %v", err)
	}
	if got.Session.CurrentIndex != 1 || got.Status() != StatusActive {
		t.Fatalf("advancing past the end must not end or move the session, got %+v", got.Session)
	}
}

func TestReduce_NextTaskResetsTimer(t *testing.T) {
	s := started(t, 2)
	s = mustReduce(t, s, Resume{}, UpdateTimer{Remaining: 42, Running: true}, NextTask{})
	if s.Session.CurrentIndex != 1 {
		t.Fatalf("expected index 1, got %d", s.Session.CurrentIndex)
	}
	if s.Session.Timer != (Timer{Remaining: 25 * 60}) {
		t.Fatalf("expected reset timer, got %+v", s.Session.Timer)
	}
}

func TestReduce_PauseResume(t *testing.T) {
	idle := NewState()
	if got := mustReduce(t, idle, Pause{}, Resume{}); got.Session != nil {
		t.Fatalf("pause and resume without a session must be no-ops")
	}

	s := started(t, 1)
	s = mustReduce(t, s, Resume{})
	if !s.Session.Timer.Running || s.Status() != StatusActive {
		t.Fatalf("expected running active session, got %+v", s.Session)
	}
	s = mustReduce(t, s, Pause{})
	if s.Session.Timer.Running || s.Status() != StatusPaused || s.Session.Mode != ModePaused {
		t.Fatalf("expected paused session, got %+v", s.Session)
	}
	again := mustReduce(t, s, Pause{})
	if again.Status() != StatusPaused {
		t.Fatalf("pausing a paused session is a no-op")
	}
	s = mustReduce(t, s, Resume{})
	if s.Status() != StatusActive || s.Session.Mode != ModeFocus || !s.Session.Timer.Running {
		t.Fatalf("expected resumed session, got %+v", s.Session)
	}
}

func TestReduce_ModeBreathingReset(t *testing.T) {
	s := started(t, 1)
	s = mustReduce(t, s, SetMode{Mode: ModeBreak}, ToggleBreathing{})
	if s.Session.Mode != ModeBreak || !s.ShowBreathing {
		t.Fatalf("unexpected state %+v", s)
	}
	if _, err := Reduce(s, SetMode{Mode: "nap"}); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}

	summary := Summary{ID: "old", Status: StatusCompleted}
	s = mustReduce(t, s, EndSession{Summary: summary}, StartSession{ID: "s2", Tasks: arenaTasks(25), Now: testNow}, Reset{})
	if s.Session != nil || s.ShowBreathing || len(s.History) != 1 {
		t.Fatalf("reset must drop the session and keep history, got %+v", s)
	}
}

func TestReduce_DoesNotModifyInput(t *testing.T) {
	s := started(t, 2)
	before := s.clone()
	_ = mustReduce(t, s, CompleteTask{Index: 0}, NextTask{}, SkipTask{Index: 1})
	if len(s.Session.Completed) != len(before.Session.Completed) || s.Session.CurrentIndex != 0 || s.Session.Tasks[0].Completed {
		t.Fatalf("input state was modified: %+v", s.Session)
	}
}

// TestReduce_InvariantsHold drives random command sequences and checks the
// session invariants after every step.
func TestReduce_InvariantsHold(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	s := NewState()
	for step := range 5000 {
		var cmd Command
		switch rng.IntN(9) {
		case 0:
			cmd = StartSession{ID: "s", Tasks: arenaTasks(25, 30, 15, 20)[:1+rng.IntN(4)], Now: testNow}
		case 1:
			cmd = EndSession{Summary: Summarize(s.Session, "x", StatusCancelled, testNow)}
		case 2:
			cmd = Pause{}
		case 3:
			cmd = Resume{}
		case 4:
			cmd = CompleteTask{Index: rng.IntN(6) - 1}
		case 5:
			cmd = SkipTask{Index: rng.IntN(6) - 1}
		case 6:
			cmd = NextTask{}
		case 7:
			cmd = UpdateTimer{Remaining: rng.IntN(100) - 5, Running: rng.IntN(2) == 0}
		default:
			cmd = Reset{}
		}
		s, _ = Reduce(s, cmd)

		sess := s.Session
		if sess == nil {
			continue
		}
		if !validSession(sess) {
			t.Fatalf("step %d (%T): invariants broken: %+v", step, cmd, sess)
		}
		if sess.Timer.Remaining < 0 {
			t.Fatalf("step %d: negative timer", step)
		}
		if sess.Timer.Running && sess.Status != StatusActive {
			t.Fatalf("step %d: timer running while %s", step, sess.Status)
		}
	}
}

func TestReduce_UpdateTimerWhilePaused(t *testing.T) {
	s := started(t, 2)
	s = mustReduce(t, s, Resume{}, Pause{}, UpdateTimer{Remaining: 0, Running: true})
	if s.Session.Status != StatusPaused || s.Session.Timer.Running {
		t.Fatalf("a paused session must keep its timer stopped, got %+v", s.Session)
	}
}

func TestReduce_UpdateTimerClampsNegative(t *testing.T) {
	s := mustReduce(t, started(t, 1), Resume{}, UpdateTimer{Remaining: -3, Running: true})
	if s.Session.Timer != (Timer{Remaining: 0, Running: true}) {
		t.Fatalf("expected a stopped-at-zero running timer, got %+v", s.Session.Timer)
	}
}

func TestFocusScoreAndCoins(t *testing.T) {
	if got := FocusScore(4, 6); got != 67 {
		t.Errorf("FocusScore(4, 6) = %d, want 67", got)
	}
	if got := FocusScore(0, 0); got != 0 {
		t.Errorf("FocusScore(0, 0) = %d, want 0", got)
	}
	if got := CoinReward(Summary{FocusScore: 85, TasksCompleted: 4}); got != 41 {
		t.Errorf("CoinReward = %d, want 41", got)
	}
}

func TestSettingsBreakAfter(t *testing.T) {
	s := DefaultSettings()
	got := []int{s.BreakAfter(1), s.BreakAfter(2), s.BreakAfter(4), s.BreakAfter(8)}
	want := []int{5, 5, 15, 15}
	if !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
