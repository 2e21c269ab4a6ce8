package app

import (
	"errors"
	"fmt"
	"slices"

	"github.com/amonks/ibuddy/arena"
	"github.com/amonks/ibuddy/internal/kv"
	"github.com/amonks/ibuddy/results"
	"github.com/amonks/ibuddy/task"
)

// Advance is what happened after the current task was completed or skipped.
type Advance struct {
	// Ended is set when that was the last task.
	Ended   bool
	Summary arena.Summary

	// Next is the new current task when the session goes on.
	Next arena.ArenaTask
	// BreakMinutes is the break recommended before Next.
	BreakMinutes int

	// Unlocked lists achievements newly unlocked by the ended session.
	Unlocked []results.Badge
}

// StartArena starts a session over the first incomplete tasks.
func (a *App) StartArena() (arena.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var snapshot []arena.ArenaTask
	for _, t := range a.tasks.Incomplete(a.cfg.Arena.MaxTasks) {
		snapshot = append(snapshot, arena.FromTask(t))
	}
	if len(snapshot) == 0 {
		a.notices.Error("No tasks available", "Add some tasks before starting a focus session")
		return arena.Session{}, arena.ErrNoTasks
	}
	sess, err := a.machine.Start(snapshot)
	if err != nil {
		if errors.Is(err, arena.ErrSessionActive) {
			a.notices.Error("Session already running", "Finish or exit the current session first")
		}
		return arena.Session{}, err
	}
	a.notices.Success("Arena session started!", fmt.Sprintf("Time to focus on %d task(s)", len(sess.Tasks)))
	return sess, nil
}

// CompleteCurrent completes the current task and moves on. The task's
// duration counts as focus time, and the task it was copied from is marked
// completed. Completing the last task ends the session.
func (a *App) CompleteCurrent() (Advance, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.completeCurrentLocked()
}

func (a *App) completeCurrentLocked() (Advance, error) {
	sess, ok := a.machine.Session()
	if !ok || sess.Status.IsEnded() {
		return Advance{}, arena.ErrNoActiveSession
	}
	idx := sess.CurrentIndex
	cur := sess.Tasks[idx]
	already := slices.Contains(sess.Completed, idx) || slices.Contains(sess.Skipped, idx)

	if !already {
		if err := a.machine.CompleteTask(idx); err != nil {
			return Advance{}, err
		}
		if _, err := a.ledger.AddFocusTime(cur.Duration); err != nil {
			a.logger.Warn("add focus time", "error", err)
		}
		if _, err := a.ledger.AddCompletedTasks(1); err != nil {
			a.logger.Warn("add completed tasks", "error", err)
		}
		a.markSourceCompleted(cur.ID)
		a.metrics.ArenaTask("completed")
		a.notices.Success("Task completed!", fmt.Sprintf("Great job on %q", cur.Title))
	}
	return a.advanceLocked()
}

// markSourceCompleted completes the task a session task was copied from.
// The source may have been deleted or completed meanwhile.
func (a *App) markSourceCompleted(id string) {
	t, ok := a.tasks.Get(id)
	if !ok || t.Completed {
		return
	}
	status := task.StatusCompleted
	if _, err := a.tasks.Update(id, task.Patch{Status: &status}); err != nil && !task.IsNotFound(err) {
		a.logger.Warn("complete source task", "id", id, "error", err)
	}
}

// SkipCurrent skips the current task and moves on.
func (a *App) SkipCurrent() (Advance, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sess, ok := a.machine.Session()
	if !ok || sess.Status.IsEnded() {
		return Advance{}, arena.ErrNoActiveSession
	}
	idx := sess.CurrentIndex
	if !slices.Contains(sess.Completed, idx) && !slices.Contains(sess.Skipped, idx) {
		if err := a.machine.SkipTask(idx); err != nil {
			return Advance{}, err
		}
		a.metrics.ArenaTask("skipped")
		a.notices.Info("Task skipped", "Moving to the next task")
	}
	return a.advanceLocked()
}

// NextTask moves to the next task without completing or skipping the
// current one.
func (a *App) NextTask() (arena.ArenaTask, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.machine.NextTask(); err != nil {
		return arena.ArenaTask{}, err
	}
	cur, _ := a.machine.CurrentTask()
	return cur, nil
}

func (a *App) advanceLocked() (Advance, error) {
	if a.machine.IsLastTask() {
		summary, unlocked, err := a.endSessionLocked(arena.StatusCompleted)
		if err != nil {
			return Advance{}, err
		}
		return Advance{Ended: true, Summary: summary, Unlocked: unlocked}, nil
	}
	breakMinutes := a.machine.BreakAfterCurrent()
	if err := a.machine.NextTask(); err != nil {
		return Advance{}, err
	}
	next, _ := a.machine.CurrentTask()
	if sess, ok := a.machine.Session(); ok && sess.Settings.AutoStartPomodoros {
		a.machine.Resume()
	}
	return Advance{Next: next, BreakMinutes: breakMinutes}, nil
}

// ExitArena cancels the session. The partial session still gets a summary.
func (a *App) ExitArena() (arena.Summary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	summary, _, err := a.endSessionLocked(arena.StatusCancelled)
	return summary, err
}

// endSessionLocked ends the session with status and settles it: the summary
// is handed to the results view, the coin reward is paid once, the streak
// is touched when anything was completed, and new achievements unlock.
func (a *App) endSessionLocked(status arena.Status) (arena.Summary, []results.Badge, error) {
	a.stopCountdownLocked()
	summary, err := a.machine.End(status)
	if err != nil {
		return arena.Summary{}, nil, err
	}

	if err := kv.SaveJSON(a.blobs, kv.NamespaceLastSession, summary); err != nil {
		a.logger.Warn("save last session", "error", err)
		a.persistenceFailed(kv.NamespaceLastSession, err)
	}

	coins := arena.CoinReward(summary)
	if coins > 0 {
		if _, err := a.ledger.AddCoins(coins); err != nil {
			a.logger.Warn("award coins", "error", err)
		}
		a.metrics.CoinsAwarded(coins)
	}
	if summary.TasksCompleted > 0 {
		a.ledger.TouchStreak(a.now())
	}

	res := results.Aggregate(summary, a.ledger.Stats())
	var unlocked []results.Badge
	for _, ach := range a.ledger.UnlockAchievements(res.Unlocked()) {
		unlocked = append(unlocked, results.Badge{Achievement: ach, Unlocked: true})
		a.notices.Success("Achievement unlocked!", ach.Name)
	}

	a.metrics.SessionEnded(string(summary.Status), summary.FocusScore)
	if status == arena.StatusCompleted {
		a.notices.Success("Session complete!", fmt.Sprintf("Focus score %d%%, %d coins earned", summary.FocusScore, coins))
	} else {
		a.notices.Info("Session ended", fmt.Sprintf("%d of %d tasks completed", summary.TasksCompleted, summary.TotalTasks))
	}
	a.logger.Info("session ended", "id", summary.SessionID, "status", string(summary.Status), "score", summary.FocusScore, "coins", coins)
	return summary, unlocked, nil
}

// PauseArena pauses the session and its countdown.
func (a *App) PauseArena() arena.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopCountdownLocked()
	return a.machine.Pause()
}

// ResumeArena resumes the session. The caller restarts the countdown.
func (a *App) ResumeArena() arena.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.machine.Resume()
}

// HandleTick applies an externally driven timer update. A running timer
// reaching zero completes the current task. Ticks on a paused session only
// store the remaining time.
func (a *App) HandleTick(remaining int, running bool) (Advance, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.machine.UpdateTimer(remaining, running); err != nil {
		return Advance{}, err
	}
	sess, ok := a.machine.Session()
	if ok && sess.Timer.Remaining == 0 && sess.Timer.Running {
		return a.completeCurrentLocked()
	}
	return Advance{}, nil
}

// ResetArena drops the session, keeping settings and history.
func (a *App) ResetArena() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopCountdownLocked()
	a.machine.Reset()
}

// SetArenaMode sets what the arena view shows.
func (a *App) SetArenaMode(mode arena.Mode) error {
	return a.machine.SetMode(mode)
}

// ToggleBreathing flips the breathing exercise overlay.
func (a *App) ToggleBreathing() bool {
	return a.machine.ToggleBreathing()
}

// UpdateArenaSettings changes the settings for future sessions.
func (a *App) UpdateArenaSettings(p arena.SettingsPatch) (arena.Settings, error) {
	s, err := a.machine.UpdateSettings(p)
	if err != nil {
		a.notices.Error("Invalid arena settings", err.Error())
		return arena.Settings{}, err
	}
	return s, nil
}

// ArenaState returns a copy of the arena state.
func (a *App) ArenaState() arena.State {
	return a.machine.State()
}

// ArenaSession returns the current session.
func (a *App) ArenaSession() (arena.Session, bool) {
	return a.machine.Session()
}

// CurrentArenaTask returns the session's current task.
func (a *App) CurrentArenaTask() (arena.ArenaTask, bool) {
	return a.machine.CurrentTask()
}

// ArenaProgress returns the percentage of tasks reached.
func (a *App) ArenaProgress() float64 {
	return a.machine.Progress()
}

// ArenaTasksRemaining returns how many tasks follow the current one.
func (a *App) ArenaTasksRemaining() int {
	return a.machine.TasksRemaining()
}

// ArenaElapsed returns the time since the session started.
func (a *App) ArenaElapsed() int {
	return int(a.machine.Elapsed(a.now()).Minutes())
}

// ArenaHistory returns past summaries, oldest first.
func (a *App) ArenaHistory() []arena.Summary {
	return a.machine.History()
}

// ArenaSettings returns the settings for future sessions.
func (a *App) ArenaSettings() arena.Settings {
	return a.machine.Settings()
}
