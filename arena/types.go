// Package arena implements focus sessions: an ordered run of tasks, each with
// a pomodoro countdown, and the bookkeeping of which tasks were completed or
// skipped.
//
// State changes go through Reduce, a pure function over tagged Command
// values. Machine owns the current State, persists it in the "arena"
// namespace, and drives the countdown.
package arena

import (
	"fmt"
	"slices"
	"time"

	"github.com/amonks/ibuddy/task"
)

// Status is the lifecycle state of a focus session.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// IsEnded reports whether s is a terminal status.
func (s Status) IsEnded() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Mode is what the arena view is showing.
type Mode string

const (
	ModeFocus  Mode = "focus"
	ModeBreak  Mode = "break"
	ModePaused Mode = "paused"
)

// IsValid returns true if the mode is a known value.
func (m Mode) IsValid() bool {
	return m == ModeFocus || m == ModeBreak || m == ModePaused
}

// ArenaTask is a task as seen by one session. ID refers back to the task it
// was copied from; the session's Completed and Skipped flags are independent
// of that task's own completion.
type ArenaTask struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Subject   string        `json:"subject"`
	Duration  int           `json:"duration"`
	Priority  task.Priority `json:"priority"`
	Completed bool          `json:"completed"`
	Skipped   bool          `json:"skipped"`
}

// FromTask snapshots t for a session.
func FromTask(t task.Task) ArenaTask {
	return ArenaTask{
		ID:       t.ID,
		Title:    t.Title,
		Subject:  t.Subject,
		Duration: t.Duration(),
		Priority: t.Priority,
	}
}

// Settings configure sessions. A session freezes a copy when it starts.
type Settings struct {
	PomodoroLength       int  `json:"pomodoro_length"`
	ShortBreakLength     int  `json:"short_break_length"`
	LongBreakLength      int  `json:"long_break_length"`
	TasksBeforeLongBreak int  `json:"tasks_before_long_break"`
	AutoStartBreaks      bool `json:"auto_start_breaks"`
	AutoStartPomodoros   bool `json:"auto_start_pomodoros"`
}

// DefaultSettings returns the stock pomodoro settings.
func DefaultSettings() Settings {
	return Settings{
		PomodoroLength:       25,
		ShortBreakLength:     5,
		LongBreakLength:      15,
		TasksBeforeLongBreak: 4,
	}
}

// Validate checks that every length is positive.
func (s Settings) Validate() error {
	switch {
	case s.PomodoroLength <= 0:
		return fmt.Errorf("%w: pomodoro length %d", ErrInvalidSettings, s.PomodoroLength)
	case s.ShortBreakLength <= 0:
		return fmt.Errorf("%w: short break length %d", ErrInvalidSettings, s.ShortBreakLength)
	case s.LongBreakLength <= 0:
		return fmt.Errorf("%w: long break length %d", ErrInvalidSettings, s.LongBreakLength)
	case s.TasksBeforeLongBreak <= 0:
		return fmt.Errorf("%w: tasks before long break %d", ErrInvalidSettings, s.TasksBeforeLongBreak)
	}
	return nil
}

// BreakAfter returns the break length, in minutes, that follows the
// completedCount-th completed task.
func (s Settings) BreakAfter(completedCount int) int {
	if completedCount > 0 && s.TasksBeforeLongBreak > 0 && completedCount%s.TasksBeforeLongBreak == 0 {
		return s.LongBreakLength
	}
	return s.ShortBreakLength
}

// SettingsPatch updates some settings.
// Nil pointers mean "don't update this field".
type SettingsPatch struct {
	PomodoroLength       *int
	ShortBreakLength     *int
	LongBreakLength      *int
	TasksBeforeLongBreak *int
	AutoStartBreaks      *bool
	AutoStartPomodoros   *bool
}

// Apply returns s with p applied.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.PomodoroLength != nil {
		s.PomodoroLength = *p.PomodoroLength
	}
	if p.ShortBreakLength != nil {
		s.ShortBreakLength = *p.ShortBreakLength
	}
	if p.LongBreakLength != nil {
		s.LongBreakLength = *p.LongBreakLength
	}
	if p.TasksBeforeLongBreak != nil {
		s.TasksBeforeLongBreak = *p.TasksBeforeLongBreak
	}
	if p.AutoStartBreaks != nil {
		s.AutoStartBreaks = *p.AutoStartBreaks
	}
	if p.AutoStartPomodoros != nil {
		s.AutoStartPomodoros = *p.AutoStartPomodoros
	}
	return s
}

// Timer is the countdown of the current task.
type Timer struct {
	Remaining int  `json:"time_remaining"`
	Running   bool `json:"is_active"`
}

// Session is an active or paused focus session.
type Session struct {
	ID           string      `json:"id"`
	Status       Status      `json:"status"`
	Mode         Mode        `json:"mode"`
	Tasks        []ArenaTask `json:"tasks"`
	CurrentIndex int         `json:"current_task_index"`
	Completed    []int       `json:"completed_tasks"`
	Skipped      []int       `json:"skipped_tasks"`
	Timer        Timer       `json:"timer"`
	Settings     Settings    `json:"settings"`
	StartedAt    time.Time   `json:"start_time"`
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Tasks = slices.Clone(s.Tasks)
	out.Completed = slices.Clone(s.Completed)
	out.Skipped = slices.Clone(s.Skipped)
	return &out
}

// Summary is the immutable record of a finished session.
type Summary struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id,omitempty"`
	Type           string    `json:"type"`
	Status         Status    `json:"status"`
	TasksCompleted int       `json:"tasks_completed"`
	TotalTasks     int       `json:"total_tasks"`
	TotalTime      int       `json:"total_time"`
	FocusTime      int       `json:"focus_time"`
	BreakTime      int       `json:"break_time"`
	FocusScore     int       `json:"focus_score"`
	StartedAt      time.Time `json:"start_time,omitzero"`
	EndedAt        time.Time `json:"end_time"`
}

// State is everything the arena namespace stores.
type State struct {
	Settings      Settings  `json:"session_settings"`
	History       []Summary `json:"session_history"`
	Session       *Session  `json:"current_session,omitempty"`
	ShowBreathing bool      `json:"show_breathing_exercise"`
}

// NewState returns an idle state with default settings.
func NewState() State {
	return State{Settings: DefaultSettings(), History: []Summary{}}
}

// Status returns the session status, or StatusIdle without a session.
func (s State) Status() Status {
	if s.Session == nil {
		return StatusIdle
	}
	return s.Session.Status
}

func (s State) clone() State {
	out := s
	out.History = slices.Clone(s.History)
	out.Session = s.Session.clone()
	return out
}
