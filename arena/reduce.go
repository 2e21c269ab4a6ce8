package arena

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"
)

var (
	// ErrNoTasks is returned when a session is started without tasks.
	ErrNoTasks = errors.New("a session needs at least one task")

	// ErrSessionActive is returned when a session is started while one runs.
	ErrSessionActive = errors.New("a session is already active")

	// ErrNoActiveSession is returned by commands that need a session.
	ErrNoActiveSession = errors.New("no active session")

	// ErrTaskIndexOutOfRange is returned for an index outside the session.
	ErrTaskIndexOutOfRange = errors.New("task index out of range")

	// ErrInvalidSettings is returned for non-positive lengths.
	ErrInvalidSettings = errors.New("invalid arena settings")

	// ErrInvalidMode is returned for an unknown arena mode.
	ErrInvalidMode = errors.New("invalid arena mode")

	// ErrInvalidStatus is returned when ending with a non-terminal status.
	ErrInvalidStatus = errors.New("session must end as completed or cancelled")
)

// Command is a state transition. The concrete types below are the only
// implementations.
type Command interface {
	isCommand()
}

type (
	// StartSession begins a session over Tasks. ID and Now are supplied by
	// the caller so Reduce stays pure.
	StartSession struct {
		ID    string
		Tasks []ArenaTask
		Now   time.Time
	}

	// EndSession appends Summary to the history and returns to idle.
	EndSession struct{ Summary Summary }

	// Pause stops the countdown of an active session.
	Pause struct{}

	// Resume runs the countdown of an active or paused session.
	Resume struct{}

	// UpdateTimer stores the countdown. It is what the tick source calls.
	UpdateTimer struct {
		Remaining int
		Running   bool
	}

	// CompleteTask marks a task at or before the current index completed.
	CompleteTask struct{ Index int }

	// SkipTask marks a task at or before the current index skipped.
	SkipTask struct{ Index int }

	// NextTask advances to the next task and resets the countdown.
	NextTask struct{}

	SetMode struct{ Mode Mode }

	ToggleBreathing struct{}

	// UpdateSettings changes the settings used by the next session.
	UpdateSettings struct{ Patch SettingsPatch }

	// Reset drops any session, keeping settings and history.
	Reset struct{}
)

func (StartSession) isCommand()    {}
func (EndSession) isCommand()      {}
func (Pause) isCommand()           {}
func (Resume) isCommand()          {}
func (UpdateTimer) isCommand()     {}
func (CompleteTask) isCommand()    {}
func (SkipTask) isCommand()        {}
func (NextTask) isCommand()        {}
func (SetMode) isCommand()         {}
func (ToggleBreathing) isCommand() {}
func (UpdateSettings) isCommand()  {}
func (Reset) isCommand()           {}

// Reduce returns the state after cmd. It never modifies s. On error the
// returned state equals s.
func Reduce(s State, cmd Command) (State, error) {
	next := s.clone()
	sess := next.Session

	switch cmd := cmd.(type) {
	case StartSession:
		if sess != nil {
			return s, ErrSessionActive
		}
		if len(cmd.Tasks) == 0 {
			return s, ErrNoTasks
		}
		tasks := slices.Clone(cmd.Tasks)
		for i := range tasks {
			tasks[i].Completed = false
			tasks[i].Skipped = false
		}
		next.Session = &Session{
			ID:        cmd.ID,
			Status:    StatusActive,
			Mode:      ModeFocus,
			Tasks:     tasks,
			Completed: []int{},
			Skipped:   []int{},
			Timer:     Timer{Remaining: next.Settings.PomodoroLength * 60},
			Settings:  next.Settings,
			StartedAt: cmd.Now,
		}

	case EndSession:
		if sess == nil {
			return s, ErrNoActiveSession
		}
		if !cmd.Summary.Status.IsEnded() {
			return s, fmt.Errorf("%w: %s", ErrInvalidStatus, cmd.Summary.Status)
		}
		next.History = append(next.History, cmd.Summary)
		next.Session = nil
		next.ShowBreathing = false

	case Pause:
		if sess == nil || sess.Status != StatusActive {
			return s, nil
		}
		sess.Status = StatusPaused
		sess.Mode = ModePaused
		sess.Timer.Running = false

	case Resume:
		if sess == nil {
			return s, nil
		}
		sess.Status = StatusActive
		sess.Mode = ModeFocus
		sess.Timer.Running = true

	case UpdateTimer:
		if sess == nil {
			return s, ErrNoActiveSession
		}
		// Only an active session runs its timer; a negative remainder is zero.
		sess.Timer = Timer{Remaining: max(cmd.Remaining, 0), Running: cmd.Running && sess.Status == StatusActive}

	case CompleteTask:
		if err := checkIndex(sess, cmd.Index); err != nil {
			return s, err
		}
		if slices.Contains(sess.Skipped, cmd.Index) || slices.Contains(sess.Completed, cmd.Index) {
			return s, nil
		}
		sess.Completed = append(sess.Completed, cmd.Index)
		sess.Tasks[cmd.Index].Completed = true

	case SkipTask:
		if err := checkIndex(sess, cmd.Index); err != nil {
			return s, err
		}
		if slices.Contains(sess.Completed, cmd.Index) || slices.Contains(sess.Skipped, cmd.Index) {
			return s, nil
		}
		sess.Skipped = append(sess.Skipped, cmd.Index)
		sess.Tasks[cmd.Index].Skipped = true

	case NextTask:
		if sess == nil {
			return s, ErrNoActiveSession
		}
		if sess.CurrentIndex+1 >= len(sess.Tasks) {
			return s, fmt.Errorf("%w: no task after %d", ErrTaskIndexOutOfRange, sess.CurrentIndex)
		}
		sess.CurrentIndex++
		sess.Mode = ModeFocus
		sess.Timer = Timer{Remaining: sess.Settings.PomodoroLength * 60}

	case SetMode:
		if !cmd.Mode.IsValid() {
			return s, fmt.Errorf("%w: %q", ErrInvalidMode, cmd.Mode)
		}
		if sess == nil {
			return s, ErrNoActiveSession
		}
		sess.Mode = cmd.Mode

	case ToggleBreathing:
		next.ShowBreathing = !next.ShowBreathing

	case UpdateSettings:
		settings := cmd.Patch.Apply(next.Settings)
		if err := settings.Validate(); err != nil {
			return s, err
		}
		next.Settings = settings

	case Reset:
		next = State{Settings: next.Settings, History: next.History}

	default:
		return s, fmt.Errorf("unknown arena command %T", cmd)
	}
	return next, nil
}

// checkIndex allows indices up to the current one, so that every completed
// or skipped task is one the session has reached.
func checkIndex(sess *Session, index int) error {
	if sess == nil {
		return ErrNoActiveSession
	}
	if index < 0 || index >= len(sess.Tasks) {
		return fmt.Errorf("%w: %d of %d", ErrTaskIndexOutOfRange, index, len(sess.Tasks))
	}
	if index > sess.CurrentIndex {
		return fmt.Errorf("%w: %d is ahead of current task %d", ErrTaskIndexOutOfRange, index, sess.CurrentIndex)
	}
	return nil
}

// FocusScore is the percentage of tasks completed, rounded to an integer.
func FocusScore(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// CoinReward is the coins earned by a finished session.
func CoinReward(s Summary) int {
	return s.FocusScore/4 + s.TasksCompleted*5
}

// Summarize builds the summary of sess ending with status at now.
//
// Total time is the planned duration of every task, focus time the duration
// of completed ones. Break time counts the recommended break after each
// completed task except the last.
func Summarize(sess *Session, id string, status Status, now time.Time) Summary {
	sum := Summary{
		ID:      id,
		Type:    "focus",
		Status:  status,
		EndedAt: now,
	}
	if sess == nil {
		return sum
	}
	sum.SessionID = sess.ID
	sum.StartedAt = sess.StartedAt
	sum.TotalTasks = len(sess.Tasks)
	sum.TasksCompleted = len(sess.Completed)
	for _, t := range sess.Tasks {
		sum.TotalTime += t.Duration
		if t.Completed {
			sum.FocusTime += t.Duration
		}
	}
	for n := 1; n < sum.TasksCompleted; n++ {
		sum.BreakTime += sess.Settings.BreakAfter(n)
	}
	sum.FocusScore = FocusScore(sum.TasksCompleted, sum.TotalTasks)
	return sum
}

// PlaceholderSummary is shown when there is no finished session to report.
func PlaceholderSummary(now time.Time) Summary {
	return Summary{
		Type:           "focus",
		Status:         StatusCompleted,
		TasksCompleted: 4,
		TotalTasks:     6,
		TotalTime:      85,
		FocusTime:      75,
		BreakTime:      10,
		FocusScore:     85,
		EndedAt:        now,
	}
}

// validSession reports whether a decoded session satisfies the session
// invariants.
func validSession(sess *Session) bool {
	if sess == nil {
		return true
	}
	if sess.Status != StatusActive && sess.Status != StatusPaused {
		return false
	}
	if len(sess.Tasks) == 0 || sess.CurrentIndex < 0 || sess.CurrentIndex >= len(sess.Tasks) {
		return false
	}
	if len(sess.Completed)+len(sess.Skipped) > sess.CurrentIndex+1 {
		return false
	}
	seen := make(map[int]bool, len(sess.Completed)+len(sess.Skipped))
	for _, i := range slices.Concat(sess.Completed, sess.Skipped) {
		if i < 0 || i > sess.CurrentIndex || seen[i] {
			return false
		}
		seen[i] = true
	}
	return sess.Settings.Validate() == nil
}
