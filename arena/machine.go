package arena

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amonks/ibuddy/internal/kv"
	"github.com/amonks/ibuddy/internal/logging"
)

// Options configures Open.
type Options struct {
	Logger *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// NewID returns a fresh session or summary ID. Defaults to uuid.NewString.
	NewID func() string

	// Settings replace the stored settings when the namespace is missing.
	Settings *Settings

	// OnPersistenceError is called when a load or save fails.
	OnPersistenceError func(ns kv.Namespace, err error)
}

// Machine owns the arena state. All methods are safe for concurrent use.
type Machine struct {
	blobs   kv.Blobs
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
	onError func(ns kv.Namespace, err error)

	mu    sync.Mutex
	state State

	// epoch changes whenever the countdown must stop: the session is paused,
	// advanced, ended, or reset. Countdowns started under an older epoch
	// drop their ticks.
	epoch uint64
}

// Open loads the arena state from blobs. A missing or malformed payload
// yields an idle state; a stored session that breaks the session invariants
// is dropped.
func Open(blobs kv.Blobs, opts Options) *Machine {
	m := &Machine{
		blobs:   blobs,
		logger:  logging.OrDiscard(opts.Logger),
		now:     opts.Now,
		newID:   opts.NewID,
		onError: opts.OnPersistenceError,
		state:   NewState(),
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	if opts.Settings != nil {
		m.state.Settings = *opts.Settings
	}

	var stored State
	ok, err := kv.LoadJSON(blobs, kv.NamespaceArena, &stored)
	switch {
	case err != nil:
		m.reportError(err)
	case ok:
		if stored.Settings.Validate() != nil {
			m.logger.Warn("reset invalid stored arena settings", "settings", fmt.Sprintf("%+v", stored.Settings))
			stored.Settings = m.state.Settings
		}
		if stored.History == nil {
			stored.History = []Summary{}
		}
		if !validSession(stored.Session) {
			m.logger.Warn("drop invalid stored session", "session", stored.Session.ID)
			stored.Session = nil
		}
		m.state = stored
	}
	return m
}

func (m *Machine) reportError(err error) {
	m.logger.Warn("arena persistence", "namespace", string(kv.NamespaceArena), "error", err)
	if m.onError != nil {
		m.onError(kv.NamespaceArena, err)
	}
}

// Dispatch applies cmd and persists the result.
func (m *Machine) Dispatch(cmd Command) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dispatchLocked(cmd)
}

func (m *Machine) dispatchLocked(cmd Command) (State, error) {
	next, err := Reduce(m.state, cmd)
	if err != nil {
		return m.state.clone(), err
	}
	prevRunning := running(m.state)
	m.state = next
	if prevRunning && !running(next) {
		m.epoch++
	}
	if err := kv.SaveJSON(m.blobs, kv.NamespaceArena, m.state); err != nil {
		m.reportError(err)
	}
	return m.state.clone(), nil
}

func running(s State) bool {
	return s.Session != nil && s.Session.Status == StatusActive && s.Session.Timer.Running
}

// Start begins a session over tasks.
func (m *Machine) Start(tasks []ArenaTask) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, err := m.dispatchLocked(StartSession{ID: m.newID(), Tasks: tasks, Now: m.now()})
	if err != nil {
		return Session{}, err
	}
	return *state.Session, nil
}

// End finishes the session with status and returns its summary. The summary
// is computed from the session as it stands, once.
func (m *Machine) End(status Status) (Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Session == nil {
		return Summary{}, ErrNoActiveSession
	}
	summary := Summarize(m.state.Session, m.newID(), status, m.now())
	if _, err := m.dispatchLocked(EndSession{Summary: summary}); err != nil {
		return Summary{}, err
	}
	m.epoch++
	return summary, nil
}

// Pause stops the countdown. It does nothing unless the session is active.
func (m *Machine) Pause() State {
	s, _ := m.Dispatch(Pause{})
	return s
}

// Resume runs the countdown. It does nothing without a session.
func (m *Machine) Resume() State {
	s, _ := m.Dispatch(Resume{})
	return s
}

// UpdateTimer stores the countdown state.
func (m *Machine) UpdateTimer(remaining int, isRunning bool) error {
	_, err := m.Dispatch(UpdateTimer{Remaining: remaining, Running: isRunning})
	return err
}

// CompleteTask marks the task at index completed.
func (m *Machine) CompleteTask(index int) error {
	_, err := m.Dispatch(CompleteTask{Index: index})
	return err
}

// SkipTask marks the task at index skipped.
func (m *Machine) SkipTask(index int) error {
	_, err := m.Dispatch(SkipTask{Index: index})
	return err
}

// NextTask advances to the next task. It fails on the last task; callers
// check IsLastTask and end the session instead.
func (m *Machine) NextTask() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.dispatchLocked(NextTask{}); err != nil {
		return err
	}
	m.epoch++
	return nil
}

func (m *Machine) SetMode(mode Mode) error {
	_, err := m.Dispatch(SetMode{Mode: mode})
	return err
}

// ToggleBreathing flips the breathing exercise and returns the new value.
func (m *Machine) ToggleBreathing() bool {
	s, _ := m.Dispatch(ToggleBreathing{})
	return s.ShowBreathing
}

// UpdateSettings patches the settings used by future sessions.
func (m *Machine) UpdateSettings(p SettingsPatch) (Settings, error) {
	s, err := m.Dispatch(UpdateSettings{Patch: p})
	return s.Settings, err
}

// Reset drops the current session, keeping settings and history.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, _ = m.dispatchLocked(Reset{})
	m.epoch++
}

// State returns a copy of the whole state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Status returns the session status.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Status()
}

// Session returns a copy of the current session.
func (m *Machine) Session() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Session == nil {
		return Session{}, false
	}
	return *m.state.Session.clone(), true
}

// CurrentTask returns the task at the current index.
func (m *Machine) CurrentTask() (ArenaTask, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := m.state.Session
	if sess == nil || sess.CurrentIndex < 0 || sess.CurrentIndex >= len(sess.Tasks) {
		return ArenaTask{}, false
	}
	return sess.Tasks[sess.CurrentIndex], true
}

// IsLastTask reports whether the current task is the session's last.
func (m *Machine) IsLastTask() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := m.state.Session
	return sess != nil && sess.CurrentIndex >= len(sess.Tasks)-1
}

// Progress returns the percentage of tasks reached, counting the current one.
func (m *Machine) Progress() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := m.state.Session
	if sess == nil || len(sess.Tasks) == 0 {
		return 0
	}
	return float64(sess.CurrentIndex+1) / float64(len(sess.Tasks)) * 100
}

// TasksRemaining returns how many tasks follow the current one.
func (m *Machine) TasksRemaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := m.state.Session
	if sess == nil {
		return 0
	}
	return len(sess.Tasks) - sess.CurrentIndex - 1
}

// Elapsed returns the time since the session started.
func (m *Machine) Elapsed(now time.Time) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Session == nil {
		return 0
	}
	return now.Sub(m.state.Session.StartedAt)
}

// History returns past summaries, oldest first.
func (m *Machine) History() []Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Summary(nil), m.state.History...)
}

// Settings returns the settings for the next session.
func (m *Machine) Settings() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Settings
}

// BreakAfterCurrent returns the recommended break, in minutes, after the
// current task given how many tasks are completed so far.
func (m *Machine) BreakAfterCurrent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := m.state.Session
	if sess == nil {
		return m.state.Settings.ShortBreakLength
	}
	return sess.Settings.BreakAfter(len(sess.Completed))
}
