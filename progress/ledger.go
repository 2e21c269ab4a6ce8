package progress

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/amonks/ibuddy/internal/kv"
	"github.com/amonks/ibuddy/internal/logging"
)

// Record is the payload stored in the user namespace.
type Record struct {
	Profile     Profile   `json:"profile"`
	Stats       Stats     `json:"stats"`
	LastUpdated time.Time `json:"last_updated"`
}

// Options configures Open.
type Options struct {
	Logger *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// OnPersistenceError is called when a load or save fails.
	OnPersistenceError func(ns kv.Namespace, err error)
}

// Ledger owns the profile and stats.
type Ledger struct {
	blobs   kv.Blobs
	logger  *slog.Logger
	now     func() time.Time
	onError func(ns kv.Namespace, err error)

	mu  sync.Mutex
	rec Record
}

// Open loads the ledger from blobs, falling back to a new profile when the
// namespace is missing or malformed.
func Open(blobs kv.Blobs, opts Options) *Ledger {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	l := &Ledger{
		blobs:   blobs,
		logger:  logging.OrDiscard(opts.Logger),
		now:     now,
		onError: opts.OnPersistenceError,
	}

	var rec Record
	ok, err := kv.LoadJSON(blobs, kv.NamespaceUser, &rec)
	if err != nil {
		l.reportError(err)
	}
	if !ok {
		l.rec = Record{Profile: DefaultProfile(now()), Stats: DefaultStats()}
		l.persist()
		return l
	}
	if rec.Profile.ID == "" {
		rec.Profile = DefaultProfile(now())
	}
	if rec.Profile.Achievements == nil {
		rec.Profile.Achievements = []Achievement{}
	}
	rec.Stats = rec.Stats.normalize()
	l.rec = rec
	return l
}

func (l *Ledger) reportError(err error) {
	l.logger.Warn("progress persistence", "namespace", string(kv.NamespaceUser), "error", err)
	if l.onError != nil {
		l.onError(kv.NamespaceUser, err)
	}
}

func (l *Ledger) persist() {
	l.rec.LastUpdated = l.now()
	if err := kv.SaveJSON(l.blobs, kv.NamespaceUser, l.rec); err != nil {
		l.reportError(err)
	}
}

// Apply applies e and persists the result. On error nothing changes.
func (l *Ledger) Apply(e Event) (Stats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	next, err := Apply(l.rec.Stats, e)
	if err != nil {
		return l.rec.Stats, err
	}
	l.rec.Stats = next
	l.persist()
	return next, nil
}

// Stats returns the current stats.
func (l *Ledger) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rec.Stats
}

// Profile returns a copy of the profile.
func (l *Ledger) Profile() Profile {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rec.Profile.clone()
}

// AddCoins credits n coins.
func (l *Ledger) AddCoins(n int) (Stats, error) {
	return l.Apply(CoinsAdded{Amount: n})
}

// SpendCoins debits n coins. It reports false, changing nothing, when the
// balance is below n.
func (l *Ledger) SpendCoins(n int) bool {
	_, err := l.Apply(CoinsSpent{Amount: n})
	return err == nil
}

// AddFocusTime records focused minutes.
func (l *Ledger) AddFocusTime(minutes int) (Stats, error) {
	return l.Apply(FocusTimeAdded{Minutes: minutes})
}

// AddCompletedTasks records count completed tasks.
func (l *Ledger) AddCompletedTasks(count int) (Stats, error) {
	return l.Apply(TasksCompleted{Count: count})
}

// UpdateStressLevel sets the stress level, clamped to 1..5.
func (l *Ledger) UpdateStressLevel(level int) Stats {
	s, _ := l.Apply(StressLevelSet{Level: level})
	return s
}

func (l *Ledger) IncrementStreak() Stats {
	s, _ := l.Apply(StreakIncremented{})
	return s
}

func (l *Ledger) ResetStreak() Stats {
	s, _ := l.Apply(StreakReset{})
	return s
}

// TouchStreak marks the day of now as active.
func (l *Ledger) TouchStreak(now time.Time) Stats {
	s, _ := l.Apply(DayActive{Day: now})
	return s
}

// UnlockAchievements stores the achievements that are not yet unlocked and
// returns them. Already unlocked ones keep their original unlock time.
func (l *Ledger) UnlockAchievements(candidates []Achievement) []Achievement {
	l.mu.Lock()
	defer l.mu.Unlock()

	var unlocked []Achievement
	profile := l.rec.Profile.clone()
	for _, a := range candidates {
		if a.ID == "" || profile.HasAchievement(a.ID) {
			continue
		}
		if a.UnlockedAt.IsZero() {
			a.UnlockedAt = l.now()
		}
		profile.Achievements = append(profile.Achievements, a)
		unlocked = append(unlocked, a)
	}
	if len(unlocked) == 0 {
		return nil
	}
	l.rec.Profile = profile
	l.persist()
	return unlocked
}

// UpdateProfile applies p to the profile.
func (l *Ledger) UpdateProfile(p ProfilePatch) (Profile, error) {
	if p.Name != nil && *p.Name == "" {
		return Profile{}, errors.New("profile name cannot be empty")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rec.Profile = l.rec.Profile.apply(p)
	l.persist()
	return l.rec.Profile.clone(), nil
}
