package progress

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidAmount is returned for a negative coin, minute, or task count.
	ErrInvalidAmount = errors.New("amount must not be negative")

	// ErrInsufficientCoins is returned when a spend exceeds the balance.
	ErrInsufficientCoins = errors.New("insufficient coins")
)

// Event is a change to Stats. Apply is the only place events take effect.
type Event interface {
	isEvent()
}

type (
	CoinsAdded struct{ Amount int }
	CoinsSpent struct{ Amount int }

	// FocusTimeAdded earns one XP per MinutesPerXP whole minutes.
	FocusTimeAdded struct{ Minutes int }

	// TasksCompleted earns XPPerTask per task.
	TasksCompleted struct{ Count int }

	// StressLevelSet is clamped to MinStressLevel..MaxStressLevel.
	StressLevelSet struct{ Level int }

	StreakIncremented struct{}
	StreakReset       struct{}

	// DayActive marks the local calendar day of Day as active. The streak
	// grows when the previous active day was the day before, restarts at 1
	// after a gap, and is unchanged for a repeat of the same day.
	DayActive struct{ Day time.Time }
)

func (CoinsAdded) isEvent()        {}
func (CoinsSpent) isEvent()        {}
func (FocusTimeAdded) isEvent()    {}
func (TasksCompleted) isEvent()    {}
func (StressLevelSet) isEvent()    {}
func (StreakIncremented) isEvent() {}
func (StreakReset) isEvent()       {}
func (DayActive) isEvent()         {}

const dayLayout = "2006-01-02"

// Apply returns s with e applied. On error s is returned unchanged.
func Apply(s Stats, e Event) (Stats, error) {
	switch e := e.(type) {
	case CoinsAdded:
		if e.Amount < 0 {
			return s, fmt.Errorf("%w: %d coins", ErrInvalidAmount, e.Amount)
		}
		s.Coins += e.Amount
	case CoinsSpent:
		if e.Amount < 0 {
			return s, fmt.Errorf("%w: %d coins", ErrInvalidAmount, e.Amount)
		}
		if !s.CanAfford(e.Amount) {
			return s, fmt.Errorf("%w: have %d, need %d", ErrInsufficientCoins, s.Coins, e.Amount)
		}
		s.Coins -= e.Amount
	case FocusTimeAdded:
		if e.Minutes < 0 {
			return s, fmt.Errorf("%w: %d minutes", ErrInvalidAmount, e.Minutes)
		}
		s.FocusMinutes += e.Minutes
		s = s.withXP(s.XP + e.Minutes/MinutesPerXP)
	case TasksCompleted:
		if e.Count < 0 {
			return s, fmt.Errorf("%w: %d tasks", ErrInvalidAmount, e.Count)
		}
		s.TasksCompleted += e.Count
		s = s.withXP(s.XP + e.Count*XPPerTask)
	case StressLevelSet:
		s.StressLevel = clampStress(e.Level)
	case StreakIncremented:
		s = s.withStreak(s.Streak + 1)
	case StreakReset:
		s.Streak = 0
	case DayActive:
		day := e.Day.Format(dayLayout)
		switch s.LastActiveDay {
		case day:
			return s, nil
		case e.Day.AddDate(0, 0, -1).Format(dayLayout):
			s = s.withStreak(s.Streak + 1)
		default:
			s = s.withStreak(1)
		}
		s.LastActiveDay = day
	default:
		return s, fmt.Errorf("unknown progress event %T", e)
	}
	return s, nil
}

func (s Stats) withXP(xp int) Stats {
	s.XP = xp
	s.Level = LevelForXP(xp)
	return s
}

func (s Stats) withStreak(streak int) Stats {
	s.Streak = streak
	s.LongestStreak = max(s.LongestStreak, streak)
	return s
}
