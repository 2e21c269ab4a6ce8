package app

import (
	"fmt"

	"github.com/amonks/ibuddy/progress"
)

// Stats returns the progression stats.
func (a *App) Stats() progress.Stats {
	return a.ledger.Stats()
}

// Profile returns the student profile.
func (a *App) Profile() progress.Profile {
	return a.ledger.Profile()
}

// UpdateProfile applies p to the profile.
func (a *App) UpdateProfile(p progress.ProfilePatch) (progress.Profile, error) {
	profile, err := a.ledger.UpdateProfile(p)
	if err != nil {
		a.notices.Error("Could not update profile", err.Error())
		return progress.Profile{}, err
	}
	return profile, nil
}

// AddCoins credits n coins.
func (a *App) AddCoins(n int) (progress.Stats, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	stats, err := a.ledger.AddCoins(n)
	if err != nil {
		a.notices.Error("Could not add coins", err.Error())
		return stats, err
	}
	a.metrics.CoinsAwarded(n)
	return stats, nil
}

// SpendCoins debits n coins. It reports false and changes nothing when the
// balance is too low.
func (a *App) SpendCoins(n int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.ledger.SpendCoins(n) {
		a.notices.Error("Not enough coins", fmt.Sprintf("You need %d coins but have %d", n, a.ledger.Stats().Coins))
		return false
	}
	return true
}

// AddFocusTime records minutes of focus.
func (a *App) AddFocusTime(minutes int) (progress.Stats, error) {
	return a.ledger.AddFocusTime(minutes)
}

// AddCompletedTasks records completed tasks.
func (a *App) AddCompletedTasks(count int) (progress.Stats, error) {
	return a.ledger.AddCompletedTasks(count)
}

// UpdateStressLevel sets the stress level, clamped to 1..5.
func (a *App) UpdateStressLevel(level int) progress.Stats {
	return a.ledger.UpdateStressLevel(level)
}

// IncrementStreak adds one day to the streak.
func (a *App) IncrementStreak() progress.Stats {
	return a.ledger.IncrementStreak()
}

// ResetStreak sets the streak to zero.
func (a *App) ResetStreak() progress.Stats {
	return a.ledger.ResetStreak()
}

// Achievements returns the unlocked achievements, oldest first.
func (a *App) Achievements() []progress.Achievement {
	return a.ledger.Profile().Achievements
}
