// Package progress implements the progression ledger: coins, XP, level,
// streak, and stress level, plus the student profile that owns them.
//
// Every mutation is an Event applied by the pure Apply function. Level is
// never stored independently of XP; Apply recomputes it whenever XP moves.
package progress

const (
	// XPPerLevel is the XP needed to advance one level.
	XPPerLevel = 1000

	// XPPerTask is awarded for each completed task.
	XPPerTask = 50

	// MinutesPerXP is how many focus minutes earn one XP.
	MinutesPerXP = 10

	// StartingCoins is the balance of a new profile.
	StartingCoins = 100

	MinStressLevel     = 1
	MaxStressLevel     = 5
	DefaultStressLevel = 3
)

// Stats is the gamification state of the student.
type Stats struct {
	Coins          int    `json:"coins"`
	XP             int    `json:"xp"`
	Level          int    `json:"level"`
	Streak         int    `json:"streak"`
	LongestStreak  int    `json:"longest_streak"`
	StressLevel    int    `json:"stress_level"`
	TasksCompleted int    `json:"tasks_completed"`
	FocusMinutes   int    `json:"focus_time"`
	LastActiveDay  string `json:"last_active_day,omitempty"`
}

// DefaultStats returns the stats of a new profile.
func DefaultStats() Stats {
	return Stats{
		Coins:       StartingCoins,
		Level:       1,
		StressLevel: DefaultStressLevel,
	}
}

// LevelForXP returns the level reached with xp cumulative XP.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

// XPForNextLevel returns how much XP is missing to reach the next level.
func XPForNextLevel(xp int) int {
	return LevelForXP(xp)*XPPerLevel - xp
}

// LevelProgress returns the percentage of the current level already earned.
func LevelProgress(xp int) float64 {
	if xp < 0 {
		return 0
	}
	return float64(xp%XPPerLevel) / XPPerLevel * 100
}

// CanAfford reports whether the balance covers cost.
func (s Stats) CanAfford(cost int) bool {
	return cost >= 0 && s.Coins >= cost
}

// normalize repairs stats decoded from storage.
func (s Stats) normalize() Stats {
	s.Coins = max(s.Coins, 0)
	s.XP = max(s.XP, 0)
	s.Level = LevelForXP(s.XP)
	s.Streak = max(s.Streak, 0)
	s.LongestStreak = max(s.LongestStreak, s.Streak)
	s.TasksCompleted = max(s.TasksCompleted, 0)
	s.FocusMinutes = max(s.FocusMinutes, 0)
	if s.StressLevel == 0 {
		s.StressLevel = DefaultStressLevel
	}
	s.StressLevel = clampStress(s.StressLevel)
	return s
}

func clampStress(level int) int {
	return min(max(level, MinStressLevel), MaxStressLevel)
}
