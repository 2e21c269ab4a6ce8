package progress

import (
	"fmt"
	"slices"
	"time"
)

// Rarity ranks an achievement.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Achievement is an unlocked reward. Once stored it is never removed.
type Achievement struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Rarity      Rarity    `json:"rarity"`
	UnlockedAt  time.Time `json:"unlocked_at"`
}

// StudyGoals are the student's targets.
type StudyGoals struct {
	DailyFocusMinutes   int      `json:"daily_focus_time"`
	WeeklyTaskTarget    int      `json:"weekly_task_target"`
	PreferredStudyTimes []string `json:"preferred_study_times"`
}

// Preferences are the student's defaults for focus sessions.
type Preferences struct {
	PomodoroLength     int    `json:"pomodoro_length"`
	ShortBreakLength   int    `json:"short_break_length"`
	LongBreakLength    int    `json:"long_break_length"`
	Theme              string `json:"theme"`
	Notifications      bool   `json:"notifications"`
	SoundEnabled       bool   `json:"sound_enabled"`
	BreathingReminders bool   `json:"breathing_reminders"`
}

// Profile describes the student.
type Profile struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Subjects     []string      `json:"ib_subjects"`
	Goals        StudyGoals    `json:"study_goals"`
	Preferences  Preferences   `json:"preferences"`
	Achievements []Achievement `json:"achievements"`
}

// DefaultProfile returns the profile created on first run.
func DefaultProfile(now time.Time) Profile {
	return Profile{
		ID:       fmt.Sprintf("user-%d", now.UnixMilli()),
		Name:     "IB Student",
		Email:    "student@example.com",
		Subjects: []string{"Mathematics", "English", "History", "Chemistry", "Economics", "French"},
		Goals: StudyGoals{
			DailyFocusMinutes:   120,
			WeeklyTaskTarget:    20,
			PreferredStudyTimes: []string{"14:00", "19:00"},
		},
		Preferences: Preferences{
			PomodoroLength:     25,
			ShortBreakLength:   5,
			LongBreakLength:    15,
			Theme:              "light",
			Notifications:      true,
			SoundEnabled:       true,
			BreathingReminders: true,
		},
		Achievements: []Achievement{},
	}
}

// ProfilePatch configures fields to update on the profile.
// Nil pointers mean "don't update this field".
type ProfilePatch struct {
	Name        *string
	Email       *string
	Subjects    *[]string
	Goals       *StudyGoals
	Preferences *Preferences
}

func (p Profile) clone() Profile {
	out := p
	out.Subjects = slices.Clone(p.Subjects)
	out.Goals.PreferredStudyTimes = slices.Clone(p.Goals.PreferredStudyTimes)
	out.Achievements = slices.Clone(p.Achievements)
	return out
}

func (p Profile) apply(patch ProfilePatch) Profile {
	out := p.clone()
	if patch.Name != nil {
		out.Name = *patch.Name
	}
	if patch.Email != nil {
		out.Email = *patch.Email
	}
	if patch.Subjects != nil {
		out.Subjects = slices.Clone(*patch.Subjects)
	}
	if patch.Goals != nil {
		out.Goals = *patch.Goals
		out.Goals.PreferredStudyTimes = slices.Clone(patch.Goals.PreferredStudyTimes)
	}
	if patch.Preferences != nil {
		out.Preferences = *patch.Preferences
	}
	return out
}

// HasAchievement reports whether the achievement with id is unlocked.
func (p Profile) HasAchievement(id string) bool {
	return slices.ContainsFunc(p.Achievements, func(a Achievement) bool { return a.ID == id })
}
