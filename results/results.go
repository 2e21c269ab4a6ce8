// Package results computes what a finished focus session earned.
//
// Aggregate is pure: it reads a summary and the progression stats and
// returns rewards, achievements and advice without changing anything.
// Applying the coins and storing the achievements is the caller's job.
package results

import (
	"github.com/amonks/ibuddy/arena"
	"github.com/amonks/ibuddy/progress"
)

// Badge is an achievement with whether this session earned it.
type Badge struct {
	progress.Achievement
	Unlocked bool `json:"unlocked"`
}

// RecommendationKind groups recommendations for display.
type RecommendationKind string

const (
	KindInsight    RecommendationKind = "insight"
	KindSuggestion RecommendationKind = "suggestion"
	KindTip        RecommendationKind = "tip"
)

// Recommendation is one piece of advice for the next session.
type Recommendation struct {
	Kind        RecommendationKind `json:"kind"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
}

// Results is the aftermath of one session.
type Results struct {
	Summary         arena.Summary    `json:"summary"`
	CoinsEarned     int              `json:"coins_earned"`
	Badges          []Badge          `json:"badges"`
	Recommendations []Recommendation `json:"recommendations"`
	Placeholder     bool             `json:"placeholder,omitempty"`
}

// Unlocked returns the achievements this session earned.
func (r Results) Unlocked() []progress.Achievement {
	var out []progress.Achievement
	for _, b := range r.Badges {
		if b.Unlocked {
			out = append(out, b.Achievement)
		}
	}
	return out
}

// rule is an achievement and the condition that unlocks it.
type rule struct {
	achievement progress.Achievement
	unlocked    func(arena.Summary, progress.Stats) bool
}

var rules = []rule{
	{
		achievement: progress.Achievement{
			ID:          "focus-master",
			Name:        "Focus Master",
			Description: "Complete 4+ tasks in one session",
			Rarity:      progress.RarityRare,
		},
		unlocked: func(s arena.Summary, _ progress.Stats) bool { return s.TasksCompleted >= 4 },
	},
	{
		achievement: progress.Achievement{
			ID:          "time-warrior",
			Name:        "Time Warrior",
			Description: "60+ minutes of focused work",
			Rarity:      progress.RarityCommon,
		},
		unlocked: func(s arena.Summary, _ progress.Stats) bool { return s.TotalTime >= 60 },
	},
	{
		achievement: progress.Achievement{
			ID:          "peak-performer",
			Name:        "Peak Performer",
			Description: "Achieve 80%+ focus score",
			Rarity:      progress.RarityEpic,
		},
		unlocked: func(s arena.Summary, _ progress.Stats) bool { return s.FocusScore >= 80 },
	},
	{
		achievement: progress.Achievement{
			ID:          "streak-legend",
			Name:        "Streak Legend",
			Description: "5+ day study streak",
			Rarity:      progress.RarityLegendary,
		},
		unlocked: func(_ arena.Summary, st progress.Stats) bool { return st.Streak >= 5 },
	},
}

// Achievements returns every achievement that can be earned, locked or not.
func Achievements() []progress.Achievement {
	out := make([]progress.Achievement, len(rules))
	for i, r := range rules {
		out[i] = r.achievement
	}
	return out
}

// Aggregate computes the results of summary given the current stats.
func Aggregate(summary arena.Summary, stats progress.Stats) Results {
	r := Results{
		Summary:     summary,
		CoinsEarned: arena.CoinReward(summary),
		Badges:      make([]Badge, len(rules)),
	}
	for i, rule := range rules {
		r.Badges[i] = Badge{
			Achievement: rule.achievement,
			Unlocked:    rule.unlocked(summary, stats),
		}
	}
	r.Recommendations = recommend(summary)
	return r
}

func recommend(s arena.Summary) []Recommendation {
	var out []Recommendation
	switch {
	case s.FocusScore >= 80:
		out = append(out, Recommendation{
			Kind:        KindInsight,
			Title:       "Excellent Focus!",
			Description: "Your focus was outstanding. Try maintaining this rhythm for tomorrow's session.",
		})
	case s.FocusScore < 60:
		out = append(out, Recommendation{
			Kind:        KindSuggestion,
			Title:       "Focus Enhancement",
			Description: "Consider shorter 25-minute blocks with 5-minute breaks to improve concentration.",
		})
	}
	out = append(out,
		Recommendation{
			Kind:        KindInsight,
			Title:       "Optimal Timing",
			Description: "You performed best during mid-session. Schedule challenging tasks for 30-45 minute marks.",
		},
		Recommendation{
			Kind:        KindTip,
			Title:       "Tomorrow's Strategy",
			Description: "Start with your most demanding subject when your focus is highest, then move to lighter subjects.",
		},
	)
	return out
}
