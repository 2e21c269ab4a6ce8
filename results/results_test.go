package results

import (
	"strings"
	"testing"
	"time"

	"github.com/amonks/ibuddy/arena"
	"github.com/amonks/ibuddy/progress"
)

func unlockedIDs(r Results) []string {
	var ids []string
	for _, a := range r.Unlocked() {
		ids = append(ids, a.ID)
	}
	return ids
}

func TestAggregate_CoinsAndAchievements(t *testing.T) {
	summary := arena.Summary{TasksCompleted: 4, TotalTasks: 6, TotalTime: 85, FocusScore: 85}
	stats := progress.DefaultStats()

	r := Aggregate(summary, stats)
	if r.CoinsEarned != 41 {
		t.Fatalf("expected 41 coins, got %d", r.CoinsEarned)
	}
	got := strings.Join(unlockedIDs(r), ",")
	if got != "focus-master,time-warrior,peak-performer" {
		t.Fatalf("unexpected unlocks %q", got)
	}
	if len(r.Badges) != 4 {
		t.Fatalf("expected every badge listed, got %d", len(r.Badges))
	}

	stats.Streak = 5
	r = Aggregate(arena.Summary{}, stats)
	if got := unlockedIDs(r); len(got) != 1 || got[0] != "streak-legend" {
		t.Fatalf("expected only streak legend, got %v", got)
	}
}

func TestAggregate_Thresholds(t *testing.T) {
	tests := []struct {
		name    string
		summary arena.Summary
		want    int
	}{
		{"below every threshold", arena.Summary{TasksCompleted: 3, TotalTime: 59, FocusScore: 79}, 0},
		{"exactly at thresholds", arena.Summary{TasksCompleted: 4, TotalTime: 60, FocusScore: 80}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(Aggregate(tt.summary, progress.DefaultStats()).Unlocked()); got != tt.want {
				t.Fatalf("expected %d unlocks, got %d", tt.want, got)
			}
		})
	}
}

func TestAggregate_IsPure(t *testing.T) {
	summary := arena.Summary{TasksCompleted: 2, TotalTasks: 3, FocusScore: 67}
	stats := progress.DefaultStats()
	a := Aggregate(summary, stats)
	b := Aggregate(summary, stats)
	if a.CoinsEarned != b.CoinsEarned || len(a.Unlocked()) != len(b.Unlocked()) {
		t.Fatalf("repeated calls must agree")
	}
	if stats.Coins != progress.StartingCoins {
		t.Fatalf("stats must not change")
	}
}

func TestRecommendations(t *testing.T) {
	tests := []struct {
		score int
		first string
		count int
	}{
		{90, "Excellent Focus!", 3},
		{70, "Optimal Timing", 2},
		{40, "Focus Enhancement", 3},
		{0, "Focus Enhancement", 3},
	}
	for _, tt := range tests {
		recs := Aggregate(arena.Summary{FocusScore: tt.score}, progress.DefaultStats()).Recommendations
		if len(recs) != tt.count || recs[0].Title != tt.first {
			t.Errorf("score %d: got %d recommendations starting %q", tt.score, len(recs), recs[0].Title)
		}
	}
}

func TestMarkdown(t *testing.T) {
	r := Aggregate(arena.PlaceholderSummary(time.Now()), progress.DefaultStats())
	r.Placeholder = true
	md := Markdown(r)
	for _, want := range []string{"# Session Complete", "sample results", "**Focus score:** 85%", "**Coins earned:** 41", "[x] **Focus Master**", "[ ] **Streak Legend**", "3 achievements unlocked!"} {
		if !strings.Contains(md, want) {
			t.Errorf("expected %q in:\n%s", want, md)
		}
	}
}
