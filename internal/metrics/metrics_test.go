package metrics

import (
	"bytes"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersRecord(t *testing.T) {
	m := New()

	m.SessionEnded("completed", 67)
	m.SessionEnded("cancelled", 0)
	m.SessionEnded("completed", 100)
	m.ArenaTask("completed")
	m.ArenaTask("skipped")
	m.CoinsAwarded(26)
	m.CoinsAwarded(0)
	m.PersistenceError("tasks")

	if got := testutil.ToFloat64(m.SessionsEndedTotal.WithLabelValues("completed")); got != 2 {
		t.Errorf("completed sessions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.SessionsEndedTotal.WithLabelValues("cancelled")); got != 1 {
		t.Errorf("cancelled sessions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CoinsAwardedTotal); got != 26 {
		t.Errorf("coins awarded = %v, want 26", got)
	}
	if got := testutil.ToFloat64(m.PersistenceErrorsTotal.WithLabelValues("tasks")); got != 1 {
		t.Errorf("persistence errors = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.SessionEnded("completed", 50)
	m.ArenaTask("completed")
	m.TaskMutation("add")
	m.CoinsAwarded(5)
	m.Notification("info")
	m.PersistenceError("user")
	m.Observe(Snapshot{Coins: 10})
}

func TestWriteText(t *testing.T) {
	m := New()
	m.Observe(Snapshot{TasksTotal: 4, TasksCompleted: 1, Coins: 126, Level: 1, SessionActive: true})
	m.TaskMutation("add")

	var buf bytes.Buffer
	if err := m.WriteText(&buf); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`ibuddy_progress_value{stat="coins"} 126`,
		`ibuddy_tasks_count{state="pending"} 3`,
		`ibuddy_tasks_mutations_total{op="add"} 1`,
		`ibuddy_arena_session_active 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}
