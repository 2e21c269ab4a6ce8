package notify

import (
	"fmt"
	"testing"
	"time"
)

// fakeTimers records scheduled removals so tests can fire them.
type fakeTimers struct {
	scheduled []*fakeTimer
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

func (ft *fakeTimers) afterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{d: d, f: f}
	ft.scheduled = append(ft.scheduled, t)
	return t
}

func newTestQueue(timers *fakeTimers) *Queue {
	return New(Options{AfterFunc: timers.afterFunc})
}

func TestQueue_NewestFirstAndBounded(t *testing.T) {
	timers := &fakeTimers{}
	q := newTestQueue(timers)

	var ids []string
	for i := range 7 {
		ids = append(ids, q.Info(fmt.Sprintf("n%d", i), ""))
	}

	list := q.List()
	if len(list) != 5 {
		t.Fatalf("expected 5 notifications, got %d", len(list))
	}
	if list[0].ID != ids[6] || list[4].ID != ids[2] {
		t.Fatalf("expected newest first with the oldest two dropped, got %s..%s", list[0].Title, list[4].Title)
	}
	if !timers.scheduled[0].stopped || !timers.scheduled[1].stopped {
		t.Fatalf("expected timers of dropped notifications to be stopped")
	}
	if timers.scheduled[2].stopped {
		t.Fatalf("timers of kept notifications must keep running")
	}
}

func TestQueue_DefaultsAndOptions(t *testing.T) {
	timers := &fakeTimers{}
	q := newTestQueue(timers)

	q.Success("saved", "")
	n := q.List()[0]
	if n.Duration != 5*time.Second || !n.Dismissible || n.Persistent || n.Type != TypeSuccess {
		t.Fatalf("unexpected defaults %+v", n)
	}
	if timers.scheduled[0].d != 5*time.Second {
		t.Fatalf("expected removal scheduled after 5s, got %v", timers.scheduled[0].d)
	}

	q.Warning("slow", "", WithDuration(time.Second), NotDismissible())
	n = q.List()[0]
	if n.Duration != time.Second || n.Dismissible {
		t.Fatalf("expected options applied, got %+v", n)
	}

	q.Error("stuck", "disk full", Persistent())
	if len(timers.scheduled) != 2 {
		t.Fatalf("persistent notifications must not schedule removal")
	}
}

func TestQueue_ExpiryAndRemove(t *testing.T) {
	timers := &fakeTimers{}
	q := newTestQueue(timers)

	first := q.Info("first", "")
	second := q.Info("second", "")

	timers.scheduled[0].f()
	if got := q.List(); len(got) != 1 || got[0].ID != second {
		t.Fatalf("expected only second after expiry, got %+v", got)
	}

	q.Remove(first)
	q.Remove("unknown")
	if q.Len() != 1 {
		t.Fatalf("removing unknown ids must be a no-op")
	}

	q.Remove(second)
	if !timers.scheduled[1].stopped || q.Len() != 0 {
		t.Fatalf("expected explicit removal to stop the timer")
	}
}

func TestQueue_Clear(t *testing.T) {
	timers := &fakeTimers{}
	q := newTestQueue(timers)
	q.Info("a", "")
	q.Info("b", "", Persistent())

	q.Clear()
	if q.Len() != 0 {
		t.Fatalf("expected empty queue")
	}
	if !timers.scheduled[0].stopped {
		t.Fatalf("expected timer stopped on clear")
	}
}

func TestQueue_UpdateSettingsTruncates(t *testing.T) {
	q := newTestQueue(&fakeTimers{})
	for i := range 4 {
		q.Info(fmt.Sprintf("n%d", i), "")
	}
	s := q.UpdateSettings(Settings{MaxNotifications: 2})
	if s.MaxNotifications != 2 || s.DefaultDuration != 5*time.Second {
		t.Fatalf("unexpected settings %+v", s)
	}
	list := q.List()
	if len(list) != 2 || list[0].Title != "n3" {
		t.Fatalf("expected the two newest, got %+v", list)
	}
}

func TestQueue_OnEnqueue(t *testing.T) {
	var seen []Type
	q := New(Options{
		AfterFunc: (&fakeTimers{}).afterFunc,
		OnEnqueue: func(n Notification) { seen = append(seen, n.Type) },
	})
	q.Success("a", "")
	q.Error("b", "")
	if len(seen) != 2 || seen[0] != TypeSuccess || seen[1] != TypeError {
		t.Fatalf("unexpected hook calls %v", seen)
	}
}
