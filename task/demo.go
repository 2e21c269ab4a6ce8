package task

import (
	"time"

	"github.com/amonks/ibuddy/internal/ids"
)

type demoTask struct {
	title    string
	subject  string
	typ      Type
	priority Priority
	due      string
	dueDays  int
	done     bool
}

var demoTasks = []demoTask{
	{"Math IA Research", "Mathematics", TypeProject, PriorityHigh, "Today", 0, false},
	{"History Essay Draft", "History", TypeAssignment, PriorityMedium, "Tomorrow", 1, false},
	{"Chemistry Lab Report", "Chemistry", TypeAssignment, PriorityHigh, "2 days", 2, false},
	{"TOK Presentation Prep", "TOK", TypeStudy, PriorityLow, "1 week", 7, true},
}

// DemoTasks returns the starter task list, created relative to now.
func DemoTasks(now time.Time) []Task {
	year, month, day := now.Date()
	today := time.Date(year, month, day, 0, 0, 0, 0, now.Location())

	out := make([]Task, 0, len(demoTasks))
	for i, d := range demoTasks {
		created := now.Add(time.Duration(i-len(demoTasks)+1) * time.Second)
		due := today.AddDate(0, 0, d.dueDays)
		t := Task{
			ID:        ids.New(d.title, created, nil),
			Title:     d.title,
			Subject:   d.subject,
			Type:      d.typ,
			Priority:  d.priority,
			Status:    StatusPending,
			Due:       d.due,
			DueDate:   &due,
			CreatedAt: created,
			UpdatedAt: created,
		}
		if d.done {
			t.setStatus(StatusCompleted, created)
		}
		out = append(out, t)
	}
	return out
}
