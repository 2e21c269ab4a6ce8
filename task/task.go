package task

import (
	"slices"
	"time"
)

// DefaultDurationMinutes is the arena duration of a task with no estimate.
const DefaultDurationMinutes = 25

// Task is one item on the student's list.
type Task struct {
	// ID is an 8-char base32 identifier derived from the title and creation time.
	ID string `json:"id" yaml:"id"`

	Title       string `json:"title" yaml:"title" validate:"required,max=500"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" validate:"max=5000"`
	Subject     string `json:"subject" yaml:"subject" validate:"required,max=100"`
	Type        Type   `json:"type" yaml:"type" validate:"oneof=assignment study revision project exam other"`

	Priority Priority `json:"priority" yaml:"priority" validate:"oneof=low medium high"`
	Status   Status   `json:"status" yaml:"status" validate:"oneof=pending in_progress completed cancelled"`

	// Completed always equals Status == StatusCompleted.
	Completed bool `json:"completed" yaml:"completed"`

	// Due is the free-form due label shown to the user ("Today", "2 days").
	Due string `json:"due,omitempty" yaml:"due,omitempty"`

	// DueDate is the machine-readable due date, when known.
	DueDate *time.Time `json:"due_date,omitempty" yaml:"due_date,omitempty"`

	EstimatedMinutes int `json:"estimated_minutes,omitempty" yaml:"estimated_minutes,omitempty" validate:"gte=0,lte=1440"`
	ActualMinutes    int `json:"actual_minutes,omitempty" yaml:"actual_minutes,omitempty" validate:"gte=0"`

	Tags         []string `json:"tags,omitempty" yaml:"tags,omitempty" validate:"dive,required,max=50"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`

	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" yaml:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// Duration returns the task's arena duration in minutes.
func (t Task) Duration() int {
	if t.EstimatedMinutes > 0 {
		return t.EstimatedMinutes
	}
	return DefaultDurationMinutes
}

func (t Task) clone() Task {
	out := t
	out.Tags = slices.Clone(t.Tags)
	out.Dependencies = slices.Clone(t.Dependencies)
	if t.DueDate != nil {
		due := *t.DueDate
		out.DueDate = &due
	}
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		out.CompletedAt = &completed
	}
	return out
}

func cloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.clone()
	}
	return out
}

// setStatus moves t to status and keeps Completed and CompletedAt in step.
func (t *Task) setStatus(status Status, now time.Time) {
	if t.Status == status && t.Completed == (status == StatusCompleted) {
		return
	}
	t.Status = status
	t.Completed = status == StatusCompleted
	if t.Completed {
		completedAt := now
		t.CompletedAt = &completedAt
	} else {
		t.CompletedAt = nil
	}
}

// NewTask holds the fields of a task being created.
type NewTask struct {
	Title       string   `validate:"required,max=500"`
	Description string   `validate:"max=5000"`
	Subject     string   `validate:"required,max=100"`
	Type        Type     `validate:"omitempty,oneof=assignment study revision project exam other"`
	Priority    Priority `validate:"omitempty,oneof=low medium high"`
	Due         string   `validate:"max=100"`
	DueDate     *time.Time

	EstimatedMinutes int `validate:"gte=0,lte=1440"`

	Tags         []string `validate:"dive,required,max=50"`
	Dependencies []string `validate:"dive,required"`
}

// Patch configures fields to update on a task.
// Nil pointers mean "don't update this field".
type Patch struct {
	Title            *string
	Description      *string
	Subject          *string
	Type             *Type
	Priority         *Priority
	Status           *Status
	Completed        *bool
	Due              *string
	DueDate          *time.Time
	ClearDueDate     bool
	EstimatedMinutes *int
	ActualMinutes    *int
	Tags             *[]string
	Dependencies     *[]string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Subject == nil &&
		p.Type == nil && p.Priority == nil && p.Status == nil &&
		p.Completed == nil && p.Due == nil && p.DueDate == nil && !p.ClearDueDate &&
		p.EstimatedMinutes == nil && p.ActualMinutes == nil &&
		p.Tags == nil && p.Dependencies == nil
}
