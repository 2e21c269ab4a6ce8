// Package task implements the student task list.
//
// Tasks are persisted as one JSON list in the "tasks" namespace. The store
// keeps a derived view of the list (sorted, then filtered) that is recomputed
// after every mutation, so readers never observe a stale view.
//
// The public API mirrors the CLI commands:
//   - Add, Update, Delete, Toggle for the task lifecycle
//   - SetFilters, ClearFilters, SetSort, Filtered for the derived view
//   - Get, Resolve, All, Incomplete, Stats for querying
package task

import "strings"

// Status represents the state of a task.
type Status string

const (
	// StatusPending indicates the task has not been started.
	StatusPending Status = "pending"

	// StatusInProgress indicates the task is being worked on.
	StatusInProgress Status = "in_progress"

	// StatusCompleted indicates the task is done.
	StatusCompleted Status = "completed"

	// StatusCancelled indicates the task was abandoned.
	StatusCancelled Status = "cancelled"
)

// ValidStatuses returns all valid status values.
func ValidStatuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}
}

// IsValid returns true if the status is a known valid value.
func (s Status) IsValid() bool {
	for _, valid := range ValidStatuses() {
		if s == valid {
			return true
		}
	}
	return false
}

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ValidPriorities returns all valid priorities, lowest first.
func ValidPriorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

// IsValid returns true if the priority is a known valid value.
func (p Priority) IsValid() bool {
	return p.Rank() > 0
}

// Rank orders priorities: low=1, medium=2, high=3. Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	default:
		return 0
	}
}

// Type categorizes a task.
type Type string

const (
	TypeAssignment Type = "assignment"
	TypeStudy      Type = "study"
	TypeRevision   Type = "revision"
	TypeProject    Type = "project"
	TypeExam       Type = "exam"
	TypeOther      Type = "other"
)

// ValidTypes returns all valid task types.
func ValidTypes() []Type {
	return []Type{TypeAssignment, TypeStudy, TypeRevision, TypeProject, TypeExam, TypeOther}
}

// IsValid returns true if the type is a known valid value.
func (t Type) IsValid() bool {
	for _, valid := range ValidTypes() {
		if t == valid {
			return true
		}
	}
	return false
}

// SortField selects the key of the derived view's ordering.
type SortField string

const (
	SortByDue       SortField = "due"
	SortByPriority  SortField = "priority"
	SortBySubject   SortField = "subject"
	SortByCreatedAt SortField = "created"
)

// ValidSortFields returns all valid sort fields.
func ValidSortFields() []SortField {
	return []SortField{SortByDue, SortByPriority, SortBySubject, SortByCreatedAt}
}

// IsValid returns true if the field is a known valid value.
func (f SortField) IsValid() bool {
	for _, valid := range ValidSortFields() {
		if f == valid {
			return true
		}
	}
	return false
}

// SortOrder is ascending or descending.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// IsValid returns true if the order is asc or desc.
func (o SortOrder) IsValid() bool {
	return o == SortAsc || o == SortDesc
}

func normalizeEnum[T ~string](value T) T {
	return T(strings.ToLower(strings.TrimSpace(string(value))))
}
