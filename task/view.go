package task

import (
	"cmp"
	"slices"
	"strings"
)

// Filters narrows the derived view. Zero values mean "any".
// All set predicates must hold; the search query matches title or subject.
type Filters struct {
	Subject   string   `json:"subject,omitempty"`
	Priority  Priority `json:"priority,omitempty"`
	Completed *bool    `json:"completed,omitempty"`
	Search    string   `json:"search,omitempty"`
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return f.Subject == "" && f.Priority == "" && f.Completed == nil && f.Search == ""
}

// FilterPatch updates some filters and leaves the rest alone.
type FilterPatch struct {
	Subject   *string
	Priority  *Priority
	Completed *bool
	// AnyCompletion drops the completion filter. It wins over Completed.
	AnyCompletion bool
	Search        *string
}

func (f Filters) apply(p FilterPatch) Filters {
	out := f
	if p.Subject != nil {
		out.Subject = strings.TrimSpace(*p.Subject)
	}
	if p.Priority != nil {
		out.Priority = normalizeEnum(*p.Priority)
	}
	if p.Completed != nil {
		completed := *p.Completed
		out.Completed = &completed
	}
	if p.AnyCompletion {
		out.Completed = nil
	}
	if p.Search != nil {
		out.Search = strings.TrimSpace(*p.Search)
	}
	return out
}

// Match reports whether t passes every set filter.
func (f Filters) Match(t Task) bool {
	if f.Subject != "" && t.Subject != f.Subject {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	if f.Search != "" {
		query := strings.ToLower(f.Search)
		return strings.Contains(strings.ToLower(t.Title), query) ||
			strings.Contains(strings.ToLower(t.Subject), query)
	}
	return true
}

// Sort orders the derived view.
type Sort struct {
	Field SortField `json:"field"`
	Order SortOrder `json:"order"`
}

// DefaultSort orders by due date, soonest first.
func DefaultSort() Sort {
	return Sort{Field: SortByDue, Order: SortAsc}
}

// Validate checks the field and order.
func (s Sort) Validate() error {
	if !s.Field.IsValid() {
		return ErrInvalidSortField
	}
	if !s.Order.IsValid() {
		return ErrInvalidSortOrder
	}
	return nil
}

// compareTasks compares a and b by field in ascending order.
func compareTasks(field SortField, a, b Task) int {
	switch field {
	case SortByDue:
		return compareDue(a, b)
	case SortByPriority:
		return cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
	case SortBySubject:
		return strings.Compare(strings.ToLower(a.Subject), strings.ToLower(b.Subject))
	case SortByCreatedAt:
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	default:
		return 0
	}
}

// compareDue orders dated tasks by date, then undated tasks by label.
func compareDue(a, b Task) int {
	switch {
	case a.DueDate != nil && b.DueDate != nil:
		return a.DueDate.Compare(*b.DueDate)
	case a.DueDate != nil:
		return -1
	case b.DueDate != nil:
		return 1
	default:
		return strings.Compare(a.Due, b.Due)
	}
}

// View sorts then filters tasks. The input is not modified.
func View(tasks []Task, filters Filters, sort Sort) []Task {
	sorted := cloneTasks(tasks)
	slices.SortStableFunc(sorted, func(a, b Task) int {
		c := compareTasks(sort.Field, a, b)
		if sort.Order == SortDesc {
			return -c
		}
		return c
	})

	out := sorted[:0]
	for _, t := range sorted {
		if filters.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Stats summarizes the task list.
type Stats struct {
	Total        int            `json:"total"`
	Completed    int            `json:"completed"`
	Pending      int            `json:"pending"`
	HighPriority int            `json:"high_priority"`
	BySubject    map[string]int `json:"by_subject"`
}

func computeStats(tasks []Task) Stats {
	stats := Stats{Total: len(tasks), BySubject: make(map[string]int)}
	for _, t := range tasks {
		if t.Completed {
			stats.Completed++
		} else {
			stats.Pending++
			if t.Priority == PriorityHigh {
				stats.HighPriority++
			}
		}
		stats.BySubject[t.Subject]++
	}
	return stats
}

// GroupBySubject groups tasks by subject, keeping their order.
func GroupBySubject(tasks []Task) map[string][]Task {
	groups := make(map[string][]Task)
	for _, t := range tasks {
		groups[t.Subject] = append(groups[t.Subject], t.clone())
	}
	return groups
}
