package task

import (
	"fmt"
	"slices"
	"strings"

	"github.com/amonks/ibuddy/internal/ids"
)

// Add creates a task from n and puts it at the front of the list.
func (s *Store) Add(n NewTask) (Task, error) {
	n.Title = strings.TrimSpace(n.Title)
	n.Subject = strings.TrimSpace(n.Subject)
	n.Type = normalizeEnum(n.Type)
	n.Priority = normalizeEnum(n.Priority)
	if err := ValidateTitle(n.Title); err != nil {
		return Task{}, err
	}
	if err := ValidateNewTask(&n); err != nil {
		return Task{}, err
	}

	// Apply defaults
	if n.Type == "" {
		n.Type = TypeOther
	}
	if n.Priority == "" {
		n.Priority = PriorityMedium
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	t := Task{
		ID:               ids.New(n.Title, now, s.taken),
		Title:            n.Title,
		Description:      n.Description,
		Subject:          n.Subject,
		Type:             n.Type,
		Priority:         n.Priority,
		Status:           StatusPending,
		Due:              strings.TrimSpace(n.Due),
		EstimatedMinutes: n.EstimatedMinutes,
		Tags:             slices.Clone(n.Tags),
		Dependencies:     slices.Clone(n.Dependencies),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if n.DueDate != nil {
		due := *n.DueDate
		t.DueDate = &due
	}
	if err := ValidateTask(&t); err != nil {
		return Task{}, err
	}

	next := make([]Task, 0, len(s.tasks)+1)
	next = append(next, t)
	next = append(next, s.tasks...)
	s.commit(next)
	return t.clone(), nil
}

// Update applies p to the task with the given ID.
//
// Status and Completed stay consistent: setting Status derives Completed, and
// setting only Completed moves the task to completed or back to pending. A
// patch that sets both must agree.
func (s *Store) Update(id string, p Patch) (Task, error) {
	p, err := normalizePatch(p)
	if err != nil {
		return Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(id, p)
}

func normalizePatch(p Patch) (Patch, error) {
	if p.IsEmpty() {
		return p, ErrEmptyPatch
	}
	if p.Status != nil {
		status := normalizeEnum(*p.Status)
		if !status.IsValid() {
			return p, fmt.Errorf("%w: %q", ErrInvalidStatus, *p.Status)
		}
		if p.Completed != nil && *p.Completed != (status == StatusCompleted) {
			return p, fmt.Errorf("%w: completed=%v status=%s", ErrCompletionMismatch, *p.Completed, status)
		}
		p.Status = &status
	}
	if p.Priority != nil {
		priority := normalizeEnum(*p.Priority)
		if !priority.IsValid() {
			return p, fmt.Errorf("%w: %q", ErrInvalidPriority, *p.Priority)
		}
		p.Priority = &priority
	}
	if p.Type != nil {
		typ := normalizeEnum(*p.Type)
		if !typ.IsValid() {
			return p, fmt.Errorf("%w: %q", ErrInvalidType, *p.Type)
		}
		p.Type = &typ
	}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if err := ValidateTitle(title); err != nil {
			return p, err
		}
		p.Title = &title
	}
	return p, nil
}

func (s *Store) updateLocked(id string, p Patch) (Task, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return Task{}, missingTaskError(id)
	}

	now := s.now()
	t := s.tasks[idx].clone()
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Subject != nil {
		t.Subject = strings.TrimSpace(*p.Subject)
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	switch {
	case p.Status != nil:
		t.setStatus(*p.Status, now)
	case p.Completed != nil:
		if *p.Completed {
			t.setStatus(StatusCompleted, now)
		} else {
			t.setStatus(StatusPending, now)
		}
	}
	if p.Due != nil {
		t.Due = strings.TrimSpace(*p.Due)
	}
	if p.ClearDueDate {
		t.DueDate = nil
	}
	if p.DueDate != nil {
		due := *p.DueDate
		t.DueDate = &due
	}
	if p.EstimatedMinutes != nil {
		t.EstimatedMinutes = *p.EstimatedMinutes
	}
	if p.ActualMinutes != nil {
		t.ActualMinutes = *p.ActualMinutes
	}
	if p.Tags != nil {
		t.Tags = slices.Clone(*p.Tags)
	}
	if p.Dependencies != nil {
		t.Dependencies = slices.Clone(*p.Dependencies)
	}
	t.UpdatedAt = now

	if err := ValidateTask(&t); err != nil {
		return Task{}, fmt.Errorf("validate task %s: %w", t.ID, err)
	}

	next := cloneTasks(s.tasks)
	next[idx] = t
	s.commit(next)
	return t.clone(), nil
}

// Delete removes the task with the given ID.
func (s *Store) Delete(id string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return Task{}, missingTaskError(id)
	}
	removed := s.tasks[idx].clone()
	next := make([]Task, 0, len(s.tasks)-1)
	next = append(next, s.tasks[:idx]...)
	next = append(next, s.tasks[idx+1:]...)
	s.commit(next)
	return removed, nil
}

// Toggle flips the task between completed and pending.
func (s *Store) Toggle(id string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return Task{}, missingTaskError(id)
	}
	target := !s.tasks[idx].Completed
	return s.updateLocked(id, Patch{Completed: &target})
}

// Import adds tasks in bulk. With replace set the current list is discarded.
// Every task is validated first; nothing changes if any task is invalid.
// Tasks whose ID already exists replace the stored one in place.
func (s *Store) Import(tasks []Task, replace bool) (int, error) {
	prepared := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		t = t.clone()
		t.Type = normalizeEnum(t.Type)
		t.Priority = normalizeEnum(t.Priority)
		t.Status = normalizeEnum(t.Status)
		if t.Status == "" {
			t.Status = StatusPending
		}
		if t.Type == "" {
			t.Type = TypeOther
		}
		if t.Priority == "" {
			t.Priority = PriorityMedium
		}
		prepared = append(prepared, t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var next []Task
	if !replace {
		next = cloneTasks(s.tasks)
	}
	position := make(map[string]int, len(next))
	for i, t := range next {
		position[t.ID] = i
	}

	for i := range prepared {
		t := &prepared[i]
		if t.ID == "" {
			t.ID = ids.New(t.Title, now, func(id string) bool {
				_, exists := position[id]
				return exists
			})
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		if t.UpdatedAt.IsZero() {
			t.UpdatedAt = now
		}
		t.Completed = t.Status == StatusCompleted
		if !t.Completed {
			t.CompletedAt = nil
		} else if t.CompletedAt == nil {
			completedAt := now
			t.CompletedAt = &completedAt
		}
		if err := ValidateTask(t); err != nil {
			return 0, fmt.Errorf("import task %d (%s): %w", i+1, t.Title, err)
		}
		if at, ok := position[t.ID]; ok {
			next[at] = *t
			continue
		}
		position[t.ID] = len(next)
		next = append(next, *t)
	}

	s.commit(next)
	return len(prepared), nil
}

// Get returns the task with the given ID.
func (s *Store) Get(id string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return Task{}, false
	}
	return s.tasks[idx].clone(), true
}

// All returns every task in stored order (newest first).
func (s *Store) All() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.tasks)
}

// Filtered returns the derived view: sorted, then filtered.
func (s *Store) Filtered() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.view)
}

// Incomplete returns up to limit incomplete tasks in stored order.
// A non-positive limit returns all of them.
func (s *Store) Incomplete(limit int) []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Task
	for _, t := range s.tasks {
		if t.Completed {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, t.clone())
	}
	return out
}

// Stats returns derived counts over the whole list.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return computeStats(s.tasks)
}

// SetFilters merges p into the current filters.
func (s *Store) SetFilters(p FilterPatch) Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = s.filters.apply(p)
	s.recompute()
	return s.filters
}

// ClearFilters resets every filter.
func (s *Store) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = Filters{}
	s.recompute()
}

// Filters returns the current filters.
func (s *Store) Filters() Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.filters
	if f.Completed != nil {
		completed := *f.Completed
		f.Completed = &completed
	}
	return f
}

// SetSort changes the view ordering.
func (s *Store) SetSort(field SortField, order SortOrder) error {
	sort := Sort{Field: normalizeEnum(field), Order: normalizeEnum(order)}
	if err := sort.Validate(); err != nil {
		return fmt.Errorf("%w: %s %s", err, field, order)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sort = sort
	s.recompute()
	return nil
}

// Sort returns the current ordering.
func (s *Store) Sort() Sort {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sort
}
