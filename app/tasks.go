package app

import (
	"fmt"

	"github.com/amonks/ibuddy/task"
)

// AddTask creates a task.
func (a *App) AddTask(n task.NewTask) (task.Task, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, err := a.tasks.Add(n)
	if err != nil {
		a.notices.Error("Could not add task", err.Error())
		return task.Task{}, err
	}
	a.metrics.TaskMutation("add")
	a.notices.Success("Task added", fmt.Sprintf("%q was added to %s", t.Title, t.Subject))
	return t, nil
}

// UpdateTask applies p to the task with the given ID.
func (a *App) UpdateTask(id string, p task.Patch) (task.Task, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, err := a.tasks.Update(id, p)
	if err != nil {
		a.notices.Error("Could not update task", err.Error())
		return task.Task{}, err
	}
	a.metrics.TaskMutation("update")
	return t, nil
}

// DeleteTask removes a task.
func (a *App) DeleteTask(id string) (task.Task, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, err := a.tasks.Delete(id)
	if err != nil {
		a.notices.Error("Could not delete task", err.Error())
		return task.Task{}, err
	}
	a.metrics.TaskMutation("delete")
	a.notices.Info("Task deleted", t.Title)
	return t, nil
}

// ToggleTask flips a task between pending and completed.
func (a *App) ToggleTask(id string) (task.Task, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, err := a.tasks.Toggle(id)
	if err != nil {
		a.notices.Error("Could not update task", err.Error())
		return task.Task{}, err
	}
	a.metrics.TaskMutation("toggle")
	if t.Completed {
		a.notices.Success("Task completed!", t.Title)
	}
	return t, nil
}

// ImportTasks adds tasks, or replaces the list when replace is set.
func (a *App) ImportTasks(tasks []task.Task, replace bool) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n, err := a.tasks.Import(tasks, replace)
	if err != nil {
		a.notices.Error("Import failed", err.Error())
		return 0, err
	}
	a.metrics.TaskMutation("import")
	a.notices.Success("Tasks imported", fmt.Sprintf("%d task(s) imported", n))
	return n, nil
}

// ResolveTask expands an ID prefix to a full task ID.
func (a *App) ResolveTask(prefix string) (string, error) {
	return a.tasks.Resolve(prefix)
}

// Task returns one task.
func (a *App) Task(id string) (task.Task, bool) {
	return a.tasks.Get(id)
}

// Tasks returns every task in stored order.
func (a *App) Tasks() []task.Task {
	return a.tasks.All()
}

// FilteredTasks returns the sorted and filtered view.
func (a *App) FilteredTasks() []task.Task {
	return a.tasks.Filtered()
}

// TaskStats returns counts over the whole list.
func (a *App) TaskStats() task.Stats {
	return a.tasks.Stats()
}

// TaskPrefixLengths returns the shortest unique prefix length per task ID.
func (a *App) TaskPrefixLengths() map[string]int {
	return a.tasks.PrefixLengths()
}

// SetTaskFilters merges p into the active filters.
func (a *App) SetTaskFilters(p task.FilterPatch) task.Filters {
	return a.tasks.SetFilters(p)
}

// ClearTaskFilters removes every filter.
func (a *App) ClearTaskFilters() {
	a.tasks.ClearFilters()
}

// SetTaskSort sets the view's sort key and direction.
func (a *App) SetTaskSort(field task.SortField, order task.SortOrder) error {
	return a.tasks.SetSort(field, order)
}
