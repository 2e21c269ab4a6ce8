// Package listflags registers the filter and sort flags shared by task
// listings.
package listflags

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/amonks/ibuddy/internal/validation"
	"github.com/amonks/ibuddy/task"
)

// TaskFlags holds the parsed flag values.
type TaskFlags struct {
	Subject   string
	Priority  string
	Search    string
	Completed bool
	Pending   bool
	Sort      string
	Order     string
}

// AddTaskFlags registers the listing flags on cmd.
func AddTaskFlags(cmd *cobra.Command, f *TaskFlags) {
	cmd.Flags().StringVar(&f.Subject, "subject", "", "Only tasks in this subject")
	cmd.Flags().StringVar(&f.Priority, "priority", "", "Only tasks with this priority (low, medium, high)")
	cmd.Flags().StringVar(&f.Search, "search", "", "Only tasks whose title, description, or subject contains this text")
	cmd.Flags().BoolVar(&f.Completed, "completed", false, "Only completed tasks")
	cmd.Flags().BoolVar(&f.Pending, "pending", false, "Only tasks that are not completed")
	cmd.Flags().StringVar(&f.Sort, "sort", string(task.SortByDue), "Sort by due, priority, subject, or created")
	cmd.Flags().StringVar(&f.Order, "order", string(task.SortAsc), "Sort order (asc, desc)")
}

// Filters returns the filter patch for the flags set on cmd.
func (f TaskFlags) Filters(cmd *cobra.Command) (task.FilterPatch, error) {
	var p task.FilterPatch
	if f.Completed && f.Pending {
		return p, errors.New("--completed and --pending are mutually exclusive")
	}
	if cmd.Flags().Changed("subject") {
		p.Subject = &f.Subject
	}
	if cmd.Flags().Changed("priority") {
		priority, err := validation.ParseEnum(task.ErrInvalidPriority, f.Priority, task.ValidPriorities())
		if err != nil {
			return p, err
		}
		p.Priority = &priority
	}
	if cmd.Flags().Changed("search") {
		p.Search = &f.Search
	}
	switch {
	case f.Completed:
		completed := true
		p.Completed = &completed
	case f.Pending:
		completed := false
		p.Completed = &completed
	}
	return p, nil
}

// SortKey returns the validated sort field and order.
func (f TaskFlags) SortKey() (task.SortField, task.SortOrder, error) {
	field, err := validation.ParseEnum(task.ErrInvalidSortField, f.Sort, task.ValidSortFields())
	if err != nil {
		return "", "", err
	}
	order, err := validation.ParseEnum(task.ErrInvalidSortOrder, f.Order, []task.SortOrder{task.SortAsc, task.SortDesc})
	if err != nil {
		return "", "", err
	}
	return field, order, nil
}
