package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amonks/ibuddy/app"
	"github.com/amonks/ibuddy/internal/listflags"
	internalstrings "github.com/amonks/ibuddy/internal/strings"
	"github.com/amonks/ibuddy/internal/ui"
	"github.com/amonks/ibuddy/internal/validation"
	"github.com/amonks/ibuddy/task"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage study tasks",
}

// task add
var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskAdd,
}

var (
	taskAddSubject     string
	taskAddDescription string
	taskAddType        string
	taskAddPriority    string
	taskAddDue         string
	taskAddDueDate     string
	taskAddEstimate    int
	taskAddTags        []string
	taskAddJSON        bool
)

// task list
var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE:  runTaskList,
}

var (
	taskListFlags listflags.TaskFlags
	taskListGroup bool
	taskListJSON  bool
)

// task show
var taskShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskShowJSON bool

// task update
var taskUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskUpdate,
}

var (
	taskUpdateTitle       string
	taskUpdateDescription string
	taskUpdateSubject     string
	taskUpdateType        string
	taskUpdatePriority    string
	taskUpdateStatus      string
	taskUpdateDue         string
	taskUpdateDueDate     string
	taskUpdateClearDue    bool
	taskUpdateEstimate    int
	taskUpdateActual      int
	taskUpdateTags        []string
	taskUpdateJSON        bool
)

// task delete
var taskDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete one or more tasks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskDelete,
}

// task toggle
var taskToggleCmd = &cobra.Command{
	Use:   "toggle <id>...",
	Short: "Flip one or more tasks between pending and completed",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskToggle,
}

// task stats
var taskStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show task counts",
	Args:  cobra.NoArgs,
	RunE:  runTaskStats,
}

var taskStatsJSON bool

// task export
var taskExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every task as JSON or YAML",
	Args:  cobra.NoArgs,
	RunE:  runTaskExport,
}

var (
	taskExportFormat string
	taskExportOutput string
)

// task import
var taskImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import tasks from a JSON or YAML export ('-' reads stdin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskImport,
}

var (
	taskImportFormat  string
	taskImportReplace bool
)

func init() {
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskShowCmd, taskUpdateCmd, taskDeleteCmd,
		taskToggleCmd, taskStatsCmd, taskExportCmd, taskImportCmd)

	taskAddCmd.Flags().StringVarP(&taskAddSubject, "subject", "s", "", "Subject (required)")
	taskAddCmd.Flags().StringVarP(&taskAddDescription, "description", "d", "", "Description")
	taskAddCmd.Flags().StringVarP(&taskAddType, "type", "t", "", "Type (assignment, study, revision, project, exam, other)")
	taskAddCmd.Flags().StringVarP(&taskAddPriority, "priority", "p", "", "Priority (low, medium, high)")
	taskAddCmd.Flags().StringVar(&taskAddDue, "due", "", "Due label, like \"Friday\"")
	taskAddCmd.Flags().StringVar(&taskAddDueDate, "due-date", "", "Due date (YYYY-MM-DD)")
	taskAddCmd.Flags().IntVar(&taskAddEstimate, "estimate", 0, "Estimated minutes")
	taskAddCmd.Flags().StringArrayVar(&taskAddTags, "tag", nil, "Tag (repeatable)")
	taskAddCmd.Flags().BoolVar(&taskAddJSON, "json", false, "Output as JSON")
	_ = taskAddCmd.MarkFlagRequired("subject")
	addTaskFlagAliases(taskAddCmd, taskUpdateCmd)

	listflags.AddTaskFlags(taskListCmd, &taskListFlags)
	taskListCmd.Flags().BoolVar(&taskListGroup, "group", false, "Group by subject")
	taskListCmd.Flags().BoolVar(&taskListJSON, "json", false, "Output as JSON")

	taskShowCmd.Flags().BoolVar(&taskShowJSON, "json", false, "Output as JSON")

	taskUpdateCmd.Flags().StringVar(&taskUpdateTitle, "title", "", "New title")
	taskUpdateCmd.Flags().StringVar(&taskUpdateDescription, "description", "", "New description")
	taskUpdateCmd.Flags().StringVar(&taskUpdateSubject, "subject", "", "New subject")
	taskUpdateCmd.Flags().StringVar(&taskUpdateType, "type", "", "New type")
	taskUpdateCmd.Flags().StringVar(&taskUpdatePriority, "priority", "", "New priority")
	taskUpdateCmd.Flags().StringVar(&taskUpdateStatus, "status", "", "New status (pending, in_progress, completed, cancelled)")
	taskUpdateCmd.Flags().StringVar(&taskUpdateDue, "due", "", "New due label")
	taskUpdateCmd.Flags().StringVar(&taskUpdateDueDate, "due-date", "", "New due date (YYYY-MM-DD)")
	taskUpdateCmd.Flags().BoolVar(&taskUpdateClearDue, "clear-due-date", false, "Remove the due date")
	taskUpdateCmd.Flags().IntVar(&taskUpdateEstimate, "estimate", 0, "New estimated minutes")
	taskUpdateCmd.Flags().IntVar(&taskUpdateActual, "actual", 0, "Minutes actually spent")
	taskUpdateCmd.Flags().StringArrayVar(&taskUpdateTags, "tag", nil, "Replace tags (repeatable)")
	taskUpdateCmd.Flags().BoolVar(&taskUpdateJSON, "json", false, "Output as JSON")

	taskStatsCmd.Flags().BoolVar(&taskStatsJSON, "json", false, "Output as JSON")

	taskExportCmd.Flags().StringVar(&taskExportFormat, "format", string(task.FormatJSON), "Format (json, yaml)")
	taskExportCmd.Flags().StringVarP(&taskExportOutput, "output", "o", "", "Write to a file instead of stdout")

	taskImportCmd.Flags().StringVar(&taskImportFormat, "format", "", "Format (json, yaml); guessed from the file extension by default")
	taskImportCmd.Flags().BoolVar(&taskImportReplace, "replace", false, "Replace the task list instead of adding to it")
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	n := task.NewTask{
		Title:            internalstrings.NormalizeWhitespace(args[0]),
		Subject:          taskAddSubject,
		Description:      taskAddDescription,
		Due:              taskAddDue,
		EstimatedMinutes: taskAddEstimate,
		Tags:             taskAddTags,
	}
	if taskAddType != "" {
		typ, err := validation.ParseEnum(task.ErrInvalidType, taskAddType, task.ValidTypes())
		if err != nil {
			return err
		}
		n.Type = typ
	}
	if taskAddPriority != "" {
		priority, err := validation.ParseEnum(task.ErrInvalidPriority, taskAddPriority, task.ValidPriorities())
		if err != nil {
			return err
		}
		n.Priority = priority
	}
	if taskAddDueDate != "" {
		due, err := parseDate(taskAddDueDate)
		if err != nil {
			return err
		}
		n.DueDate = &due
	}

	return withApp(cmd, func(a *app.App) error {
		created, err := a.AddTask(n)
		if err != nil {
			return err
		}
		if taskAddJSON {
			return encodeJSONToStdout(created)
		}
		highlight := taskHighlighter(a.TaskPrefixLengths())
		fmt.Printf("Added task %s: %s\n", highlight(created.ID), created.Title)
		return nil
	})
}

func runTaskList(cmd *cobra.Command, _ []string) error {
	filters, err := taskListFlags.Filters(cmd)
	if err != nil {
		return err
	}
	field, order, err := taskListFlags.SortKey()
	if err != nil {
		return err
	}

	return withApp(cmd, func(a *app.App) error {
		a.SetTaskFilters(filters)
		if err := a.SetTaskSort(field, order); err != nil {
			return err
		}
		tasks := a.FilteredTasks()
		if taskListJSON {
			if tasks == nil {
				tasks = []task.Task{}
			}
			return encodeJSONToStdout(tasks)
		}
		prefixLengths := a.TaskPrefixLengths()
		now := time.Now()
		if !taskListGroup {
			printTaskTable(tasks, prefixLengths, now)
			return nil
		}
		groups := task.GroupBySubject(tasks)
		subjects := make([]string, 0, len(groups))
		for subject := range groups {
			subjects = append(subjects, subject)
		}
		slices.Sort(subjects)
		for i, subject := range subjects {
			if i > 0 {
				fmt.Println()
			}
			fmt.Printf("%s (%d)\n", subject, len(groups[subject]))
			printTaskTable(groups[subject], prefixLengths, now)
		}
		return nil
	})
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(a *app.App) error {
		id, err := a.ResolveTask(args[0])
		if err != nil {
			return err
		}
		t, _ := a.Task(id)
		if taskShowJSON {
			return encodeJSONToStdout(t)
		}
		fmt.Print(formatTaskDetail(t, a.TaskPrefixLengths(), time.Now()))
		return nil
	})
}

func runTaskUpdate(cmd *cobra.Command, args []string) error {
	patch, err := taskUpdatePatch(cmd)
	if err != nil {
		return err
	}
	return withApp(cmd, func(a *app.App) error {
		id, err := a.ResolveTask(args[0])
		if err != nil {
			return err
		}
		updated, err := a.UpdateTask(id, patch)
		if err != nil {
			return err
		}
		if taskUpdateJSON {
			return encodeJSONToStdout(updated)
		}
		highlight := taskHighlighter(a.TaskPrefixLengths())
		fmt.Printf("Updated task %s: %s\n", highlight(updated.ID), updated.Title)
		return nil
	})
}

func taskUpdatePatch(cmd *cobra.Command) (task.Patch, error) {
	var p task.Patch
	if hasChangedFlags(cmd, "title") {
		p.Title = &taskUpdateTitle
	}
	if hasChangedFlags(cmd, "description") {
		p.Description = &taskUpdateDescription
	}
	if hasChangedFlags(cmd, "subject") {
		p.Subject = &taskUpdateSubject
	}
	if hasChangedFlags(cmd, "type") {
		typ, err := validation.ParseEnum(task.ErrInvalidType, taskUpdateType, task.ValidTypes())
		if err != nil {
			return p, err
		}
		p.Type = &typ
	}
	if hasChangedFlags(cmd, "priority") {
		priority, err := validation.ParseEnum(task.ErrInvalidPriority, taskUpdatePriority, task.ValidPriorities())
		if err != nil {
			return p, err
		}
		p.Priority = &priority
	}
	if hasChangedFlags(cmd, "status") {
		status, err := validation.ParseEnum(task.ErrInvalidStatus, taskUpdateStatus, task.ValidStatuses())
		if err != nil {
			return p, err
		}
		p.Status = &status
	}
	if hasChangedFlags(cmd, "due") {
		p.Due = &taskUpdateDue
	}
	if hasChangedFlags(cmd, "due-date") {
		due, err := parseDate(taskUpdateDueDate)
		if err != nil {
			return p, err
		}
		p.DueDate = &due
	}
	p.ClearDueDate = taskUpdateClearDue
	if hasChangedFlags(cmd, "estimate") {
		p.EstimatedMinutes = &taskUpdateEstimate
	}
	if hasChangedFlags(cmd, "actual") {
		p.ActualMinutes = &taskUpdateActual
	}
	if hasChangedFlags(cmd, "tag") {
		p.Tags = &taskUpdateTags
	}
	if p.IsEmpty() {
		return p, task.ErrEmptyPatch
	}
	return p, nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(a *app.App) error {
		for _, arg := range args {
			id, err := a.ResolveTask(arg)
			if err != nil {
				return err
			}
			deleted, err := a.DeleteTask(id)
			if err != nil {
				return err
			}
			fmt.Printf("Deleted task %s: %s\n", deleted.ID, deleted.Title)
		}
		return nil
	})
}

func runTaskToggle(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(a *app.App) error {
		for _, arg := range args {
			id, err := a.ResolveTask(arg)
			if err != nil {
				return err
			}
			toggled, err := a.ToggleTask(id)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s: %s\n", toggled.Status, toggled.ID, toggled.Title)
		}
		return nil
	})
}

func runTaskStats(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(a *app.App) error {
		stats := a.TaskStats()
		if taskStatsJSON {
			return encodeJSONToStdout(stats)
		}
		fmt.Printf("Total:         %d\n", stats.Total)
		fmt.Printf("Completed:     %d\n", stats.Completed)
		fmt.Printf("Pending:       %d\n", stats.Pending)
		fmt.Printf("High priority: %d\n", stats.HighPriority)
		if len(stats.BySubject) == 0 {
			return nil
		}
		subjects := make([]string, 0, len(stats.BySubject))
		for subject := range stats.BySubject {
			subjects = append(subjects, subject)
		}
		slices.Sort(subjects)
		table := ui.NewTable("SUBJECT", "TASKS").AlignRight(1)
		for _, subject := range subjects {
			table.Row(subject, fmt.Sprint(stats.BySubject[subject]))
		}
		fmt.Println()
		fmt.Print(table.String())
		return nil
	})
}

func runTaskExport(cmd *cobra.Command, _ []string) error {
	format, err := validation.ParseEnum(task.ErrUnknownFormat, taskExportFormat, []task.Format{task.FormatJSON, task.FormatYAML})
	if err != nil {
		return err
	}
	return withApp(cmd, func(a *app.App) error {
		var w io.Writer = os.Stdout
		if taskExportOutput != "" {
			f, err := os.Create(taskExportOutput)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			defer f.Close()
			w = f
		}
		return task.Encode(w, a.Tasks(), format)
	})
}

func runTaskImport(cmd *cobra.Command, args []string) error {
	format, err := importFormat(args[0])
	if err != nil {
		return err
	}
	var r io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open import file: %w", err)
		}
		defer f.Close()
		r = f
	}
	tasks, err := task.Decode(r, format)
	if err != nil {
		return err
	}
	return withApp(cmd, func(a *app.App) error {
		n, err := a.ImportTasks(tasks, taskImportReplace)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d task(s)\n", n)
		return nil
	})
}

func importFormat(path string) (task.Format, error) {
	valid := []task.Format{task.FormatJSON, task.FormatYAML}
	if taskImportFormat != "" {
		return validation.ParseEnum(task.ErrUnknownFormat, taskImportFormat, valid)
	}
	switch {
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		return task.FormatYAML, nil
	default:
		return task.FormatJSON, nil
	}
}
