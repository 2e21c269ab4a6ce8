package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/amonks/ibuddy/internal/ui"
	"github.com/amonks/ibuddy/task"
)

func taskHighlighter(prefixLengths map[string]int) func(string) string {
	return func(id string) string {
		return ui.HighlightID(id, ui.PrefixLength(prefixLengths, id))
	}
}

func printTaskTable(tasks []task.Task, prefixLengths map[string]int, now time.Time) {
	fmt.Print(formatTaskTable(tasks, prefixLengths, now))
}

func formatTaskTable(tasks []task.Task, prefixLengths map[string]int, now time.Time) string {
	if len(tasks) == 0 {
		return "No tasks.\n"
	}
	highlight := taskHighlighter(prefixLengths)
	table := ui.NewTable("ID", "PRI", "SUBJECT", "DUE", "STATUS", "EST", "TITLE").AlignRight(5)
	for _, t := range tasks {
		est := "-"
		if t.EstimatedMinutes > 0 {
			est = ui.FormatMinutes(t.EstimatedMinutes)
		}
		table.Row(
			highlight(t.ID),
			string(t.Priority),
			t.Subject,
			ui.FormatDue(t.DueDate, t.Due, now),
			string(t.Status),
			est,
			t.Title,
		)
	}
	return table.String()
}

func formatTaskDetail(t task.Task, prefixLengths map[string]int, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ID:        %s\n", taskHighlighter(prefixLengths)(t.ID))
	fmt.Fprintf(&b, "Title:     %s\n", t.Title)
	fmt.Fprintf(&b, "Subject:   %s\n", t.Subject)
	fmt.Fprintf(&b, "Type:      %s\n", t.Type)
	fmt.Fprintf(&b, "Priority:  %s\n", t.Priority)
	fmt.Fprintf(&b, "Status:    %s\n", t.Status)
	if due := ui.FormatDue(t.DueDate, t.Due, now); due != "" && due != "-" {
		fmt.Fprintf(&b, "Due:       %s\n", due)
	}
	fmt.Fprintf(&b, "Estimate:  %s\n", ui.FormatMinutes(t.Duration()))
	if t.ActualMinutes > 0 {
		fmt.Fprintf(&b, "Actual:    %s\n", ui.FormatMinutes(t.ActualMinutes))
	}
	if len(t.Tags) > 0 {
		fmt.Fprintf(&b, "Tags:      %s\n", strings.Join(t.Tags, ", "))
	}
	if len(t.Dependencies) > 0 {
		fmt.Fprintf(&b, "Depends:   %s\n", strings.Join(t.Dependencies, ", "))
	}
	fmt.Fprintf(&b, "Created:   %s\n", ui.FormatTimeAgo(t.CreatedAt, now))
	if t.CompletedAt != nil {
		fmt.Fprintf(&b, "Completed: %s\n", ui.FormatTimeAgo(*t.CompletedAt, now))
	}
	if t.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", t.Description)
	}
	return b.String()
}
