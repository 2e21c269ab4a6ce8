package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

const (
	maxCellWidth = 50
	cellEllipsis = "..."
	columnGap    = "  "
)

var cellFlattener = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")

// Table renders rows as aligned columns for terminal listings.
type Table struct {
	headers []string
	rows    [][]string
	right   map[int]bool
}

// NewTable starts a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers, right: map[int]bool{}}
}

// AlignRight right-aligns the given zero-based columns. Counts and
// durations read better that way.
func (t *Table) AlignRight(cols ...int) *Table {
	for _, col := range cols {
		t.right[col] = true
	}
	return t
}

// Row appends a row. Missing cells render empty; extra cells are dropped.
func (t *Table) Row(cells ...string) {
	row := make([]string, len(t.headers))
	for i := range row {
		if i < len(cells) {
			row[i] = FitCell(cells[i])
		}
	}
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// String renders the header and every row. Widths are measured on visible
// characters, so styled cells line up.
func (t *Table) String() string {
	header := make([]string, len(t.headers))
	for i, h := range t.headers {
		header[i] = FitCell(h)
	}

	widths := make([]int, len(header))
	for _, row := range append([][]string{header}, t.rows...) {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	for _, row := range append([][]string{header}, t.rows...) {
		var line strings.Builder
		for i, cell := range row {
			if i > 0 {
				line.WriteString(columnGap)
			}
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if t.right[i] {
				line.WriteString(pad + cell)
			} else {
				line.WriteString(cell + pad)
			}
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteByte('\n')
	}
	return b.String()
}

// FitCell flattens value onto one line and caps its visible width,
// keeping escape sequences intact.
func FitCell(value string) string {
	value = cellFlattener.Replace(value)
	if lipgloss.Width(value) <= maxCellWidth {
		return value
	}
	return truncate.StringWithTail(value, uint(maxCellWidth), cellEllipsis)
}
