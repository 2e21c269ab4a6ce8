package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"github.com/amonks/ibuddy/notify"
)

var noticeStyles = map[notify.Type]lipgloss.Style{
	notify.TypeSuccess: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
	notify.TypeError:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
	notify.TypeWarning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
	notify.TypeInfo:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4")),
}

var noticeIcons = map[notify.Type]string{
	notify.TypeSuccess: "+",
	notify.TypeError:   "x",
	notify.TypeWarning: "!",
	notify.TypeInfo:    "i",
}

// FormatNotification renders n as a badge line with its message wrapped
// to width underneath.
func FormatNotification(n notify.Notification, width int) string {
	badge := "[" + noticeIcons[n.Type] + "] " + n.Title
	if ColorEnabled() {
		badge = noticeStyles[n.Type].Render(badge)
	}
	if strings.TrimSpace(n.Message) == "" {
		return badge
	}
	wrapWidth := max(width-4, 20)
	body := indent.String(wordwrap.String(n.Message, wrapWidth), 4)
	return badge + "\n" + body
}
