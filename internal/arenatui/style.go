package arenatui

import "github.com/charmbracelet/lipgloss"

var borderASCII = lipgloss.Border{
	Top:         "-",
	Bottom:      "-",
	Left:        "|",
	Right:       "|",
	TopLeft:     "+",
	TopRight:    "+",
	BottomLeft:  "+",
	BottomRight: "+",
}

type palette struct {
	bar       lipgloss.Style
	title     lipgloss.Style
	label     lipgloss.Style
	muted     lipgloss.Style
	clock     lipgloss.Style
	clockIdle lipgloss.Style
	filled    lipgloss.Style
	empty     lipgloss.Style
	success   lipgloss.Style
	failure   lipgloss.Style
	pane      lipgloss.Style
	modal     lipgloss.Style
}

func newPalette(dark bool) palette {
	fg, muted, accent, barBG := lipgloss.Color("235"), lipgloss.Color("244"), lipgloss.Color("25"), lipgloss.Color("254")
	if dark {
		fg, muted, accent, barBG = lipgloss.Color("252"), lipgloss.Color("244"), lipgloss.Color("33"), lipgloss.Color("236")
	}
	return palette{
		bar:       lipgloss.NewStyle().Foreground(fg).Background(barBG).Padding(0, 1),
		title:     lipgloss.NewStyle().Bold(true).Foreground(fg),
		label:     lipgloss.NewStyle().Bold(true),
		muted:     lipgloss.NewStyle().Foreground(muted),
		clock:     lipgloss.NewStyle().Bold(true).Foreground(accent).Padding(1, 4),
		clockIdle: lipgloss.NewStyle().Bold(true).Foreground(muted).Padding(1, 4),
		filled:    lipgloss.NewStyle().Foreground(accent),
		empty:     lipgloss.NewStyle().Foreground(muted),
		success:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		failure:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		pane:      lipgloss.NewStyle().Border(borderASCII).BorderForeground(muted).Padding(0, 1),
		modal:     lipgloss.NewStyle().Border(borderASCII).Padding(1, 2),
	}
}
