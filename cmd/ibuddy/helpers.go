package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/amonks/ibuddy/app"
	"github.com/amonks/ibuddy/internal/markdown"
	"github.com/amonks/ibuddy/internal/ui"
	"github.com/amonks/ibuddy/theme"
)

func hasChangedFlags(cmd *cobra.Command, flags ...string) bool {
	for _, flag := range flags {
		if cmd.Flags().Changed(flag) {
			return true
		}
	}
	return false
}

func encodeJSONToStdout(value any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func parsePositiveInt(name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive whole number, got %q", name, value)
	}
	return n, nil
}

func parseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: expected YYYY-MM-DD", value)
	}
	return t, nil
}

// systemTheme guesses the terminal background.
func systemTheme() theme.Theme {
	if lipgloss.HasDarkBackground() {
		return theme.Dark
	}
	return theme.Light
}

// markdownStyle picks the rendering style for the stored theme. Output that
// is not a color terminal gets the plain style.
func markdownStyle(a *app.App) markdown.Style {
	if !ui.ColorEnabled() {
		return markdown.StylePlain
	}
	if theme.Resolve(a.Theme(), systemTheme()) == theme.Dark {
		return markdown.StyleDark
	}
	return markdown.StyleLight
}

type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit %d", e.code)
}

func (e exitError) ExitCode() int {
	return e.code
}

func (e exitError) Unwrap() error {
	return e.err
}
