// Package markdown renders markdown reports for the terminal.
package markdown

import (
	"fmt"
	"strings"
	"sync"

	internalstrings "github.com/amonks/ibuddy/internal/strings"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

// Style picks the glamour palette.
type Style string

const (
	StylePlain Style = "plain"
	StyleLight Style = "light"
	StyleDark  Style = "dark"
)

type renderer interface {
	Render(string) (string, error)
}

type rendererKey struct {
	style Style
	width int
}

var (
	rendererMu sync.Mutex
	renderers  = map[rendererKey]renderer{}
)

// Render formats markdown text for terminal output. Output falls back to
// the input when rendering fails.
func Render(style Style, width, indent int, input string) string {
	value := internalstrings.TrimTrailingNewlines(internalstrings.NormalizeNewlines(input))
	if internalstrings.IsBlank(value) {
		return ""
	}
	renderWidth := max(width-max(indent, 0), 1)

	rendered := value
	if r := markdownRenderer(style, renderWidth); r != nil {
		if formatted, err := r.Render(value); err == nil {
			rendered = formatted
		}
	}
	rendered = internalstrings.TrimTrailingNewlines(rendered)
	if internalstrings.IsBlank(rendered) {
		return ""
	}
	return internalstrings.IndentBlock(rendered, indent)
}

// SafeRender is Render that survives a panicking renderer.
func SafeRender(style Style, width, indent int, input string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = internalstrings.IndentBlock(internalstrings.TrimTrailingNewlines(input), max(indent, 0))
		}
	}()
	return Render(style, width, indent, input)
}

func styleConfig(style Style) ansi.StyleConfig {
	switch style {
	case StyleLight:
		return styles.LightStyleConfig
	case StyleDark:
		return styles.DarkStyleConfig
	}
	cfg := styles.ASCIIStyleConfig
	cfg.Item.BlockPrefix = "- "
	return cfg
}

func markdownRenderer(style Style, width int) renderer {
	rendererMu.Lock()
	defer rendererMu.Unlock()
	key := rendererKey{style: style, width: width}
	if cached, ok := renderers[key]; ok {
		return cached
	}
	created, err := glamour.NewTermRenderer(
		glamour.WithStyles(styleConfig(style)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	renderers[key] = created
	return created
}

// ParseStyle maps a resolved theme name to a style.
func ParseStyle(name string) (Style, error) {
	switch s := Style(strings.ToLower(strings.TrimSpace(name))); s {
	case StylePlain, StyleLight, StyleDark:
		return s, nil
	}
	return "", fmt.Errorf("unknown markdown style %q", name)
}
