// Package theme stores the light/dark preference.
package theme

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/amonks/ibuddy/internal/kv"
	"github.com/amonks/ibuddy/internal/logging"
)

// Theme is a stored preference.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
	Auto  Theme = "auto"
)

// ErrInvalidTheme is returned for anything but light, dark, or auto.
var ErrInvalidTheme = errors.New("theme must be light, dark, or auto")

// Parse normalizes and validates name.
func Parse(name string) (Theme, error) {
	t := Theme(strings.ToLower(strings.TrimSpace(name)))
	switch t {
	case Light, Dark, Auto:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTheme, name)
}

// Resolve returns the concrete theme for t, using system for Auto.
func Resolve(t, system Theme) Theme {
	if t == Auto || t == "" {
		if system == Dark {
			return Dark
		}
		return Light
	}
	return t
}

// Options configures Open.
type Options struct {
	Logger             *slog.Logger
	OnPersistenceError func(ns kv.Namespace, err error)
}

// Store holds the preference.
type Store struct {
	blobs   kv.Blobs
	logger  *slog.Logger
	onError func(ns kv.Namespace, err error)

	mu    sync.Mutex
	theme Theme
}

// Open loads the preference, defaulting to Auto.
func Open(blobs kv.Blobs, opts Options) *Store {
	s := &Store{
		blobs:   blobs,
		logger:  logging.OrDiscard(opts.Logger),
		onError: opts.OnPersistenceError,
		theme:   Auto,
	}
	var stored string
	ok, err := kv.LoadJSON(blobs, kv.NamespaceTheme, &stored)
	if err != nil {
		s.reportError(err)
		return s
	}
	if !ok {
		return s
	}
	t, err := Parse(stored)
	if err != nil {
		s.reportError(fmt.Errorf("%w: %w", kv.ErrMalformed, err))
		return s
	}
	s.theme = t
	return s
}

func (s *Store) reportError(err error) {
	s.logger.Warn("theme persistence", "namespace", string(kv.NamespaceTheme), "error", err)
	if s.onError != nil {
		s.onError(kv.NamespaceTheme, err)
	}
}

// Get returns the stored preference.
func (s *Store) Get() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

// Set stores t.
func (s *Store) Set(t Theme) error {
	t, err := Parse(string(t))
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = t
	if err := kv.SaveJSON(s.blobs, kv.NamespaceTheme, string(t)); err != nil {
		s.reportError(err)
	}
	return nil
}

// Toggle switches to the opposite of the currently resolved theme and
// returns it. The result is always Light or Dark.
func (s *Store) Toggle(system Theme) Theme {
	next := Dark
	if Resolve(s.Get(), system) == Dark {
		next = Light
	}
	_ = s.Set(next)
	return next
}
