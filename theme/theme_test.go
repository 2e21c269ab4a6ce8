package theme

import (
	"errors"
	"testing"

	"github.com/amonks/ibuddy/internal/kv"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		theme, system, want Theme
	}{
		{Auto, Dark, Dark},
		{Auto, Light, Light},
		{Auto, "", Light},
		{Light, Dark, Light},
		{Dark, Light, Dark},
	}
	for _, tt := range tests {
		if got := Resolve(tt.theme, tt.system); got != tt.want {
			t.Errorf("Resolve(%s, %s) = %s, want %s", tt.theme, tt.system, got, tt.want)
		}
	}
}

func TestStore_DefaultsAndPersists(t *testing.T) {
	blobs := kv.NewMemStore()
	s := Open(blobs, Options{})
	if s.Get() != Auto {
		t.Fatalf("expected auto by default, got %s", s.Get())
	}

	if err := s.Set("DARK"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := Open(blobs, Options{}).Get(); got != Dark {
		t.Fatalf("expected dark after reload, got %s", got)
	}

	if err := s.Set("sepia"); !errors.Is(err, ErrInvalidTheme) {
		t.Fatalf("expected ErrInvalidTheme, got %v", err)
	}
	if s.Get() != Dark {
		t.Fatalf("invalid set must not change the theme")
	}
}

func TestStore_Toggle(t *testing.T) {
	s := Open(kv.NewMemStore(), Options{})
	if got := s.Toggle(Dark); got != Light {
		t.Fatalf("auto on a dark system toggles to light, got %s", got)
	}
	if got := s.Toggle(Dark); got != Dark {
		t.Fatalf("light toggles to dark, got %s", got)
	}
}

func TestStore_MalformedFallsBack(t *testing.T) {
	blobs := kv.NewMemStore()
	if err := blobs.Save(kv.NamespaceTheme, []byte(`"neon"`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	var reported error
	s := Open(blobs, Options{OnPersistenceError: func(_ kv.Namespace, err error) { reported = err }})
	if s.Get() != Auto || !errors.Is(reported, kv.ErrMalformed) {
		t.Fatalf("expected auto with a malformed report, got %s and %v", s.Get(), reported)
	}
}
