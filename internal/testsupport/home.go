package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/amonks/ibuddy/internal/paths"
)

// Home is a throwaway home directory laid out like a real install.
type Home struct {
	Dir        string
	StateDir   string
	ConfigPath string
}

// NewHome creates the state and config directories under dir.
func NewHome(dir string) (Home, error) {
	h := Home{
		Dir:        dir,
		StateDir:   filepath.Join(dir, ".local", "state", "ibuddy"),
		ConfigPath: filepath.Join(dir, ".config", "ibuddy", "config.toml"),
	}
	for _, d := range []string{h.StateDir, filepath.Dir(h.ConfigPath)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return Home{}, fmt.Errorf("create %s: %w", d, err)
		}
	}
	return h, nil
}

// Env returns the variables that point the binary at h, with color off.
func (h Home) Env() map[string]string {
	return map[string]string{
		"HOME":            h.Dir,
		paths.StateDirEnv: h.StateDir,
		paths.ConfigEnv:   h.ConfigPath,
		"NO_COLOR":        "1",
	}
}

// SetupTestHome makes a temp home the process home and clears the path
// overrides, so lookups fall back to the default locations under it.
func SetupTestHome(t testing.TB) string {
	t.Helper()

	h, err := NewHome(t.TempDir())
	if err != nil {
		t.Fatalf("setup home dir: %v", err)
	}
	t.Setenv("HOME", h.Dir)
	t.Setenv(paths.StateDirEnv, "")
	t.Setenv(paths.ConfigEnv, "")
	return h.Dir
}
