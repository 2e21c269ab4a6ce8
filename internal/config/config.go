// Package config handles loading ibuddy.toml configuration files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/amonks/ibuddy/internal/paths"
)

// Config represents the ibuddy.toml configuration file.
type Config struct {
	Storage       Storage       `toml:"storage"`
	Arena         Arena         `toml:"arena"`
	Notifications Notifications `toml:"notifications"`
	Log           Log           `toml:"log"`
	Tasks         Tasks         `toml:"tasks"`
}

// Storage selects the persistence backend.
type Storage struct {
	// Backend is one of file, badger, sqlite or memory.
	Backend string `toml:"backend"`
	// Path overrides the state directory.
	Path string `toml:"path"`
}

// Arena contains focus session defaults.
type Arena struct {
	PomodoroLength       int  `toml:"pomodoro-length"`
	ShortBreakLength     int  `toml:"short-break-length"`
	LongBreakLength      int  `toml:"long-break-length"`
	TasksBeforeLongBreak int  `toml:"tasks-before-long-break"`
	AutoStartBreaks      bool `toml:"auto-start-breaks"`
	AutoStartPomodoros   bool `toml:"auto-start-pomodoros"`
	// MaxTasks caps how many incomplete tasks a session snapshots.
	MaxTasks int `toml:"max-tasks"`
}

// Notifications configures the notification queue.
type Notifications struct {
	DefaultDuration  Duration `toml:"default-duration"`
	MaxNotifications int      `toml:"max-notifications"`
}

// Log configures the structured logger.
type Log struct {
	Level string `toml:"level"`
}

// Tasks configures the task store.
type Tasks struct {
	// SeedDemo seeds the demo task list when no tasks were ever saved.
	SeedDemo bool `toml:"seed-demo"`
}

// Duration is a time.Duration written as a Go duration string ("5s").
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file sets a value.
func Default() *Config {
	return &Config{
		Storage: Storage{Backend: "file"},
		Arena: Arena{
			PomodoroLength:       25,
			ShortBreakLength:     5,
			LongBreakLength:      15,
			TasksBeforeLongBreak: 4,
			MaxTasks:             6,
		},
		Notifications: Notifications{
			DefaultDuration:  Duration{5 * time.Second},
			MaxNotifications: 5,
		},
		Log: Log{Level: "warn"},
	}
}

// Load loads configuration from dir and the global config file, on top of
// the defaults. Project keys win over global keys when defined.
func Load(dir string) (*Config, error) {
	globalPath, err := paths.GlobalConfigPath()
	if err != nil {
		return nil, err
	}

	globalCfg, globalMeta, err := loadConfigFile(globalPath)
	if err != nil {
		return nil, err
	}

	projectCfg, projectMeta, err := loadConfigFile(filepath.Join(dir, paths.ProjectConfigName))
	if err != nil {
		return nil, err
	}

	merged := mergeConfigs(Default(), globalCfg, projectCfg, globalMeta, projectMeta)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

func loadConfigFile(path string) (*Config, toml.MetaData, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, toml.MetaData{}, nil
	}
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("parse config file %s: %w", path, err)
	}

	return &cfg, meta, nil
}

// layer is one decoded file plus the keys it actually set.
type layer struct {
	cfg  *Config
	meta toml.MetaData
}

func mergeConfigs(base, globalCfg, projectCfg *Config, globalMeta, projectMeta toml.MetaData) *Config {
	merged := *base
	for _, l := range []layer{{globalCfg, globalMeta}, {projectCfg, projectMeta}} {
		if l.cfg == nil {
			continue
		}
		c, m := l.cfg, l.meta
		mergeString(&merged.Storage.Backend, m.IsDefined("storage", "backend"), c.Storage.Backend)
		mergeString(&merged.Storage.Path, m.IsDefined("storage", "path"), c.Storage.Path)

		mergeInt(&merged.Arena.PomodoroLength, m.IsDefined("arena", "pomodoro-length"), c.Arena.PomodoroLength)
		mergeInt(&merged.Arena.ShortBreakLength, m.IsDefined("arena", "short-break-length"), c.Arena.ShortBreakLength)
		mergeInt(&merged.Arena.LongBreakLength, m.IsDefined("arena", "long-break-length"), c.Arena.LongBreakLength)
		mergeInt(&merged.Arena.TasksBeforeLongBreak, m.IsDefined("arena", "tasks-before-long-break"), c.Arena.TasksBeforeLongBreak)
		mergeBool(&merged.Arena.AutoStartBreaks, m.IsDefined("arena", "auto-start-breaks"), c.Arena.AutoStartBreaks)
		mergeBool(&merged.Arena.AutoStartPomodoros, m.IsDefined("arena", "auto-start-pomodoros"), c.Arena.AutoStartPomodoros)
		mergeInt(&merged.Arena.MaxTasks, m.IsDefined("arena", "max-tasks"), c.Arena.MaxTasks)

		if m.IsDefined("notifications", "default-duration") {
			merged.Notifications.DefaultDuration = c.Notifications.DefaultDuration
		}
		mergeInt(&merged.Notifications.MaxNotifications, m.IsDefined("notifications", "max-notifications"), c.Notifications.MaxNotifications)

		mergeString(&merged.Log.Level, m.IsDefined("log", "level"), c.Log.Level)
		mergeBool(&merged.Tasks.SeedDemo, m.IsDefined("tasks", "seed-demo"), c.Tasks.SeedDemo)
	}
	return &merged
}

func mergeString(dst *string, defined bool, value string) {
	if defined {
		*dst = strings.TrimSpace(value)
	}
}

func mergeInt(dst *int, defined bool, value int) {
	if defined {
		*dst = value
	}
}

func mergeBool(dst *bool, defined bool, value bool) {
	if defined {
		*dst = value
	}
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	positive := []struct {
		key   string
		value int
	}{
		{"arena.pomodoro-length", c.Arena.PomodoroLength},
		{"arena.short-break-length", c.Arena.ShortBreakLength},
		{"arena.long-break-length", c.Arena.LongBreakLength},
		{"arena.tasks-before-long-break", c.Arena.TasksBeforeLongBreak},
		{"arena.max-tasks", c.Arena.MaxTasks},
		{"notifications.max-notifications", c.Notifications.MaxNotifications},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("config %s must be positive, got %d", p.key, p.value)
		}
	}
	if c.Notifications.DefaultDuration.Duration < 0 {
		return fmt.Errorf("config notifications.default-duration must not be negative")
	}
	switch c.Storage.Backend {
	case "file", "badger", "sqlite", "memory":
	default:
		return fmt.Errorf("config storage.backend: unknown backend %q", c.Storage.Backend)
	}
	return nil
}

// StateDir returns the configured state directory or the default one.
func (c *Config) StateDir() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	return paths.DefaultStateDir()
}
