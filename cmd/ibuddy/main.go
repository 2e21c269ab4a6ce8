// Package main implements the ibuddy CLI tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/amonks/ibuddy/app"
	"github.com/amonks/ibuddy/internal/config"
	"github.com/amonks/ibuddy/internal/logging"
	"github.com/amonks/ibuddy/internal/metrics"
	"github.com/amonks/ibuddy/internal/ui"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "ibuddy",
	Short:         "ibuddy - study tasks, focus sessions, and progress for IB students",
	SilenceUsage:  true,
	SilenceErrors: false,
}

var (
	rootStateDir string
	rootBackend  string
	rootLogLevel string
	rootQuiet    bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootStateDir, "state-dir", "", "State directory (default $IBUDDY_STATE_DIR or ~/.local/state/ibuddy)")
	flags.StringVar(&rootBackend, "backend", "", "Storage backend (file, badger, sqlite, memory)")
	flags.StringVar(&rootLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.BoolVarP(&rootQuiet, "quiet", "q", false, "Do not print notifications")
}

// loadConfig reads ibuddy.toml from the working directory and the global
// config, then applies the root flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, err
	}
	if hasChangedFlags(cmd, "state-dir") {
		cfg.Storage.Path = rootStateDir
	}
	if hasChangedFlags(cmd, "backend") {
		cfg.Storage.Backend = rootBackend
	}
	if hasChangedFlags(cmd, "log-level") {
		cfg.Log.Level = rootLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return app.Open(app.Options{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	})
}

// withApp opens the application, runs fn, prints the notifications fn
// raised, and flushes storage.
func withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	runErr := fn(a)
	if !rootQuiet {
		printNotifications(cmd.ErrOrStderr(), a)
	}
	if err := a.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// printNotifications writes notifications oldest first.
func printNotifications(w io.Writer, a *app.App) {
	notices := a.Notifications()
	slices.Reverse(notices)
	width := ui.TerminalWidth()
	for _, n := range notices {
		fmt.Fprintln(w, ui.FormatNotification(n, width))
	}
}
