package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amonks/ibuddy/app"
	"github.com/amonks/ibuddy/arena"
	"github.com/amonks/ibuddy/internal/arenatui"
	"github.com/amonks/ibuddy/internal/ui"
	"github.com/amonks/ibuddy/theme"
)

var arenaCmd = &cobra.Command{
	Use:   "arena",
	Short: "Run focus sessions over your pending tasks",
}

var arenaRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the focus session view, starting a session if none is running",
	Args:  cobra.NoArgs,
	RunE:  runArenaRun,
}

var arenaStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a session over the first pending tasks",
	Args:  cobra.NoArgs,
	RunE:  runArenaStart,
}

var arenaStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	Args:  cobra.NoArgs,
	RunE:  runArenaStatus,
}

var arenaCompleteCmd = &cobra.Command{
	Use:   "complete",
	Short: "Complete the current task",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(a *app.App) error {
			return printAdvance(a.CompleteCurrent())
		})
	},
}

var arenaSkipCmd = &cobra.Command{
	Use:   "skip",
	Short: "Skip the current task",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(a *app.App) error {
			return printAdvance(a.SkipCurrent())
		})
	},
}

var arenaNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Move to the next task without marking the current one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(a *app.App) error {
			next, err := a.NextTask()
			if err != nil {
				return err
			}
			fmt.Printf("Current task: %s (%s)\n", next.Title, next.Subject)
			return nil
		})
	},
}

var arenaPauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(a *app.App) error {
			fmt.Println(a.PauseArena().Status())
			return nil
		})
	},
}

var arenaResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(a *app.App) error {
			fmt.Println(a.ResumeArena().Status())
			return nil
		})
	},
}

var arenaExitCmd = &cobra.Command{
	Use:   "exit",
	Short: "End the session early",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(a *app.App) error {
			summary, err := a.ExitArena()
			if err != nil {
				return err
			}
			printSummary(summary)
			return nil
		})
	},
}

var arenaTickCmd = &cobra.Command{
	Use:   "tick <seconds-remaining>",
	Short: "Report the countdown from an external timer",
	Args:  cobra.ExactArgs(1),
	RunE:  runArenaTick,
}

var arenaTickStopped bool

var arenaResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop the current session without recording it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(a *app.App) error {
			a.ResetArena()
			fmt.Println("Arena reset")
			return nil
		})
	},
}

var arenaBreatheCmd = &cobra.Command{
	Use:   "breathe",
	Short: "Toggle the breathing exercise",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(a *app.App) error {
			if a.ToggleBreathing() {
				fmt.Println("Breathing exercise on")
			} else {
				fmt.Println("Breathing exercise off")
			}
			return nil
		})
	},
}

var arenaModeCmd = &cobra.Command{
	Use:   "mode <focus|break|paused>",
	Short: "Set what the session view shows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			return a.SetArenaMode(arena.Mode(strings.ToLower(args[0])))
		})
	},
}

var arenaHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List finished sessions",
	Args:  cobra.NoArgs,
	RunE:  runArenaHistory,
}

var arenaHistoryJSON bool

var arenaSettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the settings for new sessions",
	Args:  cobra.NoArgs,
	RunE:  runArenaSettings,
}

var (
	arenaSettingsPomodoro   int
	arenaSettingsShortBreak int
	arenaSettingsLongBreak  int
	arenaSettingsLongEvery  int
	arenaSettingsAutoBreaks bool
	arenaSettingsAutoFocus  bool
	arenaSettingsJSON       bool
)

var arenaStatusJSON bool

func init() {
	rootCmd.AddCommand(arenaCmd)
	arenaCmd.AddCommand(arenaRunCmd, arenaStartCmd, arenaStatusCmd, arenaCompleteCmd, arenaSkipCmd,
		arenaNextCmd, arenaPauseCmd, arenaResumeCmd, arenaExitCmd, arenaTickCmd, arenaResetCmd,
		arenaBreatheCmd, arenaModeCmd, arenaHistoryCmd, arenaSettingsCmd)

	arenaStatusCmd.Flags().BoolVar(&arenaStatusJSON, "json", false, "Output as JSON")
	arenaTickCmd.Flags().BoolVar(&arenaTickStopped, "stopped", false, "The external timer is not running")
	arenaHistoryCmd.Flags().BoolVar(&arenaHistoryJSON, "json", false, "Output as JSON")

	flags := arenaSettingsCmd.Flags()
	flags.IntVar(&arenaSettingsPomodoro, "pomodoro", 0, "Pomodoro length in minutes")
	flags.IntVar(&arenaSettingsShortBreak, "short-break", 0, "Short break length in minutes")
	flags.IntVar(&arenaSettingsLongBreak, "long-break", 0, "Long break length in minutes")
	flags.IntVar(&arenaSettingsLongEvery, "long-break-every", 0, "Completed tasks between long breaks")
	flags.BoolVar(&arenaSettingsAutoBreaks, "auto-start-breaks", false, "Start breaks automatically")
	flags.BoolVar(&arenaSettingsAutoFocus, "auto-start-pomodoros", false, "Start the next task automatically")
	flags.BoolVar(&arenaSettingsJSON, "json", false, "Output as JSON")
}

func runArenaRun(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withApp(cmd, func(a *app.App) error {
		if _, ok := a.ArenaSession(); !ok {
			if _, err := a.StartArena(); err != nil {
				return err
			}
		}
		a.ClearNotifications()
		dark := theme.Resolve(a.Theme(), systemTheme()) == theme.Dark
		return arenatui.Run(ctx, a, arenatui.Options{Dark: dark})
	})
}

func runArenaStart(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(a *app.App) error {
		sess, err := a.StartArena()
		if err != nil {
			return err
		}
		fmt.Printf("Started session with %d task(s)\n", len(sess.Tasks))
		if cur, ok := a.CurrentArenaTask(); ok {
			fmt.Printf("Current task: %s (%s, %s)\n", cur.Title, cur.Subject, ui.FormatMinutes(cur.Duration))
		}
		return nil
	})
}

func runArenaStatus(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(a *app.App) error {
		sess, ok := a.ArenaSession()
		if arenaStatusJSON {
			if !ok {
				return encodeJSONToStdout(nil)
			}
			return encodeJSONToStdout(sess)
		}
		if !ok {
			fmt.Println("No session running")
			return nil
		}
		fmt.Printf("Status:    %s\n", sess.Status)
		fmt.Printf("Progress:  %.0f%% (%d remaining)\n", a.ArenaProgress(), a.ArenaTasksRemaining())
		fmt.Printf("Clock:     %s\n", ui.FormatClock(sess.Timer.Remaining))
		fmt.Printf("Elapsed:   %s\n", ui.FormatMinutes(a.ArenaElapsed()))
		fmt.Println()

		table := ui.NewTable("", "#", "SUBJECT", "EST", "TITLE").AlignRight(1, 3)
		for i, t := range sess.Tasks {
			marker := " "
			switch {
			case t.Completed:
				marker = "+"
			case t.Skipped:
				marker = "x"
			case i == sess.CurrentIndex:
				marker = ">"
			}
			table.Row(marker, fmt.Sprint(i+1), t.Subject, ui.FormatMinutes(t.Duration), t.Title)
		}
		fmt.Print(table.String())
		return nil
	})
}

func runArenaTick(cmd *cobra.Command, args []string) error {
	remaining, err := strconv.Atoi(args[0])
	if err != nil || remaining < 0 {
		return fmt.Errorf("seconds remaining must be a whole number >= 0, got %q", args[0])
	}
	return withApp(cmd, func(a *app.App) error {
		adv, err := a.HandleTick(remaining, !arenaTickStopped)
		if err != nil {
			return err
		}
		if adv.Ended || adv.Next.ID != "" {
			return printAdvance(adv, nil)
		}
		fmt.Println(ui.FormatClock(remaining))
		return nil
	})
}

func runArenaHistory(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(a *app.App) error {
		history := a.ArenaHistory()
		if arenaHistoryJSON {
			return encodeJSONToStdout(history)
		}
		if len(history) == 0 {
			fmt.Println("No sessions yet.")
			return nil
		}
		table := ui.NewTable("ENDED", "STATUS", "TASKS", "FOCUS", "SCORE").AlignRight(2, 3, 4)
		for i := len(history) - 1; i >= 0; i-- {
			s := history[i]
			table.Row(
				s.EndedAt.Local().Format("2006-01-02 15:04"),
				string(s.Status),
				fmt.Sprintf("%d/%d", s.TasksCompleted, s.TotalTasks),
				ui.FormatMinutes(s.FocusTime),
				fmt.Sprintf("%d%%", s.FocusScore),
			)
		}
		fmt.Print(table.String())
		return nil
	})
}

func runArenaSettings(cmd *cobra.Command, _ []string) error {
	var p arena.SettingsPatch
	if hasChangedFlags(cmd, "pomodoro") {
		p.PomodoroLength = &arenaSettingsPomodoro
	}
	if hasChangedFlags(cmd, "short-break") {
		p.ShortBreakLength = &arenaSettingsShortBreak
	}
	if hasChangedFlags(cmd, "long-break") {
		p.LongBreakLength = &arenaSettingsLongBreak
	}
	if hasChangedFlags(cmd, "long-break-every") {
		p.TasksBeforeLongBreak = &arenaSettingsLongEvery
	}
	if hasChangedFlags(cmd, "auto-start-breaks") {
		p.AutoStartBreaks = &arenaSettingsAutoBreaks
	}
	if hasChangedFlags(cmd, "auto-start-pomodoros") {
		p.AutoStartPomodoros = &arenaSettingsAutoFocus
	}
	changed := p != (arena.SettingsPatch{})

	return withApp(cmd, func(a *app.App) error {
		settings := a.ArenaSettings()
		if changed {
			var err error
			if settings, err = a.UpdateArenaSettings(p); err != nil {
				return err
			}
		}
		if arenaSettingsJSON {
			return encodeJSONToStdout(settings)
		}
		fmt.Printf("Pomodoro:              %s\n", ui.FormatMinutes(settings.PomodoroLength))
		fmt.Printf("Short break:           %s\n", ui.FormatMinutes(settings.ShortBreakLength))
		fmt.Printf("Long break:            %s\n", ui.FormatMinutes(settings.LongBreakLength))
		fmt.Printf("Long break every:      %d tasks\n", settings.TasksBeforeLongBreak)
		fmt.Printf("Auto-start breaks:     %t\n", settings.AutoStartBreaks)
		fmt.Printf("Auto-start pomodoros:  %t\n", settings.AutoStartPomodoros)
		return nil
	})
}

func printAdvance(adv app.Advance, err error) error {
	if err != nil {
		return err
	}
	if adv.Ended {
		printSummary(adv.Summary)
		for _, b := range adv.Unlocked {
			fmt.Printf("Unlocked: %s\n", b.Name)
		}
		return nil
	}
	fmt.Printf("Next up: %s (%s)\n", adv.Next.Title, adv.Next.Subject)
	if adv.BreakMinutes > 0 {
		fmt.Printf("Take a %s break first.\n", ui.FormatMinutes(adv.BreakMinutes))
	}
	return nil
}

func printSummary(s arena.Summary) {
	fmt.Printf("Session %s: %d/%d tasks, score %d%%, +%d coins\n",
		s.Status, s.TasksCompleted, s.TotalTasks, s.FocusScore, arena.CoinReward(s))
}
