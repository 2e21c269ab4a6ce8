package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amonks/ibuddy/app"
	"github.com/amonks/ibuddy/internal/ui"
	"github.com/amonks/ibuddy/progress"
	"github.com/amonks/ibuddy/results"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show coins, level, streak and focus time",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var statsJSON bool

var coinsCmd = &cobra.Command{
	Use:   "coins",
	Short: "Adjust the coin balance",
}

var coinsAddCmd = &cobra.Command{
	Use:   "add <n>",
	Short: "Add coins",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := parsePositiveInt("coins", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(a *app.App) error {
			stats, err := a.AddCoins(n)
			if err != nil {
				return err
			}
			fmt.Printf("Coins: %d\n", stats.Coins)
			return nil
		})
	},
}

// errNotEnoughCoins carries exit code 2 so scripts can tell a refusal from
// a failure.
var errNotEnoughCoins = exitError{code: 2, err: errors.New("not enough coins")}

var coinsSpendCmd = &cobra.Command{
	Use:   "spend <n>",
	Short: "Spend coins, if the balance covers them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := parsePositiveInt("coins", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(a *app.App) error {
			if !a.SpendCoins(n) {
				return errNotEnoughCoins
			}
			fmt.Printf("Coins: %d\n", a.Stats().Coins)
			return nil
		})
	},
}

var stressCmd = &cobra.Command{
	Use:   "stress <1-5>",
	Short: "Record the current stress level",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := parsePositiveInt("stress level", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(a *app.App) error {
			fmt.Printf("Stress level: %d\n", a.UpdateStressLevel(level).StressLevel)
			return nil
		})
	},
}

var streakCmd = &cobra.Command{
	Use:       "streak <increment|reset>",
	Short:     "Change the study streak",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"increment", "reset"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			var stats progress.Stats
			switch args[0] {
			case "increment":
				stats = a.IncrementStreak()
			case "reset":
				stats = a.ResetStreak()
			default:
				return fmt.Errorf("unknown streak action %q (want increment or reset)", args[0])
			}
			fmt.Printf("Streak: %d (longest %d)\n", stats.Streak, stats.LongestStreak)
			return nil
		})
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update the student profile",
	Args:  cobra.NoArgs,
	RunE:  runProfile,
}

var (
	profileName      string
	profileEmail     string
	profileSubjects  []string
	profileDailyGoal int
	profileWeekly    int
	profileJSON      bool
)

var achievementsCmd = &cobra.Command{
	Use:   "achievements",
	Short: "List achievements and which are unlocked",
	Args:  cobra.NoArgs,
	RunE:  runAchievements,
}

var achievementsJSON bool

func init() {
	rootCmd.AddCommand(statsCmd, coinsCmd, stressCmd, streakCmd, profileCmd, achievementsCmd)
	coinsCmd.AddCommand(coinsAddCmd, coinsSpendCmd)

	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")

	profileCmd.Flags().StringVar(&profileName, "name", "", "Display name")
	profileCmd.Flags().StringVar(&profileEmail, "email", "", "Email address")
	profileCmd.Flags().StringSliceVar(&profileSubjects, "subjects", nil, "IB subjects, comma separated")
	profileCmd.Flags().IntVar(&profileDailyGoal, "daily-focus", 0, "Daily focus goal in minutes")
	profileCmd.Flags().IntVar(&profileWeekly, "weekly-tasks", 0, "Weekly task target")
	profileCmd.Flags().BoolVar(&profileJSON, "json", false, "Output as JSON")

	achievementsCmd.Flags().BoolVar(&achievementsJSON, "json", false, "Output as JSON")
}

func runStats(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(a *app.App) error {
		stats := a.Stats()
		if statsJSON {
			return encodeJSONToStdout(stats)
		}
		fmt.Printf("Level:        %d (%.0f%%, %d XP to next)\n", stats.Level, progress.LevelProgress(stats.XP), progress.XPForNextLevel(stats.XP))
		fmt.Printf("XP:           %d\n", stats.XP)
		fmt.Printf("Coins:        %d\n", stats.Coins)
		fmt.Printf("Streak:       %d (longest %d)\n", stats.Streak, stats.LongestStreak)
		fmt.Printf("Stress:       %d/%d\n", stats.StressLevel, progress.MaxStressLevel)
		fmt.Printf("Tasks done:   %d\n", stats.TasksCompleted)
		fmt.Printf("Focus time:   %s\n", ui.FormatMinutes(stats.FocusMinutes))
		return nil
	})
}

func runProfile(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(a *app.App) error {
		profile := a.Profile()
		var p progress.ProfilePatch
		if hasChangedFlags(cmd, "name") {
			p.Name = &profileName
		}
		if hasChangedFlags(cmd, "email") {
			p.Email = &profileEmail
		}
		if hasChangedFlags(cmd, "subjects") {
			p.Subjects = &profileSubjects
		}
		if hasChangedFlags(cmd, "daily-focus", "weekly-tasks") {
			goals := profile.Goals
			if hasChangedFlags(cmd, "daily-focus") {
				goals.DailyFocusMinutes = profileDailyGoal
			}
			if hasChangedFlags(cmd, "weekly-tasks") {
				goals.WeeklyTaskTarget = profileWeekly
			}
			p.Goals = &goals
		}
		if p != (progress.ProfilePatch{}) {
			var err error
			if profile, err = a.UpdateProfile(p); err != nil {
				return err
			}
		}
		if profileJSON {
			return encodeJSONToStdout(profile)
		}
		fmt.Printf("Name:      %s\n", profile.Name)
		fmt.Printf("Email:     %s\n", profile.Email)
		fmt.Printf("Subjects:  %s\n", strings.Join(profile.Subjects, ", "))
		fmt.Printf("Goals:     %s focus a day, %d tasks a week\n",
			ui.FormatMinutes(profile.Goals.DailyFocusMinutes), profile.Goals.WeeklyTaskTarget)
		fmt.Printf("Unlocked:  %d achievement(s)\n", len(profile.Achievements))
		return nil
	})
}

func runAchievements(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(a *app.App) error {
		profile := a.Profile()
		if achievementsJSON {
			return encodeJSONToStdout(a.Achievements())
		}
		table := ui.NewTable("", "NAME", "RARITY", "DESCRIPTION")
		for _, ach := range results.Achievements() {
			marker := " "
			if profile.HasAchievement(ach.ID) {
				marker = "+"
			}
			table.Row(marker, ach.Name, string(ach.Rarity), ach.Description)
		}
		fmt.Print(table.String())
		return nil
	})
}
