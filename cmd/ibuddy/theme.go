package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amonks/ibuddy/app"
	"github.com/amonks/ibuddy/theme"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Show the theme preference",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(a *app.App) error {
			t := a.Theme()
			resolved := theme.Resolve(t, systemTheme())
			if resolved != t {
				fmt.Printf("%s (%s)\n", t, resolved)
				return nil
			}
			fmt.Println(t)
			return nil
		})
	},
}

var themeSetCmd = &cobra.Command{
	Use:       "set <light|dark|auto>",
	Short:     "Store the theme preference",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(theme.Light), string(theme.Dark), string(theme.Auto)},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			t, err := a.SetTheme(args[0])
			if err != nil {
				return err
			}
			fmt.Println(t)
			return nil
		})
	},
}

var themeToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Switch between light and dark",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(a *app.App) error {
			fmt.Println(a.ToggleTheme(systemTheme()))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(themeCmd)
	themeCmd.AddCommand(themeSetCmd, themeToggleCmd)
}
