package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amonks/ibuddy/app"
	"github.com/amonks/ibuddy/internal/markdown"
	"github.com/amonks/ibuddy/internal/ui"
	"github.com/amonks/ibuddy/results"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show what the last session earned",
	Long: `Show the results of the last finished session. Results are shown once;
without a finished session, example results are shown instead.`,
	Args: cobra.NoArgs,
	RunE: runResults,
}

var (
	resultsJSON  bool
	resultsStyle string
)

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.Flags().BoolVar(&resultsJSON, "json", false, "Output as JSON")
	resultsCmd.Flags().StringVar(&resultsStyle, "style", "", "Rendering style (plain, light, dark); follows the theme by default")
}

func runResults(cmd *cobra.Command, _ []string) error {
	var style markdown.Style
	if resultsStyle != "" {
		var err error
		if style, err = markdown.ParseStyle(resultsStyle); err != nil {
			return err
		}
	}
	return withApp(cmd, func(a *app.App) error {
		r := a.ConsumeResults()
		if resultsJSON {
			return encodeJSONToStdout(r)
		}
		if style == "" {
			style = markdownStyle(a)
		}
		fmt.Print(markdown.SafeRender(style, ui.TerminalWidth(), 0, results.Markdown(r)))
		return nil
	})
}
