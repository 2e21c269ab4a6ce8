package main

import (
	"github.com/spf13/cobra"

	"github.com/amonks/ibuddy/app"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Print counters and gauges in the Prometheus text format",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(a *app.App) error {
			return a.WriteMetrics(cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(metricsCmd)
}
