package cmd

import (
	"github.com/Yates-Labs/spoke/internal/tui"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Start the trip analytics dashboard",
	Long: `Open the trip analytics dashboard in the terminal.

Views: trips by hour, trips by weather, top start stations on a map, and
natural-language questions about the hourly data.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		deps, err := buildAnalytics(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer deps.Close()

		return tui.RunDashboard(ctx, deps.loader, deps.insights)
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
