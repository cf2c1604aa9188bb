package cmd

import (
	"github.com/Yates-Labs/spoke/internal/orchestrator"
	"github.com/Yates-Labs/spoke/internal/tui"
	"github.com/spf13/cobra"
)

var supportCmd = &cobra.Command{
	Use:   "support",
	Short: "Start the interactive support assistant",
	Long: `Open the support assistant in the terminal.

Pick a model, edit the assistant persona, choose an example question or type
your own, and rate each answer. Context and the final prompt can be shown
alongside the answer.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		deps, err := buildSupport(ctx, cfg, 0)
		if err != nil {
			return err
		}
		defer deps.Close()

		return tui.RunSupport(ctx, deps.pipeline, orchestrator.NewSession())
	},
}

func init() {
	rootCmd.AddCommand(supportCmd)
}
