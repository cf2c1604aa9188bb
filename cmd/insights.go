package cmd

import (
	"fmt"
	"strings"

	"github.com/Yates-Labs/spoke/internal/orchestrator"
	"github.com/Yates-Labs/spoke/internal/render"
	"github.com/spf13/cobra"
)

var insightsCmd = &cobra.Command{
	Use:   "insights [question]",
	Short: "Ask a natural-language question about hourly trip data",
	Long: `Send the hourly trip table together with a question to the analyst model.

Large tables are truncated to their first rows before being sent.

Examples:
  spoke insights "Which hours are busiest on average?"
  spoke insights "How does trip duration change overnight?"`,
	Args: cobra.ExactArgs(1),
	RunE: runInsights,
}

func init() {
	rootCmd.AddCommand(insightsCmd)
}

func runInsights(cmd *cobra.Command, args []string) error {
	question := args[0]
	ctx := cmd.Context()

	if strings.TrimSpace(question) == "" {
		fmt.Println(render.Notice(render.NoticeWarning, orchestrator.InsightsQuestionWarning))
		return nil
	}

	deps, err := buildAnalytics(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer deps.Close()

	table, err := deps.loader.Hourly(ctx)
	if err != nil {
		return err
	}
	if table.Empty() {
		fmt.Println(render.Notice(render.NoticeWarning, "No hourly data available"))
		return nil
	}

	insight, err := deps.insights.Ask(ctx, question, table)
	if err != nil {
		fmt.Println(render.Notice(render.NoticeError, orchestrator.InsightsErrorNotice))
		return err
	}

	fmt.Println()
	fmt.Println(render.HeaderStyle.Render("Question:"))
	fmt.Println(render.QuestionStyle.Render(question))
	fmt.Println()
	if insight.Truncated {
		fmt.Println(render.Notice(render.NoticeInfo, "Data was truncated to fit the prompt"))
	}
	fmt.Println(render.HeaderStyle.Render("Answer (" + deps.insights.Model() + "):"))
	fmt.Println(render.AnswerBox(insight.Text, 0))
	fmt.Println()
	return nil
}
