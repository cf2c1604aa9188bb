package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/Yates-Labs/spoke/internal/completion"
	"github.com/Yates-Labs/spoke/internal/orchestrator"
	"github.com/Yates-Labs/spoke/internal/render"
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
)

var (
	askModel        string
	topK            int
	systemPromptArg string
	verbose         bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the support assistant a single question",
	Long: `Ask a question about Citi Bike pricing, membership or riding policies.

This command:
1. Retrieves the most relevant policy passages from the search index
2. Combines them with the assistant persona into a prompt
3. Generates an answer with the selected model

Examples:
  spoke ask "What happens if I keep a bike longer than 45 minutes?"
  spoke ask "How do I cancel my membership?" --model mistral-large2
  spoke ask "Are e-bikes extra?" --topk 6 --verbose`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askModel, "model", "m", completion.DefaultModel,
		"Model to answer with ("+strings.Join(completion.Models, ", ")+")")
	askCmd.Flags().IntVar(&topK, "topk", 0, "Number of passages to retrieve (default from config)")
	askCmd.Flags().StringVar(&systemPromptArg, "system-prompt-file", "", "Read the assistant persona from a file")
	askCmd.Flags().BoolVar(&verbose, "verbose", false, "Show retrieved context, the final prompt and raw search records")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]
	ctx := cmd.Context()

	session := orchestrator.NewSession()
	if err := session.SetModel(askModel); err != nil {
		return err
	}
	if systemPromptArg != "" {
		data, err := os.ReadFile(systemPromptArg)
		if err != nil {
			return fmt.Errorf("failed to read system prompt: %w", err)
		}
		session.SystemPrompt = string(data)
	}

	if strings.TrimSpace(question) == "" {
		fmt.Println(render.Notice(render.NoticeWarning, orchestrator.EmptyQuestionWarning))
		return nil
	}

	deps, err := buildSupport(ctx, cfg, topK)
	if err != nil {
		return fmt.Errorf("%s %w", render.ErrorStyle.Render("Error:"), err)
	}
	defer deps.Close()

	// Print question
	fmt.Println()
	fmt.Println(render.HeaderStyle.Render("Question:"))
	fmt.Println(render.QuestionStyle.Render(question))
	fmt.Println()

	if verbose {
		fmt.Println(render.Notice(render.NoticeInfo, "Retrieving context and generating answer with "+session.Model+"..."))
	}

	answer, err := deps.pipeline.Ask(ctx, session, question)
	if err != nil {
		return fmt.Errorf("%s %w", render.ErrorStyle.Render("Error:"), err)
	}

	if verbose {
		fmt.Println(render.HeaderStyle.Render("Context:"))
		fmt.Println(render.ContextStyle.Render(render.NormalizeForDisplay(answer.Context)))
		fmt.Println()
		fmt.Println(render.HeaderStyle.Render("Final prompt:"))
		fmt.Println(render.ContextStyle.Render(render.NormalizeForDisplay(answer.FinalPrompt)))
		fmt.Println()
		fmt.Println(render.HeaderStyle.Render("Search records:"))
		pp.Println(answer.Records)
		fmt.Println()
	}

	// Print answer
	fmt.Println(render.HeaderStyle.Render("Answer:"))
	fmt.Println(render.AnswerBox(answer.Text, 0))
	fmt.Println()

	return nil
}
