package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/Yates-Labs/spoke/internal/completion"
	"github.com/Yates-Labs/spoke/internal/prompt"
	"github.com/Yates-Labs/spoke/internal/warehouse"
	"github.com/rs/zerolog/log"
)

// Notices used by the natural-language data query.
const (
	InsightsQuestionWarning = "Please enter a question."
	InsightsEmptyNotice     = "AIサービスから応答がありませんでした。"
	InsightsErrorNotice     = "AIサービスへの問い合わせ中にエラーが発生しました。"
)

// Insight is the answer to a question about a data table.
type Insight struct {
	Question  string
	Prompt    string
	Text      string
	Truncated bool
}

// InsightsPipeline answers questions about a data table.
type InsightsPipeline struct {
	generator Completer
	model     string
}

// NewInsightsPipeline creates an insights pipeline using completion.InsightsModel.
func NewInsightsPipeline(generator Completer) *InsightsPipeline {
	return &InsightsPipeline{generator: generator, model: completion.InsightsModel}
}

// Model returns the model used for insights.
func (p *InsightsPipeline) Model() string {
	return p.model
}

// Ask serializes table, wraps it in the analyst template and completes it.
// An empty response yields InsightsEmptyNotice.
func (p *InsightsPipeline) Ask(ctx context.Context, question string, table warehouse.Table) (*Insight, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	logger := log.With().Str("flow", "insights").Str("model", p.model).Logger()

	data := warehouse.SerializeForPrompt(table)
	insight := &Insight{
		Question:  question,
		Prompt:    prompt.BuildInsightsPrompt(question, data),
		Truncated: strings.HasSuffix(data, warehouse.TruncationMarker),
	}
	logger.Debug().Int("rows", table.Len()).Bool("truncated", insight.Truncated).Int("prompt_len", len(insight.Prompt)).Msg("assembled prompt")

	result, err := p.generator.Complete(ctx, p.model, insight.Prompt)
	if err != nil {
		logger.Error().Err(err).Msg("completion failed")
		return nil, fmt.Errorf("insights: %w", err)
	}

	insight.Text = result.Text
	if strings.TrimSpace(insight.Text) == "" {
		insight.Text = InsightsEmptyNotice
	}
	logger.Info().Int("answer_len", len(insight.Text)).Msg("answered data question")
	return insight, nil
}
