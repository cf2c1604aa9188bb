// Package orchestrator wires retrieval, prompt assembly and completion into
// the support and insights request flows.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Yates-Labs/spoke/internal/completion"
	"github.com/Yates-Labs/spoke/internal/prompt"
	"github.com/Yates-Labs/spoke/internal/rag"
	"github.com/rs/zerolog/log"
)

var ErrEmptyQuestion = errors.New("question is empty")

// EmptyQuestionWarning asks the customer to enter a question.
const EmptyQuestionWarning = "ご質問を入力してください。"

// ContextRetriever fetches policy excerpts for a question. *rag.Retriever
// implements it.
type ContextRetriever interface {
	RetrieveContext(ctx context.Context, query string) (*rag.Retrieval, error)
}

// Completer runs a single completion. *completion.Generator implements it.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (*completion.Completion, error)
}

// Answer is the outcome of one support request.
type Answer struct {
	Question    string
	Model       string
	Context     string
	Records     []rag.Record
	FinalPrompt string
	Text        string
	GeneratedAt time.Time
}

// SupportPipeline answers customer questions from the policy index.
type SupportPipeline struct {
	retriever ContextRetriever
	generator Completer
}

// NewSupportPipeline creates a support pipeline.
func NewSupportPipeline(retriever ContextRetriever, generator Completer) *SupportPipeline {
	return &SupportPipeline{retriever: retriever, generator: generator}
}

// Ask runs retrieval -> prompt assembly -> completion for question using the
// session's model and persona. The session is only updated when every stage
// succeeds.
func (p *SupportPipeline) Ask(ctx context.Context, s *Session, question string) (*Answer, error) {
	if s == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	logger := log.With().Str("flow", "support").Str("model", s.Model).Logger()

	// Stage 1: Retrieval
	logger.Debug().Msg("retrieving context")
	retrieval, err := p.retriever.RetrieveContext(ctx, question)
	if err != nil {
		logger.Error().Err(err).Msg("retrieval failed")
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}
	logger.Debug().Int("records", len(retrieval.Records)).Msg("retrieved context")

	// Stage 2: Prompt assembly
	finalPrompt := prompt.BuildSupportPrompt(s.SystemPrompt, question, retrieval.Context)
	logger.Debug().Int("prompt_len", len(finalPrompt)).Msg("assembled prompt")

	// Stage 3: Completion
	result, err := p.generator.Complete(ctx, s.Model, finalPrompt)
	if err != nil {
		logger.Error().Err(err).Msg("completion failed")
		return nil, err
	}

	answer := &Answer{
		Question:    question,
		Model:       result.Model,
		Context:     retrieval.Context,
		Records:     retrieval.Records,
		FinalPrompt: finalPrompt,
		Text:        result.Text,
		GeneratedAt: result.GeneratedAt,
	}
	s.apply(answer)

	logger.Info().Int("answer_len", len(answer.Text)).Msg("answered question")
	return answer, nil
}
