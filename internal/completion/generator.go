package completion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrCompletionFailed = errors.New("completion failed")
)

// Completion is one model response.
type Completion struct {
	// Model is the model that produced the text
	Model string `json:"model"`

	// Text is the raw response, not yet normalized for display
	Text string `json:"text"`

	// GeneratedAt is when the response was received
	GeneratedAt time.Time `json:"generated_at"`
}

// Generator invokes an LLM on an already-assembled prompt.
type Generator struct {
	llm LLM
}

// NewGenerator creates a generator with the given LLM implementation.
func NewGenerator(llm LLM) *Generator {
	return &Generator{llm: llm}
}

// Complete calls the model exactly once. It must not perform retrieval or
// prompt construction, and it never retries.
func (g *Generator) Complete(ctx context.Context, model, prompt string) (*Completion, error) {
	if g.llm == nil {
		return nil, fmt.Errorf("%w: LLM is required", ErrCompletionFailed)
	}
	if model == "" {
		return nil, fmt.Errorf("%w: model is required", ErrCompletionFailed)
	}
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrCompletionFailed)
	}

	start := time.Now()
	text, err := g.llm.Complete(ctx, model, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: LLM invocation failed: %w", ErrCompletionFailed, err)
	}

	log.Debug().Str("model", model).Dur("elapsed", time.Since(start)).Int("response_len", len(text)).Msg("completion received")

	return &Completion{
		Model:       model,
		Text:        text,
		GeneratedAt: time.Now(),
	}, nil
}
