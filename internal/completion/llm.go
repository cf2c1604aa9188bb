// Package completion invokes hosted language models. It defines a
// provider-agnostic LLM interface with implementations for OpenAI-compatible
// endpoints, langchaingo and an in-warehouse SQL completion function, plus a
// deterministic mock for tests.
package completion

import (
	"context"
	"errors"
)

var (
	ErrLLMFailed     = errors.New("LLM request failed")
	ErrInvalidConfig = errors.New("invalid LLM configuration")
)

// LLM defines the interface for interacting with language models.
// Implementations must be stateless and thread-safe.
type LLM interface {
	// Complete sends prompt to the named model and returns the raw response text.
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// LLMConfig holds common configuration options for LLM providers.
type LLMConfig struct {
	// Temperature controls randomness (0.0 = provider default)
	Temperature float32

	// MaxTokens limits the response length (0 = use provider default)
	MaxTokens int

	// APIKey is the authentication key for the provider
	APIKey string

	// BaseURL points at an OpenAI-compatible gateway (empty = provider default)
	BaseURL string
}

// DefaultLLMConfig returns sensible defaults for support answers.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Temperature: 0, // model default
		MaxTokens:   2000,
	}
}
