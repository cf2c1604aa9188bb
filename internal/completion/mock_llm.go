package completion

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockLLM is a deterministic LLM implementation for testing.
type MockLLM struct {
	// Response is the fixed text returned by Complete.
	// If empty, a default response is generated from the prompt.
	Response string

	// Error, if set, is returned by Complete instead of a response.
	Error error

	// LastPrompt and LastModel store the most recent call.
	LastPrompt string
	LastModel  string

	// Calls counts Complete invocations.
	Calls int

	mu sync.Mutex
}

// NewMockLLM creates a mock LLM with the given fixed response.
func NewMockLLM(response string) *MockLLM {
	return &MockLLM{Response: response}
}

// NewMockLLMWithError creates a mock LLM that always returns an error.
func NewMockLLMWithError(err error) *MockLLM {
	return &MockLLM{Error: err}
}

// Complete returns the configured response or generates a deterministic one.
func (m *MockLLM) Complete(ctx context.Context, model, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	m.LastPrompt = prompt
	m.LastModel = model

	if m.Error != nil {
		return "", m.Error
	}

	if m.Response != "" {
		return m.Response, nil
	}

	return generateMockResponse(model, prompt), nil
}

// generateMockResponse echoes the customer question when the prompt has one.
func generateMockResponse(model, prompt string) string {
	question := "(none)"
	if _, after, ok := strings.Cut(prompt, "[お客様からの質問]\n"); ok {
		question, _, _ = strings.Cut(after, "\n")
	}
	return fmt.Sprintf("ご質問ありがとうございます。[%s] question=%s", model, strings.TrimSpace(question))
}
