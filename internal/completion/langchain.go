package completion

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChainLLM implements the LLM interface through langchaingo's OpenAI client.
// A "Bearer " prefix on the API key is tolerated.
type LangChainLLM struct {
	llm    llms.Model
	config LLMConfig
}

// NewLangChainLLM creates a langchaingo-backed LLM.
func NewLangChainLLM(config LLMConfig) (*LangChainLLM, error) {
	opts := []openai.Option{openai.WithModel(DefaultModel)}
	if config.APIKey != "" {
		opts = append(opts, openai.WithToken(strings.TrimPrefix(config.APIKey, "Bearer ")))
	}
	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return &LangChainLLM{llm: llm, config: config}, nil
}

// Complete generates a reply for a single human message.
func (l *LangChainLLM) Complete(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		return "", fmt.Errorf("%w: missing model name", ErrInvalidConfig)
	}
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", ErrInvalidConfig)
	}

	callOpts := []llms.CallOption{llms.WithModel(model)}
	if l.config.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(float64(l.config.Temperature)))
	}
	if l.config.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(l.config.MaxTokens))
	}

	log.Debug().Str("model", model).Int("prompt_len", len(prompt)).Msg("langchain completion")

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}

	resp, err := l.llm.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLLMFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no response generated", ErrLLMFailed)
	}

	return resp.Choices[0].Content, nil
}
