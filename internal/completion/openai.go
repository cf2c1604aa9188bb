package completion

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAILLM implements the LLM interface using an OpenAI-compatible chat API.
type OpenAILLM struct {
	client openai.Client
	config LLMConfig
}

// NewOpenAILLM creates an OpenAI-backed LLM implementation.
// Returns an error if the API key is missing.
func NewOpenAILLM(config LLMConfig) (*OpenAILLM, error) {
	// Use config API key or fall back to environment variable
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing API key (set OPENAI_API_KEY or provide in config)", ErrInvalidConfig)
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &OpenAILLM{
		client: openai.NewClient(opts...),
		config: config,
	}, nil
}

// Complete sends the prompt as a single user message and returns the reply.
func (o *OpenAILLM) Complete(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		return "", fmt.Errorf("%w: missing model name", ErrInvalidConfig)
	}
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", ErrInvalidConfig)
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}

	if o.config.Temperature > 0 {
		params.Temperature = openai.Float(float64(o.config.Temperature))
	}
	if o.config.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(o.config.MaxTokens))
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLLMFailed, err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no response generated", ErrLLMFailed)
	}

	return completion.Choices[0].Message.Content, nil
}
