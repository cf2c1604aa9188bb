package rag

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Common errors for embedding operations
var (
	ErrEmptyTexts      = errors.New("no texts provided for embedding")
	ErrMissingAPIKey   = errors.New("OPENAI_API_KEY environment variable not set")
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// EmbeddingRecord represents a single text embedding with metadata
type EmbeddingRecord struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
	Model     string    `json:"model"`
}

// Embedder defines the interface for generating text embeddings
type Embedder interface {
	// Embed generates embeddings for the provided texts
	Embed(ctx context.Context, texts []string) ([]EmbeddingRecord, error)

	// GetModel returns the embedding model identifier
	GetModel() string

	// GetDimension returns the embedding vector dimension
	GetDimension() int
}

// EmbedderConfig configures an OpenAI-compatible embedding endpoint.
type EmbedderConfig struct {
	Model     string
	Dimension int
	APIKey    string
	BaseURL   string
}

// OpenAIEmbedder implements the Embedder interface using OpenAI's API
type OpenAIEmbedder struct {
	client    openai.Client
	model     string
	dimension int
}

// NewOpenAIEmbedder creates a new OpenAI embedder instance.
// The API key falls back to OPENAI_API_KEY when the config leaves it empty.
func NewOpenAIEmbedder(config EmbedderConfig) (*OpenAIEmbedder, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &OpenAIEmbedder{
		client:    openai.NewClient(opts...),
		model:     config.Model,
		dimension: config.Dimension,
	}, nil
}

// GetModel returns the embedding model identifier
func (e *OpenAIEmbedder) GetModel() string {
	return e.model
}

// GetDimension returns the embedding vector dimension
func (e *OpenAIEmbedder) GetDimension() int {
	return e.dimension
}

// Embed generates embeddings for the provided texts using OpenAI's API
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyTexts
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model:          e.model,
		Dimensions:     openai.Int(int64(e.dimension)),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	records := make([]EmbeddingRecord, len(resp.Data))
	for i, data := range resp.Data {
		embedding := make([]float32, len(data.Embedding))
		for j, val := range data.Embedding {
			embedding[j] = float32(val)
		}

		records[i] = EmbeddingRecord{
			Text:      texts[int(data.Index)],
			Embedding: embedding,
			Index:     int(data.Index),
			Model:     e.model,
		}
	}

	return records, nil
}

// embedOne embeds a single text and returns its vector.
func embedOne(ctx context.Context, embedder Embedder, text string) ([]float32, error) {
	records, err := embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no embedding generated", ErrEmbeddingFailed)
	}
	return records[0].Embedding, nil
}
