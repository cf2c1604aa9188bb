package rag

import (
	"context"
	"errors"
	"os"
	"testing"
)

func TestNewOpenAIEmbedder_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewOpenAIEmbedder(EmbedderConfig{Model: "text-embedding-3-small", Dimension: 1536})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestNewOpenAIEmbedder_ConfigKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	embedder, err := NewOpenAIEmbedder(EmbedderConfig{
		Model:     "text-embedding-3-large",
		Dimension: 3072,
		APIKey:    "sk-test",
		BaseURL:   "http://localhost:4000/v1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if embedder.GetModel() != "text-embedding-3-large" {
		t.Errorf("GetModel() = %q, want %q", embedder.GetModel(), "text-embedding-3-large")
	}
	if embedder.GetDimension() != 3072 {
		t.Errorf("GetDimension() = %d, want %d", embedder.GetDimension(), 3072)
	}
}

func TestOpenAIEmbedder_EmptyTexts(t *testing.T) {
	embedder, err := NewOpenAIEmbedder(EmbedderConfig{Model: "text-embedding-3-small", Dimension: 1536, APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("failed to create embedder: %v", err)
	}

	_, err = embedder.Embed(context.Background(), []string{})
	if !errors.Is(err, ErrEmptyTexts) {
		t.Errorf("expected ErrEmptyTexts, got %v", err)
	}
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	if testing.Short() || os.Getenv("OPENAI_API_KEY") == "" {
		t.Skip("OPENAI_API_KEY not set")
	}

	embedder, err := NewOpenAIEmbedder(EmbedderConfig{Model: "text-embedding-3-small", Dimension: 1536})
	if err != nil {
		t.Fatalf("failed to create embedder: %v", err)
	}

	texts := []string{"ヘルメットの着用は義務ですか？", "How do I unlock a bike?"}
	records, err := embedder.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if len(records) != len(texts) {
		t.Errorf("expected %d records, got %d", len(texts), len(records))
	}
	for i, record := range records {
		if record.Text != texts[i] {
			t.Errorf("record[%d].Text = %q, want %q", i, record.Text, texts[i])
		}
		if len(record.Embedding) != 1536 {
			t.Errorf("record[%d] embedding dimension = %d, want 1536", i, len(record.Embedding))
		}
	}
}
