package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// mockEmbedder implements Embedder interface for testing
type mockEmbedder struct {
	embedFunc func(ctx context.Context, texts []string) ([]EmbeddingRecord, error)
	dimension int
	calls     int
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
	m.calls++
	if m.embedFunc != nil {
		return m.embedFunc(ctx, texts)
	}
	if len(texts) == 0 {
		return nil, ErrEmptyTexts
	}
	// Default: return simple embeddings
	records := make([]EmbeddingRecord, len(texts))
	for i, text := range texts {
		embedding := make([]float32, m.GetDimension())
		embedding[0] = float32(len(text))
		embedding[1] = float32(i)
		embedding[2] = 1.0
		records[i] = EmbeddingRecord{
			Text:      text,
			Embedding: embedding,
			Index:     i,
			Model:     "mock",
		}
	}
	return records, nil
}

func (m *mockEmbedder) GetModel() string {
	return "mock"
}

func (m *mockEmbedder) GetDimension() int {
	if m.dimension == 0 {
		return 3
	}
	return m.dimension
}

// mockSearchService implements SearchService interface for testing
type mockSearchService struct {
	records    []Record
	searchFunc func(ctx context.Context, req SearchRequest) ([]Record, error)
	requests   []SearchRequest
	closed     bool
}

func (m *mockSearchService) Search(ctx context.Context, req SearchRequest) ([]Record, error) {
	m.requests = append(m.requests, req)
	if m.searchFunc != nil {
		return m.searchFunc(ctx, req)
	}
	if len(m.records) > req.Limit {
		return m.records[:req.Limit], nil
	}
	return m.records, nil
}

func (m *mockSearchService) Close() error {
	m.closed = true
	return nil
}

func intPtr(v int) *int {
	return &v
}

func TestNewRetriever(t *testing.T) {
	tests := []struct {
		name    string
		service SearchService
		topK    int
		wantErr bool
	}{
		{name: "valid", service: &mockSearchService{}, topK: DefaultTopK},
		{name: "nil service", service: nil, topK: 4, wantErr: true},
		{name: "zero topK", service: &mockSearchService{}, topK: 0, wantErr: true},
		{name: "negative topK", service: &mockSearchService{}, topK: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retriever, err := NewRetriever(tt.service, tt.topK)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewRetriever() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && retriever.TopK() != tt.topK {
				t.Errorf("TopK() = %d, want %d", retriever.TopK(), tt.topK)
			}
		})
	}
}

func TestRetrieveContext_FormatsHeadersInOrder(t *testing.T) {
	service := &mockSearchService{
		records: []Record{
			{Text: "Helmets are recommended.", PageIndex: intPtr(3), Keyword: "helmet"},
			{Text: "Rides over 45 minutes incur fees.", PageIndex: intPtr(7)},
			{Text: "Lost bikes are charged.", Keyword: "lost"},
			{Text: "Plain chunk."},
		},
	}

	retriever, err := NewRetriever(service, 4)
	if err != nil {
		t.Fatalf("NewRetriever failed: %v", err)
	}

	result, err := retriever.RetrieveContext(context.Background(), "ヘルメットは必要？")
	if err != nil {
		t.Fatalf("RetrieveContext failed: %v", err)
	}

	want := strings.Join([]string{
		"[page_index=3 | keyword=helmet]\nHelmets are recommended.",
		"[page_index=7]\nRides over 45 minutes incur fees.",
		"[keyword=lost]\nLost bikes are charged.",
		"Plain chunk.",
	}, "\n\n---\n\n")

	if result.Context != want {
		t.Errorf("Context mismatch\n got: %q\nwant: %q", result.Context, want)
	}
	if len(result.Records) != 4 {
		t.Errorf("expected 4 records, got %d", len(result.Records))
	}
}

func TestRetrieveContext_RequestShape(t *testing.T) {
	service := &mockSearchService{}
	retriever, _ := NewRetriever(service, 4)

	if _, err := retriever.RetrieveContext(context.Background(), "how do I dock?"); err != nil {
		t.Fatalf("RetrieveContext failed: %v", err)
	}

	if len(service.requests) != 1 {
		t.Fatalf("expected exactly one search, got %d", len(service.requests))
	}
	req := service.requests[0]
	if req.Query != "how do I dock?" {
		t.Errorf("Query = %q", req.Query)
	}
	if req.Limit != 4 {
		t.Errorf("Limit = %d, want 4", req.Limit)
	}
	for _, col := range []string{ColumnChunkText, ColumnPageIndex, ColumnKeyword} {
		if !req.Wants(col) {
			t.Errorf("expected column %s in request", col)
		}
	}
}

func TestRetrieveContext_ClampsToTopK(t *testing.T) {
	records := make([]Record, 10)
	for i := range records {
		records[i] = Record{Text: fmt.Sprintf("chunk %d", i)}
	}
	service := &mockSearchService{
		searchFunc: func(ctx context.Context, req SearchRequest) ([]Record, error) {
			return records, nil
		},
	}

	retriever, _ := NewRetriever(service, 2)
	result, err := retriever.RetrieveContext(context.Background(), "q")
	if err != nil {
		t.Fatalf("RetrieveContext failed: %v", err)
	}

	if len(result.Records) != 2 {
		t.Errorf("expected 2 records, got %d", len(result.Records))
	}
	if result.Context != "chunk 0\n\n---\n\nchunk 1" {
		t.Errorf("unexpected context %q", result.Context)
	}
}

func TestRetrieveContext_NoResults(t *testing.T) {
	retriever, _ := NewRetriever(&mockSearchService{}, 4)

	result, err := retriever.RetrieveContext(context.Background(), "anything")
	if err != nil {
		t.Fatalf("expected no error for empty result, got %v", err)
	}
	if result.Context != "" {
		t.Errorf("expected empty context, got %q", result.Context)
	}
}

func TestRetrieveContext_EmptyQuery(t *testing.T) {
	service := &mockSearchService{}
	retriever, _ := NewRetriever(service, 4)

	_, err := retriever.RetrieveContext(context.Background(), "   ")
	if !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
	if len(service.requests) != 0 {
		t.Error("search should not run for an empty query")
	}
}

func TestSearchError(t *testing.T) {
	backendErr := errors.New("warehouse unavailable")
	service := &mockSearchService{
		searchFunc: func(ctx context.Context, req SearchRequest) ([]Record, error) {
			return nil, backendErr
		},
	}

	retriever, _ := NewRetriever(service, 4)
	_, err := retriever.RetrieveContext(context.Background(), "q")
	if !errors.Is(err, ErrSearchFailed) {
		t.Errorf("expected ErrSearchFailed, got %v", err)
	}
	if !errors.Is(err, backendErr) {
		t.Errorf("expected wrapped backend error, got %v", err)
	}
}

func TestFormatContext_Empty(t *testing.T) {
	if got := FormatContext(nil); got != "" {
		t.Errorf("FormatContext(nil) = %q, want empty", got)
	}
}

func TestRecordHeader(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   string
	}{
		{name: "both", record: Record{PageIndex: intPtr(0), Keyword: "fee"}, want: "page_index=0 | keyword=fee"},
		{name: "page only", record: Record{PageIndex: intPtr(12)}, want: "page_index=12"},
		{name: "keyword only", record: Record{Keyword: "dock"}, want: "keyword=dock"},
		{name: "none", record: Record{Text: "x"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.Header(); got != tt.want {
				t.Errorf("Header() = %q, want %q", got, tt.want)
			}
		})
	}
}
