package rag

import (
	"context"
	"errors"
)

// Column names exposed by the policy search index.
const (
	ColumnChunkText = "CHUNK_TEXT"
	ColumnPageIndex = "PAGE_INDEX"
	ColumnKeyword   = "EXTRACTED_WORD"
)

// DefaultColumns are requested on every support search.
var DefaultColumns = []string{ColumnChunkText, ColumnPageIndex, ColumnKeyword}

var (
	ErrEmptyQuery   = errors.New("query cannot be empty")
	ErrSearchFailed = errors.New("search failed")
)

// Record is a single search hit. Records are kept in the order the search
// service returned them, highest relevance first.
type Record struct {
	Text      string         `json:"text"`
	PageIndex *int           `json:"page_index,omitempty"`
	Keyword   string         `json:"keyword,omitempty"`
	Score     float32        `json:"score"`
	Raw       map[string]any `json:"raw,omitempty"`
}

// SearchRequest mirrors the search service boundary: query text, the
// columns to return and a result limit.
type SearchRequest struct {
	Query   string
	Columns []string
	Limit   int
}

// Wants reports whether column was requested.
func (r SearchRequest) Wants(column string) bool {
	for _, c := range r.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// SearchService ranks indexed policy chunks against a query.
type SearchService interface {
	// Search returns at most req.Limit records, highest relevance first.
	Search(ctx context.Context, req SearchRequest) ([]Record, error)

	// Close releases resources and closes connections
	Close() error
}

// Passage is one chunk of a policy document before embedding.
type Passage struct {
	Text      string
	PageIndex *int
	Keyword   string
}

// ChunkRecord is a passage together with its embedding, ready for storage.
type ChunkRecord struct {
	Passage
	Embedding []float32
}

// IndexStore is the write side of a search backend.
type IndexStore interface {
	// Insert efficiently inserts multiple chunks in a single operation
	Insert(ctx context.Context, chunks []ChunkRecord) error

	// Flush ensures all pending data is persisted
	Flush(ctx context.Context) error

	// Reset drops every stored chunk
	Reset(ctx context.Context) error
}

// IndexOptions provides configuration for document indexing
type IndexOptions struct {
	// BatchSize determines how many chunks to embed at once
	BatchSize int

	// ForceReindex drops the existing index before inserting
	ForceReindex bool
}
