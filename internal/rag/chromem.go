package rag

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
)

// chromem metadata keys
const (
	metaPageIndex = "page_index"
	metaKeyword   = "extracted_word"
)

// ChromemConfig configures the embedded chromem-go search backend.
type ChromemConfig struct {
	// Path of the persistent database directory; empty keeps it in memory
	Path           string
	CollectionName string
}

// ChromemStore serves policy search from an embedded chromem-go collection.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	config     ChromemConfig
	embedder   Embedder
}

// NewChromemStore opens (or creates) the database and collection.
func NewChromemStore(config ChromemConfig, embedder Embedder) (*ChromemStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	if config.CollectionName == "" {
		config.CollectionName = "citibike_terms"
	}

	var db *chromem.DB
	if config.Path == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(config.Path, false)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	store := &ChromemStore{
		db:       db,
		config:   config,
		embedder: embedder,
	}
	if err := store.openCollection(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *ChromemStore) openCollection() error {
	c, err := s.db.GetOrCreateCollection(s.config.CollectionName, nil, s.embeddingFunc())
	if err != nil {
		return fmt.Errorf("failed to create/get collection: %w", err)
	}
	s.collection = c
	return nil
}

// embeddingFunc adapts the Embedder to chromem's per-text embedding hook.
func (s *ChromemStore) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return embedOne(ctx, s.embedder, text)
	}
}

// Insert adds embedded chunks to the collection. An empty batch is a no-op.
func (s *ChromemStore) Insert(ctx context.Context, chunks []ChunkRecord) error {
	if len(chunks) == 0 {
		return nil
	}

	base := s.collection.Count()
	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		metadata := map[string]string{}
		if chunk.PageIndex != nil {
			metadata[metaPageIndex] = strconv.Itoa(*chunk.PageIndex)
		}
		if chunk.Keyword != "" {
			metadata[metaKeyword] = chunk.Keyword
		}
		docs[i] = chromem.Document{
			ID:        fmt.Sprintf("chunk-%06d", base+i),
			Content:   chunk.Text,
			Metadata:  metadata,
			Embedding: chunk.Embedding,
		}
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}
	return nil
}

// Flush is a no-op; persistent chromem databases write on insert.
func (s *ChromemStore) Flush(ctx context.Context) error {
	return nil
}

// Reset drops the collection and recreates it empty.
func (s *ChromemStore) Reset(ctx context.Context) error {
	if err := s.db.DeleteCollection(s.config.CollectionName); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return s.openCollection()
}

// Search embeds the query and returns the nearest chunks, most similar first.
func (s *ChromemStore) Search(ctx context.Context, req SearchRequest) ([]Record, error) {
	if req.Query == "" {
		return nil, ErrEmptyQuery
	}

	n := req.Limit
	if count := s.collection.Count(); n > count {
		n = count
	}
	if n <= 0 {
		return []Record{}, nil
	}

	results, err := s.collection.Query(ctx, req.Query, n, nil, nil)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("collection", s.config.CollectionName).Int("hits", len(results)).Msg("chromem search")

	records := make([]Record, 0, len(results))
	for _, res := range results {
		records = append(records, recordFromChromem(res, req))
	}
	return records, nil
}

func recordFromChromem(res chromem.Result, req SearchRequest) Record {
	record := Record{
		Text:  res.Content,
		Score: res.Similarity,
		Raw:   map[string]any{ColumnChunkText: res.Content},
	}

	if req.Wants(ColumnPageIndex) {
		if raw, ok := res.Metadata[metaPageIndex]; ok {
			if page, err := strconv.Atoi(raw); err == nil {
				record.PageIndex = &page
				record.Raw[ColumnPageIndex] = page
			}
		}
	}
	if req.Wants(ColumnKeyword) {
		if kw := res.Metadata[metaKeyword]; kw != "" {
			record.Keyword = kw
			record.Raw[ColumnKeyword] = kw
		}
	}
	return record
}

// Count returns the number of stored chunks.
func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

// Stats reports the collection size under the same key Milvus uses.
func (s *ChromemStore) Stats(ctx context.Context) (map[string]string, error) {
	return map[string]string{StatRowCount: strconv.Itoa(s.Count())}, nil
}

// Close is a no-op; chromem-go holds no connections.
func (s *ChromemStore) Close() error {
	return nil
}
