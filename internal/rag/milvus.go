package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/rs/zerolog/log"
)

// Common errors for Milvus operations
var (
	ErrInvalidDimension = errors.New("invalid vector dimension")
	ErrConnectionFailed = errors.New("failed to connect to Milvus")
	ErrInsertFailed     = errors.New("failed to insert records")
)

// Milvus field names for the policy chunk collection.
const (
	fieldID        = "id"
	fieldChunkText = "chunk_text"
	fieldPageIndex = "page_index"
	fieldKeyword   = "extracted_word"
	fieldEmbedding = "embedding"
)

// noPageIndex marks a chunk without a page index; Milvus columns are not nullable.
const noPageIndex int64 = -1

// MilvusConfig holds configuration for Milvus connection and collection
type MilvusConfig struct {
	Address        string // Milvus server address (e.g., "localhost:19530")
	CollectionName string // Name of the collection
	Dimension      int    // Vector dimension (e.g., 3072 for text-embedding-3-large)
	IndexType      string // Index type (default: "HNSW")
	MetricType     string // Similarity metric (default: "COSINE")

	// HNSW index parameters
	M              int // HNSW M parameter (default: 16)
	EfConstruction int // HNSW efConstruction (default: 256)
	Ef             int // HNSW search ef (default: 64)
}

// DefaultMilvusConfig returns the default collection layout for the given address.
func DefaultMilvusConfig(address, collection string, dimension int) MilvusConfig {
	if address == "" {
		address = "localhost:19530"
	}
	if collection == "" {
		collection = "citibike_terms"
	}
	if dimension <= 0 {
		dimension = 3072
	}

	return MilvusConfig{
		Address:        address,
		CollectionName: collection,
		Dimension:      dimension,
		IndexType:      "HNSW",
		MetricType:     "COSINE",
		M:              16,
		EfConstruction: 256,
		Ef:             64,
	}
}

// MilvusStore serves policy search from a Milvus collection. It embeds the
// query text itself, so callers only deal in SearchRequest.
type MilvusStore struct {
	client   client.Client
	config   MilvusConfig
	embedder Embedder
}

// NewMilvusStore connects to Milvus and ensures the collection exists with proper schema
func NewMilvusStore(ctx context.Context, config MilvusConfig, embedder Embedder) (*MilvusStore, error) {
	if config.Dimension <= 0 {
		return nil, ErrInvalidDimension
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}

	c, err := client.NewGrpcClient(ctx, config.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	store := &MilvusStore{
		client:   c,
		config:   config,
		embedder: embedder,
	}

	if err := store.ensureCollection(ctx); err != nil {
		c.Close()
		return nil, err
	}

	return store, nil
}

// ensureCollection creates the collection with schema if it doesn't exist
func (m *MilvusStore) ensureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.config.CollectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if has {
		return m.client.LoadCollection(ctx, m.config.CollectionName, false)
	}

	schema := &entity.Schema{
		CollectionName: m.config.CollectionName,
		Description:    "bike share terms of use chunks",
		AutoID:         true,
		Fields: []*entity.Field{
			{
				Name:       fieldID,
				DataType:   entity.FieldTypeInt64,
				PrimaryKey: true,
				AutoID:     true,
			},
			{
				Name:     fieldChunkText,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
			{
				Name:     fieldPageIndex,
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     fieldKeyword,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "1024",
				},
			},
			{
				Name:     fieldEmbedding,
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", m.config.Dimension),
				},
			},
		},
	}

	if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexHNSW(entity.COSINE, m.config.M, m.config.EfConstruction)
	if err != nil {
		return fmt.Errorf("failed to create index config: %w", err)
	}

	if err := m.client.CreateIndex(ctx, m.config.CollectionName, fieldEmbedding, idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := m.client.LoadCollection(ctx, m.config.CollectionName, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	return nil
}

// Insert adds embedded chunks to the collection. An empty batch is a no-op.
func (m *MilvusStore) Insert(ctx context.Context, chunks []ChunkRecord) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	pages := make([]int64, len(chunks))
	keywords := make([]string, len(chunks))
	embeddings := make([][]float32, len(chunks))

	for i, chunk := range chunks {
		if len(chunk.Embedding) != m.config.Dimension {
			return fmt.Errorf("%w: chunk %d has %d, expected %d", ErrInvalidDimension, i, len(chunk.Embedding), m.config.Dimension)
		}
		texts[i] = chunk.Text
		pages[i] = noPageIndex
		if chunk.PageIndex != nil {
			pages[i] = int64(*chunk.PageIndex)
		}
		keywords[i] = chunk.Keyword
		embeddings[i] = chunk.Embedding
	}

	columns := []entity.Column{
		entity.NewColumnVarChar(fieldChunkText, texts),
		entity.NewColumnInt64(fieldPageIndex, pages),
		entity.NewColumnVarChar(fieldKeyword, keywords),
		entity.NewColumnFloatVector(fieldEmbedding, m.config.Dimension, embeddings),
	}

	if _, err := m.client.Insert(ctx, m.config.CollectionName, "", columns...); err != nil {
		return fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}

	return nil
}

// Flush ensures inserted data is persisted
func (m *MilvusStore) Flush(ctx context.Context) error {
	if err := m.client.Flush(ctx, m.config.CollectionName, false); err != nil {
		return fmt.Errorf("failed to flush data: %w", err)
	}
	return nil
}

// Reset drops the collection and recreates it empty.
func (m *MilvusStore) Reset(ctx context.Context) error {
	if err := m.client.DropCollection(ctx, m.config.CollectionName); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return m.ensureCollection(ctx)
}

// Search embeds the query and performs a top-K similarity search.
func (m *MilvusStore) Search(ctx context.Context, req SearchRequest) ([]Record, error) {
	if req.Query == "" {
		return nil, ErrEmptyQuery
	}
	if req.Limit <= 0 {
		return []Record{}, nil
	}

	queryVector, err := embedOne(ctx, m.embedder, req.Query)
	if err != nil {
		return nil, err
	}
	if len(queryVector) != m.config.Dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrInvalidDimension, m.config.Dimension, len(queryVector))
	}

	sp, err := entity.NewIndexHNSWSearchParam(m.config.Ef)
	if err != nil {
		return nil, fmt.Errorf("failed to create search params: %w", err)
	}

	results, err := m.client.Search(
		ctx,
		m.config.CollectionName,
		nil, // partition names
		"",
		m.outputFields(req),
		[]entity.Vector{entity.FloatVector(queryVector)},
		fieldEmbedding,
		entity.COSINE,
		req.Limit,
		sp,
	)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return []Record{}, nil
	}

	log.Debug().Str("collection", m.config.CollectionName).Int("hits", results[0].ResultCount).Msg("milvus search")

	return recordsFromResult(results[0]), nil
}

// outputFields maps requested search columns to Milvus field names.
func (m *MilvusStore) outputFields(req SearchRequest) []string {
	fields := []string{fieldChunkText}
	if req.Wants(ColumnPageIndex) {
		fields = append(fields, fieldPageIndex)
	}
	if req.Wants(ColumnKeyword) {
		fields = append(fields, fieldKeyword)
	}
	return fields
}

func recordsFromResult(result client.SearchResult) []Record {
	records := make([]Record, 0, result.ResultCount)

	for i := 0; i < result.ResultCount; i++ {
		record := Record{
			Raw: make(map[string]any),
		}
		if i < len(result.Scores) {
			record.Score = result.Scores[i]
		}

		for _, field := range result.Fields {
			switch field.Name() {
			case fieldChunkText:
				if col, ok := field.(*entity.ColumnVarChar); ok {
					record.Text = col.Data()[i]
					record.Raw[ColumnChunkText] = record.Text
				}
			case fieldPageIndex:
				if col, ok := field.(*entity.ColumnInt64); ok {
					if page := col.Data()[i]; page != noPageIndex {
						p := int(page)
						record.PageIndex = &p
						record.Raw[ColumnPageIndex] = p
					}
				}
			case fieldKeyword:
				if col, ok := field.(*entity.ColumnVarChar); ok {
					record.Keyword = col.Data()[i]
					record.Raw[ColumnKeyword] = record.Keyword
				}
			}
		}

		records = append(records, record)
	}

	return records
}

// StatRowCount is the statistics key holding the number of stored chunks.
const StatRowCount = "row_count"

// Stats returns collection statistics
func (m *MilvusStore) Stats(ctx context.Context) (map[string]string, error) {
	stats, err := m.client.GetCollectionStatistics(ctx, m.config.CollectionName)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return stats, nil
}

// Close releases resources and closes the Milvus connection
func (m *MilvusStore) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}
