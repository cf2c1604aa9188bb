package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultIndexOptions returns sensible defaults for indexing
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{
		BatchSize:    10, // Batch size for embedding API calls
		ForceReindex: false,
	}
}

// IndexChunks embeds passages in batches and stores them in the index.
// Blank passages are skipped. It returns the number of chunks stored.
func IndexChunks(
	ctx context.Context,
	embedder Embedder,
	store IndexStore,
	passages []Passage,
	opts IndexOptions,
) (int, error) {
	if embedder == nil {
		return 0, fmt.Errorf("embedder cannot be nil")
	}
	if store == nil {
		return 0, fmt.Errorf("index store cannot be nil")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultIndexOptions().BatchSize
	}

	if opts.ForceReindex {
		if err := store.Reset(ctx); err != nil {
			return 0, fmt.Errorf("failed to reset index: %w", err)
		}
	}

	toIndex := make([]Passage, 0, len(passages))
	for _, p := range passages {
		if strings.TrimSpace(p.Text) != "" {
			toIndex = append(toIndex, p)
		}
	}
	if len(toIndex) == 0 {
		return 0, nil
	}

	stored := 0
	for batchStart := 0; batchStart < len(toIndex); batchStart += opts.BatchSize {
		batchEnd := batchStart + opts.BatchSize
		if batchEnd > len(toIndex) {
			batchEnd = len(toIndex)
		}

		batch := toIndex[batchStart:batchEnd]

		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.Text
		}

		embeddingRecords, err := embedder.Embed(ctx, texts)
		if err != nil {
			return stored, fmt.Errorf("failed to generate embeddings for batch starting at %d: %w", batchStart, err)
		}
		if len(embeddingRecords) != len(batch) {
			return stored, fmt.Errorf("%w: got %d embeddings for %d chunks", ErrEmbeddingFailed, len(embeddingRecords), len(batch))
		}

		chunks := make([]ChunkRecord, len(batch))
		for _, rec := range embeddingRecords {
			if rec.Index < 0 || rec.Index >= len(batch) {
				return stored, fmt.Errorf("%w: embedding index %d out of range", ErrEmbeddingFailed, rec.Index)
			}
			chunks[rec.Index] = ChunkRecord{
				Passage:   batch[rec.Index],
				Embedding: rec.Embedding,
			}
		}

		if err := store.Insert(ctx, chunks); err != nil {
			return stored, fmt.Errorf("failed to insert batch starting at %d: %w", batchStart, err)
		}

		if err := store.Flush(ctx); err != nil {
			return stored, fmt.Errorf("failed to flush batch starting at %d: %w", batchStart, err)
		}

		stored += len(chunks)
		log.Debug().Int("batch_start", batchStart).Int("stored", stored).Msg("indexed batch")
	}

	return stored, nil
}
