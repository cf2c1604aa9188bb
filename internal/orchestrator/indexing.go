package orchestrator

import (
	"context"
	"fmt"

	"github.com/Yates-Labs/spoke/internal/ingest/document"
	"github.com/Yates-Labs/spoke/internal/rag"
	"github.com/rs/zerolog/log"
)

// IndexDocument chunks the policy document at path and loads it into store.
// It returns the number of chunks written.
func IndexDocument(
	ctx context.Context,
	path string,
	embedder rag.Embedder,
	store rag.IndexStore,
	chunkOpts document.ChunkOptions,
	indexOpts rag.IndexOptions,
) (int, error) {
	passages, err := document.Parse(path, chunkOpts)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("passages", len(passages)).Msg("parsed policy document")

	n, err := rag.IndexChunks(ctx, embedder, store, passages, indexOpts)
	if err != nil {
		return n, fmt.Errorf("failed to index %s: %w", path, err)
	}

	log.Info().Str("path", path).Int("chunks", n).Msg("indexed policy document")
	return n, nil
}
