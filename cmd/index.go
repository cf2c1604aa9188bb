package cmd

import (
	"context"
	"fmt"

	"github.com/Yates-Labs/spoke/internal/ingest/document"
	"github.com/Yates-Labs/spoke/internal/orchestrator"
	"github.com/Yates-Labs/spoke/internal/rag"
	"github.com/Yates-Labs/spoke/internal/render"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	reindex   bool
	chunkSize int
	overlap   int
	batchSize int
)

var indexCmd = &cobra.Command{
	Use:   "index [file]",
	Short: "Load a policy document into the search index",
	Long: `Parse a policy document, split it into overlapping chunks, embed them and
write them to the configured search backend.

Supported formats: .pdf, .docx, .md, .txt

Examples:
  spoke index docs/pricing.pdf
  spoke index docs/rules.md --reindex`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	defaults := document.DefaultChunkOptions()
	indexCmd.Flags().BoolVar(&reindex, "reindex", false, "Drop the existing index before loading")
	indexCmd.Flags().IntVar(&chunkSize, "chunk-size", defaults.Size, "Chunk size in characters")
	indexCmd.Flags().IntVar(&overlap, "overlap", defaults.Overlap, "Overlap between chunks in characters")
	indexCmd.Flags().IntVar(&batchSize, "batch-size", rag.DefaultIndexOptions().BatchSize, "Chunks embedded per request")
}

func runIndex(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx := cmd.Context()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	index, err := openSearchIndex(ctx, cfg, embedder)
	if err != nil {
		return err
	}
	defer index.Close()

	fmt.Println(render.Notice(render.NoticeInfo, "Indexing "+path+"..."))

	n, err := orchestrator.IndexDocument(ctx, path, embedder, index,
		document.ChunkOptions{Size: chunkSize, Overlap: overlap},
		rag.IndexOptions{BatchSize: batchSize, ForceReindex: reindex},
	)
	if err != nil {
		return err
	}

	fmt.Println(render.Notice(render.NoticeSuccess, fmt.Sprintf("Indexed %d chunks into %s", n, cfg.Search.Backend)))
	fmt.Println(render.MutedStyle.Render(indexSummary(ctx, index)))
	return nil
}

// indexSummary describes the collection after a load.
func indexSummary(ctx context.Context, index searchIndex) string {
	stats, err := index.Stats(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read index statistics")
		return "Collection size unavailable"
	}
	return fmt.Sprintf("Collection now holds %s chunks", stats[rag.StatRowCount])
}
