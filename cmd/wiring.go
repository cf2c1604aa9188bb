package cmd

import (
	"context"
	"fmt"

	"github.com/Yates-Labs/spoke/internal/appconfig"
	"github.com/Yates-Labs/spoke/internal/completion"
	"github.com/Yates-Labs/spoke/internal/orchestrator"
	"github.com/Yates-Labs/spoke/internal/rag"
	"github.com/Yates-Labs/spoke/internal/warehouse"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
)

// searchIndex is a vector backend that can be both queried and loaded.
type searchIndex interface {
	rag.SearchService
	rag.IndexStore
	Stats(ctx context.Context) (map[string]string, error)
	Close() error
}

func newEmbedder(c appconfig.Config) (*rag.OpenAIEmbedder, error) {
	return rag.NewOpenAIEmbedder(rag.EmbedderConfig{
		Model:     c.Embedding.Model,
		Dimension: c.Embedding.Dimension,
		APIKey:    c.OpenAI.APIKey,
		BaseURL:   c.OpenAI.BaseURL,
	})
}

// openSearchIndex connects to the configured policy search backend.
func openSearchIndex(ctx context.Context, c appconfig.Config, embedder rag.Embedder) (searchIndex, error) {
	switch c.Search.Backend {
	case appconfig.BackendMilvus:
		config := rag.DefaultMilvusConfig(c.Milvus.Address, c.Milvus.Collection, embedder.GetDimension())
		return rag.NewMilvusStore(ctx, config, embedder)
	case appconfig.BackendChromem:
		return rag.NewChromemStore(rag.ChromemConfig{
			Path:           c.Chromem.Path,
			CollectionName: c.Chromem.Collection,
		}, embedder)
	default:
		return nil, fmt.Errorf("%w: unknown search backend %q", appconfig.ErrInvalidConfig, c.Search.Backend)
	}
}

func openWarehouse(ctx context.Context, c appconfig.Config) (*bun.DB, error) {
	return warehouse.Open(ctx, warehouse.Config{
		Driver:   c.Warehouse.Driver,
		DSN:      c.Warehouse.DSN,
		Password: c.Warehouse.Password,
		Debug:    c.Debug,
	})
}

func newLoader(c appconfig.Config, db bun.IDB) *warehouse.Loader {
	queries := warehouse.NewQueries(db, c.Warehouse.TripsTable, c.Warehouse.WeatherTable)
	return warehouse.NewLoader(queries, warehouse.NewCache(c.CacheTTL(), nil))
}

// newLLM builds the configured completion provider. db is only used by the
// warehouse provider and may be nil otherwise.
func newLLM(c appconfig.Config, db bun.IDB) (completion.LLM, error) {
	config := completion.LLMConfig{
		Temperature: float32(c.Completion.Temperature),
		MaxTokens:   c.Completion.MaxTokens,
		APIKey:      c.OpenAI.APIKey,
		BaseURL:     c.OpenAI.BaseURL,
	}

	switch c.Completion.Provider {
	case appconfig.ProviderOpenAI:
		return completion.NewOpenAILLM(config)
	case appconfig.ProviderLangChain:
		return completion.NewLangChainLLM(config)
	case appconfig.ProviderWarehouse:
		if db == nil {
			return nil, fmt.Errorf("%w: warehouse provider requires a warehouse connection", appconfig.ErrInvalidConfig)
		}
		return completion.NewSQLLLM(db, c.Completion.SQLFunction)
	default:
		return nil, fmt.Errorf("%w: unknown completion provider %q", appconfig.ErrInvalidConfig, c.Completion.Provider)
	}
}

// supportDeps holds everything the support flow needs for one process.
type supportDeps struct {
	pipeline *orchestrator.SupportPipeline
	closers  []func() error
}

func (d *supportDeps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}
}

// buildSupport wires search, retrieval and completion into a support pipeline.
func buildSupport(ctx context.Context, c appconfig.Config, topK int) (*supportDeps, error) {
	deps := &supportDeps{}

	embedder, err := newEmbedder(c)
	if err != nil {
		return nil, err
	}
	index, err := openSearchIndex(ctx, c, embedder)
	if err != nil {
		return nil, err
	}
	deps.closers = append(deps.closers, index.Close)

	if topK <= 0 {
		topK = c.Search.TopK
	}
	retriever, err := rag.NewRetriever(index, topK)
	if err != nil {
		deps.Close()
		return nil, err
	}

	var db bun.IDB
	if c.Completion.Provider == appconfig.ProviderWarehouse {
		conn, err := openWarehouse(ctx, c)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.closers = append(deps.closers, conn.Close)
		db = conn
	}

	llm, err := newLLM(c, db)
	if err != nil {
		deps.Close()
		return nil, err
	}

	log.Info().
		Str("backend", c.Search.Backend).
		Str("provider", c.Completion.Provider).
		Int("top_k", topK).
		Msg("support pipeline ready")

	deps.pipeline = orchestrator.NewSupportPipeline(retriever, completion.NewGenerator(llm))
	return deps, nil
}

// analyticsDeps holds the warehouse loader and insights flow.
type analyticsDeps struct {
	loader   *warehouse.Loader
	insights *orchestrator.InsightsPipeline
	db       *bun.DB
}

func (d *analyticsDeps) Close() {
	if err := d.db.Close(); err != nil {
		log.Warn().Err(err).Msg("close warehouse failed")
	}
}

// buildAnalytics opens the warehouse and, when withInsights is set, the
// completion provider for natural-language questions.
func buildAnalytics(ctx context.Context, c appconfig.Config, withInsights bool) (*analyticsDeps, error) {
	db, err := openWarehouse(ctx, c)
	if err != nil {
		return nil, err
	}
	deps := &analyticsDeps{loader: newLoader(c, db), db: db}

	if withInsights {
		llm, err := newLLM(c, db)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.insights = orchestrator.NewInsightsPipeline(completion.NewGenerator(llm))
	}
	return deps, nil
}
