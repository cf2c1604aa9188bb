// Package appconfig manages loading and interpreting spoke's configuration.
//
// Values come from (lowest to highest precedence) built-in defaults, an
// optional YAML/JSON config file, environment variables and bound flags.
// Environment variable names are the config keys upper-cased with dots
// replaced by underscores, so openai.api_key is read from OPENAI_API_KEY and
// milvus.address from MILVUS_ADDRESS.
package appconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigPath is where spoke looks for a config file when none is given.
	DefaultConfigPath = "config/spoke.yaml"
	// defaultCacheTTL matches the analytics dashboard's ten minute refresh window.
	defaultCacheTTL = 10 * time.Minute
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Search backends.
const (
	BackendMilvus  = "milvus"
	BackendChromem = "chromem"
)

// Completion providers.
const (
	ProviderOpenAI    = "openai"
	ProviderLangChain = "langchain"
	ProviderWarehouse = "warehouse"
)

// Warehouse drivers.
const (
	DriverPG       = "pgdriver"
	DriverPostgres = "postgres"
)

// Config represents the top-level application configuration.
type Config struct {
	Debug      bool             `mapstructure:"debug"`
	LogFile    string           `mapstructure:"log_file"`
	Search     SearchConfig     `mapstructure:"search"`
	Milvus     MilvusConfig     `mapstructure:"milvus"`
	Chromem    ChromemConfig    `mapstructure:"chromem"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Completion CompletionConfig `mapstructure:"completion"`
	Warehouse  WarehouseConfig  `mapstructure:"warehouse"`
}

// SearchConfig selects the policy search backend.
type SearchConfig struct {
	Backend string `mapstructure:"backend"`
	TopK    int    `mapstructure:"top_k"`
}

// MilvusConfig locates the Milvus collection holding the policy chunks.
type MilvusConfig struct {
	Address    string `mapstructure:"address"`
	Collection string `mapstructure:"collection"`
}

// ChromemConfig locates the on-disk chromem-go database.
type ChromemConfig struct {
	Path       string `mapstructure:"path"`
	Collection string `mapstructure:"collection"`
}

// EmbeddingConfig names the embedding model used for both indexing and search.
type EmbeddingConfig struct {
	Model     string `mapstructure:"model"`
	Dimension int    `mapstructure:"dimension"`
}

// OpenAIConfig holds credentials for any OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// CompletionConfig selects how completions are produced.
type CompletionConfig struct {
	Provider    string  `mapstructure:"provider"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	// SQLFunction is the in-warehouse completion function used by the
	// warehouse provider, called as SELECT fn(model, prompt).
	SQLFunction string `mapstructure:"sql_function"`
}

// WarehouseConfig points at the trip-history warehouse.
type WarehouseConfig struct {
	Driver       string        `mapstructure:"driver"`
	DSN          string        `mapstructure:"dsn"`
	Password     string        `mapstructure:"password"`
	TripsTable   string        `mapstructure:"trips_table"`
	WeatherTable string        `mapstructure:"weather_table"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

// Default returns a configuration with every default applied.
func Default() Config {
	return Config{
		LogFile: "spoke.log",
		Search: SearchConfig{
			Backend: BackendMilvus,
			TopK:    4,
		},
		Milvus: MilvusConfig{
			Address:    "localhost:19530",
			Collection: "citibike_terms",
		},
		Chromem: ChromemConfig{
			Path:       "data/chromem",
			Collection: "citibike_terms",
		},
		Embedding: EmbeddingConfig{
			Model:     "text-embedding-3-large",
			Dimension: 3072,
		},
		Completion: CompletionConfig{
			Provider:    ProviderOpenAI,
			MaxTokens:   2000,
			SQLFunction: "ai_complete",
		},
		Warehouse: WarehouseConfig{
			Driver:       DriverPG,
			DSN:          "postgres://postgres@localhost:5432/citibike?sslmode=disable",
			TripsTable:   "trips",
			WeatherTable: "weather_observations",
			CacheTTL:     defaultCacheTTL,
		},
	}
}

// SetDefaults registers every default on v so that environment variables
// and config files can override individual keys.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("debug", d.Debug)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("search.backend", d.Search.Backend)
	v.SetDefault("search.top_k", d.Search.TopK)
	v.SetDefault("milvus.address", d.Milvus.Address)
	v.SetDefault("milvus.collection", d.Milvus.Collection)
	v.SetDefault("chromem.path", d.Chromem.Path)
	v.SetDefault("chromem.collection", d.Chromem.Collection)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimension", d.Embedding.Dimension)
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("completion.provider", d.Completion.Provider)
	v.SetDefault("completion.temperature", d.Completion.Temperature)
	v.SetDefault("completion.max_tokens", d.Completion.MaxTokens)
	v.SetDefault("completion.sql_function", d.Completion.SQLFunction)
	v.SetDefault("warehouse.driver", d.Warehouse.Driver)
	v.SetDefault("warehouse.dsn", d.Warehouse.DSN)
	v.SetDefault("warehouse.password", "")
	v.SetDefault("warehouse.trips_table", d.Warehouse.TripsTable)
	v.SetDefault("warehouse.weather_table", d.Warehouse.WeatherTable)
	v.SetDefault("warehouse.cache_ttl", d.Warehouse.CacheTTL)
}

// Load reads configuration into a Config. A missing file at path is only an
// error when required is set; the defaults and environment still apply.
func Load(v *viper.Viper, path string, required bool) (Config, error) {
	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = DefaultConfigPath
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
		}
	} else if required {
		return Config{}, fmt.Errorf("no configuration file found at %q", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unknown backends, providers and drivers.
func (c Config) Validate() error {
	switch c.Search.Backend {
	case BackendMilvus, BackendChromem:
	default:
		return fmt.Errorf("%w: unknown search backend %q", ErrInvalidConfig, c.Search.Backend)
	}
	if c.Search.TopK <= 0 {
		return fmt.Errorf("%w: search.top_k must be positive, got %d", ErrInvalidConfig, c.Search.TopK)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("%w: embedding.dimension must be positive, got %d", ErrInvalidConfig, c.Embedding.Dimension)
	}
	switch c.Completion.Provider {
	case ProviderOpenAI, ProviderLangChain, ProviderWarehouse:
	default:
		return fmt.Errorf("%w: unknown completion provider %q", ErrInvalidConfig, c.Completion.Provider)
	}
	switch c.Warehouse.Driver {
	case DriverPG, DriverPostgres:
	default:
		return fmt.Errorf("%w: unknown warehouse driver %q", ErrInvalidConfig, c.Warehouse.Driver)
	}
	return nil
}

// CacheTTL returns the analytics cache window, falling back to the default.
func (c Config) CacheTTL() time.Duration {
	if c.Warehouse.CacheTTL <= 0 {
		return defaultCacheTTL
	}
	return c.Warehouse.CacheTTL
}
