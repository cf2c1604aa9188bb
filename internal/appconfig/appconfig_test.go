package appconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Search.Backend != BackendMilvus {
		t.Errorf("expected milvus backend, got %s", cfg.Search.Backend)
	}
	if cfg.Search.TopK != 4 {
		t.Errorf("expected TopK=4, got %d", cfg.Search.TopK)
	}
	if cfg.Embedding.Dimension != 3072 {
		t.Errorf("expected dimension 3072, got %d", cfg.Embedding.Dimension)
	}
	if cfg.CacheTTL() != 10*time.Minute {
		t.Errorf("expected 10m cache TTL, got %v", cfg.CacheTTL())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoad_MissingOptionalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	cfg, err := Load(viper.New(), path, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Milvus.Collection != "citibike_terms" {
		t.Errorf("expected default collection, got %s", cfg.Milvus.Collection)
	}
}

func TestLoad_MissingRequiredFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := Load(viper.New(), path, true); err == nil {
		t.Fatal("expected error for missing required config file")
	}
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spoke.yaml")
	content := `
search:
  backend: chromem
  top_k: 6
chromem:
  path: /tmp/spoke-chromem
completion:
  provider: langchain
warehouse:
  cache_ttl: 90s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MILVUS_ADDRESS", "milvus.internal:19530")

	cfg, err := Load(viper.New(), path, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Search.Backend != BackendChromem {
		t.Errorf("expected chromem backend, got %s", cfg.Search.Backend)
	}
	if cfg.Search.TopK != 6 {
		t.Errorf("expected TopK=6, got %d", cfg.Search.TopK)
	}
	if cfg.Chromem.Path != "/tmp/spoke-chromem" {
		t.Errorf("unexpected chromem path %s", cfg.Chromem.Path)
	}
	if cfg.Completion.Provider != ProviderLangChain {
		t.Errorf("expected langchain provider, got %s", cfg.Completion.Provider)
	}
	if cfg.Warehouse.CacheTTL != 90*time.Second {
		t.Errorf("expected 90s cache TTL, got %v", cfg.Warehouse.CacheTTL)
	}
	if cfg.Milvus.Address != "milvus.internal:19530" {
		t.Errorf("expected env override for milvus address, got %s", cfg.Milvus.Address)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown backend", mutate: func(c *Config) { c.Search.Backend = "elastic" }},
		{name: "zero top k", mutate: func(c *Config) { c.Search.TopK = 0 }},
		{name: "zero dimension", mutate: func(c *Config) { c.Embedding.Dimension = 0 }},
		{name: "unknown provider", mutate: func(c *Config) { c.Completion.Provider = "bedrock" }},
		{name: "unknown driver", mutate: func(c *Config) { c.Warehouse.Driver = "mysql" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
