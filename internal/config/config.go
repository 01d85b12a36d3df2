// Package config provides configuration loading and structs for the kotae server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Reindex   ReindexConfig   `yaml:"reindex"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// StorageConfig holds paths for the record database and the two indices.
type StorageConfig struct {
	DatabasePath    string `yaml:"database_path"`
	BleveIndexPath  string `yaml:"bleve_index_path"`
	VectorIndexPath string `yaml:"vector_index_path"`
	// VectorBackend is "memory" (default) or "chromem".
	VectorBackend   string        `yaml:"vector_backend"`
	PersistInterval time.Duration `yaml:"persist_interval"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	// Provider is one of "openai", "onnx" or "mock".
	Provider          string        `yaml:"provider"`
	Model             string        `yaml:"model"`
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	ModelPath         string        `yaml:"model_path"`
	Dimensions        int           `yaml:"dimensions"`
	MaxTokens         int           `yaml:"max_tokens"`
	CacheSize         int           `yaml:"cache_size"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// SearchConfig holds hybrid search settings.
type SearchConfig struct {
	DefaultLimit        int     `yaml:"default_limit"`
	MaxLimit            int     `yaml:"max_limit"`
	TopKCandidates      int     `yaml:"top_k_candidates"`
	DefaultVectorWeight float64 `yaml:"default_vector_weight"`
	DefaultTextWeight   float64 `yaml:"default_text_weight"`
	HighlightMaxLen     int     `yaml:"highlight_max_len"`
	// Fuzziness is the edit distance (0, 1 or 2) allowed per query term on the
	// lexical side. Zero means exact terms.
	Fuzziness int `yaml:"fuzziness"`
	// TitleBoost weights title matches over content matches on the lexical side.
	TitleBoost float64 `yaml:"title_boost"`
}

// RankingConfig holds the contextual reranker's boost table.
type RankingConfig struct {
	ScopeBoost    float64       `yaml:"scope_boost" json:"scope_boost"`
	CategoryBoost float64       `yaml:"category_boost" json:"category_boost"`
	TypeBoost     float64       `yaml:"type_boost" json:"type_boost"`
	RecencyBoost  float64       `yaml:"recency_boost" json:"recency_boost"`
	RecencyWindow time.Duration `yaml:"recency_window" json:"recency_window_ns"`
}

// ReindexConfig bounds full reindex runs.
type ReindexConfig struct {
	Concurrency int `yaml:"concurrency"`
	PageSize    int `yaml:"page_size"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	cfg.Storage.VectorIndexPath = expandPath(cfg.Storage.VectorIndexPath, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv("KOTAE_EMBEDDING_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values ApplyDefaults cannot repair.
func (c *Config) Validate() error {
	switch c.Storage.VectorBackend {
	case "memory", "chromem":
	default:
		return fmt.Errorf("invalid storage.vector_backend %q", c.Storage.VectorBackend)
	}
	switch c.Embedding.Provider {
	case "openai", "onnx", "mock":
	default:
		return fmt.Errorf("invalid embedding.provider %q", c.Embedding.Provider)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Search.DefaultVectorWeight < 0 || c.Search.DefaultTextWeight < 0 {
		return fmt.Errorf("search weights must not be negative")
	}
	if c.Search.Fuzziness < 0 || c.Search.Fuzziness > 2 {
		return fmt.Errorf("search.fuzziness must be 0, 1 or 2, got %d", c.Search.Fuzziness)
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
