package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/kotae/data/db/records.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/kotae/data/indices/bleve"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = "/usr/local/var/kotae/data/indices/vectors.json"
	}
	if cfg.Storage.VectorBackend == "" {
		cfg.Storage.VectorBackend = "memory"
	}
	if cfg.Storage.PersistInterval == 0 {
		cfg.Storage.PersistInterval = 5 * time.Minute
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "mock"
	}
	if cfg.Embedding.Model == "" && cfg.Embedding.Provider == "openai" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Dimensions == 0 {
		if cfg.Embedding.Provider == "openai" {
			cfg.Embedding.Dimensions = 1536
		} else {
			cfg.Embedding.Dimensions = 384
		}
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 30 * time.Second
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.TopKCandidates == 0 {
		cfg.Search.TopKCandidates = 100
	}
	if cfg.Search.DefaultVectorWeight == 0 && cfg.Search.DefaultTextWeight == 0 {
		cfg.Search.DefaultVectorWeight = 0.5
		cfg.Search.DefaultTextWeight = 0.5
	}
	if cfg.Search.HighlightMaxLen == 0 {
		cfg.Search.HighlightMaxLen = 200
	}
	if cfg.Search.TitleBoost == 0 {
		cfg.Search.TitleBoost = 2.0
	}
	if cfg.Ranking.ScopeBoost == 0 {
		cfg.Ranking.ScopeBoost = 1.2
	}
	if cfg.Ranking.CategoryBoost == 0 {
		cfg.Ranking.CategoryBoost = 1.1
	}
	if cfg.Ranking.TypeBoost == 0 {
		cfg.Ranking.TypeBoost = 1.15
	}
	if cfg.Ranking.RecencyBoost == 0 {
		cfg.Ranking.RecencyBoost = 1.05
	}
	if cfg.Ranking.RecencyWindow == 0 {
		cfg.Ranking.RecencyWindow = 30 * 24 * time.Hour
	}
	if cfg.Reindex.Concurrency == 0 {
		cfg.Reindex.Concurrency = 4
	}
	if cfg.Reindex.PageSize == 0 {
		cfg.Reindex.PageSize = 100
	}
}
