package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if !filepath.IsAbs(cfg.Storage.DatabasePath) {
		t.Errorf("database_path should be absolute, got %s", cfg.Storage.DatabasePath)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_durationsAndRanking(t *testing.T) {
	path := writeConfig(t, `
storage:
  persist_interval: 30s
embedding:
  provider: mock
  dimensions: 8
  timeout: 2s
search:
  fuzziness: 1
  title_boost: 3
ranking:
  scope_boost: 1.5
  recency_window: 48h
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.PersistInterval != 30*time.Second {
		t.Errorf("persist_interval = %v", cfg.Storage.PersistInterval)
	}
	if cfg.Embedding.Timeout != 2*time.Second || cfg.Embedding.Dimensions != 8 {
		t.Errorf("embedding = %+v", cfg.Embedding)
	}
	if cfg.Ranking.ScopeBoost != 1.5 || cfg.Ranking.CategoryBoost != 1.1 {
		t.Errorf("ranking = %+v", cfg.Ranking)
	}
	if cfg.Ranking.RecencyWindow != 48*time.Hour {
		t.Errorf("recency_window = %v", cfg.Ranking.RecencyWindow)
	}
	if cfg.Search.Fuzziness != 1 || cfg.Search.TitleBoost != 3 {
		t.Errorf("search lexical tuning = %+v", cfg.Search)
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: "./data/db/records.db"
  vector_index_path: "./data/vectors.json"
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "records.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	wantVec := filepath.Join(dir, "data", "vectors.json")
	if cfg.Storage.VectorIndexPath != wantVec {
		t.Errorf("vector_index_path = %s, want %s", cfg.Storage.VectorIndexPath, wantVec)
	}
}

func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad backend", "storage:\n  vector_backend: faiss\n"},
		{"bad provider", "embedding:\n  provider: cohere\n"},
		{"negative weight", "search:\n  default_vector_weight: -1\n"},
		{"fuzziness too high", "search:\n  fuzziness: 3\n"},
		{"not yaml", "server: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("default server: got %+v", cfg.Server)
	}
	if cfg.Search.DefaultLimit != 10 || cfg.Search.MaxLimit != 100 {
		t.Errorf("default limits: got %+v", cfg.Search)
	}
	if cfg.Search.DefaultVectorWeight != 0.5 || cfg.Search.DefaultTextWeight != 0.5 {
		t.Errorf("default weights: got %v/%v", cfg.Search.DefaultVectorWeight, cfg.Search.DefaultTextWeight)
	}
	if cfg.Search.TitleBoost != 2.0 || cfg.Search.Fuzziness != 0 {
		t.Errorf("default lexical tuning: got boost %v fuzziness %d", cfg.Search.TitleBoost, cfg.Search.Fuzziness)
	}
	if cfg.Storage.VectorBackend != "memory" {
		t.Errorf("default backend: got %s", cfg.Storage.VectorBackend)
	}
	if cfg.Embedding.Provider != "mock" || cfg.Embedding.Dimensions != 384 {
		t.Errorf("default embedding: got %+v", cfg.Embedding)
	}
	want := RankingConfig{ScopeBoost: 1.2, CategoryBoost: 1.1, TypeBoost: 1.15, RecencyBoost: 1.05, RecencyWindow: 30 * 24 * time.Hour}
	if cfg.Ranking != want {
		t.Errorf("default ranking: got %+v, want %+v", cfg.Ranking, want)
	}
	if cfg.Reindex.Concurrency != 4 {
		t.Errorf("default reindex concurrency: got %d", cfg.Reindex.Concurrency)
	}
}

func TestApplyDefaults_openAIDimensions(t *testing.T) {
	cfg := &Config{Embedding: EmbeddingConfig{Provider: "openai"}}
	ApplyDefaults(cfg)
	if cfg.Embedding.Dimensions != 1536 || cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("openai defaults: got %+v", cfg.Embedding)
	}
}

func TestApplyDefaults_keepsOneSidedWeights(t *testing.T) {
	cfg := &Config{Search: SearchConfig{DefaultTextWeight: 1}}
	ApplyDefaults(cfg)
	if cfg.Search.DefaultVectorWeight != 0 || cfg.Search.DefaultTextWeight != 1 {
		t.Errorf("weights overwritten: got %+v", cfg.Search)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db", PersistInterval: time.Minute},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Storage.PersistInterval != time.Minute {
		t.Errorf("loaded persist_interval: got %v", loaded.Storage.PersistInterval)
	}
}
