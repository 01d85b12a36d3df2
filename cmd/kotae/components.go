package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/lexical"
	"github.com/hyperjump/kotae/internal/ranking"
	"github.com/hyperjump/kotae/internal/search"
	"github.com/hyperjump/kotae/internal/server"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
	"github.com/hyperjump/kotae/pkg/utils"
)

// Components holds initialized services.
type Components struct {
	Config     *config.Config
	Records    *storage.SQLiteStorage
	Embedder   *embedding.Client
	Vectors    vector.Store
	Lexical    *lexical.BleveIndex
	Reranker   *ranking.Reranker
	Vectorizer *indexer.Vectorizer
	Indexer    *indexer.Indexer
	Engine     *search.Engine
}

// Deps returns the components as HTTP server dependencies.
func (c *Components) Deps() server.Deps {
	return server.Deps{
		Engine:     c.Engine,
		Reranker:   c.Reranker,
		Indexer:    c.Indexer,
		Vectorizer: c.Vectorizer,
		Records:    c.Records,
		Lexical:    c.Lexical,
		Vectors:    c.Vectors,
		Config:     c.Config,
	}
}

// Close persists the vector store and releases everything.
func (c *Components) Close(ctx context.Context) error {
	var errs []error
	if c.Vectors != nil {
		errs = append(errs, c.Vectors.Persist(ctx))
	}
	return errors.Join(append(errs, c.release())...)
}

// release closes whatever was opened without writing anything. Components
// that failed to open are skipped.
func (c *Components) release() error {
	var errs []error
	if c.Vectors != nil {
		errs = append(errs, c.Vectors.Close())
	}
	if c.Lexical != nil {
		errs = append(errs, c.Lexical.Close())
	}
	if c.Embedder != nil {
		errs = append(errs, c.Embedder.Close())
	}
	if c.Records != nil {
		errs = append(errs, c.Records.Close())
	}
	return errors.Join(errs...)
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *Components, err error) {
	logger = utils.OrNop(logger)
	c := &Components{Config: cfg}
	defer func() {
		if err != nil {
			_ = c.release()
		}
	}()

	for _, p := range []string{cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath, cfg.Storage.VectorIndexPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	if c.Records, err = storage.NewSQLiteStorage(cfg.Storage.DatabasePath); err != nil {
		return nil, fmt.Errorf("failed to initialize record store: %w", err)
	}
	if c.Embedder, err = embedding.New(cfg.Embedding, logger); err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	vectors, err := vector.New(cfg.Storage, cfg.Embedding.Dimensions, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	// The snapshot on disk stays untouched when it cannot be loaded.
	if err = vectors.Load(ctx); err != nil {
		_ = vectors.Close()
		return nil, fmt.Errorf("failed to load vector store: %w", err)
	}
	c.Vectors = vectors
	logger.Info("vector store ready",
		zap.String("backend", cfg.Storage.VectorBackend),
		zap.Int("vectors", c.Vectors.Stats().TotalVectors))

	if c.Lexical, err = lexical.NewBleveIndex(cfg.Storage.BleveIndexPath,
		lexical.WithLogger(logger),
		lexical.WithHighlightMaxLen(cfg.Search.HighlightMaxLen),
		lexical.WithTitleBoost(cfg.Search.TitleBoost),
		lexical.WithFuzziness(cfg.Search.Fuzziness),
	); err != nil {
		return nil, fmt.Errorf("failed to initialize lexical index: %w", err)
	}

	c.Reranker = ranking.NewReranker(cfg.Ranking, ranking.WithLogger(logger))
	c.Vectorizer = indexer.NewVectorizer(c.Records, c.Embedder, c.Vectors,
		indexer.WithVectorizerLogger(logger),
		indexer.WithConcurrency(cfg.Reindex.Concurrency),
		indexer.WithPageSize(cfg.Reindex.PageSize),
	)
	c.Indexer = indexer.NewIndexer(c.Records, c.Lexical, c.Vectorizer, indexer.WithLogger(logger))
	c.Engine = search.NewEngine(c.Lexical, c.Embedder, c.Vectors, &cfg.Search,
		search.WithLogger(logger),
		search.WithRanker(c.Reranker),
	)
	return c, nil
}

// openDirect loads config and opens the storage in-process.
func openDirect(ctx context.Context, opts *globalOptions) (*Components, error) {
	cfg, _, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	logger, err := utils.NewLogger(cfg.Debug || opts.debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return initializeComponents(ctx, cfg, logger)
}
