package ranking

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
)

// Reranker applies contextual boosts to fused results. The boost table can be
// swapped at runtime with SetBoosts.
type Reranker struct {
	mu          sync.RWMutex
	boosts      config.RankingConfig
	multipliers []Multiplier
	now         func() time.Time
	logger      *zap.Logger
}

// Option configures a Reranker.
type Option func(*Reranker)

// WithClock sets the time source used for the recency boost.
func WithClock(now func() time.Time) Option {
	return func(r *Reranker) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Reranker) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewReranker creates a reranker. Zero boosts take their defaults.
func NewReranker(boosts config.RankingConfig, opts ...Option) *Reranker {
	r := &Reranker{now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	r.setBoosts(boosts)
	return r
}

// SetBoosts replaces the boost table. Safe for concurrent use with Rank.
func (r *Reranker) SetBoosts(boosts config.RankingConfig) {
	r.setBoosts(boosts)
	r.logger.Info("ranking boosts updated", zap.Any("boosts", r.Boosts()))
}

func (r *Reranker) setBoosts(boosts config.RankingConfig) {
	boosts = withDefaults(boosts)
	r.mu.Lock()
	r.boosts = boosts
	r.multipliers = DefaultMultipliers(boosts)
	r.mu.Unlock()
}

// Boosts returns the boost table in effect.
func (r *Reranker) Boosts() config.RankingConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.boosts
}

// Rank returns a reordered copy of results with CombinedScore multiplied by
// every applicable boost. Equal scores keep their input order; results is not
// modified. Recency applies even with an empty context. The query does not
// affect boosts.
func (r *Reranker) Rank(results []models.HybridResult, query string, rc models.RankContext) []models.HybridResult {
	out := make([]models.HybridResult, len(results))
	copy(out, results)

	r.mu.RLock()
	multipliers := r.multipliers
	r.mu.RUnlock()

	now := r.now()
	for i := range out {
		ctx := &ScoringContext{Result: &out[i], Context: &rc, Now: now}
		out[i].CombinedScore = ApplyMultipliers(ctx, out[i].CombinedScore, multipliers)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CombinedScore > out[j].CombinedScore })
	r.logger.Debug("reranked results", zap.String("query", query), zap.Int("count", len(out)))
	return out
}
