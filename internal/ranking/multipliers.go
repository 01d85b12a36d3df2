package ranking

import (
	"slices"
	"time"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
)

// ScopeMultiplier boosts results belonging to the caller's preferred scope.
type ScopeMultiplier struct{ boost float64 }

func (m ScopeMultiplier) Name() string { return "scope" }

func (m ScopeMultiplier) Multiply(ctx *ScoringContext, score float64) float64 {
	if ctx.Context.PreferredScopeID == "" || ctx.Result.Metadata.ScopeID != ctx.Context.PreferredScopeID {
		return score
	}
	return score * m.boost
}

// CategoryMultiplier boosts results whose category the caller looked at recently.
type CategoryMultiplier struct{ boost float64 }

func (m CategoryMultiplier) Name() string { return "category" }

func (m CategoryMultiplier) Multiply(ctx *ScoringContext, score float64) float64 {
	category := ctx.Result.Metadata.Category
	if category == "" || !slices.Contains(ctx.Context.RecentCategories, category) {
		return score
	}
	return score * m.boost
}

// TypeMultiplier boosts results of a preferred record type.
type TypeMultiplier struct{ boost float64 }

func (m TypeMultiplier) Name() string { return "type" }

func (m TypeMultiplier) Multiply(ctx *ScoringContext, score float64) float64 {
	if !slices.Contains(ctx.Context.PreferredTypes, resultType(ctx)) {
		return score
	}
	return score * m.boost
}

// RecencyMultiplier boosts results created within the recency window.
type RecencyMultiplier struct {
	boost  float64
	window time.Duration
}

func (m RecencyMultiplier) Name() string { return "recency" }

func (m RecencyMultiplier) Multiply(ctx *ScoringContext, score float64) float64 {
	created := ctx.Result.Metadata.CreatedAt
	if created.IsZero() {
		created = ctx.Result.CreatedAt
	}
	if created.IsZero() || ctx.Now.Sub(created) >= m.window {
		return score
	}
	return score * m.boost
}

func resultType(ctx *ScoringContext) (t models.RecordType) {
	if t = ctx.Result.Metadata.Type; t == "" {
		t = ctx.Result.Type
	}
	return t
}

// DefaultMultipliers returns the multiplier chain for a boost table.
func DefaultMultipliers(b config.RankingConfig) []Multiplier {
	return []Multiplier{
		ScopeMultiplier{boost: b.ScopeBoost},
		CategoryMultiplier{boost: b.CategoryBoost},
		TypeMultiplier{boost: b.TypeBoost},
		RecencyMultiplier{boost: b.RecencyBoost, window: b.RecencyWindow},
	}
}

// ApplyMultipliers applies a list of multipliers to a base score.
func ApplyMultipliers(ctx *ScoringContext, score float64, multipliers []Multiplier) float64 {
	for _, m := range multipliers {
		score = m.Multiply(ctx, score)
	}
	return score
}

// Breakdown returns the factor each multiplier contributed for ctx.
func Breakdown(ctx *ScoringContext, multipliers []Multiplier) map[string]float64 {
	out := make(map[string]float64, len(multipliers))
	for _, m := range multipliers {
		out[m.Name()] = m.Multiply(ctx, 1.0)
	}
	return out
}
