// Package ranking reorders fused search results using caller context
// (preferred scope, recent categories, preferred record types, recency).
package ranking

import (
	"time"

	"github.com/hyperjump/kotae/internal/models"
)

// ScoringContext is everything a multiplier may look at for one result.
type ScoringContext struct {
	Result  *models.HybridResult
	Context *models.RankContext
	Now     time.Time
}

// Multiplier adjusts a score for one aspect of the caller context.
// A multiplier that does not apply returns the score unchanged.
type Multiplier interface {
	Name() string
	Multiply(ctx *ScoringContext, score float64) float64
}
