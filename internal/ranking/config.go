package ranking

import (
	"time"

	"github.com/hyperjump/kotae/internal/config"
)

// DefaultBoosts returns the default boost table.
func DefaultBoosts() config.RankingConfig {
	return config.RankingConfig{
		ScopeBoost:    1.2,
		CategoryBoost: 1.1,
		TypeBoost:     1.15,
		RecencyBoost:  1.05,
		RecencyWindow: 30 * 24 * time.Hour,
	}
}

// withDefaults fills zero values in b from DefaultBoosts.
func withDefaults(b config.RankingConfig) config.RankingConfig {
	d := DefaultBoosts()
	if b.ScopeBoost == 0 {
		b.ScopeBoost = d.ScopeBoost
	}
	if b.CategoryBoost == 0 {
		b.CategoryBoost = d.CategoryBoost
	}
	if b.TypeBoost == 0 {
		b.TypeBoost = d.TypeBoost
	}
	if b.RecencyBoost == 0 {
		b.RecencyBoost = d.RecencyBoost
	}
	if b.RecencyWindow == 0 {
		b.RecencyWindow = d.RecencyWindow
	}
	return b
}
