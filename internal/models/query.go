package models

import (
	"errors"
	"strings"
)

// ErrEmptyQuery is returned when a search query is blank.
var ErrEmptyQuery = errors.New("query cannot be empty")

const (
	defaultLimit = 10
	maxLimit     = 100
)

// HybridSearchOptions controls one hybrid search. Weights are renormalized to
// sum to 1 before use. Both zero selects search.default_vector_weight and
// search.default_text_weight, which default to 0.5/0.5.
type HybridSearchOptions struct {
	VectorWeight float64  `json:"vector_weight"`
	TextWeight   float64  `json:"text_weight"`
	Limit        int      `json:"limit,omitempty"`
	Offset       int      `json:"offset,omitempty"`
	Filters      *Filters `json:"filters,omitempty"`
}

// RankContext carries transient caller context for the contextual reranker.
type RankContext struct {
	PreferredScopeID string       `json:"preferred_scope_id,omitempty"`
	RecentCategories []string     `json:"recent_categories,omitempty"`
	PreferredTypes   []RecordType `json:"preferred_types,omitempty"`
}

// IsZero reports whether c carries no context at all.
func (c *RankContext) IsZero() bool {
	return c == nil || (c.PreferredScopeID == "" && len(c.RecentCategories) == 0 && len(c.PreferredTypes) == 0)
}

// SearchRequest is the HTTP/CLI shape of a hybrid search.
type SearchRequest struct {
	Query string `json:"query"`
	HybridSearchOptions
	Context *RankContext `json:"context,omitempty"`
}

// RankRequest is the HTTP shape of a standalone rerank call.
type RankRequest struct {
	Query   string         `json:"query"`
	Results []HybridResult `json:"results"`
	Context RankContext    `json:"context"`
}

// Validate trims the query and bounds pagination. maxLimitOverride caps Limit when > 0.
func (r *SearchRequest) Validate(defaultLimitOverride, maxLimitOverride int) error {
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		return ErrEmptyQuery
	}
	def, ceiling := defaultLimit, maxLimit
	if defaultLimitOverride > 0 {
		def = defaultLimitOverride
	}
	if maxLimitOverride > 0 {
		ceiling = maxLimitOverride
	}
	if r.Limit <= 0 {
		r.Limit = def
	}
	if r.Limit > ceiling {
		r.Limit = ceiling
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
	return nil
}
