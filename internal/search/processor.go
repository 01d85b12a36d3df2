package search

import (
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
)

// ProcessQuery validates the request and applies configured defaults:
// pagination bounds, and the default weights when the caller set neither.
func ProcessQuery(req *models.SearchRequest, cfg *config.SearchConfig) error {
	if err := req.Validate(cfg.DefaultLimit, cfg.MaxLimit); err != nil {
		return err
	}
	if req.VectorWeight == 0 && req.TextWeight == 0 {
		req.VectorWeight, req.TextWeight = cfg.DefaultVectorWeight, cfg.DefaultTextWeight
	}
	req.VectorWeight, req.TextWeight = NormalizeWeights(req.VectorWeight, req.TextWeight)
	return nil
}
