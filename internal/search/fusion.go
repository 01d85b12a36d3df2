// Package search provides hybrid (lexical + vector) search and result fusion.
package search

import (
	"sort"

	"github.com/hyperjump/kotae/internal/models"
)

// NormalizeWeights clamps negative weights to 0 and rescales the pair to sum
// to 1. A non-positive sum yields 0.5/0.5.
func NormalizeWeights(vectorWeight, textWeight float64) (float64, float64) {
	vectorWeight = max(vectorWeight, 0)
	textWeight = max(textWeight, 0)
	sum := vectorWeight + textWeight
	if sum <= 0 {
		return 0.5, 0.5
	}
	return vectorWeight / sum, textWeight / sum
}

// NormalizeLexicalScores divides each score by the batch maximum. When the
// maximum is not positive every score is 0. The first occurrence of an id wins.
func NormalizeLexicalScores(results []models.LexicalResult) map[string]float64 {
	scores := make([]float64, len(results))
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i], scores[i] = r.ID, r.Score
	}
	return normalizeByMax(ids, scores)
}

// NormalizeVectorScores is NormalizeLexicalScores for the vector batch.
func NormalizeVectorScores(results []models.VectorResult) map[string]float64 {
	scores := make([]float64, len(results))
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i], scores[i] = r.ID, r.Score
	}
	return normalizeByMax(ids, scores)
}

func normalizeByMax(ids []string, scores []float64) map[string]float64 {
	normalized := make(map[string]float64, len(ids))
	if len(ids) == 0 {
		return normalized
	}
	maxScore := scores[0]
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}
	for i, id := range ids {
		if _, seen := normalized[id]; seen {
			continue
		}
		if maxScore > 0 {
			normalized[id] = scores[i] / maxScore
		} else {
			normalized[id] = 0
		}
	}
	return normalized
}

// Fuse merges both batches by id into hybrid results sorted by descending
// combined score. Weights are normalized first. Ties keep first-seen order:
// the lexical batch order, then vector-only ids in vector batch order.
// Vector-only hits take their title from metadata and have no content.
// opts.Limit <= 0 disables truncation.
func Fuse(lexical []models.LexicalResult, vector []models.VectorResult, opts models.HybridSearchOptions) []models.HybridResult {
	wv, wt := NormalizeWeights(opts.VectorWeight, opts.TextWeight)
	textScores := NormalizeLexicalScores(lexical)
	vectorScores := NormalizeVectorScores(vector)

	byID := make(map[string]int, len(lexical)+len(vector))
	results := make([]models.HybridResult, 0, len(lexical)+len(vector))
	for _, r := range lexical {
		if _, ok := byID[r.ID]; ok {
			continue
		}
		byID[r.ID] = len(results)
		results = append(results, models.HybridResult{
			ID:         r.ID,
			Title:      r.Title,
			Content:    r.Content,
			Type:       r.Type,
			TextScore:  textScores[r.ID],
			Highlights: r.Highlights,
			Metadata:   r.Metadata,
			CreatedAt:  r.CreatedAt,
		})
	}
	for _, r := range vector {
		if i, ok := byID[r.ID]; ok {
			results[i].VectorScore = vectorScores[r.ID]
			continue
		}
		byID[r.ID] = len(results)
		results = append(results, models.HybridResult{
			ID:          r.ID,
			Title:       r.Metadata.Title,
			Type:        r.Metadata.Type,
			VectorScore: vectorScores[r.ID],
			Metadata:    r.Metadata,
			CreatedAt:   r.Metadata.CreatedAt,
		})
	}

	for i := range results {
		results[i].CombinedScore = wv*results[i].VectorScore + wt*results[i].TextScore
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].CombinedScore > results[j].CombinedScore })

	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results
}

// Paginate returns results[offset:offset+limit], clamped to the slice bounds.
func Paginate(results []models.HybridResult, offset, limit int) []models.HybridResult {
	start := min(max(offset, 0), len(results))
	end := len(results)
	if limit > 0 {
		end = min(start+limit, len(results))
	}
	return results[start:end]
}
