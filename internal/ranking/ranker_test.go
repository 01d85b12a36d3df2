package ranking

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func result(id string, typ models.RecordType, score float64) models.HybridResult {
	return models.HybridResult{
		ID:            id,
		Type:          typ,
		CombinedScore: score,
		Metadata:      models.VectorMetadata{Type: typ, ScopeID: "s1", CreatedAt: fixedNow.AddDate(-1, 0, 0)},
	}
}

func TestRank_PreferredTypeBoost(t *testing.T) {
	r := NewReranker(config.RankingConfig{}, WithClock(clock))
	in := []models.HybridResult{
		result("faq-1", models.RecordTypeFAQ, 0.5),
		result("inq-1", models.RecordTypeInquiry, 0.5),
	}

	out := r.Rank(in, "printer", models.RankContext{PreferredTypes: []models.RecordType{models.RecordTypeInquiry}})

	require.Len(t, out, 2)
	assert.Equal(t, "inq-1", out[0].ID)
	assert.InDelta(t, 0.575, out[0].CombinedScore, 1e-9)
	assert.Equal(t, "faq-1", out[1].ID)
	assert.InDelta(t, 0.5, out[1].CombinedScore, 1e-9)

	// input untouched
	assert.Equal(t, "faq-1", in[0].ID)
	assert.InDelta(t, 0.5, in[1].CombinedScore, 1e-9)
}

func TestRank_BoostsCompose(t *testing.T) {
	r := NewReranker(config.RankingConfig{}, WithClock(clock))
	hit := result("a", models.RecordTypeInquiry, 1.0)
	hit.Metadata.Category = "billing"
	hit.Metadata.CreatedAt = fixedNow.Add(-time.Hour)

	out := r.Rank([]models.HybridResult{hit}, "", models.RankContext{
		PreferredScopeID: "s1",
		RecentCategories: []string{"billing"},
		PreferredTypes:   []models.RecordType{models.RecordTypeInquiry},
	})

	assert.InDelta(t, 1.2*1.1*1.15*1.05, out[0].CombinedScore, 1e-9)
}

func TestRank_Individual(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.HybridResult)
		rc     models.RankContext
		want   float64
	}{
		{"no context", func(*models.HybridResult) {}, models.RankContext{}, 1.0},
		{"scope match", func(*models.HybridResult) {}, models.RankContext{PreferredScopeID: "s1"}, 1.2},
		{"scope miss", func(*models.HybridResult) {}, models.RankContext{PreferredScopeID: "other"}, 1.0},
		{"category", func(h *models.HybridResult) { h.Metadata.Category = "c" }, models.RankContext{RecentCategories: []string{"x", "c"}}, 1.1},
		{"empty category never matches", func(*models.HybridResult) {}, models.RankContext{RecentCategories: []string{""}}, 1.0},
		{"recent", func(h *models.HybridResult) { h.Metadata.CreatedAt = fixedNow.Add(-29 * 24 * time.Hour) }, models.RankContext{}, 1.05},
		{"window edge", func(h *models.HybridResult) { h.Metadata.CreatedAt = fixedNow.Add(-30 * 24 * time.Hour) }, models.RankContext{}, 1.0},
		{"zero created_at", func(h *models.HybridResult) { h.Metadata.CreatedAt = time.Time{} }, models.RankContext{}, 1.0},
	}
	r := NewReranker(config.RankingConfig{}, WithClock(clock))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := result("a", models.RecordTypeFAQ, 1.0)
			tt.mutate(&h)
			out := r.Rank([]models.HybridResult{h}, "q", tt.rc)
			assert.InDelta(t, tt.want, out[0].CombinedScore, 1e-9)
		})
	}
}

func TestRank_StableForEqualScores(t *testing.T) {
	r := NewReranker(config.RankingConfig{}, WithClock(clock))
	in := []models.HybridResult{
		result("a", models.RecordTypeFAQ, 0.4),
		result("b", models.RecordTypeFAQ, 0.4),
		result("c", models.RecordTypeFAQ, 0.4),
	}
	out := r.Rank(in, "q", models.RankContext{PreferredScopeID: "s1"})
	assert.Equal(t, []string{"a", "b", "c"}, []string{out[0].ID, out[1].ID, out[2].ID})
}

func TestRank_Empty(t *testing.T) {
	r := NewReranker(config.RankingConfig{})
	assert.Empty(t, r.Rank(nil, "q", models.RankContext{PreferredScopeID: "s"}))
}

func TestSetBoosts(t *testing.T) {
	r := NewReranker(config.RankingConfig{}, WithClock(clock))
	assert.Equal(t, DefaultBoosts(), r.Boosts())

	r.SetBoosts(config.RankingConfig{TypeBoost: 2})
	assert.Equal(t, 2.0, r.Boosts().TypeBoost)
	assert.Equal(t, 1.2, r.Boosts().ScopeBoost, "zero fields fall back to defaults")

	out := r.Rank([]models.HybridResult{result("a", models.RecordTypeFAQ, 0.5)}, "q",
		models.RankContext{PreferredTypes: []models.RecordType{models.RecordTypeFAQ}})
	assert.InDelta(t, 1.0, out[0].CombinedScore, 1e-9)
}

func TestSetBoosts_ConcurrentWithRank(t *testing.T) {
	r := NewReranker(config.RankingConfig{}, WithClock(clock))
	in := []models.HybridResult{result("a", models.RecordTypeFAQ, 0.5)}
	rc := models.RankContext{PreferredScopeID: "s1"}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Rank(in, "q", rc)
			}
		}()
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.SetBoosts(config.RankingConfig{ScopeBoost: 1 + float64(i)/10})
			}
		}(i)
	}
	wg.Wait()
}

func TestBreakdown(t *testing.T) {
	h := result("a", models.RecordTypeInquiry, 1)
	ctx := &ScoringContext{Result: &h, Context: &models.RankContext{PreferredScopeID: "s1"}, Now: fixedNow}
	got := Breakdown(ctx, DefaultMultipliers(DefaultBoosts()))
	assert.Equal(t, map[string]float64{"scope": 1.2, "category": 1, "type": 1, "recency": 1}, got)
}
