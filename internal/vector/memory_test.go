package vector

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

func meta(scope string) models.VectorMetadata {
	return models.VectorMetadata{Type: models.RecordTypeInquiry, ScopeID: scope, CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func newMemory(t *testing.T, dim int, opts ...Option) *MemoryStore {
	t.Helper()
	s, err := NewMemoryStore(dim, opts...)
	require.NoError(t, err)
	return s
}

func TestMemoryStore_UpsertNormalizes(t *testing.T) {
	s := newMemory(t, 3)
	ctx := context.Background()
	input := []float32{3, 4, 0}
	require.NoError(t, s.Upsert(ctx, "a", input, meta("s1")))

	rec, ok := s.Get("a")
	require.True(t, ok)
	assert.InDelta(t, 1.0, utils.L2Norm(rec.Vector), 1e-6)
	assert.InDelta(t, 0.6, rec.Vector[0], 1e-6)
	assert.Equal(t, []float32{3, 4, 0}, input, "caller's slice must not be modified")
}

func TestMemoryStore_ZeroVectorStoredAsIs(t *testing.T) {
	s := newMemory(t, 2)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, "z", []float32{0, 0}, meta("s")))
	rec, ok := s.Get("z")
	require.True(t, ok)
	assert.Equal(t, []float32{0, 0}, rec.Vector)

	res, err := s.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, 0.0, res[0].Score)
}

func TestMemoryStore_DimensionMismatch(t *testing.T) {
	s := newMemory(t, 3)
	ctx := context.Background()
	assert.ErrorIs(t, s.Upsert(ctx, "a", []float32{1, 2}, meta("s")), ErrDimensionMismatch)
	_, err := s.Search(ctx, []float32{1, 2, 3, 4}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Equal(t, 0, s.Stats().TotalVectors)
}

func TestMemoryStore_RejectsNonFiniteVectors(t *testing.T) {
	s := newMemory(t, 2)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, "ok", []float32{1, 0}, meta("s")))

	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	assert.ErrorIs(t, s.Upsert(ctx, "nan", []float32{nan, 0}, meta("s")), ErrNonFinite)
	assert.ErrorIs(t, s.Upsert(ctx, "inf", []float32{inf, 1}, meta("s")), ErrNonFinite)
	assert.Equal(t, 1, s.Stats().TotalVectors)

	_, err := s.Search(ctx, []float32{nan, 1}, 5)
	assert.ErrorIs(t, err, ErrNonFinite)
	_, err = s.SearchFiltered(ctx, []float32{1, inf}, 5, nil)
	assert.ErrorIs(t, err, ErrNonFinite)

	res, err := s.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.InDelta(t, 1.0, res[0].Score, 1e-6)
}

func TestMemoryStore_SearchBoundsAndOrder(t *testing.T) {
	s := newMemory(t, 8)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		v := make([]float32, 8)
		for j := range v {
			v[j] = float32(rng.NormFloat64())
		}
		require.NoError(t, s.Upsert(ctx, fmt.Sprintf("id-%d", i), v, meta("s")))
	}
	q := make([]float32, 8)
	for j := range q {
		q[j] = float32(rng.NormFloat64())
	}

	for _, limit := range []int{0, 1, 10, 50, 100} {
		res, err := s.Search(ctx, q, limit)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(res), limit)
		assert.LessOrEqual(t, len(res), 50)
		for i, r := range res {
			assert.GreaterOrEqual(t, r.Score, 0.0)
			assert.LessOrEqual(t, r.Score, 1.0)
			if i > 0 {
				assert.GreaterOrEqual(t, res[i-1].Score, r.Score)
			}
		}
	}
}

func TestMemoryStore_NegativeSimilarityClampedToZero(t *testing.T) {
	s := newMemory(t, 2)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, "opposite", []float32{-1, 0}, meta("s")))
	res, err := s.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, 0.0, res[0].Score)
}

func TestMemoryStore_TiesKeepInsertionOrder(t *testing.T) {
	s := newMemory(t, 2)
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.Upsert(ctx, id, []float32{1, 1}, meta("s")))
	}
	res, err := s.Search(ctx, []float32{1, 1}, 3)
	require.NoError(t, err)
	ids := []string{res[0].ID, res[1].ID, res[2].ID}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestMemoryStore_ReupsertReplacesInPlace(t *testing.T) {
	s := newMemory(t, 2)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, "a", []float32{1, 0}, meta("s")))
	require.NoError(t, s.Upsert(ctx, "b", []float32{1, 0}, meta("s")))
	require.NoError(t, s.Upsert(ctx, "a", []float32{0, 1}, meta("s2")))

	assert.Equal(t, 2, s.Stats().TotalVectors)
	rec, _ := s.Get("a")
	assert.Equal(t, "s2", rec.Metadata.ScopeID)

	res, err := s.Search(ctx, []float32{0, 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, "a", res[0].ID)
	assert.InDelta(t, 1.0, res[0].Score, 1e-6)

	// a kept its slot, so it still precedes b on a tie.
	res, err = s.Search(ctx, []float32{1, 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, "a", res[0].ID)
}

func TestMemoryStore_Delete(t *testing.T) {
	s := newMemory(t, 2)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Upsert(ctx, id, []float32{1, 0}, meta("s")))
	}

	existed, err := s.Delete(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, existed)
	assert.Equal(t, 3, s.Stats().TotalVectors)

	existed, err = s.Delete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, 2, s.Stats().TotalVectors)
	_, ok := s.Get("a")
	assert.False(t, ok)

	res, err := s.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "b", res[0].ID)
	assert.Equal(t, "c", res[1].ID)

	// index map stays consistent after compaction
	require.NoError(t, s.Upsert(ctx, "c", []float32{0, 1}, meta("s9")))
	rec, ok := s.Get("c")
	require.True(t, ok)
	assert.Equal(t, "s9", rec.Metadata.ScopeID)
	assert.Equal(t, 2, s.Stats().TotalVectors)
}

func TestMemoryStore_SearchFiltered(t *testing.T) {
	s := newMemory(t, 2)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, "a", []float32{1, 0}, meta("app-1")))
	require.NoError(t, s.Upsert(ctx, "b", []float32{0.9, 0.1}, meta("app-2")))
	require.NoError(t, s.Upsert(ctx, "c", []float32{0, 1}, meta("app-2")))

	f := &models.Filters{ScopeID: "app-2"}
	res, err := s.SearchFiltered(ctx, []float32{1, 0}, 1, f.Match)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "b", res[0].ID)
	assert.Equal(t, "app-2", res[0].Metadata.ScopeID)
}

func TestMemoryStore_PersistLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx", "vectors.json")
	ctx := context.Background()
	s := newMemory(t, 3, WithPath(path))
	m := models.VectorMetadata{Type: models.RecordTypeFAQ, ScopeID: "s", Category: "billing", CreatedAt: time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC), Title: "Refunds?"}
	require.NoError(t, s.Upsert(ctx, "x", []float32{1, 2, 3}, m))
	require.NoError(t, s.Upsert(ctx, "y", []float32{0, 0, 1}, meta("s")))
	require.NoError(t, s.Persist(ctx))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must be renamed away")

	loaded := newMemory(t, 3, WithPath(path))
	require.NoError(t, loaded.Load(ctx))
	assert.Equal(t, 2, loaded.Stats().TotalVectors)
	assert.Equal(t, MetricInnerProduct, loaded.Stats().Config.Metric)

	want, _ := s.Get("x")
	got, ok := loaded.Get("x")
	require.True(t, ok)
	assert.Equal(t, want.Vector, got.Vector)
	assert.True(t, want.Metadata.CreatedAt.Equal(got.Metadata.CreatedAt))
	assert.Equal(t, "billing", got.Metadata.Category)

	q := []float32{0.2, 0.1, 0.9}
	r1, err := s.Search(ctx, q, 2)
	require.NoError(t, err)
	r2, err := loaded.Search(ctx, q, 2)
	require.NoError(t, err)
	require.Len(t, r2, 2)
	for i := range r1 {
		assert.Equal(t, r1[i].ID, r2[i].ID)
		assert.InDelta(t, r1[i].Score, r2[i].Score, 1e-9)
	}
}

func TestMemoryStore_LoadMissingOrCorruptStartsEmpty(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s := newMemory(t, 2, WithPath(filepath.Join(dir, "absent.json")))
	require.NoError(t, s.Load(ctx))
	assert.Equal(t, 0, s.Stats().TotalVectors)

	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("{not json"), 0644))
	s = newMemory(t, 2, WithPath(corrupt))
	require.NoError(t, s.Load(ctx))
	assert.Equal(t, 0, s.Stats().TotalVectors)
}

func TestMemoryStore_LoadDimensionMismatchIsFatal(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "v.json")
	s := newMemory(t, 2, WithPath(path))
	require.NoError(t, s.Upsert(ctx, "a", []float32{1, 0}, meta("s")))
	require.NoError(t, s.Persist(ctx))

	other := newMemory(t, 3, WithPath(path))
	assert.ErrorIs(t, other.Load(ctx), ErrDimensionMismatch)
}

func TestMemoryStore_LoadIgnoresUnknownFields(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "v.json")
	blob := `{"version":2,"config":{"dimension":2,"metric":"inner_product","future":true},
"vectors":[{"id":"a","vector":[1,0],"metadata":{"type":"faq","scope_id":"s","created_at":"2025-01-01T00:00:00Z","extra":"x"}}]}`
	require.NoError(t, os.WriteFile(path, []byte(blob), 0644))

	s := newMemory(t, 2, WithPath(path))
	require.NoError(t, s.Load(ctx))
	rec, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, models.RecordTypeFAQ, rec.Metadata.Type)
}

func TestMemoryStore_PersistWithoutPathIsNoop(t *testing.T) {
	s := newMemory(t, 2)
	assert.NoError(t, s.Persist(context.Background()))
	assert.NoError(t, s.Load(context.Background()))
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	s := newMemory(t, 4)
	ctx := context.Background()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = s.Upsert(ctx, fmt.Sprintf("w-%d", i%20), []float32{1, float32(i), 0, 0}, meta("s"))
			if i%7 == 0 {
				_, _ = s.Delete(ctx, fmt.Sprintf("w-%d", i%20))
			}
		}
	}()
	for i := 0; i < 200; i++ {
		res, err := s.Search(ctx, []float32{1, 0, 0, 0}, 5)
		require.NoError(t, err)
		for _, r := range res {
			assert.False(t, math.IsNaN(r.Score))
		}
	}
	<-done
}

func TestNewMemoryStore_InvalidDimension(t *testing.T) {
	_, err := NewMemoryStore(0)
	assert.Error(t, err)
}
