package vector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/metrics"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

const (
	chromemCollection = "records"
	seqKey            = "_seq"
)

var errNoEmbeddingFunc = errors.New("chromem store only accepts precomputed embeddings")

// ChromemStore keeps vectors in a chromem-go collection. It honors the same
// contract as MemoryStore; insertion order for ties is kept with a sequence
// number stored in each document's metadata.
type ChromemStore struct {
	config IndexConfig
	path   string
	db     *chromem.DB
	coll   *chromem.Collection
	seq    map[string]int64
	next   int64
	logger *zap.Logger
	mu     sync.RWMutex
}

// NewChromemStore creates an empty chromem-backed store.
func NewChromemStore(dimension int, opts ...Option) (*ChromemStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dimension)
	}
	o := buildOptions(opts)
	s := &ChromemStore{
		config: IndexConfig{Dimension: dimension, Metric: MetricInnerProduct},
		path:   o.path,
		db:     chromem.NewDB(),
		seq:    make(map[string]int64),
		logger: o.logger,
	}
	coll, err := s.db.GetOrCreateCollection(chromemCollection, nil, rejectEmbedding)
	if err != nil {
		return nil, fmt.Errorf("create chromem collection: %w", err)
	}
	s.coll = coll
	return s, nil
}

func rejectEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbeddingFunc
}

// Upsert stores a normalized copy of vec, keeping the original sequence number on replace.
func (s *ChromemStore) Upsert(ctx context.Context, id string, vec []float32, meta models.VectorMetadata) error {
	if len(vec) != s.config.Dimension {
		return fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(vec), s.config.Dimension)
	}
	if !utils.AllFinite(vec) {
		return fmt.Errorf("%w: upsert %s", ErrNonFinite, id)
	}
	v := make([]float32, len(vec))
	copy(v, vec)
	utils.NormalizeL2(v)

	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.seq[id]
	if !ok {
		seq = s.next
		s.next++
	}
	doc := chromem.Document{
		ID:        id,
		Metadata:  encodeMetadata(meta, seq),
		Embedding: v,
		Content:   meta.Title,
	}
	if err := s.coll.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("chromem add document: %w", err)
	}
	s.seq[id] = seq
	metrics.VectorsTotal.Set(float64(len(s.seq)))
	return nil
}

// Delete removes id and reports whether it was present.
func (s *ChromemStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seq[id]; !ok {
		s.logger.Debug("vector delete: id not present", zap.String("id", id))
		return false, nil
	}
	if err := s.coll.Delete(ctx, nil, nil, id); err != nil {
		return false, fmt.Errorf("chromem delete: %w", err)
	}
	delete(s.seq, id)
	metrics.VectorsTotal.Set(float64(len(s.seq)))
	s.logger.Debug("vector deleted", zap.String("id", id))
	return true, nil
}

// Search returns the top limit records by clamped cosine similarity.
func (s *ChromemStore) Search(ctx context.Context, query []float32, limit int) ([]models.VectorResult, error) {
	return s.SearchFiltered(ctx, query, limit, nil)
}

// SearchFiltered scores every document, then applies filter and limit.
func (s *ChromemStore) SearchFiltered(ctx context.Context, query []float32, limit int, filter Filter) ([]models.VectorResult, error) {
	if len(query) != s.config.Dimension {
		return nil, fmt.Errorf("%w: query has %d, expected %d", ErrDimensionMismatch, len(query), s.config.Dimension)
	}
	if !utils.AllFinite(query) {
		return nil, fmt.Errorf("%w: query", ErrNonFinite)
	}
	if limit <= 0 {
		return []models.VectorResult{}, nil
	}
	q := make([]float32, len(query))
	copy(q, query)
	if !utils.NormalizeL2(q) {
		// chromem cannot normalize a zero query; every score is 0 anyway.
		return s.zeroScores(limit, filter), nil
	}

	s.mu.RLock()
	n := s.coll.Count()
	if n == 0 {
		s.mu.RUnlock()
		return []models.VectorResult{}, nil
	}
	res, err := s.coll.QueryEmbedding(ctx, q, n, nil, nil)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	type hit struct {
		models.VectorResult
		seq int64
	}
	hits := make([]hit, 0, len(res))
	for _, r := range res {
		meta, seq := decodeMetadata(r.Metadata)
		if filter != nil && !filter(meta) {
			continue
		}
		score := float64(r.Similarity)
		if math.IsNaN(score) {
			score = 0
		}
		hits = append(hits, hit{
			VectorResult: models.VectorResult{ID: r.ID, Score: utils.Clamp01(score), Metadata: meta},
			seq:          seq,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].seq < hits[j].seq
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]models.VectorResult, len(hits))
	for i, h := range hits {
		out[i] = h.VectorResult
	}
	return out, nil
}

func (s *ChromemStore) zeroScores(limit int, filter Filter) []models.VectorResult {
	recs := s.ordered()
	out := make([]models.VectorResult, 0, len(recs))
	for _, rec := range recs {
		if filter != nil && !filter(rec.Metadata) {
			continue
		}
		out = append(out, models.VectorResult{ID: rec.ID, Metadata: rec.Metadata})
		if len(out) == limit {
			break
		}
	}
	return out
}

// ordered returns every record in insertion order.
func (s *ChromemStore) ordered() []Record {
	s.mu.RLock()
	ids := make([]string, 0, len(s.seq))
	for id := range s.seq {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return s.seq[ids[i]] < s.seq[ids[j]] })
	s.mu.RUnlock()

	recs := make([]Record, 0, len(ids))
	for _, id := range ids {
		if rec, ok := s.Get(id); ok {
			recs = append(recs, rec)
		}
	}
	return recs
}

// Get returns a copy of the record stored under id.
func (s *ChromemStore) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.seq[id]; !ok {
		return Record{}, false
	}
	doc, err := s.coll.GetByID(context.Background(), id)
	if err != nil {
		return Record{}, false
	}
	meta, _ := decodeMetadata(doc.Metadata)
	return Record{ID: doc.ID, Vector: append([]float32(nil), doc.Embedding...), Metadata: meta}, true
}

// Stats reports the vector count and config.
func (s *ChromemStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{TotalVectors: len(s.seq), Config: s.config, Backend: BackendChromem}
}

// Persist writes the collection in the same snapshot format as MemoryStore,
// so either backend can load the other's file.
func (s *ChromemStore) Persist(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	snap := &snapshot{Config: s.config, Vectors: s.ordered()}
	for i, rec := range snap.Vectors {
		// chromem turns a stored zero vector into NaNs when normalizing it.
		if !utils.AllFinite(rec.Vector) {
			snap.Vectors[i].Vector = make([]float32, len(rec.Vector))
		}
	}
	err := writeSnapshot(s.path, snap)
	metrics.PersistTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return err
	}
	s.logger.Debug("vector snapshot written", zap.String("path", s.path), zap.Int("vectors", len(snap.Vectors)))
	return nil
}

// Load rebuilds the collection from the snapshot at the store's path. A
// missing or unreadable snapshot leaves the store empty; a snapshot written for
// another dimension is an error.
func (s *ChromemStore) Load(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	snap, err := readSnapshot(s.path, s.logger)
	if err != nil {
		return err
	}
	if snap != nil && snap.Config.Dimension != s.config.Dimension {
		return fmt.Errorf("%w: snapshot %s has dimension %d, store expects %d",
			ErrDimensionMismatch, s.path, snap.Config.Dimension, s.config.Dimension)
	}

	db := chromem.NewDB()
	coll, err := db.GetOrCreateCollection(chromemCollection, nil, rejectEmbedding)
	if err != nil {
		return fmt.Errorf("open chromem collection: %w", err)
	}
	seq := make(map[string]int64)
	var next int64
	if snap != nil {
		for _, rec := range snap.Vectors {
			if len(rec.Vector) != s.config.Dimension {
				return fmt.Errorf("%w: snapshot %s: %s has %d components, store expects %d",
					ErrDimensionMismatch, s.path, rec.ID, len(rec.Vector), s.config.Dimension)
			}
			if _, dup := seq[rec.ID]; dup {
				continue
			}
			doc := chromem.Document{
				ID:        rec.ID,
				Metadata:  encodeMetadata(rec.Metadata, next),
				Embedding: rec.Vector,
				Content:   rec.Metadata.Title,
			}
			if err := coll.AddDocument(ctx, doc); err != nil {
				return fmt.Errorf("chromem add document: %w", err)
			}
			seq[rec.ID] = next
			next++
		}
	}

	s.mu.Lock()
	s.db, s.coll, s.seq, s.next = db, coll, seq, next
	s.mu.Unlock()
	metrics.VectorsTotal.Set(float64(len(seq)))
	s.logger.Info("vector snapshot loaded", zap.String("path", s.path), zap.Int("vectors", len(seq)))
	return nil
}

// Close is a no-op; call Persist first to keep the data.
func (s *ChromemStore) Close() error {
	return nil
}

func encodeMetadata(m models.VectorMetadata, seq int64) map[string]string {
	out := map[string]string{
		"type":     string(m.Type),
		"scope_id": m.ScopeID,
		seqKey:     strconv.FormatInt(seq, 10),
	}
	if m.Category != "" {
		out["category"] = m.Category
	}
	if m.Status != "" {
		out["status"] = m.Status
	}
	if m.Priority != "" {
		out["priority"] = m.Priority
	}
	if m.Title != "" {
		out["title"] = m.Title
	}
	if !m.CreatedAt.IsZero() {
		out["created_at"] = m.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return out
}

func decodeMetadata(in map[string]string) (models.VectorMetadata, int64) {
	m := models.VectorMetadata{
		Type:     models.RecordType(in["type"]),
		ScopeID:  in["scope_id"],
		Category: in["category"],
		Status:   in["status"],
		Priority: in["priority"],
		Title:    in["title"],
	}
	if ts, ok := in["created_at"]; ok {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			m.CreatedAt = t
		}
	}
	seq, _ := strconv.ParseInt(in[seqKey], 10, 64)
	return m, seq
}
