package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/metrics"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

// MemoryStore is the reference backend: an insertion-ordered array of records
// plus an id to position map, searched by brute force.
type MemoryStore struct {
	config  IndexConfig
	path    string
	records []Record
	index   map[string]int
	logger  *zap.Logger
	mu      sync.RWMutex
}

// Option configures a store.
type Option func(*options)

type options struct {
	path   string
	logger *zap.Logger
}

// WithPath sets the snapshot file. Without it Persist and Load do nothing.
func WithPath(path string) Option {
	return func(o *options) { o.path = path }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewMemoryStore creates an empty in-memory store for vectors of the given dimension.
func NewMemoryStore(dimension int, opts ...Option) (*MemoryStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dimension)
	}
	o := buildOptions(opts)
	return &MemoryStore{
		config: IndexConfig{Dimension: dimension, Metric: MetricInnerProduct},
		path:   o.path,
		index:  make(map[string]int),
		logger: o.logger,
	}, nil
}

// Upsert stores a normalized copy of vec. An existing id keeps its position.
func (m *MemoryStore) Upsert(ctx context.Context, id string, vec []float32, meta models.VectorMetadata) error {
	if len(vec) != m.config.Dimension {
		return fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(vec), m.config.Dimension)
	}
	if !utils.AllFinite(vec) {
		return fmt.Errorf("%w: upsert %s", ErrNonFinite, id)
	}
	v := make([]float32, len(vec))
	copy(v, vec)
	utils.NormalizeL2(v)

	m.mu.Lock()
	defer m.mu.Unlock()
	rec := Record{ID: id, Vector: v, Metadata: meta}
	if i, ok := m.index[id]; ok {
		m.records[i] = rec
		return nil
	}
	m.index[id] = len(m.records)
	m.records = append(m.records, rec)
	metrics.VectorsTotal.Set(float64(len(m.records)))
	return nil
}

// Delete removes id, shifting later records down so the remaining order is unchanged.
func (m *MemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.index[id]
	if !ok {
		m.logger.Debug("vector delete: id not present", zap.String("id", id))
		return false, nil
	}
	copy(m.records[i:], m.records[i+1:])
	m.records[len(m.records)-1] = Record{}
	m.records = m.records[:len(m.records)-1]
	delete(m.index, id)
	for j := i; j < len(m.records); j++ {
		m.index[m.records[j].ID] = j
	}
	metrics.VectorsTotal.Set(float64(len(m.records)))
	m.logger.Debug("vector deleted", zap.String("id", id))
	return true, nil
}

// Search returns the top limit records by clamped cosine similarity.
func (m *MemoryStore) Search(ctx context.Context, query []float32, limit int) ([]models.VectorResult, error) {
	return m.SearchFiltered(ctx, query, limit, nil)
}

// SearchFiltered is Search over the records accepted by filter. A nil filter accepts everything.
func (m *MemoryStore) SearchFiltered(ctx context.Context, query []float32, limit int, filter Filter) ([]models.VectorResult, error) {
	if len(query) != m.config.Dimension {
		return nil, fmt.Errorf("%w: query has %d, expected %d", ErrDimensionMismatch, len(query), m.config.Dimension)
	}
	if !utils.AllFinite(query) {
		return nil, fmt.Errorf("%w: query", ErrNonFinite)
	}
	if limit <= 0 {
		return []models.VectorResult{}, nil
	}
	q := make([]float32, len(query))
	copy(q, query)
	utils.NormalizeL2(q)

	m.mu.RLock()
	hits := make([]models.VectorResult, 0, len(m.records))
	for _, rec := range m.records {
		if filter != nil && !filter(rec.Metadata) {
			continue
		}
		hits = append(hits, models.VectorResult{
			ID:       rec.ID,
			Score:    utils.Clamp01(utils.Dot(q, rec.Vector)),
			Metadata: rec.Metadata,
		})
	}
	m.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Get returns a copy of the record stored under id.
func (m *MemoryStore) Get(id string) (Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.index[id]
	if !ok {
		return Record{}, false
	}
	rec := m.records[i]
	rec.Vector = append([]float32(nil), rec.Vector...)
	return rec, true
}

// Stats reports the vector count and config.
func (m *MemoryStore) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{TotalVectors: len(m.records), Config: m.config, Backend: BackendMemory}
}

// Persist writes a point-in-time snapshot to the store's path.
func (m *MemoryStore) Persist(ctx context.Context) error {
	if m.path == "" {
		return nil
	}
	m.mu.RLock()
	snap := snapshot{Config: m.config, Vectors: make([]Record, len(m.records))}
	// Stored vectors are never mutated in place, so sharing them is safe.
	copy(snap.Vectors, m.records)
	m.mu.RUnlock()

	err := writeSnapshot(m.path, &snap)
	metrics.PersistTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return err
	}
	m.logger.Debug("vector snapshot written", zap.String("path", m.path), zap.Int("vectors", len(snap.Vectors)))
	return nil
}

// Load replaces the store's contents with the snapshot at its path. A missing
// or unreadable snapshot leaves the store empty; a snapshot written for another
// dimension is an error.
func (m *MemoryStore) Load(ctx context.Context) error {
	if m.path == "" {
		return nil
	}
	snap, err := readSnapshot(m.path, m.logger)
	if err != nil {
		return err
	}
	if snap == nil {
		m.reset(nil)
		return nil
	}
	if snap.Config.Dimension != m.config.Dimension {
		return fmt.Errorf("%w: snapshot %s has dimension %d, store expects %d",
			ErrDimensionMismatch, m.path, snap.Config.Dimension, m.config.Dimension)
	}
	m.reset(snap.Vectors)
	m.logger.Info("vector snapshot loaded", zap.String("path", m.path), zap.Int("vectors", len(m.records)))
	return nil
}

func (m *MemoryStore) reset(recs []Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make([]Record, 0, len(recs))
	m.index = make(map[string]int, len(recs))
	for _, rec := range recs {
		if len(rec.Vector) != m.config.Dimension {
			m.logger.Warn("skipping snapshot vector with wrong length",
				zap.String("id", rec.ID), zap.Int("length", len(rec.Vector)))
			continue
		}
		if i, ok := m.index[rec.ID]; ok {
			m.records[i] = rec
			continue
		}
		m.index[rec.ID] = len(m.records)
		m.records = append(m.records, rec)
	}
	metrics.VectorsTotal.Set(float64(len(m.records)))
}

// Close is a no-op for MemoryStore.
func (m *MemoryStore) Close() error {
	return nil
}
