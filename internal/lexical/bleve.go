package lexical

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

// document is the shape stored in Bleve. Field names follow the json tags.
type document struct {
	Type      string    `json:"type"`
	ScopeID   string    `json:"scope_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Status    string    `json:"status"`
	Priority  string    `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

// BleveIndex implements Index on a Bleve index.
type BleveIndex struct {
	index           bleve.Index
	titleBoost      float64
	fuzziness       int
	highlightMaxLen int
	logger          *zap.Logger
}

// Option configures a BleveIndex.
type Option func(*BleveIndex)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *BleveIndex) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithTitleBoost weights title matches over content matches. Values <= 1 disable the boost.
func WithTitleBoost(boost float64) Option {
	return func(b *BleveIndex) { b.titleBoost = boost }
}

// WithFuzziness enables typo-tolerant matching within the given edit distance (1 or 2).
func WithFuzziness(n int) Option {
	return func(b *BleveIndex) { b.fuzziness = n }
}

// WithHighlightMaxLen truncates each highlight fragment to n runes. Zero keeps Bleve's fragments.
func WithHighlightMaxLen(n int) Option {
	return func(b *BleveIndex) { b.highlightMaxLen = n }
}

func buildMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()

	text := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so terms match as typed.
	text.Analyzer = standard.Name
	doc.AddFieldMappingsAt("title", text)
	doc.AddFieldMappingsAt("content", text)

	kw := bleve.NewKeywordFieldMapping()
	for _, f := range []string{"type", "scope_id", "category", "status", "priority"} {
		doc.AddFieldMappingsAt(f, kw)
	}
	doc.AddFieldMappingsAt("created_at", bleve.NewDateTimeFieldMapping())

	im.AddDocumentMapping("record", doc)
	im.DefaultType = "record"
	im.DefaultMapping = doc
	return im
}

// NewBleveIndex creates or opens a Bleve index at path. An empty path creates
// an in-memory index. If you change the mapping, remove the index directory
// and reindex.
func NewBleveIndex(path string, opts ...Option) (*BleveIndex, error) {
	b := &BleveIndex{titleBoost: 2.0, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}

	var (
		idx bleve.Index
		err error
	)
	switch {
	case path == "":
		idx, err = bleve.NewMemOnly(buildMapping())
	default:
		if _, statErr := os.Stat(path); statErr == nil {
			idx, err = bleve.Open(path)
			if err != nil {
				return nil, fmt.Errorf("failed to open Bleve index: %w", err)
			}
		} else {
			idx, err = bleve.New(path, buildMapping())
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	b.index = idx
	return b, nil
}

// Index adds or replaces the record's document.
func (b *BleveIndex) Index(ctx context.Context, r *models.Record) error {
	doc := document{
		Type:      string(r.Type),
		ScopeID:   r.ScopeID,
		Title:     r.Title,
		Content:   r.Content,
		Category:  r.Category,
		Status:    r.Status,
		Priority:  r.Priority,
		CreatedAt: r.CreatedAt,
	}
	if err := b.index.Index(r.ID, doc); err != nil {
		return fmt.Errorf("bleve index %s: %w", r.ID, err)
	}
	return nil
}

// Search runs a match query over title and content, restricted by filters,
// and returns up to limit hits with highlighted fragments.
func (b *BleveIndex) Search(ctx context.Context, query string, filters *models.Filters, limit int) ([]models.LexicalResult, error) {
	if limit <= 0 {
		return []models.LexicalResult{}, nil
	}
	req := bleve.NewSearchRequestOptions(b.buildQuery(query, filters), limit, 0, false)
	req.Fields = []string{"*"}
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField("title")
	req.Highlight.AddField("content")

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	out := make([]models.LexicalResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		r := models.LexicalResult{ID: hit.ID, Score: hit.Score}
		r.Title = fieldString(hit.Fields, "title")
		r.Content = fieldString(hit.Fields, "content")
		r.Type = models.RecordType(fieldString(hit.Fields, "type"))
		r.CreatedAt = fieldTime(hit.Fields, "created_at")
		r.Metadata = models.VectorMetadata{
			Type:      r.Type,
			ScopeID:   fieldString(hit.Fields, "scope_id"),
			Category:  fieldString(hit.Fields, "category"),
			Status:    fieldString(hit.Fields, "status"),
			Priority:  fieldString(hit.Fields, "priority"),
			CreatedAt: r.CreatedAt,
			Title:     r.Title,
		}
		for _, field := range []string{"title", "content"} {
			for _, frag := range hit.Fragments[field] {
				if b.highlightMaxLen > 0 {
					frag = utils.Truncate(frag, b.highlightMaxLen)
				}
				r.Highlights = append(r.Highlights, frag)
			}
		}
		out = append(out, r)
	}
	b.logger.Debug("lexical search", zap.String("query", query), zap.Int("hits", len(out)), zap.Uint64("total", res.Total))
	return out, nil
}

func (b *BleveIndex) buildQuery(text string, f *models.Filters) blevequery.Query {
	title := bleve.NewMatchQuery(text)
	title.SetField("title")
	content := bleve.NewMatchQuery(text)
	content.SetField("content")
	if b.titleBoost > 1 {
		title.SetBoost(b.titleBoost)
	}
	if b.fuzziness > 0 {
		title.SetFuzziness(b.fuzziness)
		content.SetFuzziness(b.fuzziness)
	}
	q := []blevequery.Query{bleve.NewDisjunctionQuery(title, content)}

	if !f.IsZero() {
		for _, term := range [][2]string{
			{"scope_id", f.ScopeID},
			{"category", f.Category},
			{"status", f.Status},
			{"priority", f.Priority},
		} {
			if term[1] == "" {
				continue
			}
			tq := bleve.NewTermQuery(term[1])
			tq.SetField(term[0])
			q = append(q, tq)
		}
		if len(f.Types) > 0 {
			types := make([]blevequery.Query, len(f.Types))
			for i, t := range f.Types {
				tq := bleve.NewTermQuery(string(t))
				tq.SetField("type")
				types[i] = tq
			}
			q = append(q, bleve.NewDisjunctionQuery(types...))
		}
		if f.CreatedAfter != nil || f.CreatedBefore != nil {
			var start, end time.Time
			if f.CreatedAfter != nil {
				start = *f.CreatedAfter
			}
			if f.CreatedBefore != nil {
				end = *f.CreatedBefore
			}
			inclusive := true
			dq := bleve.NewDateRangeInclusiveQuery(start, end, &inclusive, &inclusive)
			dq.SetField("created_at")
			q = append(q, dq)
		}
	}
	if len(q) == 1 {
		return q[0]
	}
	return bleve.NewConjunctionQuery(q...)
}

// Delete removes a document from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// DocCount returns the total number of documents in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

func fieldString(fields map[string]interface{}, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}

func fieldTime(fields map[string]interface{}, name string) time.Time {
	s := fieldString(fields, name)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
