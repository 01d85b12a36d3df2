package indexer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/lexical"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
)

const testDims = 16

var errFlaky = errors.New("flaky provider")

// failingEmbedder fails for any text containing "boom".
type failingEmbedder struct {
	*embedding.MockEmbedder
}

func (f failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.Contains(text, "boom") {
		return nil, errFlaky
	}
	return f.MockEmbedder.Embed(ctx, text)
}

type testEnv struct {
	records    *storage.SQLiteStorage
	lexical    *lexical.BleveIndex
	vectors    *vector.MemoryStore
	vectorizer *Vectorizer
	indexer    *Indexer
}

func newTestEnv(t *testing.T, emb embedding.Embedder) *testEnv {
	t.Helper()
	if emb == nil {
		emb = embedding.NewMockEmbedder(testDims)
	}
	records, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	lex, err := lexical.NewBleveIndex("")
	require.NoError(t, err)
	vecs, err := vector.NewMemoryStore(testDims)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = records.Close()
		_ = lex.Close()
		_ = vecs.Close()
	})

	vz := NewVectorizer(records, emb, vecs, WithConcurrency(2), WithPageSize(2))
	return &testEnv{
		records:    records,
		lexical:    lex,
		vectors:    vecs,
		vectorizer: vz,
		indexer:    NewIndexer(records, lex, vz),
	}
}
