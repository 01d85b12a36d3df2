package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyperjump/kotae/internal/models"
)

func TestEmbeddingText(t *testing.T) {
	tests := []struct {
		name string
		r    models.Record
		want string
	}{
		{"inquiry", models.Record{Type: models.RecordTypeInquiry, Title: "Login", Content: "cannot sign in"}, "Login\ncannot sign in"},
		{"faq", models.Record{Type: models.RecordTypeFAQ, Title: "Refunds?", Content: "Within 30 days."}, "Refunds?\nWithin 30 days."},
		{"response ignores title", models.Record{Type: models.RecordTypeResponse, Title: "Re: Login", Content: "Try resetting."}, "Try resetting."},
		{"inquiry without title", models.Record{Type: models.RecordTypeInquiry, Content: "just content"}, "just content"},
		{"unknown type", models.Record{Type: "note", Title: "Heads up", Content: "server move"}, "Heads up server move"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EmbeddingText(&tt.r))
		})
	}
}

func TestPreprocess(t *testing.T) {
	assert.Equal(t, "a b c", Preprocess("  a\n\tb   c "))
	assert.Equal(t, "", Preprocess(" \n "))
}
