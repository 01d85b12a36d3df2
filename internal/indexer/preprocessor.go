package indexer

import (
	"strings"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

// Preprocess normalizes one piece of text for embedding (trim, collapse whitespace).
func Preprocess(text string) string {
	return utils.CollapseSpace(text)
}

// EmbeddingText builds the text embedded for a record. The per-type layout is:
//
//	inquiry:  title "\n" content
//	response: content
//	faq:      title (the question) "\n" content (the answer)
//	other:    title " " content
//
// Each part is preprocessed on its own and empty parts are skipped.
func EmbeddingText(r *models.Record) string {
	title, content := Preprocess(r.Title), Preprocess(r.Content)
	switch r.Type {
	case models.RecordTypeInquiry, models.RecordTypeFAQ:
		return joinNonEmpty("\n", title, content)
	case models.RecordTypeResponse:
		return content
	default:
		return joinNonEmpty(" ", title, content)
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
