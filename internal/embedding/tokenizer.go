package embedding

import (
	"strings"
	"unicode"
)

// Tokenizer produces token IDs for BERT-style models (input_ids, attention_mask, token_type_ids).
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

const (
	clsToken  = 101
	sepToken  = 102
	vocabSize = 30000
)

// SimpleTokenizer is a word-split tokenizer with hash-based token IDs. It is
// only as good as the model it is paired with; real WordPiece vocabularies are
// out of scope.
type SimpleTokenizer struct{}

// Tokenize lowercases text, splits it into words and produces padded token IDs up to maxTokens.
func (t *SimpleTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	inputIDs[0] = clsToken
	attentionMask[0] = 1

	pos := 1
	for _, word := range SplitWords(strings.ToLower(text)) {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = int64(HashString(word)%vocabSize) + 1000
		attentionMask[pos] = 1
		pos++
	}
	if pos < maxTokens {
		inputIDs[pos] = sepToken
		attentionMask[pos] = 1
	}
	return inputIDs, attentionMask, tokenTypeIDs
}

// SplitWords splits text on whitespace and punctuation and returns non-empty words.
func SplitWords(text string) []string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	if len(words) == 0 {
		return nil
	}
	return words
}

// HashString returns a deterministic non-negative hash of s.
func HashString(s string) int {
	var h uint32
	for _, c := range s {
		h = 31*h + uint32(c)
	}
	return int(h)
}
