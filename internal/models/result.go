package models

import "time"

// LexicalResult is a single hit from the full-text engine. Score is on the
// engine's own unbounded scale.
type LexicalResult struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	Type       RecordType     `json:"type"`
	Score      float64        `json:"score"`
	Highlights []string       `json:"highlights,omitempty"`
	Metadata   VectorMetadata `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at"`
}

// VectorResult is a single similarity hit. Score is in [0,1].
type VectorResult struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata VectorMetadata `json:"metadata"`
}

// HybridResult is one fused hit. VectorScore and TextScore are batch-normalized
// to [0,1]; CombinedScore is their weighted sum and may exceed 1 after reranking.
type HybridResult struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Content       string         `json:"content"`
	Type          RecordType     `json:"type"`
	VectorScore   float64        `json:"vector_score"`
	TextScore     float64        `json:"text_score"`
	CombinedScore float64        `json:"combined_score"`
	Highlights    []string       `json:"highlights,omitempty"`
	Metadata      VectorMetadata `json:"metadata"`
	CreatedAt     time.Time      `json:"created_at"`
}

// SearchResponse is the paginated response for a hybrid search.
type SearchResponse struct {
	Results   []HybridResult `json:"results"`
	Total     int            `json:"total"`
	Limit     int            `json:"limit"`
	Offset    int            `json:"offset"`
	QueryTime int64          `json:"query_time_ms"`
	Query     string         `json:"query"`
	// Partial is set when one of the two sub-searches failed and the results
	// come from the other one only. Warnings says which.
	Partial  bool     `json:"partial,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
