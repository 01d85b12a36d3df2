// Package models defines core data structures for records, vector metadata, queries, and results.
package models

import "time"

// RecordType tags what kind of business record an entry is. The set is open;
// the constants below are the types the embedding text builder knows about.
type RecordType string

const (
	// RecordTypeInquiry is a support request raised by a user.
	RecordTypeInquiry RecordType = "inquiry"
	// RecordTypeResponse is a reply attached to an inquiry.
	RecordTypeResponse RecordType = "response"
	// RecordTypeFAQ is a knowledge-base question/answer entry.
	RecordTypeFAQ RecordType = "faq"
)

// KnownRecordTypes lists the record types iterated by a full reindex.
var KnownRecordTypes = []RecordType{RecordTypeInquiry, RecordTypeResponse, RecordTypeFAQ}

// Record is a business record as held by the record store.
// For FAQ entries Title holds the question and Content the answer.
type Record struct {
	ID        string     `json:"id" yaml:"id" db:"id"`
	Type      RecordType `json:"type" yaml:"type" db:"type"`
	ScopeID   string     `json:"scope_id" yaml:"scope_id" db:"scope_id"`
	Title     string     `json:"title,omitempty" yaml:"title,omitempty" db:"title"`
	Content   string     `json:"content" yaml:"content" db:"content"`
	Category  string     `json:"category,omitempty" yaml:"category,omitempty" db:"category"`
	Status    string     `json:"status,omitempty" yaml:"status,omitempty" db:"status"`
	Priority  string     `json:"priority,omitempty" yaml:"priority,omitempty" db:"priority"`
	ParentID  string     `json:"parent_id,omitempty" yaml:"parent_id,omitempty" db:"parent_id"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at,omitempty" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" yaml:"updated_at,omitempty" db:"updated_at"`
}

// RecordInput is the input for creating or replacing a record.
type RecordInput struct {
	ID        string     `json:"id,omitempty" yaml:"id,omitempty"`
	Type      RecordType `json:"type" yaml:"type"`
	ScopeID   string     `json:"scope_id" yaml:"scope_id"`
	Title     string     `json:"title,omitempty" yaml:"title,omitempty"`
	Content   string     `json:"content" yaml:"content"`
	Category  string     `json:"category,omitempty" yaml:"category,omitempty"`
	Status    string     `json:"status,omitempty" yaml:"status,omitempty"`
	Priority  string     `json:"priority,omitempty" yaml:"priority,omitempty"`
	ParentID  string     `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	CreatedAt time.Time  `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// Metadata derives the vector metadata stored alongside the record's embedding.
func (r *Record) Metadata() VectorMetadata {
	return VectorMetadata{
		Type:      r.Type,
		ScopeID:   r.ScopeID,
		Category:  r.Category,
		Status:    r.Status,
		Priority:  r.Priority,
		CreatedAt: r.CreatedAt,
		Title:     r.Title,
	}
}
