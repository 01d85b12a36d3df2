package models

import "time"

// VectorMetadata is the closed set of attributes stored with each vector.
// Optional string fields are empty when absent.
type VectorMetadata struct {
	Type      RecordType `json:"type"`
	ScopeID   string     `json:"scope_id"`
	Category  string     `json:"category,omitempty"`
	Status    string     `json:"status,omitempty"`
	Priority  string     `json:"priority,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Title     string     `json:"title,omitempty"`
}

// Filters restricts candidates on both the lexical and the vector side.
// Zero values mean "no restriction".
type Filters struct {
	ScopeID       string       `json:"scope_id,omitempty"`
	Category      string       `json:"category,omitempty"`
	Status        string       `json:"status,omitempty"`
	Priority      string       `json:"priority,omitempty"`
	Types         []RecordType `json:"types,omitempty"`
	CreatedAfter  *time.Time   `json:"created_after,omitempty"`
	CreatedBefore *time.Time   `json:"created_before,omitempty"`
}

// IsZero reports whether f restricts nothing.
func (f *Filters) IsZero() bool {
	return f == nil || (f.ScopeID == "" && f.Category == "" && f.Status == "" && f.Priority == "" &&
		len(f.Types) == 0 && f.CreatedAfter == nil && f.CreatedBefore == nil)
}

// Match reports whether m satisfies every set filter. Date bounds are inclusive.
func (f *Filters) Match(m VectorMetadata) bool {
	if f.IsZero() {
		return true
	}
	if f.ScopeID != "" && m.ScopeID != f.ScopeID {
		return false
	}
	if f.Category != "" && m.Category != f.Category {
		return false
	}
	if f.Status != "" && m.Status != f.Status {
		return false
	}
	if f.Priority != "" && m.Priority != f.Priority {
		return false
	}
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if t == m.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.CreatedAfter != nil && m.CreatedAt.Before(*f.CreatedAfter) {
		return false
	}
	if f.CreatedBefore != nil && m.CreatedAt.After(*f.CreatedBefore) {
		return false
	}
	return true
}
