// Package cli provides output formatting and input loading for the kotae CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/server"
	"github.com/hyperjump/kotae/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one result per line.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return WriteJSON(w, response)
	case OutputCompact:
		for i, r := range response.Results {
			fmt.Fprintf(w, "%d\t%.4f\t%s\t%s\t%s\n", response.Offset+i+1, r.CombinedScore, r.Type, r.ID, TruncateWords(r.Title, 10))
		}
		return nil
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d results in %dms (showing %d from offset %d)\n",
		response.Total, response.QueryTime, len(response.Results), response.Offset)
	for _, warning := range response.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	fmt.Fprintln(w)
	for i, result := range response.Results {
		writeOneResult(w, response.Offset+i+1, result)
	}
}

func writeOneResult(w io.Writer, rank int, result models.HybridResult) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Score: %.4f (Text: %.4f, Vector: %.4f)\n",
		rank, result.CombinedScore, result.TextScore, result.VectorScore)
	fmt.Fprintf(w, "ID: %s | Type: %s | Scope: %s\n", result.ID, result.Type, result.Metadata.ScopeID)
	if result.Title != "" {
		fmt.Fprintf(w, "Title: %s\n", result.Title)
	}
	switch {
	case len(result.Highlights) > 0:
		fmt.Fprintf(w, "\n%s\n", strings.Join(result.Highlights, " … "))
	case result.Content != "":
		fmt.Fprintf(w, "\n%s\n", utils.Truncate(result.Content, 200))
	}
	fmt.Fprintln(w)
}

// WriteStatus writes a status report in text or JSON.
func WriteStatus(w io.Writer, st *server.Status, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, st)
	}
	fmt.Fprintf(w, "records:            %d   # rows in the record store\n", st.Records)
	fmt.Fprintf(w, "lexical_docs:       %d   # documents in the full-text index\n", st.LexicalDocs)
	fmt.Fprintf(w, "vectors:            %d   # vectors in the %s store\n", st.Vectors.TotalVectors, st.Vectors.Backend)
	if st.DiskUsage != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # database + indices on disk\n", st.DiskUsage.Total)
	}
	c := st.Configuration
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# configuration")
	fmt.Fprintf(w, "vector_backend:     %s\n", c.VectorBackend)
	fmt.Fprintf(w, "embedding:          %s (%d dims)\n", c.EmbeddingProvider, c.EmbeddingDimensions)
	if c.DatabasePath != "" {
		fmt.Fprintf(w, "database_path:      %s\n", c.DatabasePath)
	}
	if c.BleveIndexPath != "" {
		fmt.Fprintf(w, "bleve_index_path:   %s\n", c.BleveIndexPath)
	}
	if c.VectorIndexPath != "" {
		fmt.Fprintf(w, "vector_index_path:  %s\n", c.VectorIndexPath)
	}
	fmt.Fprintf(w, "boosts:             scope=%.2f category=%.2f type=%.2f recency=%.2f (window %s)\n",
		c.Ranking.ScopeBoost, c.Ranking.CategoryBoost, c.Ranking.TypeBoost, c.Ranking.RecencyBoost, c.Ranking.RecencyWindow)
	return nil
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
