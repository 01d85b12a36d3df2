package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/models"
)

type searchFlags struct {
	limit          int
	offset         int
	vectorWeight   float64
	textWeight     float64
	scope          string
	category       string
	status         string
	priority       string
	types          []string
	after          string
	before         string
	preferScope    string
	recentCategory []string
	preferTypes    []string
}

func newSearchCmd(opts *globalOptions) *cobra.Command {
	f := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Run a hybrid search",
		Long: `Run a hybrid lexical + vector search.

Weights are renormalized to sum to 1; leaving both at 0 uses the configured
defaults. The --prefer-* and --recent-category flags feed the contextual
reranker and do not filter anything.

Examples:
  kotae search refund not received
  kotae search --scope tenant-1 --type faq "reset password"
  kotae search --text-weight 1 --vector-weight 0 -o json invoice`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(opts.output)
			if err != nil {
				return err
			}
			req, err := buildSearchRequest(buildSearchQuery(args), f)
			if err != nil {
				return err
			}
			resp, err := runSearch(cmd.Context(), opts, req)
			if err != nil {
				return err
			}
			return cli.WriteSearchResults(cmd.OutOrStdout(), resp, format)
		},
	}
	fl := cmd.Flags()
	fl.IntVarP(&f.limit, "limit", "n", 0, "max results (0 = configured default)")
	fl.IntVar(&f.offset, "offset", 0, "results to skip")
	fl.Float64Var(&f.vectorWeight, "vector-weight", 0, "weight of the vector side")
	fl.Float64Var(&f.textWeight, "text-weight", 0, "weight of the lexical side")
	fl.StringVar(&f.scope, "scope", "", "filter: scope id")
	fl.StringVar(&f.category, "category", "", "filter: category")
	fl.StringVar(&f.status, "status", "", "filter: status")
	fl.StringVar(&f.priority, "priority", "", "filter: priority")
	fl.StringSliceVar(&f.types, "type", nil, "filter: record types (repeatable)")
	fl.StringVar(&f.after, "after", "", "filter: created at or after (RFC3339 or YYYY-MM-DD)")
	fl.StringVar(&f.before, "before", "", "filter: created at or before (RFC3339 or YYYY-MM-DD)")
	fl.StringVar(&f.preferScope, "prefer-scope", "", "rerank: boost this scope id")
	fl.StringSliceVar(&f.recentCategory, "recent-category", nil, "rerank: boost these categories")
	fl.StringSliceVar(&f.preferTypes, "prefer-type", nil, "rerank: boost these record types")
	return cmd
}

// buildSearchQuery joins positional args into one query string.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func buildSearchRequest(query string, f *searchFlags) (*models.SearchRequest, error) {
	req := &models.SearchRequest{
		Query: query,
		HybridSearchOptions: models.HybridSearchOptions{
			VectorWeight: f.vectorWeight,
			TextWeight:   f.textWeight,
			Limit:        f.limit,
			Offset:       f.offset,
		},
	}

	filters := &models.Filters{
		ScopeID:  f.scope,
		Category: f.category,
		Status:   f.status,
		Priority: f.priority,
		Types:    toRecordTypes(f.types),
	}
	var err error
	if filters.CreatedAfter, err = parseTimeFlag("after", f.after); err != nil {
		return nil, err
	}
	if filters.CreatedBefore, err = parseTimeFlag("before", f.before); err != nil {
		return nil, err
	}
	if !filters.IsZero() {
		req.Filters = filters
	}

	rc := &models.RankContext{
		PreferredScopeID: f.preferScope,
		RecentCategories: f.recentCategory,
		PreferredTypes:   toRecordTypes(f.preferTypes),
	}
	if !rc.IsZero() {
		req.Context = rc
	}
	return req, nil
}

func toRecordTypes(in []string) []models.RecordType {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.RecordType, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, models.RecordType(s))
		}
	}
	return out
}

func parseTimeFlag(name, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid --%s %q: want RFC3339 or YYYY-MM-DD", name, v)
}

func runSearch(ctx context.Context, opts *globalOptions, req *models.SearchRequest) (*models.SearchResponse, error) {
	if opts.serverURL != "" {
		var resp models.SearchResponse
		if err := newAPIClient(opts.serverURL).do(ctx, http.MethodPost, "/api/v1/search", req, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	}
	c, err := openDirect(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer c.Close(ctx)
	return c.Engine.HybridSearch(ctx, req)
}
