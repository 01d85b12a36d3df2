package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/models"
)

func newIndexCmd(opts *globalOptions) *cobra.Command {
	var (
		file string
		in   models.RecordInput
		typ  string
	)
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index records into the record store and both indices",
		Long: `Index one record from flags, or many from a JSON or YAML file.

A record whose embedding fails is still stored and searchable lexically;
run "kotae vectorize" or "kotae reindex" later to fill in its vector.

Examples:
  kotae index --file records.yaml
  kotae index --type faq --scope tenant-1 --title "Reset password" --content "Use the link..."`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var inputs []models.RecordInput
			if file != "" {
				loaded, err := cli.LoadRecords(file)
				if err != nil {
					return err
				}
				inputs = loaded
			} else {
				in.Type = models.RecordType(typ)
				inputs = []models.RecordInput{in}
			}
			return runIndex(cmd.Context(), opts, inputs, cmd.OutOrStdout())
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&file, "file", "f", "", "JSON or YAML file with a list of records")
	fl.StringVar(&in.ID, "id", "", "record id (generated when empty)")
	fl.StringVar(&typ, "type", "", "record type: inquiry, response, faq, ...")
	fl.StringVar(&in.ScopeID, "scope", "", "scope id")
	fl.StringVar(&in.Title, "title", "", "title (question for faq)")
	fl.StringVar(&in.Content, "content", "", "content (answer for faq)")
	fl.StringVar(&in.Category, "category", "", "category")
	fl.StringVar(&in.Status, "status", "", "status")
	fl.StringVar(&in.Priority, "priority", "", "priority")
	fl.StringVar(&in.ParentID, "parent", "", "parent record id")
	cmd.MarkFlagsMutuallyExclusive("file", "id")
	return cmd
}

// runIndex indexes every input and keeps going past failures. It returns an
// error when any record failed to be stored.
func runIndex(ctx context.Context, opts *globalOptions, inputs []models.RecordInput, out io.Writer) error {
	index := func(ctx context.Context, in *models.RecordInput) (*indexer.IndexResult, error) {
		var res indexer.IndexResult
		err := newAPIClient(opts.serverURL).do(ctx, http.MethodPost, "/api/v1/records", in, &res)
		return &res, err
	}
	if opts.serverURL == "" {
		c, err := openDirect(ctx, opts)
		if err != nil {
			return err
		}
		defer c.Close(ctx)
		index = c.Indexer.IndexRecord
	}

	var errs []error
	stored, vectorized := 0, 0
	for i := range inputs {
		res, err := index(ctx, &inputs[i])
		if err != nil {
			errs = append(errs, fmt.Errorf("record %d (%s): %w", i, inputs[i].ID, err))
			continue
		}
		stored++
		if res.Vectorized {
			vectorized++
		} else {
			fmt.Fprintf(out, "warning: %s stored without vector: %s\n", res.Record.ID, res.VectorError)
		}
		if len(inputs) == 1 {
			fmt.Fprintf(out, "indexed %s\n", res.Record.ID)
		}
	}
	fmt.Fprintf(out, "stored %d/%d records, %d vectorized\n", stored, len(inputs), vectorized)
	return errors.Join(errs...)
}

func newDeleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record from the store and both indices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, id := cmd.Context(), args[0]
			if opts.serverURL != "" {
				if err := newAPIClient(opts.serverURL).do(ctx, http.MethodDelete, "/api/v1/records/"+url.PathEscape(id), nil, nil); err != nil {
					return err
				}
			} else {
				c, err := openDirect(ctx, opts)
				if err != nil {
					return err
				}
				defer c.Close(ctx)
				if err := c.Indexer.DeleteRecord(ctx, id); err != nil {
					return err
				}
			}
			cmd.Printf("deleted %s\n", id)
			return nil
		},
	}
}

func newVectorizeCmd(opts *globalOptions) *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "vectorize <id>",
		Short: "(Re)compute the vector of one stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, id := cmd.Context(), args[0]
			if opts.serverURL != "" {
				path := "/api/v1/records/" + url.PathEscape(id) + "/vectorize"
				if typ != "" {
					path += "?type=" + url.QueryEscape(typ)
				}
				if err := newAPIClient(opts.serverURL).do(ctx, http.MethodPost, path, nil, nil); err != nil {
					return err
				}
			} else {
				c, err := openDirect(ctx, opts)
				if err != nil {
					return err
				}
				defer c.Close(ctx)
				if err := c.Vectorizer.Vectorize(ctx, models.RecordType(typ), id); err != nil {
					return err
				}
			}
			cmd.Printf("vectorized %s\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "expected record type (empty = any)")
	return cmd
}

func newReindexCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Recompute vectors for every stored record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cli.ParseOutputFormat(opts.output)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			var report *indexer.ReindexReport
			if opts.serverURL != "" {
				report = &indexer.ReindexReport{}
				err = newAPIClient(opts.serverURL).do(ctx, http.MethodPost, "/api/v1/reindex", nil, report)
			} else {
				c, openErr := openDirect(ctx, opts)
				if openErr != nil {
					return openErr
				}
				defer c.Close(ctx)
				report, err = c.Vectorizer.ReindexAll(ctx)
			}
			if err != nil {
				return err
			}
			if format == cli.OutputJSON {
				return cli.WriteJSON(cmd.OutOrStdout(), report)
			}
			cmd.Printf("reindexed %d records: %d ok, %d failed in %s\n",
				report.Total, report.Succeeded, report.Failed, report.Duration.Round(time.Millisecond))
			return nil
		},
	}
}
