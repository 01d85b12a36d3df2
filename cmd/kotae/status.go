package main

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/server"
)

func newStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show record, index and vector counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cli.ParseOutputFormat(opts.output)
			if err != nil {
				return err
			}
			st, err := fetchStatus(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return cli.WriteStatus(cmd.OutOrStdout(), st, format)
		},
	}
}

func fetchStatus(ctx context.Context, opts *globalOptions) (*server.Status, error) {
	if opts.serverURL != "" {
		var st server.Status
		if err := newAPIClient(opts.serverURL).do(ctx, http.MethodGet, "/api/v1/status", nil, &st); err != nil {
			return nil, err
		}
		return &st, nil
	}
	c, err := openDirect(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer c.Close(ctx)
	return server.CollectStatus(ctx, c.Deps())
}
