// Package main is the kotae CLI entry point.
package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hyperjump/kotae/internal/config"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/kotae/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// globalOptions are the flags shared by every command.
type globalOptions struct {
	configPath string
	serverURL  string
	debug      bool
	output     string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "kotae",
		Short: "Hybrid lexical + vector retrieval for support records",
		Long: `kotae indexes inquiries, responses and FAQ entries into a full-text index and a
vector store, and answers queries by fusing both rankings.

Most commands talk to a running "kotae server" over HTTP. Pass --server "" to
open the storage directly instead (the server must not be running).`,
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "config file path")
	root.PersistentFlags().StringVar(&opts.serverURL, "server", defaultServerURL, `server URL (empty = open storage directly)`)
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "output format: text, compact, or json")

	root.AddCommand(
		newServerCmd(opts),
		newSearchCmd(opts),
		newIndexCmd(opts),
		newDeleteCmd(opts),
		newVectorizeCmd(opts),
		newReindexCmd(opts),
		newStatusCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("kotae version %s\n", version)
		},
	}
}

// loadConfig loads config from path. When path is the default, a config.yaml in
// the current directory takes precedence so that running from a checkout uses
// the checkout's config. Returns the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				cfg, err := config.Load(fallback)
				if err != nil {
					return nil, "", err
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}
