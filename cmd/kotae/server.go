package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/server"
	"github.com/hyperjump/kotae/internal/vector"
	"github.com/hyperjump/kotae/internal/watcher"
	"github.com/hyperjump/kotae/pkg/utils"
)

func newServerCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API. The vector store is flushed to disk periodically and on
shutdown. Edits to the config file's ranking section are applied without a
restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context(), opts)
		},
	}
}

func runServer(ctx context.Context, opts *globalOptions) error {
	cfg, resolvedConfigPath, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	debugMode := cfg.Debug || opts.debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	var bg sync.WaitGroup
	flusher := vector.NewFlusher(components.Vectors, cfg.Storage.PersistInterval, logger)
	bg.Add(1)
	go func() {
		defer bg.Done()
		flusher.Run(bgCtx)
	}()

	cfgWatcher, err := watcher.NewWatcher(resolvedConfigPath,
		newBoostReloader(components, logger),
		watcher.WithLogger(logger),
	)
	if err == nil {
		err = cfgWatcher.Start(bgCtx)
	}
	if err != nil {
		// Serving continues without hot reload.
		logger.Warn("config watcher disabled", zap.Error(err))
		cfgWatcher = nil
		err = nil
	}

	srv := server.NewServer(components.Deps(), logger)
	srvErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-srvErr:
		logger.Error("server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if stopErr := srv.Stop(shutdownCtx); stopErr != nil {
		logger.Warn("server shutdown", zap.Error(stopErr))
	}
	if cfgWatcher != nil {
		cfgWatcher.Stop()
	}
	// The flusher persists once more when cancelled.
	bgCancel()
	bg.Wait()
	if closeErr := components.Close(shutdownCtx); closeErr != nil {
		logger.Warn("close components", zap.Error(closeErr))
	}
	return err
}

// newBoostReloader returns the config watcher callback. Only the ranking
// section is hot-reloaded; a config that fails to load keeps the current boosts.
func newBoostReloader(c *Components, logger *zap.Logger) func(path string) {
	logger = utils.OrNop(logger)
	return func(path string) {
		cfg, err := config.Load(path)
		if err != nil {
			logger.Warn("config reload failed", zap.String("path", path), zap.Error(err))
			return
		}
		c.Reranker.SetBoosts(cfg.Ranking)
	}
}
