// Package watcher watches a single file with fsnotify and invokes a callback,
// debounced, whenever it is written or replaced.
package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches one file. The parent directory is watched rather than the
// file itself so that editors which save by rename keep triggering events.
type Watcher struct {
	path     string
	onChange func(path string)
	debounce time.Duration
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	timer    *time.Timer
	done     chan struct{}
	started  bool
	stopOnce sync.Once
	logger   *zap.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for debug output (file events, reloads, etc.).
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDebounce sets how long the file must stay quiet before onChange runs.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher for path. onChange is called after the file is
// created or written and then left untouched for the debounce interval.
func NewWatcher(path string, onChange func(path string), opts ...WatcherOption) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("watcher: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:     filepath.Clean(abs),
		onChange: onChange,
		debounce: defaultDebounce,
		done:     make(chan struct{}),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Start starts the watcher. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		_ = fw.Close()
		return err
	}
	w.watcher = fw
	w.started = true
	w.logger.Debug("watcher starting", zap.String("path", w.path), zap.Duration("debounce", w.debounce))
	go w.run(ctx, fw.Events, fw.Errors)
	return nil
}

func (w *Watcher) run(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-errs:
			if !ok {
				return
			}
			w.logger.Debug("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		w.debounceChange()
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		// An atomic save removes or renames the old file and then creates the
		// new one; the Create triggers the reload.
		w.cancelDebounce()
	}
}

func (w *Watcher) debounceChange() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		w.timer = nil
		stopped := !w.started
		w.mu.Unlock()
		if stopped || w.onChange == nil {
			return
		}
		w.logger.Debug("watcher file changed (debounced)", zap.String("path", w.path))
		w.onChange(w.path)
	})
}

func (w *Watcher) cancelDebounce() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// Stop stops the watcher and releases resources. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	fw := w.watcher
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
	_ = fw.Close()
}
