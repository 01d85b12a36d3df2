package vector

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// snapshot is the on-disk form of a store. Unknown fields are ignored on read.
type snapshot struct {
	Config  IndexConfig `json:"config"`
	Vectors []Record    `json:"vectors"`
}

// writeSnapshot writes snap to path atomically: a temp file in the same
// directory is synced and then renamed over path.
func writeSnapshot(path string, snap *snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: create snapshot dir: %w", ErrPersistence, err)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %w", ErrPersistence, err)
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", ErrPersistence, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: write temp file: %w", ErrPersistence, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: sync temp file: %w", ErrPersistence, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: close temp file: %w", ErrPersistence, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: rename snapshot: %w", ErrPersistence, err)
	}
	return nil
}

// readSnapshot returns nil, nil when there is nothing usable at path.
func readSnapshot(path string, logger *zap.Logger) (*snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("no vector snapshot, starting empty", zap.String("path", path))
		} else {
			logger.Warn("vector snapshot unreadable, starting empty", zap.String("path", path), zap.Error(err))
		}
		return nil, nil
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		logger.Warn("vector snapshot corrupt, starting empty", zap.String("path", path), zap.Error(err))
		return nil, nil
	}
	return &snap, nil
}
