package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Usage is the on-disk footprint of each persisted component, in bytes.
type Usage struct {
	Database int64 `json:"database_bytes"`
	Lexical  int64 `json:"lexical_index_bytes"`
	Vector   int64 `json:"vector_index_bytes"`
	Total    int64 `json:"total_bytes"`
}

// MeasureUsage sizes the record database (with its WAL files), the lexical
// index directory and the vector snapshot.
func MeasureUsage(dbPath, lexicalPath, vectorPath string) (Usage, error) {
	var u Usage
	var err error
	if u.Database, err = DiskUsageBytes(dbPath, dbPath+"-wal", dbPath+"-shm"); err != nil {
		return Usage{}, err
	}
	if u.Lexical, err = DiskUsageBytes(lexicalPath); err != nil {
		return Usage{}, err
	}
	if u.Vector, err = DiskUsageBytes(vectorPath); err != nil {
		return Usage{}, err
	}
	u.Total = u.Database + u.Lexical + u.Vector
	return u, nil
}

// DiskUsageBytes returns the total size in bytes of the given paths.
// Each path may be a file or a directory (recursively summed).
// Missing paths contribute 0.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
			continue
		}
		err = filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			total += fi.Size()
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
