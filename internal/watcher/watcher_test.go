package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWatcher_CallsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "debug: false\n")

	var calls atomic.Int32
	var got atomic.Value
	w, err := NewWatcher(path, func(p string) {
		got.Store(p)
		calls.Add(1)
	}, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	writeFile(t, path, "debug: true\n")

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, w.Path(), got.Load())
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "a: 1\n")

	var calls atomic.Int32
	w, err := NewWatcher(path, func(string) { calls.Add(1) }, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	writeFile(t, filepath.Join(dir, "other.yaml"), "b: 2\n")
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestWatcher_DebounceCoalescesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "v: 0\n")

	var calls atomic.Int32
	w, err := NewWatcher(path, func(string) { calls.Add(1) }, WithDebounce(150*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	for i := 0; i < 5; i++ {
		writeFile(t, path, "v: 1\n")
	}
	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Less(t, calls.Load(), int32(5))
}

func TestWatcher_AtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "v: 0\n")

	var calls atomic.Int32
	w, err := NewWatcher(path, func(string) { calls.Add(1) }, WithDebounce(30*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	tmp := filepath.Join(dir, ".config.yaml.tmp")
	writeFile(t, tmp, "v: 2\n")
	require.NoError(t, os.Rename(tmp, path))

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)
}

func TestWatcher_StopAndCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "v: 0\n")

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.Start(ctx), "second start is a no-op")
	cancel()
	w.Stop()
	w.Stop()
}

func TestNewWatcher_Errors(t *testing.T) {
	_, err := NewWatcher("", nil)
	assert.Error(t, err)

	w, err := NewWatcher(filepath.Join(t.TempDir(), "missing", "config.yaml"), nil)
	require.NoError(t, err)
	assert.Error(t, w.Start(context.Background()), "parent directory must exist")
}
