package xconf

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "store.yaml", "capacity: 1\n")
	src, err := Open(path)
	require.NoError(t, err)

	reloaded := make(chan error, 16)
	w, err := Watch(src, func(_ *Source, err error) { reloaded <- err }, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var g errgroup.Group
	g.Go(func() error { return w.Run(ctx) })
	t.Cleanup(func() {
		cancel()
		_ = g.Wait()
	})

	require.NoError(t, os.WriteFile(path, []byte("capacity: 9\n"), 0o600))

	select {
	case err := <-reloaded:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload callback")
	}
	cfg, err := Load(src)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Capacity)
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "store.yaml", "capacity: 1\n")
	src, err := Open(path)
	require.NoError(t, err)

	var calls atomic.Int32
	w, err := Watch(src, func(*Source, error) { calls.Add(1) }, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	writeFile(t, dir, "other.yaml", "capacity: 2\n")
	time.Sleep(100 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Zero(t, calls.Load())
}

func TestWatch_Errors(t *testing.T) {
	src, err := FromBytes([]byte("capacity: 1"), FormatYAML)
	require.NoError(t, err)
	_, err = Watch(src, nil)
	assert.ErrorIs(t, err, ErrNotFromFile)

	_, err = Watch(nil, nil)
	assert.ErrorIs(t, err, ErrNotFromFile)
}

func TestWatcher_CloseIdempotent(t *testing.T) {
	path := writeFile(t, t.TempDir(), "store.yaml", "capacity: 1\n")
	src, err := Open(path)
	require.NoError(t, err)
	w, err := Watch(src, nil)
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	// Close 之后 Run 立即返回
	assert.NoError(t, w.Run(context.Background()))
}

func TestWatcher_ReloadRetry(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "store.yaml", "capacity: 1\n")
	src, err := Open(path)
	require.NoError(t, err)

	w, err := Watch(src, nil, WithReloadRetry(3, 5*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	writeFile(t, dir, "store.yaml", "capacity: [")
	start := time.Now()
	err = w.reload()
	assert.ErrorIs(t, err, ErrParseFailed)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond, "两次重试间隔")

	writeFile(t, dir, "store.yaml", "capacity: 4\n")
	require.NoError(t, w.reload())
	assert.Equal(t, 4, src.Client().Int("capacity"))
}
