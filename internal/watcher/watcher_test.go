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

type countingIngestor struct {
	calls atomic.Int32
}

func (c *countingIngestor) Ingest(context.Context) (int, error) {
	c.calls.Add(1)
	return 1, nil
}

func waitForCalls(t *testing.T, ingestor *countingIngestor, want int32) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if ingestor.calls.Load() >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d ingest calls, got %d", want, ingestor.calls.Load())
}

func TestWatcher_RebuildsAfterChange(t *testing.T) {
	dir := t.TempDir()
	ingestor := &countingIngestor{}
	w := New(ingestor, dir, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx) //nolint:errcheck
	}()

	// Give the watch time to establish before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0600))

	waitForCalls(t, ingestor, 1)
	cancel()
	<-done
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	ingestor := &countingIngestor{}
	w := New(ingestor, dir, 150*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx) //nolint:errcheck
	}()

	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte{byte(i)}, 0600))
		time.Sleep(20 * time.Millisecond)
	}

	waitForCalls(t, ingestor, 1)

	// The burst settled into a single rebuild.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), ingestor.calls.Load())
	cancel()
	<-done
}

func TestWatcher_IgnoresHiddenFiles(t *testing.T) {
	dir := t.TempDir()
	ingestor := &countingIngestor{}
	w := New(ingestor, dir, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx) //nolint:errcheck
	}()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0600))

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), ingestor.calls.Load())
	cancel()
	<-done
}

func TestWatcher_RunEndsOnCancel(t *testing.T) {
	dir := t.TempDir()
	w := New(&countingIngestor{}, dir, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := New(&countingIngestor{}, filepath.Join(t.TempDir(), "nope"), 50*time.Millisecond)
	err := w.Run(context.Background())
	assert.Error(t, err)
}

func TestNew_DefaultDebounce(t *testing.T) {
	w := New(&countingIngestor{}, "docs", 0)
	assert.Equal(t, DefaultDebounce, w.debounce)
}
