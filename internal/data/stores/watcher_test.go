package stores

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestChangeWatcher_Watch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "tally.db")

	watcher, err := NewChangeWatcher(dbPath, zerolog.Nop())
	require.NoError(t, err)
	defer watcher.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := watcher.Watch(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(dbPath+"-wal", []byte("x"), 0o644))

	select {
	case at := <-events:
		require.False(t, at.IsZero())
	case <-ctx.Done():
		t.Fatal("timeout waiting for event")
	}
}

func TestChangeWatcher_IgnoresOtherFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	watcher, err := NewChangeWatcher(filepath.Join(dir, "tally.db"), zerolog.Nop())
	require.NoError(t, err)
	defer watcher.Close() //nolint:errcheck

	events := watcher.Watch(context.Background())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.json"), []byte("{}"), 0o644))

	select {
	case <-events:
		t.Fatal("unexpected event for unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestChangeWatcher_CloseClosesChannels(t *testing.T) {
	t.Parallel()

	watcher, err := NewChangeWatcher(filepath.Join(t.TempDir(), "tally.db"), zerolog.Nop())
	require.NoError(t, err)

	events := watcher.Watch(context.Background())
	require.NoError(t, watcher.Close())

	_, ok := <-events
	require.False(t, ok)
}
