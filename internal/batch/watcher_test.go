package batch

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartWatcher_InitialScanEmitsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.pdf", "notes.txt", ".hidden.pdf")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := startWatcher(ctx, WatchConfig{Root: dir, InitialScan: true}, discardLogger())
	require.NoError(t, err)

	// the initial walk runs before startWatcher returns, so the buffered
	// channel already holds the eligible files
	select {
	case path := <-events:
		assert.Equal(t, "a.pdf", filepath.Base(path))
	default:
		t.Fatal("expected an initial-scan event")
	}
	select {
	case path := <-events:
		t.Fatalf("unexpected extra event %s", path)
	default:
	}
}

func TestStartWatcher_RequiresRoot(t *testing.T) {
	_, _, err := startWatcher(context.Background(), WatchConfig{}, discardLogger())
	assert.Error(t, err)
}
