package client

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/tod/internal/logger"
)

func TestWatcher_PushesExternalEdits(t *testing.T) {
	dir := t.TempDir()
	local, err := NewLocalStore(afero.NewOsFs(), dir)
	require.NoError(t, err)
	remote := newFakeRemote(`{"theme":"light"}`)
	s := New(Options{Remote: remote, Local: local, Logger: logger.Discard(), RetryInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	w := NewWatcher(s, 20*time.Millisecond)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "theme.json"), []byte(`"dark"`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`ignored`), 0o644))

	assert.Eventually(t, func() bool {
		return remote.slice("theme") == `"dark"`
	}, 3*time.Second, 20*time.Millisecond)

	assert.Eventually(t, func() bool {
		pending, err := local.Pending()
		return err == nil && len(pending) == 0
	}, time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestWatcher_SkipsUnchangedContent(t *testing.T) {
	local, _ := newMemLocal(t)
	s := New(Options{Remote: newFakeRemote(`{}`), Local: local, Logger: logger.Discard()})
	w := NewWatcher(s, time.Hour)
	require.NoError(t, afero.WriteFile(local.fs, local.SliceFile("tags"), []byte(`["Work"]`), 0o644))

	assert.True(t, w.changed("tags", local.SliceFile("tags")))
	assert.False(t, w.changed("tags", local.SliceFile("tags")))

	require.NoError(t, afero.WriteFile(local.fs, local.SliceFile("tags"), []byte(`["Home"]`), 0o644))
	assert.True(t, w.changed("tags", local.SliceFile("tags")))
}
