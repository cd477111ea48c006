package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openAll(t *testing.T) map[string]Medium {
	t.Helper()
	media := map[string]Medium{}

	media[BackendMemory] = NewMemory()

	file, err := NewFileMedium(filepath.Join(t.TempDir(), "file"))
	require.NoError(t, err)
	media[BackendFile] = file

	lite, err := NewSQLiteMedium(filepath.Join(t.TempDir(), "nested", "store.db"))
	require.NoError(t, err)
	media[BackendSQLite] = lite

	bdb, err := NewBadgerMedium(filepath.Join(t.TempDir(), "badger"))
	require.NoError(t, err)
	media[BackendBadger] = bdb

	return media
}

func TestMediumContract(t *testing.T) {
	for name, m := range openAll(t) {
		t.Run(name, func(t *testing.T) {
			defer m.Close()

			_, found, err := m.GetItem("filmfinder-watchlist")
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, m.SetItem("filmfinder-watchlist", `{"version":1,"items":[]}`))
			v, found, err := m.GetItem("filmfinder-watchlist")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, `{"version":1,"items":[]}`, v)

			require.NoError(t, m.SetItem("filmfinder-watchlist", "[]"))
			v, _, err = m.GetItem("filmfinder-watchlist")
			require.NoError(t, err)
			assert.Equal(t, "[]", v)

			require.NoError(t, m.SetItem("other key/with slash", "x"))
			v, found, err = m.GetItem("other key/with slash")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "x", v)

			require.NoError(t, m.RemoveItem("filmfinder-watchlist"))
			_, found, err = m.GetItem("filmfinder-watchlist")
			require.NoError(t, err)
			assert.False(t, found)

			assert.NoError(t, m.RemoveItem("never-set"))
		})
	}
}

func TestOpen(t *testing.T) {
	m, err := Open(Options{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, m)

	m, err = Open(Options{Backend: BackendFile, Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileMedium{}, m)

	_, err = Open(Options{Backend: "cloud"})
	assert.Error(t, err)

	_, err = Open(Options{Backend: BackendSQLite})
	assert.Error(t, err)
}

func TestMemoryClosed(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Close())

	_, _, err := m.GetItem("k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.SetItem("k", "v"), ErrClosed)
	assert.ErrorIs(t, m.RemoveItem("k"), ErrClosed)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")

	first, err := NewSQLiteMedium(path)
	require.NoError(t, err)
	require.NoError(t, first.SetItem("k", "v"))
	require.NoError(t, first.Close())

	second, err := NewSQLiteMedium(path)
	require.NoError(t, err)
	defer second.Close()
	v, found, err := second.GetItem("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", v)
}

func TestFileMediumKeyForPath(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFileMedium(dir)
	require.NoError(t, err)

	key, ok := f.keyForPath(f.path("filmfinder-recently-viewed"))
	assert.True(t, ok)
	assert.Equal(t, "filmfinder-recently-viewed", key)

	_, ok = f.keyForPath(filepath.Join(dir, ".tmp-123"))
	assert.False(t, ok)
	_, ok = f.keyForPath(filepath.Join(dir, "notes.txt"))
	assert.False(t, ok)
	_, ok = f.keyForPath(filepath.Join(dir, "sub", "x.json"))
	assert.False(t, ok)
}

func TestFileMediumWatch(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFileMedium(dir)
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		seen []string
	)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- f.Watch(ctx, 20*time.Millisecond, func(key string) {
			mu.Lock()
			seen = append(seen, key)
			mu.Unlock()
		})
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	// An external writer replacing the file directly.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "filmfinder-watchlist.json"), []byte("[]"), 0644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "filmfinder-watchlist", seen[0])
}
