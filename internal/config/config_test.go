package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("tmdb:\n  api_key: abc\nstorage:\n  path: /tmp/ff\n"))
	require.NoError(t, err)

	assert.Equal(t, "abc", cfg.TMDB.APIKey)
	assert.Equal(t, "en-US", cfg.TMDB.Language)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/ff", cfg.Storage.Path)
	assert.Equal(t, 10, cfg.Storage.RecentlyViewedLimit)
	assert.Equal(t, "sqlite", cfg.Cache.Backend)
	assert.Equal(t, 1, cfg.Cache.TTLDays)
	assert.Equal(t, 512, cfg.Cache.Size)
	assert.Equal(t, 3, cfg.Options.MaxAttempts)
	assert.Equal(t, 1000, cfg.Options.InitialBackoffMs)
	assert.Equal(t, 30, cfg.Options.TimeoutSeconds)
	assert.False(t, cfg.OMDBActive())
}

func TestParseExpandsEnvironment(t *testing.T) {
	t.Setenv("FILMFINDER_TEST_TMDB_KEY", "from-env")
	cfg, err := Parse([]byte("tmdb:\n  api_key: ${FILMFINDER_TEST_TMDB_KEY}\nstorage:\n  backend: memory\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.TMDB.APIKey)
}

func TestParseExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg, err := Parse([]byte("tmdb:\n  api_key: abc\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".filmfinder", "file"), cfg.Storage.Path)
	assert.Equal(t, filepath.Join(home, ".filmfinder", "cache.db"), cfg.Cache.Path)
}

func TestParseValidation(t *testing.T) {
	testCases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing tmdb key", "storage:\n  backend: memory\n", "TMDB API key is required"},
		{"placeholder tmdb key", "tmdb:\n  api_key: your_api_key_here\n", "TMDB API key is required"},
		{"unknown storage backend", "tmdb:\n  api_key: abc\nstorage:\n  backend: s3\n", "Backend"},
		{"omdb enabled without key", "tmdb:\n  api_key: abc\nomdb:\n  enabled: true\n", "OMDB.APIKey"},
		{"bad cache backend", "tmdb:\n  api_key: abc\ncache:\n  backend: redis\n", "Cache.Backend"},
		{"too many attempts", "tmdb:\n  api_key: abc\noptions:\n  max_attempts: 50\n", "MaxAttempts"},
		{"bad base url", "tmdb:\n  api_key: abc\n  base_url: not a url\n", "BaseURL"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestOMDBActive(t *testing.T) {
	cfg, err := Parse([]byte("tmdb:\n  api_key: abc\nomdb:\n  api_key: xyz\n  enabled: true\n"))
	require.NoError(t, err)
	assert.True(t, cfg.OMDBActive())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tmdb:\n  api_key: abc\nstorage:\n  backend: memory\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Empty(t, cfg.Storage.Path)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
