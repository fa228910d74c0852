package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRunConfigEmptyPath(t *testing.T) {
	cfg, err := LoadRunConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRunConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadRunConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
output: /srv/symbols
mode: sequential
http:
  keep_alive_timeout: 10s
  user_agent: custom-agent
mirror:
  bucket: bkt
  prefix: cache
`), 0644))

	cfg, err := LoadRunConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/srv/symbols", cfg.OutputDir)
	assert.Equal(t, ModeStream, cfg.Mode)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, int64(DefaultChunkSize), cfg.ChunkSize)
	assert.Equal(t, 10*time.Second, cfg.HTTP.KATimeout)
	assert.Equal(t, DefaultTimeout, cfg.HTTP.Timeout)
	assert.Equal(t, "custom-agent", cfg.HTTP.UserAgent)
	assert.NotNil(t, cfg.HTTP.Headers)
	assert.Equal(t, MirrorConfig{Bucket: "bkt", Prefix: "cache", Profile: "default"}, cfg.Mirror)
}

func TestLoadRunConfigErrors(t *testing.T) {
	_, err := LoadRunConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: [1, 2"), 0644))
	_, err = LoadRunConfig(path)
	assert.Error(t, err)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := DefaultRunConfig()
	cfg.Workers = 0
	cfg.BufferSize = -1
	cfg.Mode = "turbo"
	cfg.BaseURL = "ftp://example.com"

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Contains(t, err.Error(), "workers")
	assert.Contains(t, err.Error(), "buffer size")
	assert.Contains(t, err.Error(), "turbo")
	assert.Contains(t, err.Error(), "ftp://example.com")
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"range": ModeRange, "": ModeRange, "Concurrent": ModeRange, "stream": ModeStream, " sequential ": ModeStream} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("both")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
