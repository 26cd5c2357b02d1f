package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, DefaultEmbedDim, cfg.EmbedDim)
	assert.Equal(t, DefaultTopK, cfg.TopK)
	assert.Equal(t, DefaultFetchK, cfg.FetchK)
	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)
	assert.InDelta(t, DefaultInternetScore, cfg.InternetScore, 1e-9)
}

func TestLoad_TOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
chunk_size = 400
top_k = 3
fetch_k = 12
model = "mistral:latest"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 400, cfg.ChunkSize)
	assert.Equal(t, 3, cfg.TopK)
	assert.Equal(t, 12, cfg.FetchK)
	assert.Equal(t, "mistral:latest", cfg.Model)
	// Untouched fields keep defaults.
	assert.Equal(t, DefaultEmbedDim, cfg.EmbedDim)
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RETRIEVAL_K", "7")
	t.Setenv("FETCH_K", "30")
	t.Setenv("TEMPERATURE", "0.5")
	t.Setenv("LLM_REQUEST_TIMEOUT", "60")
	t.Setenv("OLLAMA_KEEP_ALIVE", "10m")
	t.Setenv("OLLAMA_AUTO_START", "1")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.TopK)
	assert.Equal(t, 30, cfg.FetchK)
	assert.InDelta(t, 0.5, cfg.Temperature, 1e-9)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 10*time.Minute, cfg.KeepAlive)
	assert.True(t, cfg.AutoStart)
}

func TestLoad_FetchKBelowTopKIsConfigError(t *testing.T) {
	t.Setenv("RETRIEVAL_K", "10")
	t.Setenv("FETCH_K", "4")

	_, err := Load("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}

func TestValidate_Temperature(t *testing.T) {
	cfg := Default()
	cfg.Temperature = 1.5
	require.Error(t, cfg.Validate())

	cfg.Temperature = 0.0
	require.NoError(t, cfg.Validate())

	cfg.Temperature = 1.0
	require.NoError(t, cfg.Validate())
}

func TestValidate_ResponseMode(t *testing.T) {
	cfg := Default()
	cfg.ResponseMode = "verbose"
	require.Error(t, cfg.Validate())

	cfg.ResponseMode = "refine"
	require.NoError(t, cfg.Validate())
}

func TestLoad_MalformedTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("chunk_size = ["), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}
