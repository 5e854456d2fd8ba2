package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GQAdonis/Shannon/internal/core/domain"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultUserID, cfg.UserID)
	assert.Equal(t, string(domain.StrategySemantic), cfg.DefaultStrategy)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, DefaultSearchLimit, cfg.Search.Limit)
}

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	content := `data_dir = "/tmp/shannon-data"
default_strategy = "fixed_size"

[chunking]
chunk_size = 512
overlap_percent = 0.2

[embedding]
provider = "openai"
model = "text-embedding-3-small"

[search]
limit = 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/shannon-data", cfg.DataDir)
	assert.Equal(t, "fixed_size", cfg.DefaultStrategy)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, 10, cfg.Search.Limit)
	require.NotNil(t, cfg.Chunking.ChunkSize)
	assert.Equal(t, 512, *cfg.Chunking.ChunkSize)
	require.NotNil(t, cfg.Chunking.OverlapPercent)
	assert.InDelta(t, 0.2, *cfg.Chunking.OverlapPercent, 1e-9)

	// Unset fields still get defaults.
	assert.Equal(t, DefaultUserID, cfg.UserID)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not = [valid"), 0600))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SHANNON_DATA_DIR", "/tmp/env-data")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434")

	dir := t.TempDir()
	content := `data_dir = "/tmp/file-data"

[embedding]
openai_api_key = "sk-file"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env-data", cfg.DataDir)
	assert.Equal(t, "sk-env", cfg.Embedding.OpenAIAPIKey)
	assert.Equal(t, "http://ollama:11434", cfg.Embedding.OllamaBaseURL)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), cfg.Path())

	cfg.DataDir = "/tmp/saved-data"
	cfg.Embedding.Model = "nomic-embed-text"
	require.NoError(t, cfg.Save())

	info, err := os.Stat(cfg.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reloaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/saved-data", reloaded.DataDir)
	assert.Equal(t, "nomic-embed-text", reloaded.Embedding.Model)
}
