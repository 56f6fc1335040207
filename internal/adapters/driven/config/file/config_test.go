package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, "http://localhost:11434", cfg.Ollama.BaseURL())
	assert.Equal(t, "nomic-embed-text", cfg.Embed.Model)
	assert.Equal(t, "llama3", cfg.LLM.Model)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "docs", cfg.Store.Collection)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 400, cfg.Chunk.MaxWords)
	assert.Equal(t, 50, cfg.Chunk.Overlap)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[ollama]
host = "gpu-box"
port = 11435

[llm]
model = "mistral"

[chunk]
max_words = 200
overlap = 25
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://gpu-box:11435", cfg.Ollama.BaseURL())
	assert.Equal(t, "mistral", cfg.LLM.Model)
	assert.Equal(t, 200, cfg.Chunk.MaxWords)
	assert.Equal(t, 25, cfg.Chunk.Overlap)

	// Untouched sections keep their defaults.
	assert.Equal(t, "nomic-embed-text", cfg.Embed.Model)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[ollama]
host = "from-file"
`), 0600))

	t.Setenv("OLLAMA_HOST", "from-env")
	t.Setenv("OLLAMA_PORT", "9999")
	t.Setenv("RAGLINE_STORE", "memory")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env:9999", cfg.Ollama.BaseURL())
	assert.Equal(t, "memory", cfg.Store.Backend)
}

func TestLoad_MalformedFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("this is = not [ toml"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EmptyPathSkipsFile(t *testing.T) {
	t.Setenv("LLM_MODEL", "phi3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "phi3", cfg.LLM.Model)
}
