// Package file provides TOML-backed configuration for Ragline.
//
// Configuration resolves in three layers: compiled defaults, the config
// file, then environment variables. Values are plain identifier overrides;
// beyond chunking parameters (validated by the chunker) nothing is
// validated past presence.
package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full configuration surface.
type Config struct {
	Ollama OllamaConfig `toml:"ollama"`
	Embed  ModelConfig  `toml:"embed"`
	LLM    ModelConfig  `toml:"llm"`
	Store  StoreConfig  `toml:"store"`
	Qdrant QdrantConfig `toml:"qdrant"`
	Server ServerConfig `toml:"server"`
	Chunk  ChunkConfig  `toml:"chunk"`
}

// OllamaConfig locates the Ollama endpoint serving both gateways.
type OllamaConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// BaseURL renders the endpoint as a URL.
func (c OllamaConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// ModelConfig names a model.
type ModelConfig struct {
	Model string `toml:"model"`
}

// StoreConfig selects and locates the vector store backend.
type StoreConfig struct {
	// Backend is one of "sqlite", "qdrant" or "memory".
	Backend    string `toml:"backend"`
	Path       string `toml:"path"`
	Collection string `toml:"collection"`
}

// QdrantConfig locates a remote Qdrant endpoint.
type QdrantConfig struct {
	URL    string `toml:"url"`
	APIKey string `toml:"api_key"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// ChunkConfig holds the chunking parameters. Validation happens in the
// chunker constructor, not here.
type ChunkConfig struct {
	MaxWords int `toml:"max_words"`
	Overlap  int `toml:"overlap"`
}

// Defaults returns the compiled-in configuration.
func Defaults() Config {
	return Config{
		Ollama: OllamaConfig{Host: "localhost", Port: 11434},
		Embed:  ModelConfig{Model: "nomic-embed-text"},
		LLM:    ModelConfig{Model: "llama3"},
		Store:  StoreConfig{Backend: "sqlite", Collection: "docs"},
		Qdrant: QdrantConfig{URL: "http://localhost:6333"},
		Server: ServerConfig{Addr: ":8000"},
		Chunk:  ChunkConfig{MaxWords: 400, Overlap: 50},
	}
}

// DefaultPath returns ~/.ragline/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ragline", "config.toml"), nil
}

// Load reads configuration from path, layering file values over defaults
// and environment variables over both. A missing file is not an error:
// defaults plus environment apply.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// fall through to env overrides
		case err != nil:
			return cfg, fmt.Errorf("reading config: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overrides config values from the environment.
func applyEnv(cfg *Config) {
	setString(&cfg.Ollama.Host, "OLLAMA_HOST")
	setInt(&cfg.Ollama.Port, "OLLAMA_PORT")
	setString(&cfg.Embed.Model, "EMBED_MODEL")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	setString(&cfg.Store.Backend, "RAGLINE_STORE")
	setString(&cfg.Store.Path, "RAGLINE_DATA_DIR")
	setString(&cfg.Store.Collection, "RAGLINE_COLLECTION")
	setString(&cfg.Qdrant.URL, "QDRANT_URL")
	setString(&cfg.Qdrant.APIKey, "QDRANT_API_KEY")
	setString(&cfg.Server.Addr, "RAGLINE_ADDR")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
