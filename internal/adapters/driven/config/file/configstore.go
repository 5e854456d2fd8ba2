// Package file loads and persists the Shannon configuration as a TOML
// file under the user's config directory. Secrets can be supplied via
// environment variables instead of the file.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/GQAdonis/Shannon/internal/core/domain"
)

// Default configuration values.
const (
	DefaultSearchLimit = 5
	DefaultUserID      = "local"
)

// EmbeddingConfig selects the default embedding backend.
type EmbeddingConfig struct {
	// Provider is "openai" or "ollama" (default).
	Provider string `toml:"provider"`

	// Model overrides the provider's default model.
	Model string `toml:"model"`

	// OpenAIAPIKey authenticates against OpenAI. The OPENAI_API_KEY
	// environment variable takes precedence.
	OpenAIAPIKey string `toml:"openai_api_key"`

	// OpenAIBaseURL overrides the OpenAI endpoint.
	OpenAIBaseURL string `toml:"openai_base_url"`

	// OllamaBaseURL overrides the local Ollama endpoint. The
	// OLLAMA_BASE_URL environment variable takes precedence.
	OllamaBaseURL string `toml:"ollama_base_url"`

	// Dimensions overrides the model's default vector size.
	Dimensions int `toml:"dimensions"`
}

// SearchConfig tunes retrieval.
type SearchConfig struct {
	// Limit is the default number of results (default 5).
	Limit int `toml:"limit"`
}

// Config is the persisted Shannon configuration.
type Config struct {
	// DataDir holds the SQLite database and vector index files.
	// Defaults to ~/.shannon/data.
	DataDir string `toml:"data_dir"`

	// UserID scopes knowledge bases; single-user installs keep the
	// default.
	UserID string `toml:"user_id"`

	// DefaultStrategy is the chunking strategy for new knowledge
	// bases (default semantic).
	DefaultStrategy string `toml:"default_strategy"`

	// Chunking sets default parameters for new knowledge bases.
	Chunking domain.ChunkingConfig `toml:"chunking"`

	// Embedding selects the default embedding backend.
	Embedding EmbeddingConfig `toml:"embedding"`

	// Search tunes retrieval.
	Search SearchConfig `toml:"search"`

	path string
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		UserID:          DefaultUserID,
		DefaultStrategy: string(domain.StrategySemantic),
		Embedding:       EmbeddingConfig{Provider: "ollama"},
		Search:          SearchConfig{Limit: DefaultSearchLimit},
	}
}

// Load reads the configuration from configDir/config.toml, falling
// back to defaults when the file is absent. If configDir is empty,
// ~/.shannon is used. Environment variables override file values for
// secrets and endpoints.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		configDir = filepath.Join(home, ".shannon")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	cfg := Default()
	cfg.path = filepath.Join(configDir, "config.toml")

	data, err := os.ReadFile(cfg.path)
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", cfg.path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", cfg.path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

// Save writes the configuration back to its file with restricted
// permissions.
func (c *Config) Save() error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	return os.WriteFile(c.path, data, 0600)
}

// Path returns the configuration file path.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) applyDefaults() {
	if c.UserID == "" {
		c.UserID = DefaultUserID
	}
	if c.DefaultStrategy == "" {
		c.DefaultStrategy = string(domain.StrategySemantic)
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "ollama"
	}
	if c.Search.Limit <= 0 {
		c.Search.Limit = DefaultSearchLimit
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SHANNON_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Embedding.OpenAIAPIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.Embedding.OpenAIBaseURL = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		c.Embedding.OllamaBaseURL = v
	}
}
