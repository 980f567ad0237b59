// Package config loads and validates crateindex's configuration: hardcoded
// defaults, then the optional user config file, then an optional project
// file (.crateindex.yaml), then CRATEINDEX_*/QDRANT_* environment
// variables, in that precedence order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete crateindex configuration.
type Config struct {
	Version     int               `yaml:"version" json:"version"`
	VectorStore VectorStoreConfig `yaml:"vector_store" json:"vector_store"`
	Embeddings  EmbeddingsConfig  `yaml:"embeddings" json:"embeddings"`
	Registry    RegistryConfig    `yaml:"registry" json:"registry"`
	Server      ServerConfig      `yaml:"server" json:"server"`
	HTTP        HTTPConfig        `yaml:"http" json:"http"`
}

// VectorStoreConfig configures the Qdrant connection (spec §6's external
// vector-database engine).
type VectorStoreConfig struct {
	URL        string `yaml:"url" json:"url"`
	APIKey     string `yaml:"api_key" json:"api_key"`
	VectorSize int    `yaml:"vector_size" json:"vector_size"`
}

// EmbeddingsConfig configures the OpenAI-compatible embedding endpoint.
type EmbeddingsConfig struct {
	Provider  string `yaml:"provider" json:"provider"`
	Model     string `yaml:"model" json:"model"`
	BaseURL   string `yaml:"base_url" json:"base_url"`
	APIKey    string `yaml:"api_key" json:"api_key"`
	BatchSize int    `yaml:"batch_size" json:"batch_size"`
}

// RegistryConfig configures the upstream crate registry used to resolve
// package versions, features, and repository URLs (C9).
type RegistryConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
}

// ServerConfig configures the MCP tool server.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	Port      int    `yaml:"port" json:"port"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// HTTPConfig holds an HTTP timeout setting. It is loaded and merged like
// the other sections, but the fetch, registry, and embedding clients do
// not read it.
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// NewConfig creates a Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		VectorStore: VectorStoreConfig{
			URL:        "http://localhost:6334",
			APIKey:     "",
			VectorSize: 1536,
		},
		Embeddings: EmbeddingsConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			BaseURL:   "",
			APIKey:    "",
			BatchSize: 50,
		},
		Registry: RegistryConfig{
			BaseURL: "https://crates.io/api/v1/crates",
		},
		Server: ServerConfig{
			Transport: "stdio",
			Port:      8765,
			LogLevel:  "info",
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file,
// following the XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/crateindex/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/crateindex/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "crateindex", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "crateindex", "config.yaml")
	}
	return filepath.Join(home, ".config", "crateindex", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns a nil config and nil error if the file doesn't exist.
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}
	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return cfg, nil
}

// LoadUserConfig loads the user configuration file.
// Returns a nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

// Load loads configuration from the specified directory, applying
// precedence in order:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/crateindex/config.yaml)
//  3. Project config (.crateindex.yaml in dir)
//  4. Environment variables (highest precedence)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .crateindex.yaml or
// .crateindex.yml in dir.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".crateindex.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}
	ymlPath := filepath.Join(dir, ".crateindex.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.VectorStore.URL != "" {
		c.VectorStore.URL = other.VectorStore.URL
	}
	if other.VectorStore.APIKey != "" {
		c.VectorStore.APIKey = other.VectorStore.APIKey
	}
	if other.VectorStore.VectorSize != 0 {
		c.VectorStore.VectorSize = other.VectorStore.VectorSize
	}

	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.BaseURL != "" {
		c.Embeddings.BaseURL = other.Embeddings.BaseURL
	}
	if other.Embeddings.APIKey != "" {
		c.Embeddings.APIKey = other.Embeddings.APIKey
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}

	if other.Registry.BaseURL != "" {
		c.Registry.BaseURL = other.Registry.BaseURL
	}

	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.Port != 0 {
		c.Server.Port = other.Server.Port
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}

	if other.HTTP.Timeout != 0 {
		c.HTTP.Timeout = other.HTTP.Timeout
	}
}

// applyEnvOverrides applies the QDRANT_*/CRATEINDEX_* environment variable
// overrides spec §6 names, at the highest precedence.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("QDRANT_URL"); v != "" {
		c.VectorStore.URL = v
	}
	if v := os.Getenv("QDRANT_API_KEY"); v != "" {
		c.VectorStore.APIKey = v
	}
	if v := os.Getenv("CRATEINDEX_VECTOR_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.VectorStore.VectorSize = n
		}
	}

	if v := os.Getenv("CRATEINDEX_EMBEDDING_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("CRATEINDEX_EMBEDDING_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("CRATEINDEX_EMBEDDING_BASE_URL"); v != "" {
		c.Embeddings.BaseURL = v
	}
	if v := os.Getenv("CRATEINDEX_EMBEDDING_API_KEY"); v != "" {
		c.Embeddings.APIKey = v
	}
	if v := os.Getenv("CRATEINDEX_EMBEDDING_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Embeddings.BatchSize = n
		}
	}

	if v := os.Getenv("CRATEINDEX_REGISTRY_URL"); v != "" {
		c.Registry.BaseURL = v
	}

	if v := os.Getenv("CRATEINDEX_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
	if v := os.Getenv("CRATEINDEX_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}

	if v := os.Getenv("CRATEINDEX_HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.HTTP.Timeout = d
		}
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.VectorStore.URL == "" {
		return fmt.Errorf("vector_store.url must be set")
	}
	if c.VectorStore.VectorSize <= 0 {
		return fmt.Errorf("vector_store.vector_size must be positive, got %d", c.VectorStore.VectorSize)
	}

	if c.Embeddings.Model == "" {
		return fmt.Errorf("embeddings.model must be set")
	}
	if c.Embeddings.BatchSize <= 0 {
		return fmt.Errorf("embeddings.batch_size must be positive, got %d", c.Embeddings.BatchSize)
	}

	validTransports := map[string]bool{"stdio": true, "sse": true}
	if !validTransports[strings.ToLower(c.Server.Transport)] {
		return fmt.Errorf("server.transport must be 'stdio' or 'sse', got %s", c.Server.Transport)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// MergeNewDefaults adds new default fields while preserving existing
// values, for forward-compatible upgrades of an on-disk config file.
// Returns the field names that were added with their default values.
func (c *Config) MergeNewDefaults() []string {
	defaults := NewConfig()
	var added []string

	if c.Embeddings.BatchSize == 0 {
		c.Embeddings.BatchSize = defaults.Embeddings.BatchSize
		added = append(added, "embeddings.batch_size")
	}
	if c.VectorStore.VectorSize == 0 {
		c.VectorStore.VectorSize = defaults.VectorStore.VectorSize
		added = append(added, "vector_store.vector_size")
	}
	if c.Registry.BaseURL == "" {
		c.Registry.BaseURL = defaults.Registry.BaseURL
		added = append(added, "registry.base_url")
	}
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = defaults.HTTP.Timeout
		added = append(added, "http.timeout")
	}

	return added
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
