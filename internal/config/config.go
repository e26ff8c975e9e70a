// Package config provides configuration loading and structs for yomu.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug         bool                `yaml:"debug"`
	UseGPU        bool                `yaml:"use_gpu"`
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	Generation    ModelConfig         `yaml:"generation"`
	Summarization SummarizationConfig `yaml:"summarization"`
	Chunking      ChunkingConfig      `yaml:"chunking"`
	Retrieval     RetrievalConfig     `yaml:"retrieval"`
	Quality       QualityConfig       `yaml:"quality"`
	Watch         WatchConfig         `yaml:"watch"`
}

// WatchConfig holds inbox watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
	DebounceMS  int      `yaml:"debounce_ms"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig selects the cache backend.
type StorageConfig struct {
	// Backend is disk, sqlite or redis.
	Backend      string      `yaml:"backend"`
	CacheDir     string      `yaml:"cache_dir"`
	DatabasePath string      `yaml:"database_path"`
	Redis        RedisConfig `yaml:"redis"`
}

// RedisConfig holds connection settings for the redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	// Provider is hash, openai or onnx.
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
	BaseURL    string `yaml:"base_url"`
	APIKeyEnv  string `yaml:"api_key_env"`
}

// APIKey reads the key from the configured environment variable.
func (c EmbeddingConfig) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

// Model speed modes.
const (
	ModeFast  = "fast"
	ModeSmart = "smart"
)

// ModelConfig holds settings for a model-backed stage.
type ModelConfig struct {
	// Provider is extractive or openai.
	Provider   string `yaml:"provider"`
	Mode       string `yaml:"mode"`
	FastModel  string `yaml:"fast_model"`
	SmartModel string `yaml:"smart_model"`
	MaxTokens  int    `yaml:"max_tokens"`
	BaseURL    string `yaml:"base_url"`
	APIKeyEnv  string `yaml:"api_key_env"`
}

// ModelName returns the model selected by Mode.
func (c ModelConfig) ModelName() string {
	if c.Mode == ModeSmart {
		return c.SmartModel
	}
	return c.FastModel
}

// APIKey reads the key from the configured environment variable.
func (c ModelConfig) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

// SummarizationConfig holds the summarization model and pool settings.
type SummarizationConfig struct {
	ModelConfig   `yaml:",inline"`
	MaxInputChars int `yaml:"max_input_chars"`
	Workers       int `yaml:"workers"`
}

// ChunkingConfig holds the chunk size and overlap for each use.
type ChunkingConfig struct {
	QA      ChunkSpec `yaml:"qa"`
	Summary ChunkSpec `yaml:"summary"`
}

// ChunkSpec is a chunk size and overlap in characters.
type ChunkSpec struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// RetrievalConfig holds retrieval settings.
type RetrievalConfig struct {
	TopK          int     `yaml:"top_k"`
	Hybrid        bool    `yaml:"hybrid"`
	KeywordWeight float64 `yaml:"keyword_weight"`
}

// QualityConfig holds answer gate settings.
type QualityConfig struct {
	MinAnswerLength int `yaml:"min_answer_length"`
}

// Load reads and parses the config file at path, applies defaults, and expands paths.
// Returns an error if the file cannot be read or parsed, or the result is invalid.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	ExpandPaths(&cfg, filepath.Dir(path))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ExpandPaths makes every path in cfg absolute. See expandPath.
func ExpandPaths(cfg *Config, configDir string) {
	cfg.Storage.CacheDir = expandPath(cfg.Storage.CacheDir, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks settings that would otherwise fail deep inside a pipeline.
func (c *Config) Validate() error {
	for name, spec := range map[string]ChunkSpec{"qa": c.Chunking.QA, "summary": c.Chunking.Summary} {
		if spec.Size <= 0 {
			return fmt.Errorf("chunking.%s.size must be positive", name)
		}
		if spec.Overlap < 0 || spec.Overlap >= spec.Size {
			return fmt.Errorf("chunking.%s.overlap must be in [0, size)", name)
		}
	}
	for name, mode := range map[string]string{"generation": c.Generation.Mode, "summarization": c.Summarization.Mode} {
		if mode != ModeFast && mode != ModeSmart {
			return fmt.Errorf("%s.mode must be %q or %q, got %q", name, ModeFast, ModeSmart, mode)
		}
	}
	if c.Summarization.Workers <= 0 {
		return fmt.Errorf("summarization.workers must be positive")
	}
	if c.Retrieval.KeywordWeight < 0 || c.Retrieval.KeywordWeight > 1 {
		return fmt.Errorf("retrieval.keyword_weight must be in [0, 1]")
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		path = strings.TrimPrefix(path, "~/")
	} else if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
