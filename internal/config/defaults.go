package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "disk"
	}
	if cfg.Storage.CacheDir == "" {
		cfg.Storage.CacheDir = ".yomu/cache"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = ".yomu/cache/cache.db"
	}
	if cfg.Storage.Redis.Addr == "" {
		cfg.Storage.Redis.Addr = "localhost:6379"
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "hash"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = "OPENAI_API_KEY"
	}

	applyModelDefaults(&cfg.Generation, 256)
	applyModelDefaults(&cfg.Summarization.ModelConfig, 80)
	if cfg.Summarization.MaxInputChars == 0 {
		cfg.Summarization.MaxInputChars = 1000
	}
	if cfg.Summarization.Workers == 0 {
		cfg.Summarization.Workers = 4
	}

	if cfg.Chunking.QA.Size == 0 {
		cfg.Chunking.QA = ChunkSpec{Size: 300, Overlap: 50}
	}
	if cfg.Chunking.Summary.Size == 0 {
		cfg.Chunking.Summary = ChunkSpec{Size: 900, Overlap: 100}
	}

	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.Hybrid && cfg.Retrieval.KeywordWeight == 0 {
		cfg.Retrieval.KeywordWeight = 0.3
	}
	if cfg.Quality.MinAnswerLength == 0 {
		cfg.Quality.MinAnswerLength = 10
	}

	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md", ".rst", ".pdf", ".docx", ".xlsx"}
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 500
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}

func applyModelDefaults(m *ModelConfig, maxTokens int) {
	if m.Provider == "" {
		m.Provider = "extractive"
	}
	if m.Mode == "" {
		m.Mode = ModeFast
	}
	if m.FastModel == "" {
		m.FastModel = "gpt-4o-mini"
	}
	if m.SmartModel == "" {
		m.SmartModel = "gpt-4o"
	}
	if m.MaxTokens == 0 {
		m.MaxTokens = maxTokens
	}
	if m.APIKeyEnv == "" {
		m.APIKeyEnv = "OPENAI_API_KEY"
	}
}

// Default returns a config with every default applied and paths expanded
// relative to the home directory.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	ExpandPaths(cfg, ".")
	return cfg
}
