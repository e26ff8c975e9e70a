// Package embedding provides text embedding providers and caching.
package embedding

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hyperjump/yomu/internal/config"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	// Name identifies the provider and model. It is part of every index cache
	// key, so it must change whenever the vectors would.
	Name() string
	Close() error
}

// New builds the configured provider, wrapped in an LRU cache when
// cfg.CacheSize is positive. useGPU selects the CUDA execution provider for onnx.
func New(ctx context.Context, cfg config.EmbeddingConfig, useGPU bool) (Embedder, error) {
	var (
		emb Embedder
		err error
	)
	switch cfg.Provider {
	case "hash", "":
		emb = NewHashEmbedder(cfg.Dimensions)
	case "openai":
		emb, err = NewOpenAIEmbedder(ctx, cfg)
	case "onnx":
		emb, err = NewONNXEmbedder(ONNXOptions{
			ModelPath:  cfg.ModelPath,
			Dimensions: cfg.Dimensions,
			MaxTokens:  cfg.MaxTokens,
			UseGPU:     useGPU,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.CacheSize > 0 {
		emb = NewCachingEmbedder(emb, cfg.CacheSize)
	}
	return emb, nil
}

func onnxName(modelPath string) string {
	return "onnx:" + filepath.Base(modelPath)
}
