package embedding

import (
	"context"
	"fmt"
	"sync/atomic"

	openaiEmbed "github.com/cloudwego/eino-ext/components/embedding/openai"
	einoEmbedding "github.com/cloudwego/eino/components/embedding"

	"github.com/hyperjump/yomu/internal/config"
)

// EinoEmbedder adapts an eino embedding component to Embedder.
type EinoEmbedder struct {
	embedder   einoEmbedding.Embedder
	name       string
	dimensions atomic.Int64
}

// NewEinoEmbedder wraps an eino embedder. dimensions may be 0 when unknown;
// it is then learned from the first response.
func NewEinoEmbedder(embedder einoEmbedding.Embedder, name string, dimensions int) *EinoEmbedder {
	e := &EinoEmbedder{embedder: embedder, name: name}
	e.dimensions.Store(int64(dimensions))
	return e
}

// NewOpenAIEmbedder builds an eino-ext OpenAI-compatible embedder from cfg.
func NewOpenAIEmbedder(ctx context.Context, cfg config.EmbeddingConfig) (*EinoEmbedder, error) {
	apiKey := cfg.APIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("embedding provider openai: %s is not set", cfg.APIKeyEnv)
	}
	emb, err := openaiEmbed.NewEmbedder(ctx, &openaiEmbed.EmbeddingConfig{
		APIKey:  apiKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create openai embedder: %w", err)
	}
	return NewEinoEmbedder(emb, "openai:"+cfg.Model, 0), nil
}

// Embed returns the embedding of a single text.
func (e *EinoEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in one provider call.
func (e *EinoEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	raw, err := e.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %d texts with %s: %w", len(texts), e.name, err)
	}
	if len(raw) != len(texts) {
		return nil, errBatchSize(len(texts), len(raw))
	}
	out := make([][]float32, len(raw))
	for i, v := range raw {
		out[i] = make([]float32, len(v))
		for j, x := range v {
			out[i][j] = float32(x)
		}
	}
	e.dimensions.CompareAndSwap(0, int64(len(out[0])))
	return out, nil
}

// Dimensions returns the vector size, or 0 before the first call when unknown.
func (e *EinoEmbedder) Dimensions() int { return int(e.dimensions.Load()) }

// Name returns the provider and model.
func (e *EinoEmbedder) Name() string { return e.name }

// Close is a no-op; the HTTP client needs no cleanup.
func (e *EinoEmbedder) Close() error { return nil }

func errBatchSize(want, got int) error {
	return fmt.Errorf("embedding provider returned %d vectors for %d texts", got, want)
}
