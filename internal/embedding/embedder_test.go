package embedding

import (
	"context"
	"testing"

	"github.com/hyperjump/yomu/internal/config"
)

func TestNew(t *testing.T) {
	ctx := context.Background()
	emb, err := New(ctx, config.EmbeddingConfig{Provider: "hash", Dimensions: 16, CacheSize: 10}, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := emb.(*CachingEmbedder); !ok {
		t.Errorf("expected caching wrapper, got %T", emb)
	}
	if emb.Name() != "hash-16" {
		t.Errorf("Name() = %s", emb.Name())
	}

	emb, err = New(ctx, config.EmbeddingConfig{Provider: "hash", Dimensions: 16}, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := emb.(*HashEmbedder); !ok {
		t.Errorf("expected bare hash embedder without cache, got %T", emb)
	}
}

func TestNew_errors(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx, config.EmbeddingConfig{Provider: "word2vec"}, false); err == nil {
		t.Error("expected error for unknown provider")
	}
	if _, err := New(ctx, config.EmbeddingConfig{Provider: "onnx", Dimensions: 384, MaxTokens: 256}, false); err == nil {
		t.Error("expected error for onnx without model_path")
	}
	t.Setenv("YOMU_MISSING_KEY", "")
	if _, err := New(ctx, config.EmbeddingConfig{Provider: "openai", APIKeyEnv: "YOMU_MISSING_KEY"}, false); err == nil {
		t.Error("expected error for openai without api key")
	}
}
