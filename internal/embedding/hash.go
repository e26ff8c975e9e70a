package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"unicode/utf8"

	"github.com/hyperjump/yomu/internal/vector"
	"github.com/hyperjump/yomu/pkg/utils"
)

// HashEmbedder is a deterministic, offline bag-of-words embedder. Each content
// term is hashed into one of dimensions buckets with a hashed sign, and the
// result is L2-normalized. Stopwords and single-character terms are skipped so
// function words do not dominate similarity.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns a hash embedder; non-positive dimensions default to 384.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed returns the embedding of text.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	emb := make([]float32, e.dimensions)
	for _, term := range utils.ContentTerms(text) {
		if utf8.RuneCountInString(term) < 2 {
			continue
		}
		h := fnv.New64a()
		_, _ = h.Write([]byte(term))
		sum := h.Sum64()
		bucket := int(sum % uint64(e.dimensions))
		if sum&(1<<63) != 0 {
			emb[bucket]--
		} else {
			emb[bucket]++
		}
	}
	vector.Normalize(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Name returns "hash-<dimensions>".
func (e *HashEmbedder) Name() string {
	return fmt.Sprintf("hash-%d", e.dimensions)
}

// Close is a no-op.
func (e *HashEmbedder) Close() error {
	return nil
}
