// Package search retrieves the chunks of an index most relevant to a query.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/yomu/internal/embedding"
	"github.com/hyperjump/yomu/internal/indexer"
	"github.com/hyperjump/yomu/internal/keyword"
	"github.com/hyperjump/yomu/internal/models"
	"github.com/hyperjump/yomu/pkg/utils"
)

// DefaultTopK is used when a caller passes k <= 0.
const DefaultTopK = 5

// Retriever runs top-k similarity search over an index.
type Retriever struct {
	embedder      embedding.Embedder
	topK          int
	hybrid        bool
	keywordWeight float64
	logger        *zap.Logger
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithTopK sets the default number of chunks returned.
func WithTopK(k int) RetrieverOption {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithHybrid fuses keyword scores into the ranking with the given weight in [0,1].
func WithHybrid(keywordWeight float64) RetrieverOption {
	return func(r *Retriever) {
		r.hybrid = true
		r.keywordWeight = min(max(keywordWeight, 0), 1)
	}
}

// WithLogger sets the retriever logger.
func WithLogger(l *zap.Logger) RetrieverOption {
	return func(r *Retriever) { r.logger = l }
}

// NewRetriever creates a retriever. embedder must be the one the indexes were
// built with.
func NewRetriever(embedder embedding.Embedder, opts ...RetrieverOption) *Retriever {
	r := &Retriever{embedder: embedder, topK: DefaultTopK}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = utils.OrNop(r.logger)
	return r
}

// Retrieve returns up to k distinct chunks of idx, most similar to query
// first. Equal scores keep chunk order.
func (r *Retriever) Retrieve(ctx context.Context, idx *indexer.Index, query string, k int) ([]models.ScoredChunk, error) {
	q, err := ProcessQuery(query)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		k = r.topK
	}
	k = min(k, idx.Size())
	if k == 0 {
		return nil, nil
	}

	vec, err := r.embedder.Embed(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	candidates := k
	if r.hybrid {
		candidates = idx.Size()
	}
	semantic, err := idx.Vectors.Search(ctx, vec, candidates)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	for _, res := range semantic {
		if res.ID < 0 || res.ID >= len(idx.Chunks) {
			return nil, fmt.Errorf("vector id %d has no chunk (index has %d)", res.ID, len(idx.Chunks))
		}
	}

	if !r.hybrid {
		out := make([]models.ScoredChunk, 0, len(semantic))
		for _, res := range semantic {
			out = append(out, models.ScoredChunk{
				Chunk:         idx.Chunks[res.ID],
				Score:         res.Score,
				SemanticScore: res.Score,
			})
		}
		return out, nil
	}

	kw, err := r.keywordSearch(ctx, idx, q)
	if err != nil {
		return nil, err
	}
	fused := Fuse(NormalizeKeywordScores(kw), NormalizeSemanticScores(semantic), r.keywordWeight, 1-r.keywordWeight)
	if len(fused) > k {
		fused = fused[:k]
	}
	out := make([]models.ScoredChunk, 0, len(fused))
	for _, f := range fused {
		out = append(out, models.ScoredChunk{
			Chunk:         idx.Chunks[f.ID],
			Score:         f.Score,
			SemanticScore: f.SemanticScore,
			KeywordScore:  f.KeywordScore,
		})
	}
	r.logger.Debug("hybrid retrieval",
		zap.Int("keyword_hits", len(kw)),
		zap.Int("returned", len(out)))
	return out, nil
}

func (r *Retriever) keywordSearch(ctx context.Context, idx *indexer.Index, q string) ([]keyword.KeywordResult, error) {
	kw, err := keyword.NewMemIndex()
	if err != nil {
		return nil, err
	}
	defer kw.Close()
	if err := kw.IndexBatch(ctx, models.ChunkTexts(idx.Chunks)); err != nil {
		return nil, err
	}
	return kw.Search(ctx, q, idx.Size())
}
