// Package indexer builds semantic indexes over document chunks and caches
// them by content.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/yomu/internal/contentkey"
	"github.com/hyperjump/yomu/internal/embedding"
	"github.com/hyperjump/yomu/internal/models"
	"github.com/hyperjump/yomu/internal/storage"
	"github.com/hyperjump/yomu/internal/vector"
	"github.com/hyperjump/yomu/pkg/utils"
)

// Index is a semantic index over the chunks of one document. It is built once
// and only read afterwards.
type Index struct {
	Key       contentkey.Key
	Chunks    []models.Chunk
	Vectors   vector.VectorIndex
	FromCache bool
}

// Size returns the number of indexed chunks.
func (idx *Index) Size() int { return len(idx.Chunks) }

// Builder builds indexes, or loads them from the index cache.
type Builder struct {
	store    storage.Store
	embedder embedding.Embedder
	logger   *zap.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets a logger for cache and build events.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// New creates a builder that caches into store and embeds with embedder.
func New(store storage.Store, embedder embedding.Embedder, opts ...BuilderOption) *Builder {
	b := &Builder{store: store, embedder: embedder}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = utils.OrNop(b.logger)
	return b
}

// Embedder returns the embedder used for chunks. Queries must use the same one.
func (b *Builder) Embedder() embedding.Embedder { return b.embedder }

// Key returns the cache key of a chunk set under the current embedder.
func (b *Builder) Key(chunks []models.Chunk) contentkey.Key {
	return contentkey.ForChunks(b.embedder.Name(), models.ChunkTexts(chunks))
}

// BuildOrLoad returns the index for chunks. A cached entry is decoded without
// any embedding call. Otherwise every chunk is embedded, and the index is
// persisted before it is returned. Embedding failures return
// *models.IndexBuildError and leave the cache untouched.
func (b *Builder) BuildOrLoad(ctx context.Context, chunks []models.Chunk) (*Index, error) {
	if len(chunks) == 0 {
		return nil, models.ErrExtractionEmpty
	}
	key := b.Key(chunks)
	log := b.logger.With(zap.String("key", key.Short()), zap.Int("chunks", len(chunks)))

	idx, err := b.load(ctx, key, chunks)
	if err != nil {
		return nil, err
	}
	if idx != nil {
		log.Debug("index cache hit")
		return idx, nil
	}
	log.Debug("index cache miss")

	start := time.Now()
	idx, err = b.build(ctx, key, chunks)
	if err != nil {
		return nil, err
	}
	data, err := encodeIndex(idx)
	if err != nil {
		return nil, fmt.Errorf("encode index: %w", err)
	}
	if err := b.store.Write(ctx, key.String(), data); err != nil {
		return nil, err
	}
	log.Debug("index cached", zap.Int("bytes", len(data)), zap.Duration("took", time.Since(start)))
	return idx, nil
}

// load returns nil, nil on a miss. An entry that fails to decode is logged
// and treated as a miss so it gets rebuilt.
func (b *Builder) load(ctx context.Context, key contentkey.Key, chunks []models.Chunk) (*Index, error) {
	ok, err := b.store.Exists(ctx, key.String())
	if err != nil || !ok {
		return nil, err
	}
	data, err := b.store.Read(ctx, key.String())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	vecs, cached, err := decodeIndex(data)
	if err == nil {
		err = sameChunks(cached, chunks)
	}
	if err != nil {
		b.logger.Warn("discarding unreadable index entry", zap.String("key", key.Short()), zap.Error(err))
		return nil, nil
	}
	return &Index{Key: key, Chunks: cached, Vectors: vecs, FromCache: true}, nil
}

func (b *Builder) build(ctx context.Context, key contentkey.Key, chunks []models.Chunk) (*Index, error) {
	buildErr := func(err error) error {
		return &models.IndexBuildError{Chunks: len(chunks), Err: err}
	}
	embeddings, err := b.embedder.EmbedBatch(ctx, models.ChunkTexts(chunks))
	if err != nil {
		return nil, buildErr(err)
	}
	if len(embeddings) != len(chunks) {
		return nil, buildErr(fmt.Errorf("got %d embeddings for %d chunks", len(embeddings), len(chunks)))
	}
	vecs, err := vector.NewMemoryIndex(len(embeddings[0]))
	if err != nil {
		return nil, buildErr(err)
	}
	ids := make([]int, len(chunks))
	for i := range chunks {
		ids[i] = i
	}
	if err := vecs.Add(ctx, ids, embeddings); err != nil {
		return nil, buildErr(err)
	}
	owned := make([]models.Chunk, len(chunks))
	copy(owned, chunks)
	return &Index{Key: key, Chunks: owned, Vectors: vecs}, nil
}

func sameChunks(cached, chunks []models.Chunk) error {
	if len(cached) != len(chunks) {
		return fmt.Errorf("entry has %d chunks, want %d", len(cached), len(chunks))
	}
	for i := range cached {
		if cached[i].Text != chunks[i].Text {
			return fmt.Errorf("chunk %d text differs", i)
		}
	}
	return nil
}
