// Package summary produces a three-part summary of a document by summarizing
// its chunks in parallel and folding the results in order.
package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/yomu/internal/chunker"
	"github.com/hyperjump/yomu/internal/contentkey"
	"github.com/hyperjump/yomu/internal/llm"
	"github.com/hyperjump/yomu/internal/models"
	"github.com/hyperjump/yomu/internal/storage"
	"github.com/hyperjump/yomu/pkg/utils"
)

// DefaultWorkers is the size of the chunk summarization pool.
const DefaultWorkers = 4

// Pipeline summarizes documents and caches the results by content.
type Pipeline struct {
	chunker    *chunker.Chunker
	summarizer *ChunkSummarizer
	store      storage.Store
	workers    int
	tag        string
	logger     *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers sets the maximum number of concurrent chunk summaries.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithMaxInputChars sets the per-chunk truncation length, in runes.
func WithMaxInputChars(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.summarizer.maxInputChars = n
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline creates a summary pipeline that caches into store.
func NewPipeline(c *chunker.Chunker, s llm.Summarizer, store storage.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		chunker:    c,
		summarizer: NewChunkSummarizer(s, DefaultMaxInputChars),
		store:      store,
		workers:    DefaultWorkers,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = utils.OrNop(p.logger)
	// The key covers the model and the chunking settings.
	p.tag = fmt.Sprintf("%s|chunk=%d/%d|max=%d",
		s.Name(), c.Size(), c.Overlap(), p.summarizer.maxInputChars)
	return p
}

// Key returns the cache key for text.
func (p *Pipeline) Key(text string) contentkey.Key {
	return contentkey.ForText(p.tag, text)
}

// Summarize returns the summary of text. Blank text yields
// models.EmptySummary without any model call. A cached result is returned
// as stored. Chunk failures are contained in the result, and a result with
// failures is not cached.
func (p *Pipeline) Summarize(ctx context.Context, text string) (models.SummaryResult, error) {
	if utils.IsBlank(text) {
		return models.EmptySummary(), nil
	}
	key := p.Key(text)
	log := p.logger.With(zap.String("key", key.Short()))

	cached, ok, err := p.load(ctx, key)
	if err != nil {
		return models.SummaryResult{}, err
	}
	if ok {
		log.Debug("summary", zap.String("state", "cache_hit"))
		return cached, nil
	}
	log.Debug("summary", zap.String("state", "cache_miss"))

	start := time.Now()
	chunks := p.chunker.Split(text)
	log.Debug("summary", zap.String("state", "chunked"), zap.Int("chunks", len(chunks)))

	log.Debug("summary", zap.String("state", "computing"), zap.Int("workers", p.workers))
	res := Aggregate(p.summarizeAll(ctx, chunks))

	switch {
	case res.Partial():
		log.Warn("summary has failed chunks, not caching", zap.Ints("failed", res.FailedChunks))
	case ctx.Err() != nil:
		log.Debug("summary cancelled, not caching", zap.Error(ctx.Err()))
	default:
		data, err := json.Marshal(res)
		if err != nil {
			return models.SummaryResult{}, fmt.Errorf("encode summary: %w", err)
		}
		if err := p.store.Write(ctx, key.String(), data); err != nil {
			return models.SummaryResult{}, err
		}
		log.Debug("summary", zap.String("state", "cached"), zap.Int("bytes", len(data)))
	}
	log.Debug("summary", zap.String("state", "done"), zap.Duration("took", time.Since(start)))
	return res, nil
}

// summarizeAll runs the chunk summaries on a bounded pool and returns them
// in chunk order once all have finished.
func (p *Pipeline) summarizeAll(ctx context.Context, chunks []models.Chunk) []models.ChunkSummary {
	results := make([]models.ChunkSummary, len(chunks))
	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, c := range chunks {
		g.Go(func() error {
			results[i] = p.summarizer.Summarize(ctx, c)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (p *Pipeline) load(ctx context.Context, key contentkey.Key) (models.SummaryResult, bool, error) {
	var res models.SummaryResult
	ok, err := p.store.Exists(ctx, key.String())
	if err != nil || !ok {
		return res, false, err
	}
	data, err := p.store.Read(ctx, key.String())
	if errors.Is(err, storage.ErrNotFound) {
		return res, false, nil
	}
	if err != nil {
		return res, false, err
	}
	if err := json.Unmarshal(data, &res); err != nil {
		p.logger.Warn("discarding unreadable summary entry", zap.String("key", key.Short()), zap.Error(err))
		return models.SummaryResult{}, false, nil
	}
	return res, true, nil
}
