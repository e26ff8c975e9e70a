package watcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/yomu/internal/models"
	"github.com/hyperjump/yomu/internal/qa"
	"github.com/hyperjump/yomu/pkg/utils"
)

// TextExtractor reads a document file as text.
type TextExtractor interface {
	Extract(path string) (string, error)
}

// Summarizer produces (and caches) document summaries.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (models.SummaryResult, error)
}

// IndexOpener builds (and caches) the Q&A index of a document.
type IndexOpener interface {
	Open(ctx context.Context, text string) (*qa.Session, error)
}

// Prewarmer is a Handler that fills the summary and index caches for a
// document, so later requests for the same text are cache hits.
type Prewarmer struct {
	extractor TextExtractor
	summaries Summarizer
	indexes   IndexOpener
	logger    *zap.Logger
}

// NewPrewarmer creates a Prewarmer. Either summaries or indexes may be nil to
// skip that cache.
func NewPrewarmer(extractor TextExtractor, summaries Summarizer, indexes IndexOpener, logger *zap.Logger) *Prewarmer {
	return &Prewarmer{
		extractor: extractor,
		summaries: summaries,
		indexes:   indexes,
		logger:    utils.OrNop(logger),
	}
}

// Handle extracts path and runs it through both pipelines. Files without
// text are skipped.
func (p *Prewarmer) Handle(ctx context.Context, path string) error {
	log := p.logger.With(zap.String("run_id", uuid.NewString()), zap.String("path", path))
	start := time.Now()

	text, err := p.extractor.Extract(path)
	if errors.Is(err, models.ErrExtractionEmpty) {
		log.Info("skipping document without text")
		return nil
	}
	if err != nil {
		return fmt.Errorf("extract %s: %w", path, err)
	}

	fields := []zap.Field{zap.Int("chars", len(text))}
	if p.summaries != nil {
		res, err := p.summaries.Summarize(ctx, text)
		if err != nil {
			return fmt.Errorf("summarize %s: %w", path, err)
		}
		fields = append(fields, zap.Int("summary_chunks", res.Chunks), zap.Bool("summary_partial", res.Partial()))
	}
	if p.indexes != nil {
		s, err := p.indexes.Open(ctx, text)
		if err != nil {
			return fmt.Errorf("index %s: %w", path, err)
		}
		fields = append(fields, zap.Int("index_chunks", s.Index.Size()), zap.Bool("index_cached", s.Index.FromCache))
	}
	fields = append(fields, zap.Duration("took", time.Since(start)))
	log.Info("document prewarmed", fields...)
	return nil
}
