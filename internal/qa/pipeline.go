// Package qa answers questions about a document: chunk, index, retrieve,
// generate, then gate the answer.
package qa

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/yomu/internal/chunker"
	"github.com/hyperjump/yomu/internal/indexer"
	"github.com/hyperjump/yomu/internal/llm"
	"github.com/hyperjump/yomu/internal/models"
	"github.com/hyperjump/yomu/internal/search"
	"github.com/hyperjump/yomu/pkg/utils"
)

// Pipeline runs question answering over documents.
type Pipeline struct {
	chunker   *chunker.Chunker
	builder   *indexer.Builder
	retriever *search.Retriever
	generator llm.Generator
	gate      Gate
	logger    *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithGate sets the answer quality gate.
func WithGate(g Gate) Option {
	return func(p *Pipeline) { p.gate = g }
}

// WithLogger sets the pipeline logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline wires the Q&A stages. retriever must use the same embedder as builder.
func NewPipeline(c *chunker.Chunker, b *indexer.Builder, r *search.Retriever, g llm.Generator, opts ...Option) *Pipeline {
	p := &Pipeline{
		chunker:   c,
		builder:   b,
		retriever: r,
		generator: g,
		gate:      Gate{MinLength: DefaultMinAnswerLength},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = utils.OrNop(p.logger)
	return p
}

// Session holds the index of one document for any number of questions.
type Session struct {
	p     *Pipeline
	Index *indexer.Index
	// TopK is the number of passages retrieved per question; <= 0 uses the
	// retriever default.
	TopK int
}

// Open chunks text and builds or loads its index.
func (p *Pipeline) Open(ctx context.Context, text string) (*Session, error) {
	if utils.IsBlank(text) {
		return nil, models.ErrExtractionEmpty
	}
	start := time.Now()
	chunks := p.chunker.Split(text)
	idx, err := p.builder.BuildOrLoad(ctx, chunks)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("qa session opened",
		zap.String("key", idx.Key.Short()),
		zap.Int("chunks", idx.Size()),
		zap.Bool("from_cache", idx.FromCache),
		zap.Duration("took", time.Since(start)))
	return &Session{p: p, Index: idx}, nil
}

// Generate retrieves passages for query and returns the raw model answer.
func (s *Session) Generate(ctx context.Context, query string) (string, []models.ScoredChunk, error) {
	sources, err := s.p.retriever.Retrieve(ctx, s.Index, query, s.TopK)
	if err != nil {
		return "", nil, err
	}
	passages := make([]string, len(sources))
	for i, sc := range sources {
		passages[i] = sc.Text
	}
	candidate, err := s.p.generator.Generate(ctx, llm.GenerateRequest{Question: query, Passages: passages})
	if err != nil {
		return "", sources, fmt.Errorf("generate answer: %w", err)
	}
	return candidate, sources, nil
}

// Ask generates an answer to query and passes it through the quality gate.
// A rejected answer is a value, not an error.
func (s *Session) Ask(ctx context.Context, query string) (models.Answer, error) {
	candidate, sources, err := s.Generate(ctx, query)
	if err != nil {
		return models.Answer{}, err
	}
	ans := s.p.gate.Check(candidate)
	ans.Sources = sources
	if ans.Rejected() {
		s.p.logger.Debug("answer rejected",
			zap.String("generator", s.p.generator.Name()),
			zap.String("candidate", utils.Truncate(candidate, 80)))
	}
	return ans, nil
}

// Ask opens a session over text and asks a single question.
func (p *Pipeline) Ask(ctx context.Context, text, query string) (models.Answer, error) {
	s, err := p.Open(ctx, text)
	if err != nil {
		return models.Answer{}, err
	}
	return s.Ask(ctx, query)
}

// Handle validates req and answers it.
func (p *Pipeline) Handle(ctx context.Context, req models.AskRequest) (models.Answer, error) {
	if err := req.Validate(); err != nil {
		return models.Answer{}, err
	}
	s, err := p.Open(ctx, req.Text)
	if err != nil {
		return models.Answer{}, err
	}
	s.TopK = req.TopK
	return s.Ask(ctx, req.Question)
}
