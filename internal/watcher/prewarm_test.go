package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/yomu/internal/chunker"
	"github.com/hyperjump/yomu/internal/embedding"
	"github.com/hyperjump/yomu/internal/extract"
	"github.com/hyperjump/yomu/internal/indexer"
	"github.com/hyperjump/yomu/internal/llm"
	"github.com/hyperjump/yomu/internal/models"
	"github.com/hyperjump/yomu/internal/qa"
	"github.com/hyperjump/yomu/internal/search"
	"github.com/hyperjump/yomu/internal/storage"
	"github.com/hyperjump/yomu/internal/summary"
)

func TestPrewarmer_FillsCaches(t *testing.T) {
	ctx := context.Background()
	cacheDir := t.TempDir()

	sumStore, err := storage.NewDiskStore(cacheDir, storage.NamespaceSummaries)
	require.NoError(t, err)
	idxStore, err := storage.NewDiskStore(cacheDir, storage.NamespaceIndices)
	require.NoError(t, err)

	sumChunker, err := chunker.New(200, 20)
	require.NoError(t, err)
	qaChunker, err := chunker.New(100, 10)
	require.NoError(t, err)
	emb := embedding.NewHashEmbedder(64)

	summaries := summary.NewPipeline(sumChunker, llm.NewExtractiveSummarizer(2), sumStore)
	answers := qa.NewPipeline(qaChunker, indexer.New(idxStore, emb), search.NewRetriever(emb), llm.NewExtractiveGenerator())
	p := NewPrewarmer(extract.NewExtractor(nil), summaries, answers, nil)

	doc := filepath.Join(t.TempDir(), "paper.txt")
	text := strings.Repeat("Glaciers carve valleys over thousands of years. ", 20)
	require.NoError(t, os.WriteFile(doc, []byte(text), 0o600))

	require.NoError(t, p.Handle(ctx, doc))

	ok, err := sumStore.Exists(ctx, summaries.Key(text).String())
	require.NoError(t, err)
	assert.True(t, ok, "summary should be cached")

	s, err := answers.Open(ctx, text)
	require.NoError(t, err)
	assert.True(t, s.Index.FromCache, "index should be cached")
}

func TestPrewarmer_SkipsEmptyAndReportsErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("   \n"), 0o600))

	p := NewPrewarmer(extract.NewExtractor(nil), nil, nil, nil)
	assert.NoError(t, p.Handle(ctx, empty))
	assert.Error(t, p.Handle(ctx, filepath.Join(dir, "missing.txt")))

	cause := errors.New("summaries offline")
	failing := NewPrewarmer(extract.NewExtractor(nil), failingSummarizer{cause}, nil, nil)
	doc := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(doc, []byte("Some text."), 0o600))
	assert.ErrorIs(t, failing.Handle(ctx, doc), cause)
}

type failingSummarizer struct{ err error }

func (f failingSummarizer) Summarize(context.Context, string) (models.SummaryResult, error) {
	return models.SummaryResult{}, f.err
}
