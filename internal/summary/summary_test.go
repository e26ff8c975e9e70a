package summary

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/yomu/internal/chunker"
	"github.com/hyperjump/yomu/internal/models"
	"github.com/hyperjump/yomu/internal/storage"
)

// echoSummarizer returns its input, optionally failing on inputs containing
// failOn, and tracks concurrency.
type echoSummarizer struct {
	mu       sync.Mutex
	calls    int
	inputs   []string
	failOn   string
	panicOn  string
	delay    time.Duration
	inflight atomic.Int32
	peak     atomic.Int32
}

func (s *echoSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	n := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	s.mu.Lock()
	s.calls++
	s.inputs = append(s.inputs, text)
	s.mu.Unlock()
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.failOn != "" && strings.Contains(text, s.failOn) {
		return "", errors.New("model exploded")
	}
	if s.panicOn != "" && strings.Contains(text, s.panicOn) {
		panic("nil map in provider")
	}
	return strings.TrimSpace(text), nil
}

func (s *echoSummarizer) Name() string { return "echo" }

func newTestPipeline(t *testing.T, s *echoSummarizer, size, overlap int, opts ...Option) (*Pipeline, *storage.DiskStore) {
	t.Helper()
	store, err := storage.NewDiskStore(t.TempDir(), storage.NamespaceSummaries)
	require.NoError(t, err)
	c, err := chunker.New(size, overlap)
	require.NoError(t, err)
	return NewPipeline(c, s, store, opts...), store
}

func TestAggregate(t *testing.T) {
	ok := func(i int, s string) models.ChunkSummary { return models.ChunkSummary{Index: i, Text: s} }
	tests := []struct {
		name  string
		in    []models.ChunkSummary
		intro string
		main  string
		concl string
	}{
		{"none", nil, models.NotAvailable, models.NotEnoughContent, models.NotAvailable},
		{"one", []models.ChunkSummary{ok(0, "a")}, "a", models.NotEnoughContent, models.NotAvailable},
		{"two", []models.ChunkSummary{ok(0, "a"), ok(1, "b")}, "a", models.NotEnoughContent, "b"},
		{"three", []models.ChunkSummary{ok(0, "a"), ok(1, "b"), ok(2, "c")}, "a", "b", "c"},
		{"five", []models.ChunkSummary{ok(0, "a"), ok(1, "b"), ok(2, "c"), ok(3, "d"), ok(4, "e")}, "a", "b\n\nc\n\nd", "e"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Aggregate(tt.in)
			assert.Equal(t, tt.intro, res.Introduction)
			assert.Equal(t, tt.main, res.MainPoints)
			assert.Equal(t, tt.concl, res.Conclusion)
			assert.Equal(t, len(tt.in), res.Chunks)
			assert.False(t, res.Partial())
		})
	}
}

func TestAggregate_FailedSlot(t *testing.T) {
	res := Aggregate([]models.ChunkSummary{
		{Index: 0, Text: "a"},
		{Index: 1, Err: &models.ChunkSummaryError{Index: 1, Err: errors.New("boom")}},
		{Index: 2, Text: "c"},
	})
	assert.True(t, strings.HasPrefix(res.MainPoints, "[Error]"))
	assert.Contains(t, res.MainPoints, "boom")
	assert.Equal(t, []int{1}, res.FailedChunks)
}

func TestChunkSummarizer_Truncates(t *testing.T) {
	s := &echoSummarizer{}
	cs := NewChunkSummarizer(s, 5)
	got := cs.Summarize(context.Background(), models.Chunk{Index: 3, Text: "日本語のテキストです"})
	require.True(t, got.OK())
	assert.Equal(t, 3, got.Index)
	assert.Equal(t, "日本語のテ", s.inputs[0])
}

func TestChunkSummarizer_ContainsError(t *testing.T) {
	cs := NewChunkSummarizer(&echoSummarizer{failOn: "x"}, 0)
	got := cs.Summarize(context.Background(), models.Chunk{Index: 7, Text: "x marks the spot"})
	require.False(t, got.OK())
	var chunkErr *models.ChunkSummaryError
	require.ErrorAs(t, got.Err, &chunkErr)
	assert.Equal(t, 7, chunkErr.Index)
	assert.True(t, strings.HasPrefix(got.String(), "[Error] "))
}

func TestSummarize_ThreeParagraphs(t *testing.T) {
	s := &echoSummarizer{}
	p, _ := newTestPipeline(t, s, 4, 0)

	res, err := p.Summarize(context.Background(), "A.\n\nB.\n\nC.")
	require.NoError(t, err)
	assert.Equal(t, "A.", res.Introduction)
	assert.Equal(t, "B.", res.MainPoints)
	assert.Equal(t, "C.", res.Conclusion)
	assert.Equal(t, 3, res.Chunks)
	assert.Equal(t, 3, s.calls)
}

func TestSummarize_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := &echoSummarizer{}
	p, store := newTestPipeline(t, s, 40, 5)
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 12)

	first, err := p.Summarize(ctx, text)
	require.NoError(t, err)
	calls := s.calls
	require.Greater(t, calls, 2)

	ok, err := store.Exists(ctx, p.Key(text).String())
	require.NoError(t, err)
	assert.True(t, ok)

	second, err := p.Summarize(ctx, text)
	require.NoError(t, err)
	assert.Equal(t, calls, s.calls, "cache hit must not call the summarizer")

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	assert.Equal(t, string(a), string(b))
	for _, k := range []string{`"Introduction"`, `"Main Points"`, `"Conclusion"`} {
		assert.Contains(t, string(a), k)
	}
}

func TestSummarize_OneChunkFails(t *testing.T) {
	ctx := context.Background()
	s := &echoSummarizer{failOn: "B"}
	p, store := newTestPipeline(t, s, 4, 0)

	res, err := p.Summarize(ctx, "A.\n\nB.\n\nC.")
	require.NoError(t, err)
	assert.Equal(t, "A.", res.Introduction)
	assert.True(t, strings.HasPrefix(res.MainPoints, "[Error]"))
	assert.Equal(t, "C.", res.Conclusion)
	assert.Equal(t, []int{1}, res.FailedChunks)

	ok, err := store.Exists(ctx, p.Key("A.\n\nB.\n\nC.").String())
	require.NoError(t, err)
	assert.False(t, ok, "partial summary must not be cached")
}

func TestSummarize_ProviderPanicIsContained(t *testing.T) {
	ctx := context.Background()
	s := &echoSummarizer{panicOn: "B"}
	p, store := newTestPipeline(t, s, 4, 0, WithWorkers(3))

	res, err := p.Summarize(ctx, "A.\n\nB.\n\nC.")
	require.NoError(t, err)
	assert.Equal(t, "A.", res.Introduction)
	assert.Contains(t, res.MainPoints, "summarizer panic")
	assert.Equal(t, "C.", res.Conclusion)
	assert.Equal(t, []int{1}, res.FailedChunks)

	ok, err := store.Exists(ctx, p.Key("A.\n\nB.\n\nC.").String())
	require.NoError(t, err)
	assert.False(t, ok)

	one := NewChunkSummarizer(s, 0).Summarize(ctx, models.Chunk{Index: 4, Text: "B"})
	var chunkErr *models.ChunkSummaryError
	require.ErrorAs(t, one.Err, &chunkErr)
	assert.Equal(t, 4, chunkErr.Index)
}

func TestSummarize_Blank(t *testing.T) {
	s := &echoSummarizer{}
	p, store := newTestPipeline(t, s, 100, 10)

	for _, text := range []string{"", "   \n\t  "} {
		res, err := p.Summarize(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, models.NoInputText, res.Introduction)
		assert.Equal(t, models.NoInputText, res.MainPoints)
		assert.Equal(t, models.NoInputText, res.Conclusion)
	}
	assert.Zero(t, s.calls)
	entries, err := store.Exists(context.Background(), p.Key("").String())
	require.NoError(t, err)
	assert.False(t, entries)
}

func TestSummarize_RespectsWorkerLimit(t *testing.T) {
	s := &echoSummarizer{delay: 10 * time.Millisecond}
	p, _ := newTestPipeline(t, s, 20, 0, WithWorkers(2))

	res, err := p.Summarize(context.Background(), strings.Repeat("word ", 60))
	require.NoError(t, err)
	assert.Greater(t, res.Chunks, 4)
	assert.LessOrEqual(t, s.peak.Load(), int32(2))
	assert.Equal(t, res.Chunks, s.calls)
}

func TestSummarize_CancelledNotCached(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &echoSummarizer{}
	p, store := newTestPipeline(t, s, 4, 0)

	res, err := p.Summarize(ctx, "A.\n\nB.\n\nC.")
	require.NoError(t, err)
	assert.Len(t, res.FailedChunks, 3)

	ok, err := store.Exists(context.Background(), p.Key("A.\n\nB.\n\nC.").String())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPipeline_KeyCoversSettings(t *testing.T) {
	s := &echoSummarizer{}
	a, _ := newTestPipeline(t, s, 900, 100)
	b, _ := newTestPipeline(t, s, 900, 100, WithMaxInputChars(500))
	c, _ := newTestPipeline(t, s, 800, 100)
	assert.NotEqual(t, a.Key("doc"), b.Key("doc"))
	assert.NotEqual(t, a.Key("doc"), c.Key("doc"))
	assert.Equal(t, a.Key("doc"), a.Key("doc"))
}
