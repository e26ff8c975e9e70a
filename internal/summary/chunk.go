package summary

import (
	"context"
	"fmt"

	"github.com/hyperjump/yomu/internal/llm"
	"github.com/hyperjump/yomu/internal/models"
	"github.com/hyperjump/yomu/pkg/utils"
)

// DefaultMaxInputChars bounds the text sent to the summarizer per chunk.
const DefaultMaxInputChars = 1000

// ChunkSummarizer summarizes a single chunk and contains its failures.
type ChunkSummarizer struct {
	summarizer    llm.Summarizer
	maxInputChars int
}

// NewChunkSummarizer truncates each chunk to maxInputChars runes before
// calling s (DefaultMaxInputChars when maxInputChars <= 0).
func NewChunkSummarizer(s llm.Summarizer, maxInputChars int) *ChunkSummarizer {
	if maxInputChars <= 0 {
		maxInputChars = DefaultMaxInputChars
	}
	return &ChunkSummarizer{summarizer: s, maxInputChars: maxInputChars}
}

// Summarize never fails: a provider error or panic is returned inside the
// ChunkSummary as a *models.ChunkSummaryError.
func (c *ChunkSummarizer) Summarize(ctx context.Context, chunk models.Chunk) (out models.ChunkSummary) {
	failed := func(err error) models.ChunkSummary {
		return models.ChunkSummary{
			Index: chunk.Index,
			Err:   &models.ChunkSummaryError{Index: chunk.Index, Err: err},
		}
	}
	defer func() {
		if r := recover(); r != nil {
			out = failed(fmt.Errorf("summarizer panic: %v", r))
		}
	}()

	text, err := c.summarizer.Summarize(ctx, utils.TruncateRunes(chunk.Text, c.maxInputChars))
	if err != nil {
		return failed(err)
	}
	return models.ChunkSummary{Index: chunk.Index, Text: text}
}
