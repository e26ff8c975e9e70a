package models

import (
	"errors"
	"fmt"
)

// ErrExtractionEmpty is returned when the document text is blank.
var ErrExtractionEmpty = errors.New("document text is empty")

// ErrInvalidRequest marks malformed caller input.
var ErrInvalidRequest = errors.New("invalid request")

// IndexBuildError reports that embedding or index construction failed.
// Nothing is cached when it is returned.
type IndexBuildError struct {
	Chunks int
	Err    error
}

func (e *IndexBuildError) Error() string {
	return fmt.Sprintf("build index over %d chunks: %v", e.Chunks, e.Err)
}

func (e *IndexBuildError) Unwrap() error { return e.Err }

// ChunkSummaryError reports that one chunk could not be summarized.
// It is carried inside a ChunkSummary, never returned by a pipeline.
type ChunkSummaryError struct {
	Index int
	Err   error
}

func (e *ChunkSummaryError) Error() string {
	return fmt.Sprintf("chunk %d: %v", e.Index, e.Err)
}

func (e *ChunkSummaryError) Unwrap() error { return e.Err }
