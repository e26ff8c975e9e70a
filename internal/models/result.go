package models

import (
	"fmt"
	"strings"
)

// Placeholder texts used when a summary section has no material.
const (
	NotAvailable     = "Not available"
	NotEnoughContent = "Not enough content"
	NoInputText      = "No input text provided."
)

// SummaryResult is the three-part structured summary of a document.
// The JSON keys are part of the external interface.
type SummaryResult struct {
	Introduction string `json:"Introduction"`
	MainPoints   string `json:"Main Points"`
	Conclusion   string `json:"Conclusion"`
	// Chunks is the number of chunks summarized.
	Chunks int `json:"chunks"`
	// FailedChunks lists chunk indexes whose summarization failed.
	FailedChunks []int `json:"failed_chunks,omitempty"`
}

// EmptySummary is returned for blank input.
func EmptySummary() SummaryResult {
	return SummaryResult{
		Introduction: NoInputText,
		MainPoints:   NoInputText,
		Conclusion:   NoInputText,
	}
}

// Partial reports whether any chunk failed.
func (r SummaryResult) Partial() bool {
	return len(r.FailedChunks) > 0
}

// ChunkSummary is the outcome of summarizing one chunk: either Text or Err.
type ChunkSummary struct {
	Index int
	Text  string
	Err   error
}

// OK reports whether the chunk was summarized.
func (s ChunkSummary) OK() bool {
	return s.Err == nil
}

// String renders the summary text, or an "[Error] ..." marker for a failed chunk.
func (s ChunkSummary) String() string {
	if s.Err != nil {
		return "[Error] " + s.Err.Error()
	}
	return s.Text
}

// AnswerStatus distinguishes a generated answer from a rejection.
type AnswerStatus string

const (
	AnswerOK       AnswerStatus = "answered"
	AnswerRejected AnswerStatus = "rejected"
)

// Answer is the gated result of a question.
type Answer struct {
	Status  AnswerStatus  `json:"status"`
	Text    string        `json:"answer"`
	Sources []ScoredChunk `json:"sources,omitempty"`
	// Candidate holds the raw model output when the answer was rejected.
	Candidate string `json:"candidate,omitempty"`
}

// Rejected reports whether the quality gate replaced the model output.
func (a Answer) Rejected() bool {
	return a.Status == AnswerRejected
}

// FormatSources returns a short "chunk N" list for display.
func (a Answer) FormatSources() string {
	if len(a.Sources) == 0 {
		return ""
	}
	parts := make([]string, len(a.Sources))
	for i, s := range a.Sources {
		parts[i] = fmt.Sprintf("chunk %d (%.3f)", s.Index, s.Score)
	}
	return strings.Join(parts, ", ")
}
