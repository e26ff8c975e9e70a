package qa

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/yomu/internal/models"
)

// RejectionNotice replaces answers rejected by the quality gate.
const RejectionNotice = "The model could not generate a meaningful answer. " +
	"Try rephrasing the question or increasing model size."

// DefaultMinAnswerLength is the shortest accepted answer, in runes.
const DefaultMinAnswerLength = 10

// Gate rejects degenerate model output. An answer is rejected when, after
// trimming whitespace, it is shorter than MinLength runes, starts with "[" or
// ends with "]".
type Gate struct {
	MinLength int
}

// Check wraps candidate into an Answer, replacing it with RejectionNotice when
// the gate fires.
func (g Gate) Check(candidate string) models.Answer {
	minLen := g.MinLength
	if minLen <= 0 {
		minLen = DefaultMinAnswerLength
	}
	trimmed := strings.TrimSpace(candidate)
	if utf8.RuneCountInString(trimmed) < minLen ||
		strings.HasPrefix(trimmed, "[") ||
		strings.HasSuffix(trimmed, "]") {
		return models.Answer{Status: models.AnswerRejected, Text: RejectionNotice, Candidate: candidate}
	}
	return models.Answer{Status: models.AnswerOK, Text: candidate}
}

// FailureMessage renders err for end users. It never matches RejectionNotice,
// so callers can tell a failed request from a rejected answer.
func FailureMessage(err error) string {
	var buildErr *models.IndexBuildError
	switch {
	case errors.Is(err, models.ErrExtractionEmpty):
		return "The document has no readable text to answer from."
	case errors.As(err, &buildErr):
		return "Failed to index the document: " + buildErr.Err.Error()
	default:
		return "Failed to answer the question: " + err.Error()
	}
}
