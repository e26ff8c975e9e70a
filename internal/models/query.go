package models

import (
	"fmt"
	"strings"
)

// AskRequest is a question about a document.
type AskRequest struct {
	Text     string `json:"text"`
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

// Validate checks the request and normalizes TopK.
// Returns ErrExtractionEmpty for blank text so callers can tell the two apart.
func (r *AskRequest) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return fmt.Errorf("%w: question cannot be empty", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Text) == "" {
		return ErrExtractionEmpty
	}
	if r.TopK < 0 {
		r.TopK = 0
	}
	if r.TopK > 50 {
		r.TopK = 50
	}
	return nil
}

// SummarizeRequest is a request to summarize a document.
type SummarizeRequest struct {
	Text string `json:"text"`
}
