package models

import (
	"errors"
	"testing"
)

func TestAskRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *AskRequest
		wantErr bool
		isEmpty bool
	}{
		{"empty question", &AskRequest{Text: "doc", Question: ""}, true, false},
		{"blank text", &AskRequest{Text: "  \n", Question: "what?"}, true, true},
		{"valid", &AskRequest{Text: "doc", Question: "what?"}, false, false},
		{"negative top_k", &AskRequest{Text: "doc", Question: "q", TopK: -3}, false, false},
		{"caps top_k at 50", &AskRequest{Text: "doc", Question: "q", TopK: 500}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !tt.isEmpty && !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got %v", err)
			}
			if tt.isEmpty && !errors.Is(err, ErrExtractionEmpty) {
				t.Errorf("expected ErrExtractionEmpty, got %v", err)
			}
			if !tt.wantErr && (tt.req.TopK < 0 || tt.req.TopK > 50) {
				t.Errorf("TopK not normalized: %d", tt.req.TopK)
			}
		})
	}
}
