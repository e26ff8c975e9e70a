package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/yomu/internal/models"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{"yaml", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteSummary_text(t *testing.T) {
	res := models.SummaryResult{
		Introduction: "Intro text",
		MainPoints:   "Point one\n\nPoint two",
		Conclusion:   "The end",
		Chunks:       3,
	}
	var buf bytes.Buffer
	if err := WriteSummary(&buf, res, OutputText); err != nil {
		t.Fatalf("WriteSummary(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{"## Introduction", "Intro text", "## Main Points", "Point two", "## Conclusion", "The end"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
	if strings.Index(out, "Introduction") > strings.Index(out, "Conclusion") {
		t.Errorf("sections out of order:\n%s", out)
	}
	if strings.Contains(out, "Warning") {
		t.Errorf("complete summary should not warn:\n%s", out)
	}
}

func TestWriteSummary_partialWarns(t *testing.T) {
	res := models.SummaryResult{
		Introduction: "a", MainPoints: "[Error] boom", Conclusion: "c",
		Chunks: 3, FailedChunks: []int{1},
	}
	var buf bytes.Buffer
	if err := WriteSummary(&buf, res, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "1 of 3 chunks") {
		t.Errorf("expected partial warning, got:\n%s", buf.String())
	}
}

func TestWriteSummary_JSON(t *testing.T) {
	res := models.SummaryResult{Introduction: "i", MainPoints: "m", Conclusion: "c", Chunks: 1}
	var buf bytes.Buffer
	if err := WriteSummary(&buf, res, OutputJSON); err != nil {
		t.Fatalf("WriteSummary(json): %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	for _, key := range []string{"Introduction", "Main Points", "Conclusion"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("JSON output missing key %q: %s", key, buf.String())
		}
	}
}

func TestWriteAnswer_text(t *testing.T) {
	ans := models.Answer{
		Status: models.AnswerOK,
		Text:   "Training took twelve hours.",
		Sources: []models.ScoredChunk{
			{Chunk: models.Chunk{Index: 2, Text: "Training is parallel"}, Score: 0.9, SemanticScore: 0.9},
		},
	}
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, ans, OutputText); err != nil {
		t.Fatalf("WriteAnswer(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{"Training took twelve hours.", "Sources: chunk 2", "[chunk 2]", "Training is parallel"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteAnswer_rejectedOmitsSources(t *testing.T) {
	ans := models.Answer{
		Status:  models.AnswerRejected,
		Text:    "The model could not generate a meaningful answer.",
		Sources: []models.ScoredChunk{{Chunk: models.Chunk{Index: 0, Text: "x"}}},
	}
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, ans, OutputText); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "Sources") {
		t.Errorf("rejected answer should not list sources:\n%s", buf.String())
	}
}

func TestWriteAnswer_JSON(t *testing.T) {
	ans := models.Answer{Status: models.AnswerOK, Text: "yes"}
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, ans, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.Answer
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Status != models.AnswerOK || decoded.Text != "yes" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		maxLen int
		want   string
	}{
		{"empty", "", 5, ""},
		{"short", "hi", 5, "hi"},
		{"exact", "hello", 5, "hello"},
		{"long", "hello world", 5, "hello..."},
		{"runes", "日本語のテキスト", 3, "日本語..."},
		{"maxLen zero", "ab", 0, "ab"},
		{"maxLen negative", "ab", -1, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.s, tt.maxLen)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		name     string
		s        string
		maxWords int
		want     string
	}{
		{"empty", "", 3, ""},
		{"few words", "one two", 3, "one two"},
		{"exact", "one two three", 3, "one two three"},
		{"more", "one two three four", 3, "one two three..."},
		{"single long", "word", 1, "word"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateWords(tt.s, tt.maxWords)
			if got != tt.want {
				t.Errorf("TruncateWords(%q, %d) = %q, want %q", tt.s, tt.maxWords, got, tt.want)
			}
		})
	}
}
