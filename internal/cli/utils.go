// Package cli formats yomu results for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/yomu/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat returns the format named by s. Unknown names are an error.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputText, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

const rule = "─────────────────────────────────────────────────────────"

// WriteSummary writes a structured summary to w in the given format.
func WriteSummary(w io.Writer, res models.SummaryResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	writeSection(w, "Introduction", res.Introduction)
	writeSection(w, "Main Points", res.MainPoints)
	writeSection(w, "Conclusion", res.Conclusion)
	if res.Partial() {
		fmt.Fprintf(w, "Warning: %d of %d chunks could not be summarized (%s)\n",
			len(res.FailedChunks), res.Chunks, joinInts(res.FailedChunks))
	}
	return nil
}

func writeSection(w io.Writer, title, body string) {
	fmt.Fprintf(w, "## %s\n\n%s\n\n", title, body)
}

// WriteAnswer writes a gated answer to w in the given format. Text output
// lists the retrieved passages below the answer.
func WriteAnswer(w io.Writer, ans models.Answer, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, ans)
	}
	fmt.Fprintf(w, "\n%s\n\n", ans.Text)
	if ans.Rejected() {
		return nil
	}
	if len(ans.Sources) > 0 {
		fmt.Fprintf(w, "Sources: %s\n", ans.FormatSources())
		for _, src := range ans.Sources {
			fmt.Fprintln(w, rule)
			fmt.Fprintf(w, "[chunk %d] Score: %.4f (Keyword: %.4f, Semantic: %.4f)\n",
				src.Index, src.Score, src.KeywordScore, src.SemanticScore)
			fmt.Fprintf(w, "%s\n", Truncate(src.Text, 200))
		}
	}
	return nil
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	return writeJSON(w, v)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ", ")
}

// Truncate shortens s to maxLen runes and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
