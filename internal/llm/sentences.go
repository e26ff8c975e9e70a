package llm

import (
	"regexp"
	"strings"

	"github.com/hyperjump/yomu/pkg/utils"
)

var sentencePattern = regexp.MustCompile(`[^.!?\n]+(?:[.!?]+|\n|$)`)

// splitSentences returns the trimmed, non-empty sentences of text.
func splitSentences(text string) []string {
	var out []string
	for _, s := range sentencePattern.FindAllString(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// contentTerms returns the terms of text that are not stopwords.
func contentTerms(text string) []string {
	return utils.ContentTerms(text)
}
