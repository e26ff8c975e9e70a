package llm

import (
	"context"
	"math"
	"sort"
	"strings"
)

// ExtractiveGenerator answers with the context sentence sharing the most
// terms with the question. It needs no model and is deterministic. When no
// sentence shares a term it returns "".
type ExtractiveGenerator struct{}

// NewExtractiveGenerator returns an offline generator.
func NewExtractiveGenerator() *ExtractiveGenerator { return &ExtractiveGenerator{} }

// Generate picks the sentence with the highest Ochiai coefficient between its
// terms and the question terms. Ties go to the earliest sentence.
func (g *ExtractiveGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	question := termSet(contentTerms(req.Question))
	if len(question) == 0 {
		return "", nil
	}
	best, bestScore := "", 0.0
	for _, p := range req.Passages {
		for _, sent := range splitSentences(p) {
			terms := termSet(contentTerms(sent))
			if len(terms) == 0 {
				continue
			}
			shared := 0
			for t := range terms {
				if _, ok := question[t]; ok {
					shared++
				}
			}
			score := float64(shared) / math.Sqrt(float64(len(terms)*len(question)))
			if score > bestScore {
				best, bestScore = sent, score
			}
		}
	}
	return best, nil
}

// Name returns "extractive".
func (g *ExtractiveGenerator) Name() string { return "extractive" }

func termSet(terms []string) map[string]struct{} {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[t] = struct{}{}
	}
	return set
}

// ExtractiveSummarizer keeps the sentences with the highest normalized term
// frequency, in their original order.
type ExtractiveSummarizer struct {
	maxSentences int
}

// NewExtractiveSummarizer returns a summarizer keeping up to maxSentences
// sentences (2 when maxSentences <= 0).
func NewExtractiveSummarizer(maxSentences int) *ExtractiveSummarizer {
	if maxSentences <= 0 {
		maxSentences = 2
	}
	return &ExtractiveSummarizer{maxSentences: maxSentences}
}

// Summarize ranks sentences by the summed frequency of their terms divided by
// the square root of their length.
func (s *ExtractiveSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	sentences := splitSentences(text)
	if len(sentences) <= s.maxSentences {
		return strings.Join(sentences, " "), nil
	}

	terms := make([][]string, len(sentences))
	freq := map[string]float64{}
	maxF := 0.0
	for i, sent := range sentences {
		terms[i] = contentTerms(sent)
		for _, t := range terms[i] {
			freq[t]++
			maxF = max(maxF, freq[t])
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i := range sentences {
		total := 0.0
		for _, t := range terms[i] {
			total += freq[t] / maxF
		}
		if n := len(terms[i]); n > 0 {
			total /= math.Sqrt(float64(n))
		}
		scores[i] = scored{i, total}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	selected := make([]int, s.maxSentences)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, len(selected))
	for i, idx := range selected {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " "), nil
}

// Name returns "extractive".
func (s *ExtractiveSummarizer) Name() string { return "extractive" }
