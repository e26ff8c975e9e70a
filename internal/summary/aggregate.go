package summary

import (
	"strings"

	"github.com/hyperjump/yomu/internal/models"
)

// Aggregate folds per-chunk summaries, in chunk order, into the three-part
// result. The first summary is the introduction, the last is the conclusion
// and everything between forms the main points. Failed slots keep their
// "[Error] ..." rendering and are listed in FailedChunks.
func Aggregate(summaries []models.ChunkSummary) models.SummaryResult {
	n := len(summaries)
	texts := make([]string, n)
	var failed []int
	for i, s := range summaries {
		texts[i] = s.String()
		if !s.OK() {
			failed = append(failed, s.Index)
		}
	}

	res := models.SummaryResult{
		Introduction: models.NotAvailable,
		MainPoints:   models.NotEnoughContent,
		Conclusion:   models.NotAvailable,
		Chunks:       n,
		FailedChunks: failed,
	}
	if n > 0 {
		res.Introduction = texts[0]
	}
	if n > 1 {
		res.Conclusion = texts[n-1]
	}
	if n > 2 {
		res.MainPoints = strings.Join(texts[1:n-1], "\n\n")
	}
	return res
}
