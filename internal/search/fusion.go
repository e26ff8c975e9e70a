package search

import (
	"sort"

	"github.com/hyperjump/yomu/internal/keyword"
	"github.com/hyperjump/yomu/internal/vector"
)

// FusedResult holds a chunk ID and its fused keyword/semantic scores.
type FusedResult struct {
	ID            int
	Score         float64
	KeywordScore  float64
	SemanticScore float64
}

// NormalizeKeywordScores min-max normalizes keyword scores to [0,1].
func NormalizeKeywordScores(results []keyword.KeywordResult) map[int]float64 {
	scores := make(map[int]float64, len(results))
	for _, r := range results {
		scores[r.ID] = r.Score
	}
	return minMax(scores)
}

// NormalizeSemanticScores min-max normalizes similarity scores to [0,1].
func NormalizeSemanticScores(results []vector.VectorResult) map[int]float64 {
	scores := make(map[int]float64, len(results))
	for _, r := range results {
		scores[r.ID] = r.Score
	}
	return minMax(scores)
}

// minMax maps the lowest score to 0 and the highest to 1. When all scores are
// equal every entry becomes 1.
func minMax(scores map[int]float64) map[int]float64 {
	if len(scores) == 0 {
		return scores
	}
	first := true
	var lo, hi float64
	for _, s := range scores {
		if first || s < lo {
			lo = s
		}
		if first || s > hi {
			hi = s
		}
		first = false
	}
	out := make(map[int]float64, len(scores))
	for id, s := range scores {
		if hi == lo {
			out[id] = 1
			continue
		}
		out[id] = (s - lo) / (hi - lo)
	}
	return out
}

// Fuse merges keyword and semantic score maps with weights. Results are
// sorted by fused score, then by chunk ID.
func Fuse(keywordScores, semanticScores map[int]float64, keywordWeight, semanticWeight float64) []FusedResult {
	scoreMap := make(map[int]*FusedResult, len(semanticScores))
	for id, score := range keywordScores {
		scoreMap[id] = &FusedResult{ID: id, KeywordScore: score}
	}
	for id, score := range semanticScores {
		if result, exists := scoreMap[id]; exists {
			result.SemanticScore = score
		} else {
			scoreMap[id] = &FusedResult{ID: id, SemanticScore: score}
		}
	}
	results := make([]FusedResult, 0, len(scoreMap))
	for _, result := range scoreMap {
		result.Score = keywordWeight*result.KeywordScore + semanticWeight*result.SemanticScore
		results = append(results, *result)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	return results
}
