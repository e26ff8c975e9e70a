package keyword

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/hyperjump/yomu/pkg/utils"
)

type chunkDoc struct {
	Text string `json:"text"`
}

// BleveIndex implements KeywordIndex with an in-memory Bleve index. It is
// built per hybrid query and never persisted.
type BleveIndex struct {
	index bleve.Index
}

var _ KeywordIndex = (*BleveIndex)(nil)

// NewMemIndex creates an empty in-memory index.
func NewMemIndex() (*BleveIndex, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so "bayes" matches "Bayes"
	// but stemmed variants do not collide.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("text", textFieldMapping)
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// Index adds the chunk text under id.
func (b *BleveIndex) Index(_ context.Context, id int, text string) error {
	return b.index.Index(strconv.Itoa(id), chunkDoc{Text: text})
}

// IndexBatch adds all texts, using their position as id.
func (b *BleveIndex) IndexBatch(_ context.Context, texts []string) error {
	batch := b.index.NewBatch()
	for i, t := range texts {
		if err := batch.Index(strconv.Itoa(i), chunkDoc{Text: t}); err != nil {
			return fmt.Errorf("batch index chunk %d: %w", i, err)
		}
	}
	return b.index.Batch(batch)
}

// Search runs a match query and returns up to limit results. For multi-term
// queries the score is scaled by (matched terms / query terms)^2 so chunks
// covering the whole query beat chunks repeating one term. Equal scores are
// ordered by chunk id.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int) ([]KeywordResult, error) {
	if limit <= 0 {
		return nil, nil
	}
	total, err := b.index.DocCount()
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, nil
	}

	scores, err := b.match(ctx, query, int(total))
	if err != nil {
		return nil, err
	}

	terms := uniqueTerms(query)
	if len(terms) > 1 {
		coverage := make(map[int]int, len(scores))
		for _, term := range terms {
			hits, err := b.match(ctx, term, int(total))
			if err != nil {
				return nil, err
			}
			for id := range hits {
				coverage[id]++
			}
		}
		for id, s := range scores {
			ratio := float64(coverage[id]) / float64(len(terms))
			scores[id] = s * ratio * ratio
		}
	}

	out := make([]KeywordResult, 0, len(scores))
	for id, s := range scores {
		out = append(out, KeywordResult{ID: id, Score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (b *BleveIndex) match(ctx context.Context, query string, size int) (map[int]float64, error) {
	q := bleve.NewMatchQuery(query)
	q.SetField("text")
	req := bleve.NewSearchRequest(q)
	req.Size = size
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	scores := make(map[int]float64, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := strconv.Atoi(hit.ID)
		if err != nil {
			continue
		}
		scores[id] = hit.Score
	}
	return scores, nil
}

// DocCount returns the number of indexed chunks.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close releases the index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

func uniqueTerms(query string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, t := range utils.Terms(query) {
		if !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}
	return terms
}
