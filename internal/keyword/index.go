// Package keyword provides keyword (BM25-style) search over the chunks of one document.
package keyword

import "context"

// KeywordIndex defines keyword search operations over chunk texts.
type KeywordIndex interface {
	Index(ctx context.Context, id int, text string) error
	// IndexBatch indexes texts under IDs 0..len(texts)-1.
	IndexBatch(ctx context.Context, texts []string) error
	Search(ctx context.Context, query string, limit int) ([]KeywordResult, error)
	DocCount() (uint64, error)
	Close() error
}

// KeywordResult is a single keyword search hit. ID is the chunk index.
type KeywordResult struct {
	ID    int
	Score float64
}
