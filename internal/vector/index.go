// Package vector provides vector indexes and similarity search.
package vector

import (
	"context"
	"io"
)

// VectorIndex stores vectors under integer IDs and answers top-k queries.
// Indexes are built once and then only searched or serialized.
type VectorIndex interface {
	Add(ctx context.Context, ids []int, vectors [][]float32) error
	// Search returns up to k hits, best first. Equal scores keep insertion order.
	Search(ctx context.Context, query []float32, k int) ([]VectorResult, error)
	Encode(w io.Writer) error
	Decode(r io.Reader) error
	Size() int
	Dimensions() int
	Close() error
}

// VectorResult is a single vector search hit.
type VectorResult struct {
	ID    int
	Score float64 // Inner product; cosine similarity for normalized vectors
}
