package keyword

import (
	"context"
	"testing"
)

func newTestIndex(t *testing.T, texts ...string) *BleveIndex {
	t.Helper()
	idx, err := NewMemIndex()
	if err != nil {
		t.Fatalf("NewMemIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	if err := idx.IndexBatch(context.Background(), texts); err != nil {
		t.Fatalf("IndexBatch: %v", err)
	}
	return idx
}

func TestBleveIndex_SearchFindsContent(t *testing.T) {
	idx := newTestIndex(t,
		"This report mentions Omnisyan and other findings.",
		"The Bayes app is also referenced.",
	)
	ctx := context.Background()

	results, err := idx.Search(ctx, "Omnisyan", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != 0 {
		t.Fatalf("results = %+v", results)
	}

	// Standard analyzer (no stemming) so "bayes" matches "Bayes"
	results, err = idx.Search(ctx, "bayes", 10)
	if err != nil {
		t.Fatalf("Search bayes: %v", err)
	}
	if len(results) != 1 || results[0].ID != 1 {
		t.Errorf("results = %+v", results)
	}
}

func TestBleveIndex_TermCoverage(t *testing.T) {
	idx := newTestIndex(t,
		"attention attention attention attention",
		"scaled dot product attention",
		"nothing relevant here",
	)
	results, err := idx.Search(context.Background(), "dot product attention", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	if results[0].ID != 1 {
		t.Errorf("chunk covering all terms should rank first: %+v", results)
	}
}

func TestBleveIndex_Limits(t *testing.T) {
	idx := newTestIndex(t, "alpha", "alpha beta", "alpha gamma")
	ctx := context.Background()
	if r, _ := idx.Search(ctx, "alpha", 2); len(r) != 2 {
		t.Errorf("limit 2: %+v", r)
	}
	if r, _ := idx.Search(ctx, "alpha", 0); r != nil {
		t.Errorf("limit 0: %+v", r)
	}
	if n, _ := idx.DocCount(); n != 3 {
		t.Errorf("DocCount = %d", n)
	}
}

func TestBleveIndex_Empty(t *testing.T) {
	idx := newTestIndex(t)
	r, err := idx.Search(context.Background(), "anything", 5)
	if err != nil || r != nil {
		t.Errorf("empty index: %+v, %v", r, err)
	}
	if err := idx.Index(context.Background(), 4, "late addition"); err != nil {
		t.Fatal(err)
	}
	r, _ = idx.Search(context.Background(), "late", 5)
	if len(r) != 1 || r[0].ID != 4 {
		t.Errorf("after Index: %+v", r)
	}
}
