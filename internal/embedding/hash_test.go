package embedding

import (
	"context"
	"math"
	"testing"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i] * b[i])
	}
	return s
}

func TestHashEmbedder_deterministicAndNormalized(t *testing.T) {
	ctx := context.Background()
	e := NewHashEmbedder(64)
	a, _ := e.Embed(ctx, "attention is all you need")
	b, _ := e.Embed(ctx, "attention is all you need")
	if len(a) != 64 {
		t.Fatalf("len = %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("embedding not deterministic")
		}
	}
	if n := dot(a, a); math.Abs(n-1) > 1e-5 {
		t.Errorf("norm^2 = %f, want 1", n)
	}
}

func TestHashEmbedder_similarity(t *testing.T) {
	ctx := context.Background()
	e := NewHashEmbedder(384)
	q, _ := e.Embed(ctx, "transformer attention")
	related, _ := e.Embed(ctx, "The transformer relies on attention layers.")
	unrelated, _ := e.Embed(ctx, "Bananas grow in tropical climates.")
	if dot(q, related) <= dot(q, unrelated) {
		t.Errorf("related %.3f should beat unrelated %.3f", dot(q, related), dot(q, unrelated))
	}
}

func TestHashEmbedder_emptyText(t *testing.T) {
	v, err := NewHashEmbedder(8).Embed(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	for _, x := range v {
		if x != 0 {
			t.Fatal("empty text should embed to zero vector")
		}
	}
}

func TestHashEmbedder_defaults(t *testing.T) {
	e := NewHashEmbedder(0)
	if e.Dimensions() != 384 || e.Name() != "hash-384" {
		t.Errorf("Dimensions/Name = %d/%s", e.Dimensions(), e.Name())
	}
}

func TestHashEmbedder_ignoresStopwords(t *testing.T) {
	ctx := context.Background()
	e := NewHashEmbedder(256)

	v, _ := e.Embed(ctx, "This is only about the and of it, a b c")
	for _, x := range v {
		if x != 0 {
			t.Fatal("function words and single letters should embed to zero vector")
		}
	}

	plain, _ := e.Embed(ctx, "rivers")
	padded, _ := e.Embed(ctx, "It is all about the rivers.")
	for i := range plain {
		if plain[i] != padded[i] {
			t.Fatal("stopwords should not change the embedding")
		}
	}
	if d := dot(plain, padded); math.Abs(d-1) > 1e-5 {
		t.Errorf("similarity = %f, want 1", d)
	}
}
