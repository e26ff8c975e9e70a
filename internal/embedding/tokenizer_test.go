package embedding

import (
	"testing"
)

func TestWordHashTokenizer_Tokenize(t *testing.T) {
	var tok WordHashTokenizer
	ids, attn, types := tok.Tokenize("hello world", 10)
	if len(ids) != 10 || len(attn) != 10 || len(types) != 10 {
		t.Fatalf("lengths: %d %d %d", len(ids), len(attn), len(types))
	}
	if ids[0] != tokenCLS {
		t.Errorf("expected CLS %d, got %d", tokenCLS, ids[0])
	}
	if ids[3] != tokenSEP {
		t.Errorf("expected SEP after two terms, got %d", ids[3])
	}
	if attn[3] != 1 || attn[4] != 0 {
		t.Errorf("attention mask = %v", attn)
	}
	for _, id := range ids[1:3] {
		if id < vocabFirst || id >= vocabSize {
			t.Errorf("term id %d outside vocabulary range", id)
		}
	}
}

func TestWordHashTokenizer_truncates(t *testing.T) {
	var tok WordHashTokenizer
	ids, _, _ := tok.Tokenize("a b c d e f g h i j k l", 5)
	if len(ids) != 5 {
		t.Fatalf("len(ids)=%d", len(ids))
	}
	if ids[4] != tokenSEP {
		t.Errorf("last slot should hold SEP, got %d", ids[4])
	}
}

func TestWordHashTokenizer_caseInsensitive(t *testing.T) {
	var tok WordHashTokenizer
	a, _, _ := tok.Tokenize("Attention", 4)
	b, _, _ := tok.Tokenize("attention", 4)
	if a[1] != b[1] {
		t.Errorf("ids differ by case: %d vs %d", a[1], b[1])
	}
}
