package embedding

import (
	"hash/fnv"

	"github.com/hyperjump/yomu/pkg/utils"
)

// BERT special tokens and vocabulary size used by WordHashTokenizer.
const (
	tokenCLS   = 101
	tokenSEP   = 102
	vocabFirst = 1000
	vocabSize  = 30522
)

// Tokenizer produces BERT-style model inputs: input_ids, attention_mask and
// token_type_ids, each padded to maxTokens.
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// WordHashTokenizer maps each term to a token ID by hashing it into the
// model vocabulary, skipping the reserved IDs below 1000. It is used when no
// vocabulary ships with the model.
type WordHashTokenizer struct{}

// Tokenize wraps the terms of text in [CLS] ... [SEP], truncating to maxTokens
// (256 when maxTokens <= 0).
func (WordHashTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	n := 0
	push := func(id int64) {
		inputIDs[n] = id
		attentionMask[n] = 1
		n++
	}
	push(tokenCLS)
	for _, term := range utils.Terms(text) {
		if n >= maxTokens-1 {
			break
		}
		push(termID(term))
	}
	if n < maxTokens {
		push(tokenSEP)
	}
	return inputIDs, attentionMask, tokenTypeIDs
}

func termID(term string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(term))
	return int64(vocabFirst + h.Sum32()%(vocabSize-vocabFirst))
}
