// Package llm provides the text generation and summarization providers used
// by the Q&A and summary pipelines.
package llm

import (
	"context"
	"strings"
)

// Generator answers a question from retrieved passages.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	// Name identifies the provider and model.
	Name() string
}

// Summarizer condenses one piece of text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
	Name() string
}

// GenerateRequest is a question plus the context passages to answer from.
type GenerateRequest struct {
	Question string
	Passages []string
}

const answerInstructions = "Use the following pieces of context to answer the question at the end. " +
	"If the context does not contain the answer, say that you don't know instead of making one up."

// Prompt renders the request as a single prompt: instructions, the passages
// separated by blank lines, then the question.
func (r GenerateRequest) Prompt() string {
	var b strings.Builder
	b.WriteString(answerInstructions)
	b.WriteString("\n\n")
	for i, p := range r.Passages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.TrimSpace(p))
	}
	b.WriteString("\n\nQuestion: ")
	b.WriteString(strings.TrimSpace(r.Question))
	b.WriteString("\nAnswer:")
	return b.String()
}
