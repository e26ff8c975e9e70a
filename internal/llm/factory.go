package llm

import (
	"context"
	"fmt"

	"github.com/hyperjump/yomu/internal/config"
)

// Provider names.
const (
	ProviderExtractive = "extractive"
	ProviderOpenAI     = "openai"
)

// NewGenerator creates the answer generator selected by cfg.Provider.
func NewGenerator(ctx context.Context, cfg config.ModelConfig) (Generator, error) {
	switch cfg.Provider {
	case ProviderExtractive, "":
		return NewExtractiveGenerator(), nil
	case ProviderOpenAI:
		m, err := NewChatModel(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}

// NewSummarizer creates the chunk summarizer selected by cfg.Provider.
func NewSummarizer(ctx context.Context, cfg config.SummarizationConfig) (Summarizer, error) {
	switch cfg.Provider {
	case ProviderExtractive, "":
		return NewExtractiveSummarizer(2), nil
	case ProviderOpenAI:
		m, err := NewChatModel(ctx, cfg.ModelConfig)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown summarization provider %q", cfg.Provider)
	}
}
