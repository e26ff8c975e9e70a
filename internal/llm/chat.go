package llm

import (
	"context"
	"fmt"

	openaiModel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/hyperjump/yomu/internal/config"
)

const summaryInstructions = "Summarize the following text in two or three sentences. " +
	"Reply with the summary only."

// ChatModel adapts an eino chat model to Generator and Summarizer.
type ChatModel struct {
	model     model.BaseChatModel
	name      string
	maxTokens int
}

var (
	_ Generator  = (*ChatModel)(nil)
	_ Summarizer = (*ChatModel)(nil)
)

// NewChatModelFrom wraps an existing eino chat model. maxTokens <= 0 leaves
// the provider default.
func NewChatModelFrom(m model.BaseChatModel, name string, maxTokens int) *ChatModel {
	return &ChatModel{model: m, name: name, maxTokens: maxTokens}
}

// NewChatModel creates an OpenAI-compatible chat model for the model selected
// by cfg.Mode.
func NewChatModel(ctx context.Context, cfg config.ModelConfig) (*ChatModel, error) {
	apiKey := cfg.APIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required: set %s", cfg.APIKeyEnv)
	}
	name := cfg.ModelName()
	if name == "" {
		return nil, fmt.Errorf("no model configured for mode %q", cfg.Mode)
	}
	m, err := openaiModel.NewChatModel(ctx, &openaiModel.ChatModelConfig{
		APIKey:  apiKey,
		BaseURL: cfg.BaseURL,
		Model:   name,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	return NewChatModelFrom(m, "openai:"+name, cfg.MaxTokens), nil
}

// Generate answers req with a single completion.
func (c *ChatModel) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	return c.complete(ctx, []*schema.Message{schema.UserMessage(req.Prompt())})
}

// Summarize returns a short summary of text.
func (c *ChatModel) Summarize(ctx context.Context, text string) (string, error) {
	return c.complete(ctx, []*schema.Message{
		schema.SystemMessage(summaryInstructions),
		schema.UserMessage(text),
	})
}

// Name returns the provider and model, e.g. "openai:gpt-4o-mini".
func (c *ChatModel) Name() string { return c.name }

func (c *ChatModel) complete(ctx context.Context, msgs []*schema.Message) (string, error) {
	var opts []model.Option
	if c.maxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(c.maxTokens))
	}
	out, err := c.model.Generate(ctx, msgs, opts...)
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.name, err)
	}
	if out == nil {
		return "", fmt.Errorf("%s: empty response", c.name)
	}
	return out.Content, nil
}
