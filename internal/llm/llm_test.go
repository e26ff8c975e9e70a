package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/yomu/internal/config"
)

type fakeChatModel struct {
	reply     string
	err       error
	calls     int
	lastMsgs  []*schema.Message
	maxTokens *int
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.calls++
	f.lastMsgs = input
	f.maxTokens = model.GetCommonOptions(nil, opts...).MaxTokens
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func TestGenerateRequest_Prompt(t *testing.T) {
	p := GenerateRequest{
		Question: "  Who built it? ",
		Passages: []string{"First passage.", " Second passage. "},
	}.Prompt()
	assert.True(t, strings.HasPrefix(p, answerInstructions))
	assert.Contains(t, p, "First passage.\n\nSecond passage.")
	assert.True(t, strings.HasSuffix(p, "Question: Who built it?\nAnswer:"))
}

func TestChatModel_Generate(t *testing.T) {
	fake := &fakeChatModel{reply: "The Romans built it."}
	m := NewChatModelFrom(fake, "openai:test", 256)

	got, err := m.Generate(context.Background(), GenerateRequest{Question: "q", Passages: []string{"p"}})
	require.NoError(t, err)
	assert.Equal(t, "The Romans built it.", got)
	require.Len(t, fake.lastMsgs, 1)
	assert.Equal(t, schema.User, fake.lastMsgs[0].Role)
	require.NotNil(t, fake.maxTokens)
	assert.Equal(t, 256, *fake.maxTokens)
	assert.Equal(t, "openai:test", m.Name())
}

func TestChatModel_Summarize(t *testing.T) {
	fake := &fakeChatModel{reply: "Short summary."}
	m := NewChatModelFrom(fake, "openai:test", 0)

	got, err := m.Summarize(context.Background(), "long text")
	require.NoError(t, err)
	assert.Equal(t, "Short summary.", got)
	require.Len(t, fake.lastMsgs, 2)
	assert.Equal(t, schema.System, fake.lastMsgs[0].Role)
	assert.Equal(t, "long text", fake.lastMsgs[1].Content)
	assert.Nil(t, fake.maxTokens)
}

func TestChatModel_Error(t *testing.T) {
	cause := errors.New("rate limited")
	m := NewChatModelFrom(&fakeChatModel{err: cause}, "openai:test", 0)
	_, err := m.Summarize(context.Background(), "x")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "openai:test")
}

func TestExtractiveGenerator(t *testing.T) {
	g := NewExtractiveGenerator()
	req := GenerateRequest{
		Question: "What cools the reactor core?",
		Passages: []string{
			"The plant opened in 1972. Heavy water cools the reactor core.",
			"The turbine hall is large.",
		},
	}
	got, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Heavy water cools the reactor core.", got)

	got, err = g.Generate(context.Background(), GenerateRequest{Question: "zebras?", Passages: req.Passages})
	require.NoError(t, err)
	assert.Empty(t, got, "no overlap yields no answer")
}

func TestExtractiveSummarizer(t *testing.T) {
	s := NewExtractiveSummarizer(2)
	text := "Solar panels convert sunlight. Solar panels need sunlight and maintenance. " +
		"My cat sleeps. Panels on roofs convert sunlight efficiently."
	got, err := s.Summarize(context.Background(), text)
	require.NoError(t, err)
	assert.NotContains(t, got, "cat")
	assert.Equal(t, 2, len(splitSentences(got)))

	short, err := s.Summarize(context.Background(), "  One sentence only.  ")
	require.NoError(t, err)
	assert.Equal(t, "One sentence only.", short)
}

func TestExtractive_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewExtractiveSummarizer(0).Summarize(ctx, "text")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = NewExtractiveGenerator().Generate(ctx, GenerateRequest{Question: "q"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFactories(t *testing.T) {
	ctx := context.Background()
	g, err := NewGenerator(ctx, config.ModelConfig{Provider: ProviderExtractive})
	require.NoError(t, err)
	assert.Equal(t, "extractive", g.Name())

	s, err := NewSummarizer(ctx, config.SummarizationConfig{})
	require.NoError(t, err)
	assert.Equal(t, "extractive", s.Name())

	_, err = NewGenerator(ctx, config.ModelConfig{Provider: "bogus"})
	assert.Error(t, err)

	t.Setenv("YOMU_TEST_MISSING_KEY", "")
	_, err = NewSummarizer(ctx, config.SummarizationConfig{ModelConfig: config.ModelConfig{
		Provider: ProviderOpenAI, APIKeyEnv: "YOMU_TEST_MISSING_KEY", FastModel: "gpt-4o-mini",
	}})
	assert.Error(t, err)
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("One. Two!\nThree? four")
	assert.Equal(t, []string{"One.", "Two!", "Three?", "four"}, got)
}
