package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// scriptedModel replies "reply N" and records every request.
type scriptedModel struct {
	requests [][]llms.MessageContent
	options  []llms.CallOptions
	err      error
}

var _ llms.Model = (*scriptedModel)(nil)

func (m *scriptedModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, o := range options {
		o(&opts)
	}
	m.requests = append(m.requests, messages)
	m.options = append(m.options, opts)
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: fmt.Sprintf("reply %d", len(m.requests))}},
	}, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func textOf(t *testing.T, m llms.MessageContent) string {
	t.Helper()
	require.Len(t, m.Parts, 1)
	part, ok := m.Parts[0].(llms.TextContent)
	require.True(t, ok)
	return part.Text
}

func TestRespond_SendsSystemPromptAndHistory(t *testing.T) {
	model := &scriptedModel{}
	a := New(model)

	reply, err := a.Respond(context.Background(), "Show latest vitals for patient P001")
	require.NoError(t, err)
	assert.Equal(t, "reply 1", reply)

	_, err = a.Respond(context.Background(), "And labs?")
	require.NoError(t, err)

	second := model.requests[1]
	require.Len(t, second, 4)
	assert.Equal(t, llms.ChatMessageTypeSystem, second[0].Role)
	assert.Equal(t, SystemPrompt, textOf(t, second[0]))
	assert.Equal(t, llms.ChatMessageTypeHuman, second[1].Role)
	assert.Equal(t, "Show latest vitals for patient P001", textOf(t, second[1]))
	assert.Equal(t, llms.ChatMessageTypeAI, second[2].Role)
	assert.Equal(t, "reply 1", textOf(t, second[2]))
	assert.Equal(t, "And labs?", textOf(t, second[3]))
}

func TestRespond_GenerationOptions(t *testing.T) {
	model := &scriptedModel{}
	_, err := New(model).Respond(context.Background(), "hi")
	require.NoError(t, err)

	require.Len(t, model.options, 1)
	assert.InDelta(t, 0.1, model.options[0].Temperature, 1e-9)
	assert.Equal(t, 400, model.options[0].MaxTokens)
}

func TestRespond_MemoryBounded(t *testing.T) {
	model := &scriptedModel{}
	a := New(model)

	for i := range 5 {
		_, err := a.Respond(context.Background(), fmt.Sprintf("q%d", i))
		require.NoError(t, err)
	}

	assert.Equal(t, DefaultMaxTurns, a.Memory().Len())
	last := model.requests[len(model.requests)-1]
	// system prompt + at most six remembered messages
	assert.Len(t, last, 1+DefaultMaxTurns)
	assert.Equal(t, "q4", textOf(t, last[len(last)-1]))
}

func TestRespond_ModelError(t *testing.T) {
	boom := errors.New("deployment not found")
	a := New(&scriptedModel{err: boom})

	_, err := a.Respond(context.Background(), "hi")
	require.ErrorIs(t, err, boom)

	history := a.Memory().History()
	require.Len(t, history, 1)
	assert.Equal(t, llms.ChatMessageTypeHuman, history[0].Role)
}

func TestRespond_EmptyMessage(t *testing.T) {
	model := &scriptedModel{}
	_, err := New(model).Respond(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, model.requests)
}

func TestNewAzureModel_RequiresCredentials(t *testing.T) {
	_, err := NewAzureModel(AzureConfig{Endpoint: "https://oai.example"})
	require.Error(t, err)
}

func TestNewAzureModel(t *testing.T) {
	model, err := NewAzureModel(AzureConfig{
		Endpoint:   "https://oai.example",
		APIKey:     "key",
		APIVersion: "2024-06-01",
		Deployment: "gpt-5.2-chat",
	})
	require.NoError(t, err)
	assert.NotNil(t, model)
}
