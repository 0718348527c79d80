// Package agent is a conversational assistant over a remote chat model,
// with a short bounded memory.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// SystemPrompt frames every conversation.
const SystemPrompt = "You are a clinical assistant. Be concise and cite data origins (table names) if provided."

// Generation defaults.
const (
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 400
)

// ErrEmptyMessage is returned for a blank user message.
var ErrEmptyMessage = errors.New("agent: empty message")

// Agent answers user messages, remembering the last few turns.
// Turns are serialized so the memory sees each exchange whole.
type Agent struct {
	model       llms.Model
	memory      *Memory
	temperature float64
	maxTokens   int

	mu sync.Mutex
}

// New creates an Agent over any langchaingo model.
func New(model llms.Model) *Agent {
	return &Agent{
		model:       model,
		memory:      NewMemory(DefaultMaxTurns),
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
	}
}

// AzureConfig locates an Azure OpenAI chat deployment.
type AzureConfig struct {
	Endpoint   string
	APIKey     string
	APIVersion string
	Deployment string
}

// NewAzureModel builds a langchaingo model for an Azure OpenAI deployment.
func NewAzureModel(cfg AzureConfig) (llms.Model, error) {
	if cfg.Endpoint == "" || cfg.APIKey == "" {
		return nil, errors.New("agent: Azure OpenAI endpoint and API key are required")
	}
	model, err := openai.New(
		openai.WithAPIType(openai.APITypeAzure),
		openai.WithBaseURL(cfg.Endpoint),
		openai.WithToken(cfg.APIKey),
		openai.WithAPIVersion(cfg.APIVersion),
		openai.WithModel(cfg.Deployment),
	)
	if err != nil {
		return nil, fmt.Errorf("create Azure OpenAI client: %w", err)
	}
	return model, nil
}

// Memory exposes the agent's history.
func (a *Agent) Memory() *Memory {
	return a.memory
}

// Respond sends the system prompt plus remembered history (including this
// message) to the model and returns the reply. The user message stays in
// memory even when the model call fails.
func (a *Agent) Respond(ctx context.Context, userMessage string) (string, error) {
	if userMessage == "" {
		return "", ErrEmptyMessage
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.memory.Add(llms.ChatMessageTypeHuman, userMessage)

	history := a.memory.History()
	messages := make([]llms.MessageContent, 0, len(history)+1)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, SystemPrompt))
	for _, m := range history {
		messages = append(messages, llms.TextParts(m.Role, m.Content))
	}

	resp, err := a.model.GenerateContent(ctx, messages,
		llms.WithTemperature(a.temperature),
		llms.WithMaxTokens(a.maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}

	var answer string
	if resp != nil && len(resp.Choices) > 0 {
		answer = resp.Choices[0].Content
	}
	a.memory.Add(llms.ChatMessageTypeAI, answer)
	return answer, nil
}
