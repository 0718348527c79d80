package agent

import (
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// DefaultMaxTurns is how many messages the assistant remembers.
const DefaultMaxTurns = 6

// Message is one remembered chat message.
type Message struct {
	Role    llms.ChatMessageType
	Content string
}

// Memory is a bounded chat history. Once full, the oldest messages are
// dropped first. Safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	maxTurns int
	messages []Message
}

// NewMemory creates a memory holding at most maxTurns messages.
// Non-positive values use DefaultMaxTurns.
func NewMemory(maxTurns int) *Memory {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Memory{maxTurns: maxTurns}
}

// Add appends a message, evicting the oldest beyond the bound.
func (m *Memory) Add(role llms.ChatMessageType, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = append(m.messages, Message{Role: role, Content: content})
	if over := len(m.messages) - m.maxTurns; over > 0 {
		m.messages = append([]Message(nil), m.messages[over:]...)
	}
}

// History returns a copy of the remembered messages, oldest first.
func (m *Memory) History() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}

// Len returns the number of remembered messages.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}
