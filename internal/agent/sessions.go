package agent

import (
	"container/list"
	"context"
	"sync"
)

// DefaultMaxSessions bounds how many conversations are kept at once.
const DefaultMaxSessions = 256

// Sessions keeps one Agent per conversation ID. The least recently used
// conversation is forgotten once the bound is reached.
type Sessions struct {
	mu       sync.Mutex
	newAgent func() *Agent
	max      int
	order    *list.List // front = most recent
	byID     map[string]*list.Element
}

type session struct {
	id    string
	agent *Agent
}

// NewSessions creates a session table. newAgent builds the Agent for a new
// conversation. Non-positive max uses DefaultMaxSessions.
func NewSessions(newAgent func() *Agent, max int) *Sessions {
	if max <= 0 {
		max = DefaultMaxSessions
	}
	return &Sessions{
		newAgent: newAgent,
		max:      max,
		order:    list.New(),
		byID:     make(map[string]*list.Element),
	}
}

// Get returns the Agent for id, creating it if needed.
func (s *Sessions) Get(id string) *Agent {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.byID[id]; ok {
		s.order.MoveToFront(el)
		return el.Value.(*session).agent
	}

	a := s.newAgent()
	s.byID[id] = s.order.PushFront(&session{id: id, agent: a})
	for s.order.Len() > s.max {
		oldest := s.order.Back()
		s.order.Remove(oldest)
		delete(s.byID, oldest.Value.(*session).id)
	}
	return a
}

// Respond forwards message to the conversation's Agent.
func (s *Sessions) Respond(ctx context.Context, id, message string) (string, error) {
	return s.Get(id).Respond(ctx, message)
}

// Len returns the number of live conversations.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}
