// Package memory persists conversation history so a pipeline can continue a
// dialogue across calls. Two stores: in-process for tests and single-node
// use, Postgres for durability.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/promptflow/internal/prompt"
)

// Store is append-only conversation history keyed by conversation ID.
type Store interface {
	Append(ctx context.Context, conversationID string, msg prompt.Message) error
	History(ctx context.Context, conversationID string) ([]prompt.Message, error)
}

// FormatHistory renders messages for prompt inclusion, keeping only the last
// window entries when window is positive.
//
//	Human: What is Go?
//	Assistant: Go is a programming language.
func FormatHistory(history []prompt.Message, window int) string {
	if window > 0 && len(history) > window {
		history = history[len(history)-window:]
	}

	lines := make([]string, 0, len(history))
	for _, msg := range history {
		prefix := "Assistant"
		if msg.Role == prompt.RoleHuman {
			prefix = "Human"
		}
		lines = append(lines, prefix+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}

// InMemoryStore keeps history in process memory. Safe for concurrent use.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string][]prompt.Message
}

// NewInMemoryStore returns an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{conversations: make(map[string][]prompt.Message)}
}

func (s *InMemoryStore) Append(ctx context.Context, conversationID string, msg prompt.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[conversationID] = append(s.conversations[conversationID], msg)
	return nil
}

func (s *InMemoryStore) History(ctx context.Context, conversationID string) ([]prompt.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.conversations[conversationID]
	out := make([]prompt.Message, len(stored))
	copy(out, stored)
	return out, nil
}
