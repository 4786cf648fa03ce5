package engine

import (
	"sync"
	"time"
)

// ConversationMemory is a bounded, ordered log of prior turns. Append-only
// except for Reset. When the bound is exceeded the oldest turns are evicted
// first, never anything mid-sequence, so causal order of the remainder holds.
type ConversationMemory struct {
	mu       sync.Mutex
	turns    []ConversationTurn
	maxTurns int
}

// NewConversationMemory creates a memory bounded to maxTurns entries.
// maxTurns <= 0 means unbounded.
func NewConversationMemory(maxTurns int) *ConversationMemory {
	return &ConversationMemory{maxTurns: maxTurns}
}

// Append records a turn, evicting from the front if over the bound.
func (m *ConversationMemory) Append(role, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, ConversationTurn{Role: role, Text: text, At: time.Now()})
	if m.maxTurns > 0 && len(m.turns) > m.maxTurns {
		drop := len(m.turns) - m.maxTurns
		m.turns = append(m.turns[:0:0], m.turns[drop:]...)
	}
}

// Turns returns a copy of all retained turns, oldest first.
func (m *ConversationMemory) Turns() []ConversationTurn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ConversationTurn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Len returns the number of retained turns.
func (m *ConversationMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns)
}

// Reset clears the memory to empty.
func (m *ConversationMemory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
}
