package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/gameshelf/internal/dependencies/identity"
)

// MockIdentity is a mock implementation of identity.Generator for testing.
// Queued ids are returned first, then sequential ids of the form "id-N".
type MockIdentity struct {
	mu sync.Mutex

	// Queue is a queue of ids to return from NewID
	Queue []string
	index int
	seq   int
}

// Ensure MockIdentity implements Generator
var _ identity.Generator = (*MockIdentity)(nil)

// NewMockIdentity creates a new MockIdentity
func NewMockIdentity() *MockIdentity {
	return &MockIdentity{}
}

// NewID returns the next queued id, or a sequential id if none remain
func (m *MockIdentity) NewID() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.index < len(m.Queue) {
		id := m.Queue[m.index]
		m.index++
		return id
	}
	m.seq++
	return fmt.Sprintf("id-%d", m.seq)
}

// QueueIDs adds values to the id queue
func (m *MockIdentity) QueueIDs(ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queue = append(m.Queue, ids...)
}

// Reset clears the queue and the sequence
func (m *MockIdentity) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queue = nil
	m.index = 0
	m.seq = 0
}
