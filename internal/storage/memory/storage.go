package memory

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/mcoot/gameshelf/internal/storage"
)

// Storage is an in-memory implementation of storage.Backend.
// Records are copied on the way in and out.
type Storage struct {
	mu          sync.RWMutex
	collections map[string][]json.RawMessage

	// Injected failures for exercising error paths
	loadErr     error
	persistErr  error
	persistErrs map[string]error
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		collections: make(map[string][]json.RawMessage),
		persistErrs: make(map[string]error),
	}
}

// Ensure Storage implements the interface
var _ storage.Backend = (*Storage)(nil)

func (s *Storage) Load(_ context.Context, collection string) ([]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return cloneRecords(s.collections[collection]), nil
}

func (s *Storage) Persist(_ context.Context, collection string, records []json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.persistErr != nil {
		return s.persistErr
	}
	if err := s.persistErrs[collection]; err != nil {
		return err
	}
	s.collections[collection] = cloneRecords(records)
	return nil
}

func (s *Storage) Close() error {
	return nil
}

// Test helpers

// FailLoads makes every Load return err until cleared with nil
func (s *Storage) FailLoads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}

// FailPersists makes every Persist return err until cleared with nil
func (s *Storage) FailPersists(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistErr = err
}

// FailPersistsTo makes Persist of one collection return err until cleared
// with nil
func (s *Storage) FailPersistsTo(collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.persistErrs, collection)
		return
	}
	s.persistErrs[collection] = err
}

// Raw returns a copy of the stored records of a collection
func (s *Storage) Raw(collection string) []json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecords(s.collections[collection])
}

func cloneRecords(records []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, len(records))
	for i, r := range records {
		out[i] = slices.Clone(r)
	}
	return out
}
