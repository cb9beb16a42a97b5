package storage

import (
	"context"
	"sync"

	"github.com/kilianp07/ferntree/core/model"
)

// MemoryStore keeps records in memory for tests or short runs.
type MemoryStore struct {
	mu      sync.Mutex
	records []model.Timestep
	flushes int
	closed  bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// WriteTimestep appends the record.
func (s *MemoryStore) WriteTimestep(_ context.Context, ts model.Timestep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.records = append(s.records, ts)
	return nil
}

// Flush counts the call.
func (s *MemoryStore) Flush(context.Context) error {
	s.mu.Lock()
	s.flushes++
	s.mu.Unlock()
	return nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Records returns a copy of the stored records.
func (s *MemoryStore) Records() []model.Timestep {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Timestep, len(s.records))
	copy(out, s.records)
	return out
}

// Flushes returns the number of Flush calls.
func (s *MemoryStore) Flushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushes
}

// Closed reports whether Close was called.
func (s *MemoryStore) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
