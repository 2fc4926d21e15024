package tally

import (
	"context"
	"sync"
)

// MemoryStore keeps the record in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	rec   Record
	saved bool
	// Err, when set, is returned from Load and Save.
	Err error
}

func (m *MemoryStore) Load(ctx context.Context) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return Record{}, m.Err
	}
	if !m.saved {
		return Record{}, ErrNoRecord
	}
	return m.rec, nil
}

func (m *MemoryStore) Save(ctx context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.rec = rec
	m.saved = true
	return nil
}
