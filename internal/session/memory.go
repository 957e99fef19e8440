package session

import (
	"context"
	"sync"
)

// MemoryRepository keeps the snapshot in memory. Used in tests and when
// no durable store is configured.
type MemoryRepository struct {
	mu   sync.Mutex
	snap Snapshot
	set  bool
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Save(_ context.Context, s Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap = s
	r.set = true
	return nil
}

func (r *MemoryRepository) Load(_ context.Context) (Snapshot, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap, r.set, nil
}

func (r *MemoryRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap = Snapshot{}
	r.set = false
	return nil
}
