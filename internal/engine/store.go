package engine

import (
	"sync"

	"github.com/ahrav/go-slate/internal/domain"
	"github.com/ahrav/go-slate/internal/ports"
)

// MemoryStore is the in-memory instance store: an append-only mapping
// from instance ID to instance, guarded for concurrent callers. No
// eviction and no deletion; instances live until process teardown.
type MemoryStore struct {
	mu        sync.RWMutex
	instances map[string]*domain.Instance
}

var _ ports.InstanceStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{instances: make(map[string]*domain.Instance)}
}

// Put records an instance under its ID. Instances are immutable after
// creation, so storing the pointer is safe.
func (s *MemoryStore) Put(inst *domain.Instance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances[inst.ID] = inst
}

// Get returns the instance with the given ID.
func (s *MemoryStore) Get(id string) (*domain.Instance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.instances[id]
	return inst, ok
}

// Len reports the number of stored instances.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.instances)
}
