package kv

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps entries in a map. Values are copied on the way in
// and out so callers never share backing arrays with the store.
type MemoryRepository struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var (
	_ Repository = (*MemoryRepository)(nil)
	_ Batcher    = (*MemoryRepository)(nil)
)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{data: make(map[string][]byte)}
}

func (r *MemoryRepository) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.data[key]
	if !ok {
		return nil, nil
	}
	return clone(v), nil
}

func (r *MemoryRepository) Set(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[key] = clone(value)
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.data, key)
	return nil
}

func (r *MemoryRepository) Keys(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.data))
	for k := range r.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *MemoryRepository) Apply(_ context.Context, b Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, key := range b.Deletes {
		delete(r.data, key)
	}
	for key, value := range b.Sets {
		r.data[key] = clone(value)
	}
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
