package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryEngine is a process-local KVEngine. Nothing survives the process;
// it backs tests and the "memory" backend for throwaway sessions.
type MemoryEngine struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewMemoryEngine returns an empty in-memory engine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{data: make(map[string][]byte)}
}

// Get retrieves a value by key.
func (e *MemoryEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	values, err := e.GetMany(ctx, key)
	if err != nil {
		return nil, err
	}
	if values[0] == nil {
		return nil, ErrKeyNotFound
	}
	return values[0], nil
}

// GetMany returns copies of the stored values under one read lock.
func (e *MemoryEngine) GetMany(_ context.Context, keys ...[]byte) ([][]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, ErrClosed
	}

	values := make([][]byte, len(keys))
	for i, k := range keys {
		if v, ok := e.data[string(k)]; ok {
			values[i] = append([]byte(nil), v...)
		}
	}
	return values, nil
}

// Apply commits the batch under one write lock.
func (e *MemoryEngine) Apply(_ context.Context, b *Batch) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}

	// Validate first so a bad op leaves the map untouched.
	for _, op := range b.Ops {
		if op.Kind != OpSet && op.Kind != OpDelete {
			return fmt.Errorf("unknown op kind %d", op.Kind)
		}
	}
	for _, op := range b.Ops {
		if op.Kind == OpSet {
			e.data[string(op.Key)] = append([]byte(nil), op.Value...)
		} else {
			delete(e.data, string(op.Key))
		}
	}
	return nil
}

// Len returns the number of stored keys.
func (e *MemoryEngine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.data)
}

// Close marks the engine closed.
func (e *MemoryEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
