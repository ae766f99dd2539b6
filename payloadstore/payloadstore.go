// Package payloadstore defines the payload storage contract consumed by
// the segment coordinator, plus an in-memory implementation.
//
// A payload slot is addressed by the same dense offset as its vector. The
// store never validates offsets against the vector store; keeping the two
// consistent is the coordinator's job.
package payloadstore

import (
	"maps"
	"sync"

	"github.com/vgees/qdrant/types"
)

// Store is the payload storage consumed by the segment coordinator.
type Store interface {
	// Assign merges a single key into the payload at offset, creating the
	// slot if needed. Other keys are untouched.
	Assign(offset types.PointOffset, key string, value types.Value)

	// AssignAll replaces the entire payload at offset.
	AssignAll(offset types.PointOffset, payload types.Payload)

	// Delete removes a single key from the payload at offset. A missing
	// key or slot is a no-op.
	Delete(offset types.PointOffset, key string)

	// Drop removes and returns the payload at offset, or nil if the slot
	// holds no payload.
	Drop(offset types.PointOffset) types.Payload

	// Payload returns the payload at offset. The result is never nil; a
	// slot without payload yields an empty map. The returned map does not
	// alias store state.
	Payload(offset types.PointOffset) types.Payload
}

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory Store backed by a Go map.
// It permits many concurrent readers or one writer.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[types.PointOffset]types.Payload
}

// NewMemoryStore creates an empty in-memory payload store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[types.PointOffset]types.Payload),
	}
}

// Assign merges a single key into the payload at offset.
func (s *MemoryStore) Assign(offset types.PointOffset, key string, value types.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.data[offset]
	if !ok {
		p = make(types.Payload, 1)
		s.data[offset] = p
	}
	p[key] = value
}

// AssignAll replaces the entire payload at offset with a copy of payload.
func (s *MemoryStore) AssignAll(offset types.PointOffset, payload types.Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[offset] = maps.Clone(payload)
}

// Delete removes a single key from the payload at offset.
func (s *MemoryStore) Delete(offset types.PointOffset, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.data[offset]; ok {
		delete(p, key)
	}
}

// Drop removes and returns the payload at offset.
func (s *MemoryStore) Drop(offset types.PointOffset) types.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.data[offset]
	if !ok {
		return nil
	}
	delete(s.data, offset)

	return p
}

// Payload returns a copy of the payload at offset, or an empty map if the
// slot holds no payload.
func (s *MemoryStore) Payload(offset types.PointOffset) types.Payload {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data[offset]
	if !ok || p == nil {
		return types.Payload{}
	}

	return maps.Clone(p)
}
