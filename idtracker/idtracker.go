// Package idtracker maps external point identifiers to dense internal
// offsets and back.
//
// The tracker is the only place that knows both directions of the mapping;
// the segment coordinator relies on it to uphold the at-most-one-mapping
// invariant in both directions.
package idtracker

import (
	"sync"

	"github.com/vgees/qdrant/types"
)

// Tracker is the identifier index consumed by the segment coordinator.
//
// Implementations must keep the forward and reverse mappings consistent:
// at most one offset per external id and at most one external id per
// offset.
type Tracker interface {
	// InternalID resolves an external id to its current offset.
	InternalID(id types.PointID) (types.PointOffset, bool)

	// ExternalID resolves an offset back to its external id.
	ExternalID(offset types.PointOffset) (types.PointID, bool)

	// SetLink links an external id to an offset, replacing any previous
	// link for that id.
	SetLink(id types.PointID, offset types.PointOffset)

	// Drop removes the link for an external id if present.
	Drop(id types.PointID)
}

// Compile-time interface check.
var _ Tracker = (*MapTracker)(nil)

// MapTracker is an in-memory Tracker backed by a pair of Go maps.
// It permits many concurrent readers or one writer.
type MapTracker struct {
	mu      sync.RWMutex
	forward map[types.PointID]types.PointOffset
	reverse map[types.PointOffset]types.PointID
}

// NewMapTracker creates an empty in-memory tracker.
func NewMapTracker() *MapTracker {
	return &MapTracker{
		forward: make(map[types.PointID]types.PointOffset),
		reverse: make(map[types.PointOffset]types.PointID),
	}
}

// InternalID resolves an external id to its current offset.
func (t *MapTracker) InternalID(id types.PointID) (types.PointOffset, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	offset, ok := t.forward[id]
	return offset, ok
}

// ExternalID resolves an offset back to its external id.
func (t *MapTracker) ExternalID(offset types.PointOffset) (types.PointID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	id, ok := t.reverse[offset]
	return id, ok
}

// SetLink links an external id to an offset. A previous link for the same
// id is replaced and its stale reverse entry removed.
func (t *MapTracker) SetLink(id types.PointID, offset types.PointOffset) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if old, ok := t.forward[id]; ok {
		delete(t.reverse, old)
	}
	t.forward[id] = offset
	t.reverse[offset] = id
}

// Drop removes the link for an external id if present.
func (t *MapTracker) Drop(id types.PointID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if offset, ok := t.forward[id]; ok {
		delete(t.reverse, offset)
		delete(t.forward, id)
	}
}

// Len returns the number of linked points.
func (t *MapTracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.forward)
}
