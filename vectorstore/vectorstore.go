// Package vectorstore defines the canonical vector storage contract
// consumed by the segment coordinator, plus an in-memory implementation.
//
// Implementations must treat the configured dimension as authoritative.
// Offsets are dense and append-only: updating a point's vector allocates a
// fresh offset rather than overwriting in place, and reclamation of the
// old slot is the store's concern (tombstone + compaction).
package vectorstore

import (
	"errors"

	"github.com/vgees/qdrant/types"
)

var (
	// ErrWrongDimension is returned when a vector doesn't match the store
	// dimension.
	ErrWrongDimension = errors.New("wrong vector dimension")
)

// Store is the canonical storage for vectors.
//
// Callers should assume returned slices may alias internal memory unless
// the implementation documents otherwise.
type Store interface {
	// Dimension returns the fixed vector dimension of the store.
	Dimension() int

	// PutVector stores a vector and returns its freshly allocated offset.
	PutVector(v []float32) (types.PointOffset, error)

	// GetVector returns the vector at the given offset, or false if the
	// offset is unknown or deleted.
	GetVector(offset types.PointOffset) ([]float32, bool)

	// Delete tombstones the vector at the given offset. Deleting an
	// unknown or already-deleted offset is a no-op.
	Delete(offset types.PointOffset)

	// VectorCount returns the number of live vectors.
	VectorCount() int

	// DeletedCount returns the number of tombstoned slots.
	DeletedCount() int
}
