package vectorstore

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/vgees/qdrant/types"
)

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory, append-only vector store.
//
// Vectors are laid out in a single contiguous column (offset * dimension
// stride). Offsets are never reused: Delete records a tombstone in a
// roaring bitmap and the slot stays allocated until a compaction rewrites
// the column. It permits many concurrent readers or one writer.
type MemoryStore struct {
	mu      sync.RWMutex
	dim     int
	data    []float32
	deleted *roaring.Bitmap
}

// NewMemoryStore creates an empty store with the given fixed dimension.
func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{
		dim:     dimension,
		deleted: roaring.New(),
	}
}

// Dimension returns the fixed vector dimension of the store.
func (s *MemoryStore) Dimension() int {
	return s.dim
}

// PutVector copies v into the store and returns its freshly allocated
// offset.
func (s *MemoryStore) PutVector(v []float32) (types.PointOffset, error) {
	if len(v) != s.dim {
		return 0, ErrWrongDimension
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	offset := types.PointOffset(len(s.data) / s.dim)
	s.data = append(s.data, v...)

	return offset, nil
}

// GetVector returns the vector stored at offset. The returned slice
// aliases internal memory; callers must not modify it.
func (s *MemoryStore) GetVector(offset types.PointOffset) ([]float32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.live(offset) {
		return nil, false
	}

	start := int(offset) * s.dim
	return s.data[start : start+s.dim : start+s.dim], true
}

// Delete tombstones the slot at offset. Unknown or already-deleted
// offsets are ignored.
func (s *MemoryStore) Delete(offset types.PointOffset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if int(offset) < s.allocated() {
		s.deleted.Add(uint32(offset))
	}
}

// VectorCount returns the number of live vectors.
func (s *MemoryStore) VectorCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.allocated() - int(s.deleted.GetCardinality())
}

// DeletedCount returns the number of tombstoned slots.
func (s *MemoryStore) DeletedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int(s.deleted.GetCardinality())
}

// AllocatedCount returns the exclusive upper bound of ever-allocated
// offsets, including tombstoned slots. Offsets below this bound may be
// probed with GetVector.
func (s *MemoryStore) AllocatedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.allocated()
}

func (s *MemoryStore) allocated() int {
	return len(s.data) / s.dim
}

func (s *MemoryStore) live(offset types.PointOffset) bool {
	return int(offset) < s.allocated() && !s.deleted.Contains(uint32(offset))
}
