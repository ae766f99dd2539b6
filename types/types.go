package types

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// PointOffset is a dense, store-assigned index into the vector and payload
// stores. It is strictly 32-bit and segment-local. Offsets are reassigned
// when a point's vector is updated and are never exposed to callers.
type PointOffset uint32

// SeqNumber is the monotonically increasing tag carried by every mutating
// operation. It is the basis for idempotent, order-sensitive replay.
type SeqNumber uint64

// PointID is the caller-assigned, stable identifier of a logical point.
// It is either a numeric id or a UUID. The zero value is the numeric id 0.
//
// PointID is comparable and can be used as a map key.
type PointID struct {
	num    uint64
	uid    uuid.UUID
	isUUID bool
}

// NumID returns a numeric PointID.
func NumID(n uint64) PointID {
	return PointID{num: n}
}

// UUIDID returns a UUID-based PointID.
func UUIDID(u uuid.UUID) PointID {
	return PointID{uid: u, isUUID: true}
}

// IsUUID reports whether the id is UUID-based.
func (p PointID) IsUUID() bool { return p.isUUID }

// Num returns the numeric value and true if the id is numeric.
func (p PointID) Num() (uint64, bool) {
	if p.isUUID {
		return 0, false
	}
	return p.num, true
}

// UUID returns the UUID value and true if the id is UUID-based.
func (p PointID) UUID() (uuid.UUID, bool) {
	if !p.isUUID {
		return uuid.UUID{}, false
	}
	return p.uid, true
}

// String returns the canonical textual form of the id.
func (p PointID) String() string {
	if p.isUUID {
		return p.uid.String()
	}
	return strconv.FormatUint(p.num, 10)
}

// MarshalJSON encodes a numeric id as a JSON number and a UUID id as a
// JSON string.
func (p PointID) MarshalJSON() ([]byte, error) {
	if p.isUUID {
		return json.Marshal(p.uid.String())
	}
	return json.Marshal(p.num)
}

// UnmarshalJSON accepts a JSON number or a UUID string.
func (p *PointID) UnmarshalJSON(data []byte) error {
	var n uint64
	if err := json.Unmarshal(data, &n); err == nil {
		*p = NumID(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("point id: %w", err)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("point id: %w", err)
	}
	*p = UUIDID(u)
	return nil
}

// ScoredPoint is a single search result after translating the planner's
// internal offset back to the external identifier.
type ScoredPoint struct {
	ID    PointID `json:"id"`
	Score float32 `json:"score"`
}

// ScoredOffset is a planner-internal search result, addressed by offset.
type ScoredOffset struct {
	Offset PointOffset
	Score  float32
}

// SearchParams carries optional knobs forwarded to the query planner.
type SearchParams struct {
	// Exact forces a full scan even on planners that support approximate
	// search. The bundled scan planner always scans.
	Exact bool

	// Parallelism bounds the number of scan stripes evaluated
	// concurrently. Zero or one means sequential.
	Parallelism int
}

// SegmentStats summarizes a segment's contents.
//
// Byte accounting is not yet implemented; RAMBytes and DiskBytes are
// reported as zero.
type SegmentStats struct {
	VectorCount  int `json:"vector_count"`
	DeletedCount int `json:"deleted_count"`
	RAMBytes     int `json:"ram_bytes"`
	DiskBytes    int `json:"disk_bytes"`
}
