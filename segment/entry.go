package segment

import (
	"github.com/vgees/qdrant/types"
)

// OpResult reports the outcome of a versioned mutating operation.
type OpResult int

const (
	// OpSkipped means the operation's sequence number was not newer than
	// the segment version; state is untouched. This is idempotent replay,
	// not a failure.
	OpSkipped OpResult = iota
	// OpInserted means a fresh point was created.
	OpInserted
	// OpReplaced means an existing point's vector was replaced.
	OpReplaced
	// OpDeleted means an existing point was removed.
	OpDeleted
	// OpNoop means the operation was accepted but had nothing to do
	// (e.g. deleting an unknown point).
	OpNoop
	// OpApplied means a payload operation was applied.
	OpApplied
)

func (r OpResult) String() string {
	switch r {
	case OpSkipped:
		return "skipped"
	case OpInserted:
		return "inserted"
	case OpReplaced:
		return "replaced"
	case OpDeleted:
		return "deleted"
	case OpNoop:
		return "noop"
	case OpApplied:
		return "applied"
	default:
		return "unknown"
	}
}

// Applied reports whether the operation advanced segment state (anything
// but a stale-version skip).
func (r OpResult) Applied() bool {
	return r != OpSkipped
}

// Entry is the externally consumed surface of a segment.
//
// All mutating operations take an explicit sequence number as their first
// argument: operations whose number is not newer than the segment version
// report OpSkipped and leave state untouched, which makes replay from an
// external log idempotent. Mutations must be serialized by the caller
// (single writer per segment); reads may run concurrently.
type Entry interface {
	// Version returns the high-water mark of applied operations.
	Version() types.SeqNumber

	// IsAppendable reports the segment's static appendable capability.
	IsAppendable() bool

	// Search finds up to top points nearest to vector, optionally
	// constrained by filter, ordered by decreasing score.
	Search(vector []float32, filter *types.Filter, top int, params *types.SearchParams) ([]types.ScoredPoint, error)

	// UpsertPoint inserts a point or replaces its vector, preserving any
	// existing payload.
	UpsertPoint(opNum types.SeqNumber, id types.PointID, vector []float32) (OpResult, error)

	// DeletePoint removes a point. Deleting an unknown point reports
	// OpNoop, not an error.
	DeletePoint(opNum types.SeqNumber, id types.PointID) (OpResult, error)

	// SetFullPayload replaces the point's entire payload.
	SetFullPayload(opNum types.SeqNumber, id types.PointID, payload types.Payload) (OpResult, error)

	// SetPayloadField merges a single key into the point's payload.
	SetPayloadField(opNum types.SeqNumber, id types.PointID, key string, value types.Value) (OpResult, error)

	// DeletePayloadField removes a single key from the point's payload.
	// A missing key is not an error.
	DeletePayloadField(opNum types.SeqNumber, id types.PointID, key string) (OpResult, error)

	// ClearPayload removes the point's entire payload.
	ClearPayload(opNum types.SeqNumber, id types.PointID) (OpResult, error)

	// Vector returns the point's stored vector.
	Vector(id types.PointID) ([]float32, error)

	// Payload returns the point's payload (empty, never nil, when the
	// point has none).
	Payload(id types.PointID) (types.Payload, error)

	// HasPoint reports whether the external id is known.
	HasPoint(id types.PointID) bool

	// PointCount returns the number of live points.
	PointCount() int

	// DeletedCount returns the number of tombstoned vector slots.
	DeletedCount() int

	// Info returns segment statistics.
	Info() types.SegmentStats
}
