// Package segment implements the per-shard coordination layer of the
// storage engine: it maps external point identifiers to dense internal
// offsets and keeps the identifier index, vector store, and payload store
// mutually consistent under a stream of versioned write operations, while
// serving point-in-time similarity search.
//
// The coordinator owns no store internals. Each collaborator (identifier
// tracker, vector store, payload store, query planner) synchronizes
// itself, so a multi-step mutation is not atomic end to end; callers must
// serialize mutations per segment and put crash recovery (write-ahead
// logging, replay) above this layer. Replay is safe because every
// mutation is gated on its sequence number.
package segment

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/vgees/qdrant/idtracker"
	"github.com/vgees/qdrant/payloadstore"
	"github.com/vgees/qdrant/queryplanner"
	"github.com/vgees/qdrant/types"
	"github.com/vgees/qdrant/vectorstore"
)

// Compile-time interface check.
var _ Entry = (*Segment)(nil)

// Segment coordinates one identifier tracker, one vector store, one
// payload store, and a query planner covering a disjoint subset of the
// point population.
type Segment struct {
	version atomic.Uint64

	ids      idtracker.Tracker
	vectors  vectorstore.Store
	payloads payloadstore.Store
	planner  queryplanner.Planner

	appendable bool
	logger     *slog.Logger
}

type options struct {
	appendable bool
	version    types.SeqNumber
	logger     *slog.Logger
}

// Option configures segment construction.
type Option func(*options)

// WithAppendable sets the static appendable capability flag reported by
// IsAppendable. It is not enforced by the segment itself.
func WithAppendable(appendable bool) Option {
	return func(o *options) {
		o.appendable = appendable
	}
}

// WithVersion restores a persisted operation high-water mark, e.g. after
// loading a snapshot. Operations numbered at or below it are skipped.
func WithVersion(version types.SeqNumber) Option {
	return func(o *options) {
		o.version = version
	}
}

// WithLogger sets the structured logger used for debug-level operation
// tracing. If unset, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New constructs a segment over the given collaborators.
func New(ids idtracker.Tracker, vectors vectorstore.Store, payloads payloadstore.Store, planner queryplanner.Planner, optFns ...Option) (*Segment, error) {
	if ids == nil {
		return nil, fmt.Errorf("segment: id tracker is nil")
	}
	if vectors == nil {
		return nil, fmt.Errorf("segment: vector store is nil")
	}
	if payloads == nil {
		return nil, fmt.Errorf("segment: payload store is nil")
	}
	if planner == nil {
		return nil, fmt.Errorf("segment: query planner is nil")
	}

	opts := options{appendable: true}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Segment{
		ids:        ids,
		vectors:    vectors,
		payloads:   payloads,
		planner:    planner,
		appendable: opts.appendable,
		logger:     opts.logger,
	}
	s.version.Store(uint64(opts.version))

	return s, nil
}

// Version returns the high-water mark of applied operations.
func (s *Segment) Version() types.SeqNumber {
	return types.SeqNumber(s.version.Load())
}

// IsAppendable reports the segment's static appendable capability.
func (s *Segment) IsAppendable() bool {
	return s.appendable
}

// stale reports whether opNum is not newer than the current version.
// The version itself is only advanced by commit, after the mutation body
// has fully succeeded; a failed mutation leaves the version untouched so
// a replay of the same sequence number is not silently skipped.
func (s *Segment) stale(opNum types.SeqNumber) bool {
	return uint64(opNum) <= s.version.Load()
}

func (s *Segment) commit(opNum types.SeqNumber) {
	s.version.Store(uint64(opNum))
}

// lookup resolves an external id to its storage offset.
func (s *Segment) lookup(id types.PointID) (types.PointOffset, error) {
	offset, ok := s.ids.InternalID(id)
	if !ok {
		return 0, &ErrPointNotFound{PointID: id}
	}
	return offset, nil
}

func (s *Segment) checkDimension(vector []float32) error {
	if expected := s.vectors.Dimension(); len(vector) != expected {
		return &ErrDimensionMismatch{Expected: expected, Received: len(vector)}
	}
	return nil
}

// updateVector moves a point to a fresh offset: capture and drop the old
// payload, tombstone the old vector, insert the new one, and re-attach
// the payload at the new offset. The old offset is never reused here;
// reclamation is the vector store's concern.
func (s *Segment) updateVector(oldOffset types.PointOffset, vector []float32) (types.PointOffset, error) {
	payload := s.payloads.Drop(oldOffset)

	s.vectors.Delete(oldOffset)
	newOffset, err := s.vectors.PutVector(vector)
	if err != nil {
		return 0, err
	}

	if payload != nil {
		s.payloads.AssignAll(newOffset, payload)
	}

	return newOffset, nil
}

// UpsertPoint inserts a point or replaces its vector. An existing point's
// payload survives the replacement even though the vector moves to a
// fresh offset.
func (s *Segment) UpsertPoint(opNum types.SeqNumber, id types.PointID, vector []float32) (OpResult, error) {
	if s.stale(opNum) {
		return s.skipped(opNum, "upsert", id), nil
	}

	if err := s.checkDimension(vector); err != nil {
		return OpSkipped, err
	}

	result := OpInserted

	oldOffset, exists := s.ids.InternalID(id)

	var (
		newOffset types.PointOffset
		err       error
	)
	if exists {
		result = OpReplaced
		newOffset, err = s.updateVector(oldOffset, vector)
	} else {
		newOffset, err = s.vectors.PutVector(vector)
	}
	if err != nil {
		return OpSkipped, fmt.Errorf("segment: upsert %s: %w", id, err)
	}

	s.ids.SetLink(id, newOffset)
	s.commit(opNum)

	s.logOp(opNum, "upsert", id, result)

	return result, nil
}

// DeletePoint removes a point's vector and identifier link. The payload
// slot is left for the payload store to reclaim on its own schedule.
// Deleting an unknown point is accepted as a no-op.
func (s *Segment) DeletePoint(opNum types.SeqNumber, id types.PointID) (OpResult, error) {
	if s.stale(opNum) {
		return s.skipped(opNum, "delete", id), nil
	}

	result := OpNoop

	if offset, ok := s.ids.InternalID(id); ok {
		s.vectors.Delete(offset)
		s.ids.Drop(id)
		result = OpDeleted
	}
	s.commit(opNum)

	s.logOp(opNum, "delete", id, result)

	return result, nil
}

// SetFullPayload replaces the point's entire payload.
func (s *Segment) SetFullPayload(opNum types.SeqNumber, id types.PointID, payload types.Payload) (OpResult, error) {
	return s.applyPayloadOp(opNum, "set_full_payload", id, func(offset types.PointOffset) {
		s.payloads.AssignAll(offset, payload)
	})
}

// SetPayloadField merges a single key into the point's payload without
// touching other keys.
func (s *Segment) SetPayloadField(opNum types.SeqNumber, id types.PointID, key string, value types.Value) (OpResult, error) {
	return s.applyPayloadOp(opNum, "set_payload_field", id, func(offset types.PointOffset) {
		s.payloads.Assign(offset, key, value)
	})
}

// DeletePayloadField removes a single key from the point's payload. A
// missing key is not an error.
func (s *Segment) DeletePayloadField(opNum types.SeqNumber, id types.PointID, key string) (OpResult, error) {
	return s.applyPayloadOp(opNum, "delete_payload_field", id, func(offset types.PointOffset) {
		s.payloads.Delete(offset, key)
	})
}

// ClearPayload removes the point's entire payload, leaving an empty
// payload for its offset.
func (s *Segment) ClearPayload(opNum types.SeqNumber, id types.PointID) (OpResult, error) {
	return s.applyPayloadOp(opNum, "clear_payload", id, func(offset types.PointOffset) {
		s.payloads.Drop(offset)
	})
}

// applyPayloadOp runs the shared payload mutation sequence: version gate,
// offset resolution (the point must pre-exist), mutation, commit.
func (s *Segment) applyPayloadOp(opNum types.SeqNumber, name string, id types.PointID, apply func(offset types.PointOffset)) (OpResult, error) {
	if s.stale(opNum) {
		return s.skipped(opNum, name, id), nil
	}

	offset, err := s.lookup(id)
	if err != nil {
		return OpSkipped, err
	}

	apply(offset)
	s.commit(opNum)

	s.logOp(opNum, name, id, OpApplied)

	return OpApplied, nil
}

// Search validates the query shape, delegates to the planner, and
// translates offsets in the planner's result back to external ids.
func (s *Segment) Search(vector []float32, filter *types.Filter, top int, params *types.SearchParams) ([]types.ScoredPoint, error) {
	if err := s.checkDimension(vector); err != nil {
		return nil, err
	}

	scored, err := s.planner.Search(vector, filter, top, params)
	if err != nil {
		return nil, fmt.Errorf("segment: search: %w", err)
	}

	result := make([]types.ScoredPoint, len(scored))
	for i, so := range scored {
		id, ok := s.ids.ExternalID(so.Offset)
		if !ok {
			// An offset reachable from search must always have a live
			// external id. Losing it means the cross-store invariants are
			// already broken, so abort loudly instead of surfacing a
			// user-facing error.
			s.corrupted(so.Offset, "no external id for offset")
		}
		result[i] = types.ScoredPoint{ID: id, Score: so.Score}
	}

	return result, nil
}

// Vector returns the point's stored vector.
func (s *Segment) Vector(id types.PointID) ([]float32, error) {
	offset, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	vector, ok := s.vectors.GetVector(offset)
	if !ok {
		s.corrupted(offset, "linked offset has no vector")
	}

	return vector, nil
}

// Payload returns the point's payload. A point without payload yields an
// empty, non-nil map.
func (s *Segment) Payload(id types.PointID) (types.Payload, error) {
	offset, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	return s.payloads.Payload(offset), nil
}

// HasPoint reports whether the external id is known.
func (s *Segment) HasPoint(id types.PointID) bool {
	_, ok := s.ids.InternalID(id)
	return ok
}

// PointCount returns the number of live points.
func (s *Segment) PointCount() int {
	return s.vectors.VectorCount()
}

// DeletedCount returns the number of tombstoned vector slots.
func (s *Segment) DeletedCount() int {
	return s.vectors.DeletedCount()
}

// Info returns segment statistics.
//
// TODO: byte-size accounting for RAMBytes/DiskBytes.
func (s *Segment) Info() types.SegmentStats {
	return types.SegmentStats{
		VectorCount:  s.vectors.VectorCount(),
		DeletedCount: s.vectors.DeletedCount(),
	}
}

func (s *Segment) skipped(opNum types.SeqNumber, name string, id types.PointID) OpResult {
	if s.logger != nil {
		s.logger.Debug("operation skipped",
			"op", name,
			"op_num", uint64(opNum),
			"version", s.version.Load(),
			"point_id", id.String(),
		)
	}
	return OpSkipped
}

func (s *Segment) logOp(opNum types.SeqNumber, name string, id types.PointID, result OpResult) {
	if s.logger != nil {
		s.logger.Debug("operation applied",
			"op", name,
			"op_num", uint64(opNum),
			"point_id", id.String(),
			"result", result.String(),
		)
	}
}

func (s *Segment) corrupted(offset types.PointOffset, msg string) {
	if s.logger != nil {
		s.logger.Error("cross-store corruption detected",
			"offset", uint32(offset),
			"detail", msg,
		)
	}
	panic(fmt.Sprintf("segment: corruption: %s %d", msg, offset))
}
