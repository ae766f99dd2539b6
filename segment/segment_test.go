package segment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vgees/qdrant/distance"
	"github.com/vgees/qdrant/idtracker"
	"github.com/vgees/qdrant/payloadstore"
	"github.com/vgees/qdrant/queryplanner"
	"github.com/vgees/qdrant/types"
	"github.com/vgees/qdrant/vectorstore"
)

func newTestSegment(t *testing.T, dim int, optFns ...Option) *Segment {
	t.Helper()

	ids := idtracker.NewMapTracker()
	vectors := vectorstore.NewMemoryStore(dim)
	payloads := payloadstore.NewMemoryStore()

	planner, err := queryplanner.NewScanPlanner(vectors, payloads, distance.MetricDot)
	require.NoError(t, err)

	s, err := New(ids, vectors, payloads, planner, optFns...)
	require.NoError(t, err)

	return s
}

func TestNew_NilCollaborators(t *testing.T) {
	ids := idtracker.NewMapTracker()
	vectors := vectorstore.NewMemoryStore(2)
	payloads := payloadstore.NewMemoryStore()
	planner, err := queryplanner.NewScanPlanner(vectors, payloads, distance.MetricDot)
	require.NoError(t, err)

	_, err = New(nil, vectors, payloads, planner)
	require.Error(t, err)
	_, err = New(ids, nil, payloads, planner)
	require.Error(t, err)
	_, err = New(ids, vectors, nil, planner)
	require.Error(t, err)
	_, err = New(ids, vectors, payloads, nil)
	require.Error(t, err)
}

func TestSegment_UpsertAndGet(t *testing.T) {
	s := newTestSegment(t, 3)

	res, err := s.UpsertPoint(1, types.NumID(7), []float32{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, OpInserted, res)

	require.True(t, s.HasPoint(types.NumID(7)))

	v, err := s.Vector(types.NumID(7))
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2, 3}, v)

	assert.Equal(t, types.SeqNumber(1), s.Version())
	assert.Equal(t, 1, s.PointCount())
	assert.Equal(t, 0, s.DeletedCount())
}

func TestSegment_UUIDPointID(t *testing.T) {
	s := newTestSegment(t, 2)

	id := types.UUIDID(uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"))

	res, err := s.UpsertPoint(1, id, []float32{1, 0})
	require.NoError(t, err)
	require.Equal(t, OpInserted, res)
	require.True(t, s.HasPoint(id))
}

func TestSegment_IdempotentReplay(t *testing.T) {
	s := newTestSegment(t, 2)

	res, err := s.UpsertPoint(5, types.NumID(1), []float32{1, 0})
	require.NoError(t, err)
	require.Equal(t, OpInserted, res)

	// Same op_num again: skipped, state identical.
	res, err = s.UpsertPoint(5, types.NumID(1), []float32{9, 9})
	require.NoError(t, err)
	require.Equal(t, OpSkipped, res)
	require.False(t, res.Applied())

	v, err := s.Vector(types.NumID(1))
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, v)
	assert.Equal(t, types.SeqNumber(5), s.Version())
	assert.Equal(t, 1, s.PointCount())
}

func TestSegment_MonotonicVersion(t *testing.T) {
	s := newTestSegment(t, 2)

	for opNum := types.SeqNumber(1); opNum <= 10; opNum++ {
		_, err := s.UpsertPoint(opNum, types.NumID(uint64(opNum)), []float32{float32(opNum), 0})
		require.NoError(t, err)
	}

	assert.Equal(t, types.SeqNumber(10), s.Version())
}

func TestSegment_OutOfOrderRejection(t *testing.T) {
	s := newTestSegment(t, 2)

	_, err := s.UpsertPoint(5, types.NumID(1), []float32{1, 0})
	require.NoError(t, err)

	res, err := s.UpsertPoint(3, types.NumID(2), []float32{0, 1})
	require.NoError(t, err)
	require.Equal(t, OpSkipped, res)

	assert.False(t, s.HasPoint(types.NumID(2)))
	assert.Equal(t, types.SeqNumber(5), s.Version())
}

func TestSegment_UpdatePreservesPayload(t *testing.T) {
	s := newTestSegment(t, 2)
	p := types.NumID(42)

	_, err := s.UpsertPoint(1, p, []float32{1, 0})
	require.NoError(t, err)

	res, err := s.SetPayloadField(2, p, "a", types.Integer(1))
	require.NoError(t, err)
	require.Equal(t, OpApplied, res)

	res, err = s.UpsertPoint(3, p, []float32{0, 1})
	require.NoError(t, err)
	require.Equal(t, OpReplaced, res)

	payload, err := s.Payload(p)
	require.NoError(t, err)
	assert.Equal(t, types.Payload{"a": types.Integer(1)}, payload)

	v, err := s.Vector(p)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, v)

	// The old slot is tombstoned, not reused.
	assert.Equal(t, 1, s.PointCount())
	assert.Equal(t, 1, s.DeletedCount())
}

func TestSegment_DeletePoint(t *testing.T) {
	s := newTestSegment(t, 2)
	p := types.NumID(1)

	_, err := s.UpsertPoint(1, p, []float32{1, 0})
	require.NoError(t, err)

	res, err := s.DeletePoint(2, p)
	require.NoError(t, err)
	require.Equal(t, OpDeleted, res)

	assert.False(t, s.HasPoint(p))

	_, err = s.Vector(p)
	var notFound *ErrPointNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, p, notFound.PointID)

	// Deleting an unknown point is a no-op, not an error.
	res, err = s.DeletePoint(3, types.NumID(999))
	require.NoError(t, err)
	assert.Equal(t, OpNoop, res)
	assert.Equal(t, types.SeqNumber(3), s.Version())
}

func TestSegment_DimensionEnforcement(t *testing.T) {
	s := newTestSegment(t, 4)

	_, err := s.UpsertPoint(1, types.NumID(1), []float32{1, 2, 3})
	var dm *ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 4, dm.Expected)
	assert.Equal(t, 3, dm.Received)

	// Failed operations never advance the version, so a corrected replay
	// of the same op_num is accepted.
	assert.Equal(t, types.SeqNumber(0), s.Version())
	assert.Equal(t, 0, s.PointCount())

	res, err := s.UpsertPoint(1, types.NumID(1), []float32{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, OpInserted, res)
}

func TestSegment_SearchRoundTrip(t *testing.T) {
	s := newTestSegment(t, 2)

	a, b, c := types.NumID(1), types.NumID(2), types.NumID(3)
	_, err := s.UpsertPoint(1, a, []float32{1, 0})
	require.NoError(t, err)
	_, err = s.UpsertPoint(2, b, []float32{0.9, 0.1})
	require.NoError(t, err)
	_, err = s.UpsertPoint(3, c, []float32{0, 1})
	require.NoError(t, err)

	result, err := s.Search([]float32{1, 0}, nil, 2, nil)
	require.NoError(t, err)
	require.Len(t, result, 2)

	assert.Equal(t, a, result[0].ID)
	assert.Equal(t, b, result[1].ID)
	assert.GreaterOrEqual(t, result[0].Score, result[1].Score)

	// Query shape is validated before delegation.
	_, err = s.Search([]float32{1, 0, 0}, nil, 2, nil)
	var dm *ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
}

func TestSegment_SearchWithFilter(t *testing.T) {
	s := newTestSegment(t, 2)

	_, err := s.UpsertPoint(1, types.NumID(1), []float32{1, 0})
	require.NoError(t, err)
	_, err = s.UpsertPoint(2, types.NumID(2), []float32{0.9, 0.1})
	require.NoError(t, err)
	_, err = s.SetPayloadField(3, types.NumID(2), "color", types.Keyword("red"))
	require.NoError(t, err)

	filter := &types.Filter{
		Must: []types.Condition{{Key: "color", Match: types.Keyword("red")}},
	}

	result, err := s.Search([]float32{1, 0}, filter, 10, nil)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, types.NumID(2), result[0].ID)
}

func TestSegment_PayloadOperations(t *testing.T) {
	s := newTestSegment(t, 2)
	p := types.NumID(1)

	_, err := s.UpsertPoint(1, p, []float32{1, 0})
	require.NoError(t, err)

	_, err = s.SetPayloadField(2, p, "k", types.Keyword("v"))
	require.NoError(t, err)
	_, err = s.SetPayloadField(3, p, "k2", types.Keyword("v2"))
	require.NoError(t, err)

	payload, err := s.Payload(p)
	require.NoError(t, err)
	assert.Equal(t, types.Payload{"k": types.Keyword("v"), "k2": types.Keyword("v2")}, payload)

	_, err = s.DeletePayloadField(4, p, "k")
	require.NoError(t, err)

	payload, err = s.Payload(p)
	require.NoError(t, err)
	assert.Equal(t, types.Payload{"k2": types.Keyword("v2")}, payload)

	// Deleting an absent key is accepted.
	res, err := s.DeletePayloadField(5, p, "missing")
	require.NoError(t, err)
	assert.Equal(t, OpApplied, res)

	res, err = s.SetFullPayload(6, p, types.Payload{"x": types.Integer(9)})
	require.NoError(t, err)
	assert.Equal(t, OpApplied, res)

	payload, err = s.Payload(p)
	require.NoError(t, err)
	assert.Equal(t, types.Payload{"x": types.Integer(9)}, payload)

	res, err = s.ClearPayload(7, p)
	require.NoError(t, err)
	assert.Equal(t, OpApplied, res)

	payload, err = s.Payload(p)
	require.NoError(t, err)
	assert.NotNil(t, payload)
	assert.Empty(t, payload)
}

func TestSegment_PayloadOpsRequireExistingPoint(t *testing.T) {
	s := newTestSegment(t, 2)

	var notFound *ErrPointNotFound

	_, err := s.SetFullPayload(1, types.NumID(1), types.Payload{"k": types.Keyword("v")})
	require.ErrorAs(t, err, &notFound)

	_, err = s.SetPayloadField(1, types.NumID(1), "k", types.Keyword("v"))
	require.ErrorAs(t, err, &notFound)

	_, err = s.DeletePayloadField(1, types.NumID(1), "k")
	require.ErrorAs(t, err, &notFound)

	_, err = s.ClearPayload(1, types.NumID(1))
	require.ErrorAs(t, err, &notFound)

	// The failed lookups did not advance the version.
	assert.Equal(t, types.SeqNumber(0), s.Version())
}

func TestSegment_Options(t *testing.T) {
	s := newTestSegment(t, 2, WithAppendable(false), WithVersion(100))

	assert.False(t, s.IsAppendable())
	assert.Equal(t, types.SeqNumber(100), s.Version())

	// The restored high-water mark gates replayed operations.
	res, err := s.UpsertPoint(99, types.NumID(1), []float32{1, 0})
	require.NoError(t, err)
	assert.Equal(t, OpSkipped, res)
}

func TestSegment_Info(t *testing.T) {
	s := newTestSegment(t, 2)

	_, err := s.UpsertPoint(1, types.NumID(1), []float32{1, 0})
	require.NoError(t, err)
	_, err = s.UpsertPoint(2, types.NumID(1), []float32{0, 1})
	require.NoError(t, err)

	info := s.Info()
	assert.Equal(t, 1, info.VectorCount)
	assert.Equal(t, 1, info.DeletedCount)
	assert.Zero(t, info.RAMBytes)
	assert.Zero(t, info.DiskBytes)
}

// brokenTracker resolves ids but loses the reverse mapping, simulating a
// corrupted identifier index.
type brokenTracker struct {
	*idtracker.MapTracker
}

func (b *brokenTracker) ExternalID(types.PointOffset) (types.PointID, bool) {
	return types.PointID{}, false
}

func TestSegment_SearchCorruptionPanics(t *testing.T) {
	ids := &brokenTracker{MapTracker: idtracker.NewMapTracker()}
	vectors := vectorstore.NewMemoryStore(2)
	payloads := payloadstore.NewMemoryStore()
	planner, err := queryplanner.NewScanPlanner(vectors, payloads, distance.MetricDot)
	require.NoError(t, err)

	s, err := New(ids, vectors, payloads, planner)
	require.NoError(t, err)

	_, err = s.UpsertPoint(1, types.NumID(1), []float32{1, 0})
	require.NoError(t, err)

	require.Panics(t, func() {
		_, _ = s.Search([]float32{1, 0}, nil, 1, nil)
	})
}

func TestOpResult_String(t *testing.T) {
	assert.Equal(t, "skipped", OpSkipped.String())
	assert.Equal(t, "inserted", OpInserted.String())
	assert.Equal(t, "replaced", OpReplaced.String())
	assert.Equal(t, "deleted", OpDeleted.String())
	assert.Equal(t, "noop", OpNoop.String())
	assert.Equal(t, "applied", OpApplied.String())
}
