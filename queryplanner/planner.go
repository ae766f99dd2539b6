// Package queryplanner plans and executes similarity queries over a
// segment's vector and payload stores, addressed by internal offsets.
//
// The bundled ScanPlanner is a correct brute-force baseline: it scores
// every live vector, applies the payload filter, and keeps a bounded
// top-k. Approximate index-backed planners can replace it behind the same
// Planner contract.
package queryplanner

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vgees/qdrant/distance"
	"github.com/vgees/qdrant/types"
)

var (
	// ErrInvalidTop is returned when the requested result count is not
	// positive.
	ErrInvalidTop = errors.New("top must be positive")
)

// Planner executes a similarity query and returns up to top scored
// offsets ordered by decreasing relevance.
type Planner interface {
	Search(vector []float32, filter *types.Filter, top int, params *types.SearchParams) ([]types.ScoredOffset, error)
}

// VectorSource is the read surface of a vector store that a scan planner
// needs: dense offset probing over the allocated range.
type VectorSource interface {
	Dimension() int
	GetVector(offset types.PointOffset) ([]float32, bool)
	AllocatedCount() int
}

// PayloadSource is the read surface of a payload store used for filter
// evaluation.
type PayloadSource interface {
	Payload(offset types.PointOffset) types.Payload
}

// Compile-time interface check.
var _ Planner = (*ScanPlanner)(nil)

// ScanPlanner scores every live vector against the query.
type ScanPlanner struct {
	vectors  VectorSource
	payloads PayloadSource
	score    distance.Func
}

// NewScanPlanner creates a planner over the given stores using the given
// metric.
func NewScanPlanner(vectors VectorSource, payloads PayloadSource, metric distance.Metric) (*ScanPlanner, error) {
	score, err := distance.Similarity(metric)
	if err != nil {
		return nil, fmt.Errorf("queryplanner: %w", err)
	}

	return &ScanPlanner{
		vectors:  vectors,
		payloads: payloads,
		score:    score,
	}, nil
}

// Search scans all live offsets, applying filter and keeping the top
// results. params.Parallelism > 1 splits the offset range into that many
// stripes scanned concurrently.
func (p *ScanPlanner) Search(vector []float32, filter *types.Filter, top int, params *types.SearchParams) ([]types.ScoredOffset, error) {
	if top <= 0 {
		return nil, ErrInvalidTop
	}

	total := p.vectors.AllocatedCount()
	if total == 0 {
		return nil, nil
	}

	parallelism := 1
	if params != nil && params.Parallelism > 1 {
		parallelism = params.Parallelism
	}
	if parallelism > total {
		parallelism = total
	}

	if parallelism == 1 {
		q := newTopKQueue(top)
		p.scanRange(vector, filter, 0, total, q)
		return q.drain(), nil
	}

	// Striped scan: each stripe keeps its own local top-k, merged at the
	// end. Stripes only read, so they may run concurrently with each
	// other.
	queues := make([]*topKQueue, parallelism)
	stripe := (total + parallelism - 1) / parallelism

	var g errgroup.Group
	for i := 0; i < parallelism; i++ {
		lo := i * stripe
		hi := min(lo+stripe, total)
		q := newTopKQueue(top)
		queues[i] = q
		g.Go(func() error {
			p.scanRange(vector, filter, lo, hi, q)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := newTopKQueue(top)
	for _, q := range queues {
		for _, item := range q.drain() {
			merged.push(item)
		}
	}

	return merged.drain(), nil
}

func (p *ScanPlanner) scanRange(vector []float32, filter *types.Filter, lo, hi int, q *topKQueue) {
	for off := lo; off < hi; off++ {
		offset := types.PointOffset(off)

		stored, ok := p.vectors.GetVector(offset)
		if !ok {
			continue
		}
		if filter != nil && !filter.Matches(p.payloads.Payload(offset)) {
			continue
		}

		q.push(types.ScoredOffset{Offset: offset, Score: p.score(vector, stored)})
	}
}
