package queryplanner

import (
	"github.com/vgees/qdrant/types"
)

// topKQueue is a bounded, value-based binary heap keeping the k best
// scored offsets seen so far. The root is the worst kept candidate, so a
// full queue can reject or replace in O(1)/O(log k).
//
// "Better" means a higher score; on equal scores the lower offset wins,
// which keeps result ordering deterministic.
type topKQueue struct {
	capacity int
	items    []types.ScoredOffset
}

func newTopKQueue(capacity int) *topKQueue {
	return &topKQueue{
		capacity: capacity,
		items:    make([]types.ScoredOffset, 0, capacity),
	}
}

func better(a, b types.ScoredOffset) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Offset < b.Offset
}

// push offers a candidate, keeping at most capacity items.
func (q *topKQueue) push(item types.ScoredOffset) {
	if len(q.items) < q.capacity {
		q.items = append(q.items, item)
		q.siftUp(len(q.items) - 1)
		return
	}

	// Full: replace the root only if the candidate beats the worst kept.
	if better(item, q.items[0]) {
		q.items[0] = item
		q.siftDown(0)
	}
}

// drain empties the queue and returns its contents ordered best-first.
func (q *topKQueue) drain() []types.ScoredOffset {
	out := make([]types.ScoredOffset, len(q.items))
	for i := len(q.items) - 1; i >= 0; i-- {
		out[i] = q.popWorst()
	}
	return out
}

func (q *topKQueue) popWorst() types.ScoredOffset {
	n := len(q.items)
	item := q.items[0]
	q.items[0] = q.items[n-1]
	q.items = q.items[:n-1]
	if len(q.items) > 0 {
		q.siftDown(0)
	}
	return item
}

// less orders the heap worst-first.
func (q *topKQueue) less(i, j int) bool {
	return better(q.items[j], q.items[i])
}

func (q *topKQueue) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !q.less(i, parent) {
			break
		}
		q.items[i], q.items[parent] = q.items[parent], q.items[i]
		i = parent
	}
}

func (q *topKQueue) siftDown(i int) {
	n := len(q.items)
	for {
		left := 2*i + 1
		if left >= n {
			return
		}
		smallest := left
		if right := left + 1; right < n && q.less(right, left) {
			smallest = right
		}
		if !q.less(smallest, i) {
			return
		}
		q.items[i], q.items[smallest] = q.items[smallest], q.items[i]
		i = smallest
	}
}
