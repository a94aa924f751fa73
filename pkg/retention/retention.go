// Package retention implements top-N pruning across every segment of a
// dictionary: a single threshold is computed from the union of all
// segments, then each segment is rewritten to drop entries below it.
package retention

import (
	"container/heap"
	"fmt"

	"github.com/google/uuid"
	"github.com/stract/termdict/pkg/segment"
)

// countHeap is a min-heap over term counts, used to find the Nth-largest
// count across a key space without sorting it.
type countHeap []uint64

func (h countHeap) Len() int            { return len(h) }
func (h countHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h countHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *countHeap) Push(x interface{}) { *h = append(*h, x.(uint64)) }
func (h *countHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// Threshold returns the topN-th largest count among all (term, count)
// entries of segments. The heap is fed by every segment's stream in
// turn, matching the reference implementation's single BinaryHeap
// shared across all of a dictionary's stored segments. Counts are taken
// per segment, not summed across segments, so the result approximates
// a top-N by aggregate frequency: a term stored in several segments
// contributes one entry per segment. ok is false if the segments hold
// fewer than topN entries in total, meaning nothing should be pruned.
func Threshold(segments []*segment.Segment, topN int) (uint64, bool, error) {
	if topN <= 0 {
		return 0, false, fmt.Errorf("retention.Threshold: topN must be positive, got %d", topN)
	}

	h := &countHeap{}
	heap.Init(h)

	for _, s := range segments {
		c, err := s.Stream()
		if err != nil {
			return 0, false, fmt.Errorf("retention.Threshold: %w", err)
		}
		for !c.Done() {
			_, v := c.Current()
			if h.Len() < topN {
				heap.Push(h, v)
			} else if v > (*h)[0] {
				(*h)[0] = v
				heap.Fix(h, 0)
			}
			if err := c.Advance(); err != nil {
				return 0, false, fmt.Errorf("retention.Threshold: %w", err)
			}
		}
	}

	if h.Len() < topN {
		return 0, false, nil
	}
	return (*h)[0], true, nil
}

// filterSource wraps a segment cursor, yielding only entries whose count
// is at or above threshold.
type filterSource struct {
	cursor    *segment.Cursor
	threshold uint64
}

func (f *filterSource) Next() ([]byte, uint64, bool, error) {
	for !f.cursor.Done() {
		k, v := f.cursor.Current()
		if v < f.threshold {
			if err := f.cursor.Advance(); err != nil {
				return nil, 0, false, err
			}
			continue
		}
		key := append([]byte(nil), k...)
		if err := f.cursor.Advance(); err != nil {
			return nil, 0, false, err
		}
		return key, v, true, nil
	}
	return nil, 0, false, nil
}

// Rewrite writes a new segment file at path containing only the entries
// of s whose count is at or above threshold, preserving key order.
func Rewrite(s *segment.Segment, threshold uint64, path string, id uuid.UUID) (*segment.Segment, error) {
	c, err := s.Stream()
	if err != nil {
		return nil, fmt.Errorf("retention.Rewrite: %w", err)
	}
	src := &filterSource{cursor: c, threshold: threshold}

	out, err := segment.BuildFromSource(path, id, src)
	if err != nil {
		return nil, fmt.Errorf("retention.Rewrite: %w", err)
	}
	return out, nil
}
