// Package merger implements the k-way streaming merge that combines
// several ordered segments into one, summing counts for keys that
// appear in more than one input.
package merger

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	"github.com/stract/termdict/pkg/segment"
)

// lane wraps one input segment's cursor, tracking whether it has been
// exhausted.
type lane struct {
	cursor *segment.Cursor
}

func (l *lane) done() bool { return l.cursor.Done() }

// mergeSource implements segment.Source over a fixed set of lanes,
// always emitting the lexicographically smallest current key across all
// lanes, summing counts when several lanes agree on a key.
type mergeSource struct {
	lanes  []*lane
	keybuf []byte
}

func newMergeSource(segments []*segment.Segment) (*mergeSource, error) {
	lanes := make([]*lane, 0, len(segments))
	for _, s := range segments {
		c, err := s.Stream()
		if err != nil {
			return nil, fmt.Errorf("merger: stream segment %s: %w", s.ID, err)
		}
		lanes = append(lanes, &lane{cursor: c})
	}
	return &mergeSource{lanes: lanes}, nil
}

func (m *mergeSource) Next() ([]byte, uint64, bool, error) {
	found := false
	for _, l := range m.lanes {
		if l.done() {
			continue
		}
		k, _ := l.cursor.Current()
		if !found || bytes.Compare(k, m.keybuf) < 0 {
			// Copy into our own buffer immediately: k aliases the lane
			// cursor's internal buffer, which Advance rewrites in place.
			m.keybuf = append(m.keybuf[:0], k...)
			found = true
		}
	}
	if !found {
		return nil, 0, false, nil
	}

	var sum uint64
	for _, l := range m.lanes {
		if l.done() {
			continue
		}
		k, v := l.cursor.Current()
		if bytes.Equal(k, m.keybuf) {
			sum += v
			if err := l.cursor.Advance(); err != nil {
				return nil, 0, false, fmt.Errorf("merger: advance lane: %w", err)
			}
		}
	}

	key := append([]byte(nil), m.keybuf...)
	return key, sum, true, nil
}

// Merge streams segments into a single new segment file at path, summing
// counts for keys that coincide across inputs. The caller is responsible
// for choosing id and for closing the returned segment, as well as the
// inputs, once it no longer needs them.
func Merge(segments []*segment.Segment, path string, id uuid.UUID) (*segment.Segment, error) {
	src, err := newMergeSource(segments)
	if err != nil {
		return nil, fmt.Errorf("merger.Merge: %w", err)
	}
	out, err := segment.BuildFromSource(path, id, src)
	if err != nil {
		return nil, fmt.Errorf("merger.Merge: %w", err)
	}
	return out, nil
}
