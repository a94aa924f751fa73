// Package segment implements the immutable, ordered, memory-mapped
// term->count map file that backs one generation of a term-frequency
// dictionary. It wraps github.com/blevesearch/vellum, the same
// finite-state-transducer library used by bleve's scorch segments.
package segment

import (
	"bytes"
	"fmt"
	"os"

	"github.com/blevesearch/vellum"
	"github.com/blevesearch/vellum/levenshtein"
	"github.com/google/uuid"
)

// Entry is a single (term, count) pair in ascending key order.
type Entry struct {
	Term  []byte
	Count uint64
}

// Segment is an immutable ordered mapping term->count, backed by a
// memory-mapped FST file. It is written once by Build or Merge and never
// mutated afterward.
type Segment struct {
	ID   uuid.UUID
	path string
	fst  *vellum.FST
}

// FileName returns the on-disk file name a segment with the given id is
// stored under.
func FileName(id uuid.UUID) string {
	return id.String() + ".dict"
}

// Source yields sorted (term, count) pairs one at a time. Next returns
// ok=false once exhausted. Implementations must yield strictly ascending
// keys; Build/BuildFromSource treat a non-ascending key as a programming
// error and fail the build.
type Source interface {
	Next() (term []byte, count uint64, ok bool, err error)
}

type sliceSource struct {
	entries []Entry
	i       int
}

func (s *sliceSource) Next() ([]byte, uint64, bool, error) {
	if s.i >= len(s.entries) {
		return nil, 0, false, nil
	}
	e := s.entries[s.i]
	s.i++
	return e.Term, e.Count, true, nil
}

// Build writes a new segment file from entries, which must already be in
// strictly ascending key order; duplicate or out-of-order keys are a
// programming error and cause Build to fail.
func Build(path string, id uuid.UUID, entries []Entry) (*Segment, error) {
	return BuildFromSource(path, id, &sliceSource{entries: entries})
}

// BuildFromSource drains src into a new segment file at path, streaming
// rather than materializing the full key set. This is what the k-way
// merger and the retention rewriter use so neither has to hold an entire
// generation in memory at once.
func BuildFromSource(path string, id uuid.UUID, src Source) (*Segment, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("segment.BuildFromSource: create %s: %w", path, err)
	}

	builder, err := vellum.New(f, nil)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("segment.BuildFromSource: new builder: %w", err)
	}

	var prev []byte
	for {
		term, count, ok, err := src.Next()
		if err != nil {
			f.Close()
			os.Remove(path)
			return nil, fmt.Errorf("segment.BuildFromSource: read source: %w", err)
		}
		if !ok {
			break
		}
		if prev != nil && bytes.Compare(prev, term) >= 0 {
			f.Close()
			os.Remove(path)
			return nil, fmt.Errorf("segment.BuildFromSource: keys out of order: %q then %q", prev, term)
		}
		if err := builder.Insert(term, count); err != nil {
			f.Close()
			os.Remove(path)
			return nil, fmt.Errorf("segment.BuildFromSource: insert %q: %w", term, err)
		}
		prev = append(prev[:0:0], term...)
	}

	if err := builder.Close(); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("segment.BuildFromSource: close builder: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("segment.BuildFromSource: close file: %w", err)
	}

	return Open(path, id)
}

// Open memory-maps an existing segment file and validates its format.
func Open(path string, id uuid.UUID) (*Segment, error) {
	fst, err := vellum.Open(path)
	if err != nil {
		return nil, fmt.Errorf("segment.Open: %s: %w", path, err)
	}
	return &Segment{ID: id, path: path, fst: fst}, nil
}

// Path returns the file this segment is backed by.
func (s *Segment) Path() string { return s.path }

// Len returns the number of keys in the segment.
func (s *Segment) Len() uint64 { return s.fst.Len() }

// Get performs a point lookup, O(|key|) on the compressed FST.
func (s *Segment) Get(term []byte) (uint64, bool, error) {
	v, exists, err := s.fst.Get(term)
	if err != nil {
		return 0, false, fmt.Errorf("segment.Get: %w", err)
	}
	return v, exists, nil
}

// Cursor is a lazy, forward-only, restartable stream of (term, count)
// pairs in ascending key order.
type Cursor struct {
	itr  *vellum.FSTIterator
	done bool
	key  []byte
	val  uint64
}

// Stream opens a fresh forward cursor over the whole segment.
func (s *Segment) Stream() (*Cursor, error) {
	itr, err := s.fst.Iterator(nil, nil)
	if err == vellum.ErrIteratorDone {
		return &Cursor{done: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("segment.Stream: %w", err)
	}
	c := &Cursor{itr: itr}
	c.load()
	return c, nil
}

func (c *Cursor) load() {
	k, v := c.itr.Current()
	c.key = append(c.key[:0], k...)
	c.val = v
}

// Done reports whether the cursor has been exhausted.
func (c *Cursor) Done() bool { return c.done }

// Current returns the cursor's current (term, count) pair. It is only
// valid to call when Done() is false.
func (c *Cursor) Current() ([]byte, uint64) { return c.key, c.val }

// Advance moves the cursor forward one entry.
func (c *Cursor) Advance() error {
	if c.done {
		return nil
	}
	err := c.itr.Next()
	if err == vellum.ErrIteratorDone {
		c.done = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("segment.Cursor.Advance: %w", err)
	}
	c.load()
	return nil
}

// Search returns the entries whose keys are accepted by a Levenshtein
// automaton of the given bounded edit distance from term. maxEdits must
// be 0, 1, or 2, matching the bound vellum's automaton is practical for.
func (s *Segment) Search(term string, maxEdits int) ([]Entry, error) {
	if maxEdits < 0 || maxEdits > 2 {
		return nil, fmt.Errorf("segment.Search: maxEdits must be 0, 1, or 2, got %d", maxEdits)
	}

	aut, err := levenshtein.New(term, uint8(maxEdits))
	if err != nil {
		return nil, fmt.Errorf("segment.Search: build automaton: %w", err)
	}

	itr, err := s.fst.Search(aut, nil, nil)
	if err != nil && err != vellum.ErrIteratorDone {
		return nil, fmt.Errorf("segment.Search: %w", err)
	}

	var out []Entry
	for err == nil {
		k, v := itr.Current()
		key := append([]byte(nil), k...)
		out = append(out, Entry{Term: key, Count: v})
		err = itr.Next()
	}
	if err != nil && err != vellum.ErrIteratorDone {
		return nil, fmt.Errorf("segment.Search: iterate: %w", err)
	}
	return out, nil
}

// Close releases the memory-mapped region backing this segment.
func (s *Segment) Close() error {
	if err := s.fst.Close(); err != nil {
		return fmt.Errorf("segment.Close: %w", err)
	}
	return nil
}
