// Package termdict is the top-level persistent term-frequency
// dictionary used by the spell-correction and query-analysis
// subsystems: a directory of immutable, memory-mapped segment files
// plus a small JSON catalog describing which of them are current.
//
// A Dictionary is single-writer, multi-reader: Insert, Commit, Merge,
// Prune, and MergeIn are not safe to call concurrently with each other
// or with themselves, but Freq, Terms, and Search may run concurrently
// with one another. Callers that mutate from more than one goroutine
// must serialize those calls themselves.
package termdict

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	hackpados "github.com/hack-pad/hackpadfs/os"

	"github.com/stract/termdict/pkg/accumulator"
	"github.com/stract/termdict/pkg/catalog"
	"github.com/stract/termdict/pkg/merger"
	"github.com/stract/termdict/pkg/retention"
	"github.com/stract/termdict/pkg/segment"
)

// Dictionary is a directory holding one or more segment generations
// plus the catalog describing which are live.
type Dictionary struct {
	dir      string
	cat      *catalog.Catalog
	acc      *accumulator.Accumulator
	segments []*segment.Segment
}

// hackpadDirPath converts an OS directory path (made absolute first,
// relative to the working directory) into the relative form
// hack-pad/hackpadfs/os's FS expects: its root FS is rooted at "/", so a
// path is addressed relative to that root with the leading separator
// trimmed.
func hackpadDirPath(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	clean := filepath.ToSlash(filepath.Clean(dir))
	return strings.TrimPrefix(clean, "/")
}

// Open opens (creating if necessary) the dictionary rooted at dir.
func Open(dir string) (*Dictionary, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &IoError{Op: "Open: mkdir " + dir, Err: err}
	}

	fs, err := hackpados.NewFS()
	if err != nil {
		return nil, &IoError{Op: "Open: init filesystem", Err: err}
	}

	cat, err := catalog.Open(fs, hackpadDirPath(dir))
	if err != nil {
		return nil, &SerializationError{Op: "Open: load catalog", Err: err}
	}

	d := &Dictionary{
		dir: dir,
		cat: cat,
		acc: accumulator.New(),
	}

	for _, id := range cat.Segments {
		s, err := segment.Open(d.segmentPath(id), id)
		if err != nil {
			d.closeSegments()
			return nil, &FormatError{Op: "Open: open segment " + id.String(), Err: err}
		}
		d.segments = append(d.segments, s)
	}

	return d, nil
}

func (d *Dictionary) segmentPath(id uuid.UUID) string {
	return filepath.Join(d.dir, segment.FileName(id))
}

func (d *Dictionary) closeSegments() {
	for _, s := range d.segments {
		s.Close()
	}
	d.segments = nil
}

// Insert records one occurrence of term in the in-memory accumulator.
// Terms that are empty, single-rune, longer than 100 runes, contain a
// space character, or are dominated by punctuation or non-letter runes are
// silently dropped rather than counted.
func (d *Dictionary) Insert(term string) {
	if !admit(term) {
		return
	}
	d.acc.Insert(term)
}

// Commit flushes the current accumulator to a new segment file, adds it
// to the catalog, persists the catalog, and runs garbage collection for
// any orphaned segment files left behind by a prior crash. An empty
// accumulator commits no segment and leaves the catalog untouched.
func (d *Dictionary) Commit() error {
	if d.acc.Len() == 0 {
		return nil
	}

	entries := d.acc.DrainSorted()
	id := uuid.New()
	s, err := segment.Build(d.segmentPath(id), id, entries)
	if err != nil {
		return &FormatError{Op: "Commit: build segment", Err: err}
	}

	d.cat.Add(id)
	if err := d.cat.Save(); err != nil {
		d.cat.Replace(removeID(d.cat.Segments, id))
		s.Close()
		os.Remove(d.segmentPath(id))
		return &SerializationError{Op: "Commit: save catalog", Err: err}
	}

	d.segments = append(d.segments, s)
	return d.gc()
}

func removeID(ids []uuid.UUID, target uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

func (d *Dictionary) gc() error {
	if err := d.cat.GC(); err != nil {
		return &IoError{Op: "gc", Err: err}
	}
	return nil
}

// GC removes any segment file on disk that the catalog no longer
// references. Commit, Merge, and Prune already call this after every
// successful mutation; it is exposed so orphaned files left behind by a
// crash between writing a segment and persisting the catalog can be
// cleaned up without also performing a mutation.
func (d *Dictionary) GC() error {
	return d.gc()
}

// Merge combines every current segment into a single one, summing
// counts for coinciding keys, and persists the result. If the catalog
// fails to save, the Dictionary's in-memory state is rolled back to its
// pre-merge segment set and the merged segment file is removed, leaving
// the Dictionary exactly as it was before Merge was called.
func (d *Dictionary) Merge() error {
	if len(d.segments) <= 1 {
		return nil
	}

	oldIDs := append([]uuid.UUID(nil), d.cat.Segments...)
	oldSegments := d.segments

	id := uuid.New()
	merged, err := merger.Merge(oldSegments, d.segmentPath(id), id)
	if err != nil {
		return &FormatError{Op: "Merge: merge segments", Err: err}
	}

	d.cat.Replace([]uuid.UUID{id})
	if err := d.cat.Save(); err != nil {
		d.cat.Replace(oldIDs)
		merged.Close()
		os.Remove(d.segmentPath(id))
		return &SerializationError{Op: "Merge: save catalog", Err: err}
	}

	for _, s := range oldSegments {
		path := s.Path()
		s.Close()
		os.Remove(path)
	}
	d.segments = []*segment.Segment{merged}

	return d.gc()
}

// Prune computes a single topN threshold from the per-segment counts of
// every segment (see retention.Threshold), then rewrites every segment
// to drop entries below it. Entries whose count equals the threshold
// are all kept, so ties can leave more than topN entries. If the
// segments hold fewer than topN entries in total, Prune is a no-op.
func (d *Dictionary) Prune(topN int) error {
	threshold, ok, err := retention.Threshold(d.segments, topN)
	if err != nil {
		return &FormatError{Op: "Prune: compute threshold", Err: err}
	}
	if !ok {
		return nil
	}

	oldIDs := append([]uuid.UUID(nil), d.cat.Segments...)

	newSegments := make([]*segment.Segment, 0, len(d.segments))
	newIDs := make([]uuid.UUID, 0, len(d.segments))
	var toClose []*segment.Segment
	var toRemove []string

	for _, s := range d.segments {
		id := uuid.New()
		out, err := retention.Rewrite(s, threshold, d.segmentPath(id), id)
		if err != nil {
			for _, created := range toRemove {
				os.Remove(created)
			}
			for _, c := range toClose {
				c.Close()
			}
			return &FormatError{Op: "Prune: rewrite segment", Err: err}
		}
		toClose = append(toClose, out)
		toRemove = append(toRemove, out.Path())
		newSegments = append(newSegments, out)
		newIDs = append(newIDs, id)
	}

	d.cat.Replace(newIDs)
	if err := d.cat.Save(); err != nil {
		d.cat.Replace(oldIDs)
		for _, c := range toClose {
			c.Close()
		}
		for _, p := range toRemove {
			os.Remove(p)
		}
		return &SerializationError{Op: "Prune: save catalog", Err: err}
	}

	for _, s := range d.segments {
		path := s.Path()
		s.Close()
		os.Remove(path)
	}
	d.segments = newSegments

	return d.gc()
}

// MergeIn absorbs every segment of other into this dictionary as new
// segments, without coalescing keys across the two dictionaries' files.
// other's segments are removed from its own directory once moved; other
// should not be used again afterward.
func (d *Dictionary) MergeIn(other *Dictionary) error {
	oldIDs := append([]uuid.UUID(nil), d.cat.Segments...)

	var moved []*segment.Segment
	for _, s := range other.segments {
		newID := uuid.New()
		oldPath := s.Path()
		if err := s.Close(); err != nil {
			return &IoError{Op: "MergeIn: close source segment", Err: err}
		}
		newPath := d.segmentPath(newID)
		if err := os.Rename(oldPath, newPath); err != nil {
			return &IoError{Op: "MergeIn: move segment file", Err: err}
		}
		reopened, err := segment.Open(newPath, newID)
		if err != nil {
			return &FormatError{Op: "MergeIn: reopen moved segment", Err: err}
		}
		moved = append(moved, reopened)
		d.cat.Add(newID)
	}
	other.segments = nil

	if err := d.cat.Save(); err != nil {
		d.cat.Replace(oldIDs)
		return &SerializationError{Op: "MergeIn: save catalog", Err: err}
	}

	d.segments = append(d.segments, moved...)
	return d.gc()
}

// Freq returns the aggregate count for term across every segment, and
// false if term does not appear in any of them.
func (d *Dictionary) Freq(term string) (uint64, bool, error) {
	var total uint64
	found := false
	for _, s := range d.segments {
		v, ok, err := s.Get([]byte(term))
		if err != nil {
			return 0, false, &FormatError{Op: "Freq: read segment", Err: err}
		}
		if ok {
			total += v
			found = true
		}
	}
	return total, found, nil
}

// Terms returns the terms of every segment, concatenated in no
// particular order; a term stored in several segments appears once per
// segment. Callers that need aggregate counts should use Freq.
func (d *Dictionary) Terms() ([]string, error) {
	var out []string
	for _, s := range d.segments {
		c, err := s.Stream()
		if err != nil {
			return nil, &IoError{Op: "Terms: stream segment", Err: err}
		}
		for !c.Done() {
			k, _ := c.Current()
			out = append(out, string(k))
			if err := c.Advance(); err != nil {
				return nil, &IoError{Op: "Terms: advance cursor", Err: err}
			}
		}
	}
	return out, nil
}

// Search returns every term across all segments within maxEditDistance
// (0, 1, or 2) edits of term, deduplicated, with no particular order
// guarantee.
func (d *Dictionary) Search(term string, maxEditDistance int) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range d.segments {
		results, err := s.Search(term, maxEditDistance)
		if err != nil {
			return nil, &FormatError{Op: "Search: query segment", Err: err}
		}
		for _, r := range results {
			key := string(r.Term)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, key)
		}
	}
	return out, nil
}

// Close releases the memory-mapped segment files backing this
// dictionary. The Dictionary must not be used afterward.
func (d *Dictionary) Close() error {
	var firstErr error
	for _, s := range d.segments {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	d.segments = nil
	if firstErr != nil {
		return fmt.Errorf("termdict: close: %w", firstErr)
	}
	return nil
}
