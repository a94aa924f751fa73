// Package accumulator holds the in-memory, unsorted term->count counts
// collected between two commits. It is the write buffer a Dictionary
// inserts into; Commit drains it into a new on-disk segment.
package accumulator

import (
	"bytes"
	"sort"

	"github.com/stract/termdict/pkg/segment"
)

// Accumulator counts term occurrences in memory. It is not safe for
// concurrent use; callers serialize access the same way they serialize
// all other Dictionary mutations.
type Accumulator struct {
	counts map[string]uint64
}

// New returns an empty accumulator.
func New() *Accumulator {
	return &Accumulator{counts: make(map[string]uint64)}
}

// Insert records one occurrence of term.
func (a *Accumulator) Insert(term string) {
	a.counts[term]++
}

// Len reports the number of distinct terms currently held.
func (a *Accumulator) Len() int {
	return len(a.counts)
}

// DrainSorted empties the accumulator and returns its contents as entries
// in strictly ascending key order, ready to hand to segment.Build.
func (a *Accumulator) DrainSorted() []segment.Entry {
	entries := make([]segment.Entry, 0, len(a.counts))
	for term, count := range a.counts {
		entries = append(entries, segment.Entry{Term: []byte(term), Count: count})
	}
	a.counts = make(map[string]uint64)

	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].Term, entries[j].Term) < 0
	})
	return entries
}
