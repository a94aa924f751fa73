package segment

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func buildTemp(t *testing.T, entries []Entry) *Segment {
	t.Helper()
	id := uuid.New()
	path := filepath.Join(t.TempDir(), FileName(id))
	seg, err := Build(path, id, entries)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { seg.Close() })
	return seg
}

func TestBuildAndGet(t *testing.T) {
	entries := []Entry{
		{Term: []byte("bar"), Count: 2},
		{Term: []byte("baz"), Count: 1},
		{Term: []byte("foo"), Count: 5},
	}
	seg := buildTemp(t, entries)

	if got := seg.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}

	for _, e := range entries {
		v, ok, err := seg.Get(e.Term)
		if err != nil {
			t.Fatalf("Get(%q): %v", e.Term, err)
		}
		if !ok || v != e.Count {
			t.Fatalf("Get(%q) = (%d, %v), want (%d, true)", e.Term, v, ok, e.Count)
		}
	}

	if _, ok, err := seg.Get([]byte("missing")); err != nil || ok {
		t.Fatalf("Get(missing) = (_, %v, %v), want (_, false, nil)", ok, err)
	}
}

func TestBuildRejectsUnsortedInput(t *testing.T) {
	id := uuid.New()
	path := filepath.Join(t.TempDir(), FileName(id))
	_, err := Build(path, id, []Entry{
		{Term: []byte("foo"), Count: 1},
		{Term: []byte("bar"), Count: 1},
	})
	if err == nil {
		t.Fatal("expected error for out-of-order keys")
	}
	if _, statErr := filepath.Glob(path); statErr != nil {
		t.Fatalf("unexpected glob error: %v", statErr)
	}
}

func TestBuildRejectsDuplicateKeys(t *testing.T) {
	id := uuid.New()
	path := filepath.Join(t.TempDir(), FileName(id))
	_, err := Build(path, id, []Entry{
		{Term: []byte("foo"), Count: 1},
		{Term: []byte("foo"), Count: 1},
	})
	if err == nil {
		t.Fatal("expected error for duplicate keys")
	}
}

func TestStream(t *testing.T) {
	entries := []Entry{
		{Term: []byte("bar"), Count: 2},
		{Term: []byte("baz"), Count: 1},
		{Term: []byte("foo"), Count: 5},
	}
	seg := buildTemp(t, entries)

	c, err := seg.Stream()
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var got []Entry
	for !c.Done() {
		k, v := c.Current()
		got = append(got, Entry{Term: append([]byte(nil), k...), Count: v})
		if err := c.Advance(); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}

	if len(got) != len(entries) {
		t.Fatalf("streamed %d entries, want %d", len(got), len(entries))
	}
	for i, e := range entries {
		if string(got[i].Term) != string(e.Term) || got[i].Count != e.Count {
			t.Fatalf("entry %d = %+v, want %+v", i, got[i], e)
		}
	}
}

func TestStreamEmptySegment(t *testing.T) {
	seg := buildTemp(t, nil)

	c, err := seg.Stream()
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if !c.Done() {
		t.Fatal("expected empty segment stream to be immediately done")
	}
}

func TestSearchBoundedEditDistance(t *testing.T) {
	entries := []Entry{
		{Term: []byte("day"), Count: 1},
		{Term: []byte("knight"), Count: 5},
		{Term: []byte("knights"), Count: 2},
		{Term: []byte("night"), Count: 3},
	}
	seg := buildTemp(t, entries)

	results, err := seg.Search("night", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	found := map[string]uint64{}
	for _, r := range results {
		found[string(r.Term)] = r.Count
	}

	if _, ok := found["night"]; !ok {
		t.Error("expected exact match 'night' in results")
	}
	if _, ok := found["knight"]; !ok {
		t.Error("expected 'knight' (distance 1) in results")
	}
	if _, ok := found["knights"]; ok {
		t.Error("did not expect 'knights' (distance 2) within bound 1")
	}
	if _, ok := found["day"]; ok {
		t.Error("did not expect 'day' in results")
	}
}

func TestSearchRejectsOutOfRangeDistance(t *testing.T) {
	seg := buildTemp(t, []Entry{{Term: []byte("hello"), Count: 1}})
	if _, err := seg.Search("hello", 3); err == nil {
		t.Fatal("expected error for maxEdits > 2")
	}
	if _, err := seg.Search("hello", -1); err == nil {
		t.Fatal("expected error for negative maxEdits")
	}
}
