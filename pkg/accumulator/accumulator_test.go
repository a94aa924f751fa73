package accumulator

import "testing"

func TestInsertAndDrainSorted(t *testing.T) {
	a := New()
	a.Insert("foo")
	a.Insert("bar")
	a.Insert("foo")
	a.Insert("baz")
	a.Insert("bar")
	a.Insert("bar")

	if got := a.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}

	entries := a.DrainSorted()
	want := map[string]uint64{"foo": 2, "bar": 3, "baz": 1}

	if len(entries) != len(want) {
		t.Fatalf("DrainSorted() returned %d entries, want %d", len(entries), len(want))
	}

	var prev string
	for i, e := range entries {
		term := string(e.Term)
		if i > 0 && term <= prev {
			t.Fatalf("entries not strictly ascending: %q then %q", prev, term)
		}
		prev = term

		c, ok := want[term]
		if !ok {
			t.Fatalf("unexpected term %q in drained entries", term)
		}
		if e.Count != c {
			t.Fatalf("count[%q] = %d, want %d", term, e.Count, c)
		}
	}
}

func TestDrainResetsAccumulator(t *testing.T) {
	a := New()
	a.Insert("foo")
	_ = a.DrainSorted()

	if got := a.Len(); got != 0 {
		t.Fatalf("Len() after drain = %d, want 0", got)
	}
	if entries := a.DrainSorted(); len(entries) != 0 {
		t.Fatalf("second DrainSorted() returned %d entries, want 0", len(entries))
	}
}

func TestDrainEmptyAccumulator(t *testing.T) {
	a := New()
	if entries := a.DrainSorted(); entries != nil && len(entries) != 0 {
		t.Fatalf("DrainSorted() on empty accumulator = %v, want empty", entries)
	}
}
