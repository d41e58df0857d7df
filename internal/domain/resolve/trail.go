package resolve

import "strings"

// Trail is an ordered, duplicate-free list of resolution audit entries.
// The zero value is ready to use.
type Trail struct {
	entries []string
}

// Add appends entries not already present.
func (t *Trail) Add(entries ...string) {
	for _, e := range entries {
		if e != "" && !t.Contains(e) {
			t.entries = append(t.entries, e)
		}
	}
}

// Record adds "original → resolved" unless the two are equal.
func (t *Trail) Record(original, resolved string) {
	if original == resolved {
		return
	}
	t.Add(original + " → " + resolved)
}

// Merge appends every entry of o.
func (t *Trail) Merge(o Trail) { t.Add(o.entries...) }

// Contains reports whether entry is already recorded.
func (t *Trail) Contains(entry string) bool {
	for _, e := range t.entries {
		if e == entry {
			return true
		}
	}
	return false
}

// Relevant returns the entries that mention at least one needle.
func (t Trail) Relevant(needles []string) Trail {
	var out Trail
	for _, e := range t.entries {
		for _, n := range needles {
			if n != "" && strings.Contains(e, n) {
				out.entries = append(out.entries, e)
				break
			}
		}
	}
	return out
}

// Entries returns a copy of the recorded entries.
func (t Trail) Entries() []string {
	if len(t.entries) == 0 {
		return nil
	}
	return append([]string(nil), t.entries...)
}

func (t Trail) Len() int { return len(t.entries) }
