package datum

import (
	"github.com/kbukum/datumkit/errors"
	"github.com/kbukum/datumkit/logger"
	"github.com/kbukum/datumkit/tags"
)

// Masked is a collection whose entries may be absent. It keeps the positions
// of its source collection so that separately processed parts can be merged
// back with MergeMasked.
type Masked[T Sample] struct {
	entries []Datum[T]
	present []bool
	tags    tags.Map
}

// Len returns the number of positions, present or not.
func (m Masked[T]) Len() int { return len(m.entries) }

// Present reports whether position i holds an entry.
func (m Masked[T]) Present(i int) bool { return m.present[i] }

// At returns the entry at position i and whether it is present.
func (m Masked[T]) At(i int) (Datum[T], bool) {
	if !m.present[i] {
		return Datum[T]{}, false
	}
	return m.entries[i], true
}

// Tags returns the collection level tags.
func (m Masked[T]) Tags() tags.Map { return m.tags }

// Count returns the number of present entries.
func (m Masked[T]) Count() int {
	n := 0
	for _, p := range m.present {
		if p {
			n++
		}
	}
	return n
}

// Compact drops the absent positions.
func (m Masked[T]) Compact() Collection[T] {
	out := make([]Datum[T], 0, len(m.entries))
	for i, d := range m.entries {
		if m.present[i] {
			out = append(out, d)
		}
	}
	return Collection[T]{entries: out, tags: m.tags}
}

// Complete returns the masked collection as a Collection if every position
// is present.
func (m Masked[T]) Complete() (Collection[T], bool) {
	for _, p := range m.present {
		if !p {
			return Collection[T]{}, false
		}
	}
	return m.Compact(), true
}

// Map applies fn to the present entries and keeps absent positions absent.
func (m Masked[T]) Map(fn func(Datum[T]) (Datum[T], error)) (Masked[T], error) {
	out := Masked[T]{
		entries: make([]Datum[T], len(m.entries)),
		present: append([]bool(nil), m.present...),
		tags:    m.tags,
	}
	for i, d := range m.entries {
		if !m.present[i] {
			continue
		}
		nd, err := fn(d)
		if err != nil {
			return Masked[T]{}, locate(err, i)
		}
		out.entries[i] = nd
	}
	return out, nil
}

// Mask returns c as a Masked with every position present.
func (c Collection[T]) Mask() Masked[T] {
	present := make([]bool, len(c.entries))
	for i := range present {
		present[i] = true
	}
	return Masked[T]{entries: c.Entries(), present: present, tags: c.tags}
}

// Partition splits c by pred. Entries satisfying pred are present in the
// first result and absent from the second, and vice versa. Both results keep
// c's length and collection tags.
func (c Collection[T]) Partition(pred func(Datum[T]) bool) (matched, rest Masked[T]) {
	n := len(c.entries)
	matched = Masked[T]{entries: make([]Datum[T], n), present: make([]bool, n), tags: c.tags}
	rest = Masked[T]{entries: make([]Datum[T], n), present: make([]bool, n), tags: c.tags}
	for i, d := range c.entries {
		if pred(d) {
			matched.entries[i], matched.present[i] = d, true
		} else {
			rest.entries[i], rest.present[i] = d, true
		}
	}
	return matched, rest
}

// MergeMasked reverses Partition: position i of the result holds the single
// part that has an entry there. Parts must have equal lengths, and no two
// parts may hold an entry at the same position (OVERLAPPING_ENTRIES).
// Collection tags come from the first part; a mismatch is logged.
func MergeMasked[T Sample](parts ...Masked[T]) (Masked[T], error) {
	if len(parts) == 0 {
		return Masked[T]{}, errors.InvalidInput("parts", "at least one masked collection is required")
	}
	n := parts[0].Len()
	for _, p := range parts[1:] {
		if p.Len() != n {
			return Masked[T]{}, errors.InvalidInput("parts", "masked collections differ in length")
		}
	}

	out := Masked[T]{entries: make([]Datum[T], n), present: make([]bool, n), tags: parts[0].tags}
	for i := 0; i < n; i++ {
		for _, p := range parts {
			if !p.present[i] {
				continue
			}
			if out.present[i] {
				return Masked[T]{}, errors.OverlappingEntries(i)
			}
			out.entries[i], out.present[i] = p.entries[i], true
		}
	}

	for _, p := range parts[1:] {
		if !p.tags.Equal(parts[0].tags) {
			logger.Get("datum").Warn("collection tags of merged parts differ, keeping the first", logger.Fields(
				"first", parts[0].tags.String(),
				"other", p.tags.String(),
			))
			break
		}
	}
	return out, nil
}
