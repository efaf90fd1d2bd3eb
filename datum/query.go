package datum

import (
	"slices"

	"github.com/kbukum/datumkit/errors"
	"github.com/kbukum/datumkit/tags"
)

// TagValues returns the value of key for every entry, using fill where an
// entry lacks the key.
func (c Collection[T]) TagValues(key string, fill tags.Value) []tags.Value {
	out := make([]tags.Value, len(c.entries))
	for i, d := range c.entries {
		if v, ok := d.tags.Lookup(key); ok {
			out[i] = v
		} else {
			out[i] = fill
		}
	}
	return out
}

// Group is one bucket of GroupByTag.
type Group[T Sample] struct {
	// Value is the shared tag value; invalid when Missing is true.
	Value tags.Value
	// Missing marks the bucket of entries without the key.
	Missing bool
	// Collection holds the bucket's entries in their original order.
	Collection Collection[T]
}

// GroupByTag buckets entries by the value of key. Buckets are ordered by the
// first entry that falls into them; entries lacking the key share one bucket.
// Every bucket carries c's collection tags.
func (c Collection[T]) GroupByTag(key string) []Group[T] {
	var groups []Group[T]
	for _, d := range c.entries {
		v, ok := d.tags.Lookup(key)
		idx := slices.IndexFunc(groups, func(g Group[T]) bool {
			if !ok {
				return g.Missing
			}
			return !g.Missing && g.Value.Equal(v)
		})
		if idx < 0 {
			groups = append(groups, Group[T]{Value: v, Missing: !ok, Collection: Collection[T]{tags: c.tags}})
			idx = len(groups) - 1
		}
		groups[idx].Collection.entries = append(groups[idx].Collection.entries, d)
	}
	return groups
}

// SortByTag returns c with entries stably sorted by the value of key.
// Entries lacking the key go last in either direction.
func (c Collection[T]) SortByTag(key string, descending bool) Collection[T] {
	out := slices.Clone(c.entries)
	slices.SortStableFunc(out, func(a, b Datum[T]) int {
		av, aok := a.tags.Lookup(key)
		bv, bok := b.tags.Lookup(key)
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		}
		if descending {
			return bv.Compare(av)
		}
		return av.Compare(bv)
	})
	return Collection[T]{entries: out, tags: c.tags}
}

// ZipWith calls fn with the entries found at each position of cols. All
// collections must have the same length.
func ZipWith[T Sample, R any](fn func(entries ...Datum[T]) R, cols ...Collection[T]) ([]R, error) {
	if len(cols) == 0 {
		return nil, nil
	}
	n := cols[0].Len()
	for _, c := range cols[1:] {
		if c.Len() != n {
			return nil, errors.InvalidInput("collections", "collections differ in length")
		}
	}
	out := make([]R, n)
	row := make([]Datum[T], len(cols))
	for i := 0; i < n; i++ {
		for j, c := range cols {
			row[j] = c.entries[i]
		}
		out[i] = fn(slices.Clone(row)...)
	}
	return out, nil
}

// CompareTags reports whether, for every key, the entries aligned at each
// position of cols agree on that key's value. At least two collections of
// equal length are required; otherwise it reports false.
func CompareTags[T Sample](keys []string, cols ...Collection[T]) bool {
	if len(cols) < 2 {
		return false
	}
	same, err := ZipWith(func(entries ...Datum[T]) bool {
		for _, key := range keys {
			first, firstOK := entries[0].tags.Lookup(key)
			for _, d := range entries[1:] {
				v, ok := d.tags.Lookup(key)
				if ok != firstOK || (ok && !v.Equal(first)) {
					return false
				}
			}
		}
		return true
	}, cols...)
	if err != nil {
		return false
	}
	return !slices.Contains(same, false)
}
