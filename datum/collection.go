package datum

import (
	"slices"

	"github.com/kbukum/datumkit/errors"
	"github.com/kbukum/datumkit/tags"
)

// Kind tells the two container kinds apart.
type Kind uint8

const (
	KindDatum Kind = iota + 1
	KindCollection
)

func (k Kind) String() string {
	switch k {
	case KindDatum:
		return "datum"
	case KindCollection:
		return "collection"
	default:
		return "unknown"
	}
}

// Container is implemented by Datum and Collection only.
type Container[T Sample] interface {
	ContainerKind() Kind
	// Validate reports INVALID_SAMPLE_RATE for a zero-value Datum or entry.
	Validate() error
	sealed(T)
}

// Collection is an immutable, ordered sequence of Datums plus collection
// level tags. Entries may differ in length and sample rate.
type Collection[T Sample] struct {
	entries []Datum[T]
	tags    tags.Map
}

// Collect builds a Collection preserving the order of entries. The slice is
// copied; an empty or nil slice gives an empty collection. Entries are not
// checked here: a zero-value Datum is caught by Validate, which every
// pipeline run calls first.
func Collect[T Sample](entries []Datum[T], t tags.Map) Collection[T] {
	return Collection[T]{entries: slices.Clone(entries), tags: t}
}

// CollectOf builds an untagged Collection from its arguments.
func CollectOf[T Sample](entries ...Datum[T]) Collection[T] {
	return Collect(entries, tags.Map{})
}

// Entries returns a copy of the entry slice.
func (c Collection[T]) Entries() []Datum[T] {
	if c.entries == nil {
		return []Datum[T]{}
	}
	return slices.Clone(c.entries)
}

// Len returns the number of entries.
func (c Collection[T]) Len() int { return len(c.entries) }

// At returns the i-th entry. It panics if i is out of range.
func (c Collection[T]) At(i int) Datum[T] { return c.entries[i] }

// Validate fails for the first entry without a valid sample rate; the error
// carries its index under the "entry" detail.
func (c Collection[T]) Validate() error {
	for i, d := range c.entries {
		if ValidateSampleRate(d.rate) != nil {
			return errors.InvalidSampleRate(d.rate).WithDetail("entry", i)
		}
	}
	return nil
}

// Tags returns the collection level tags.
func (c Collection[T]) Tags() tags.Map { return c.tags }

// Unpack returns the fields in their fixed order: entries, tags.
func (c Collection[T]) Unpack() ([]Datum[T], tags.Map) {
	return c.Entries(), c.tags
}

// WithTags returns a copy of c with its collection tags replaced.
func (c Collection[T]) WithTags(t tags.Map) Collection[T] {
	c.tags = t
	return c
}

// WithEntries returns a copy of c holding entries instead of its own.
func (c Collection[T]) WithEntries(entries []Datum[T]) Collection[T] {
	c.entries = slices.Clone(entries)
	return c
}

// MergeTags merges t into the collection tags with policy.
func (c Collection[T]) MergeTags(t tags.Map, policy tags.Policy) (Collection[T], error) {
	merged, err := tags.Merge(c.tags, t, policy)
	if err != nil {
		return Collection[T]{}, err
	}
	c.tags = merged
	return c, nil
}

// Map applies fn to every entry in order and returns a collection with the
// same length, order and collection tags. It stops at the first failure and
// reports it as a TransformationError located at the failing entry.
func (c Collection[T]) Map(fn func(Datum[T]) (Datum[T], error)) (Collection[T], error) {
	out := make([]Datum[T], len(c.entries))
	for i, d := range c.entries {
		nd, err := fn(d)
		if err != nil {
			return Collection[T]{}, locate(err, i)
		}
		out[i] = nd
	}
	return Collection[T]{entries: out, tags: c.tags}, nil
}

// MapPure is Map for functions that cannot fail.
func (c Collection[T]) MapPure(fn func(Datum[T]) Datum[T]) Collection[T] {
	out := make([]Datum[T], len(c.entries))
	for i, d := range c.entries {
		out[i] = fn(d)
	}
	return Collection[T]{entries: out, tags: c.tags}
}

// locate stamps an entry index onto err, wrapping plain errors.
func locate(err error, entry int) error {
	if te, ok := errors.AsTransformationError(err); ok {
		return te.AtEntry(entry)
	}
	return errors.NewTransformationError("map", err).AtEntry(entry)
}

// Filter returns the entries satisfying pred, in their original order.
func (c Collection[T]) Filter(pred func(Datum[T]) bool) Collection[T] {
	out := make([]Datum[T], 0, len(c.entries))
	for _, d := range c.entries {
		if pred(d) {
			out = append(out, d)
		}
	}
	return Collection[T]{entries: out, tags: c.tags}
}

// Equal reports whether c and o hold equal entries and tags.
func (c Collection[T]) Equal(o Collection[T]) bool {
	return c.tags.Equal(o.tags) && slices.EqualFunc(c.entries, o.entries, Datum[T].Equal)
}

// ContainerKind implements Container.
func (Collection[T]) ContainerKind() Kind { return KindCollection }

func (Collection[T]) sealed(T) {}
