package datum

import (
	"iter"
	"math"
	"slices"
	"time"

	"github.com/kbukum/datumkit/errors"
	"github.com/kbukum/datumkit/tags"
)

// Sample is the element type of a signal buffer.
type Sample interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 | ~complex64 | ~complex128
}

// DefaultSampleRate is the rate used by Of.
const DefaultSampleRate = 1.0

// Datum is an immutable one-dimensional signal: a sample buffer, its sample
// rate and its tags. Use New or Of to build one; the zero value has no valid
// sample rate.
//
// A Datum never exposes its buffer: Data returns a copy, and buffers handed
// to New or WithData are copied in. Datums derived with WithTags or
// WithSampleRate share the buffer of their source.
type Datum[T Sample] struct {
	data []T
	rate float64
	tags tags.Map
}

// New validates and builds a Datum. It fails with INVALID_SAMPLE_RATE when
// rate is not a positive finite number.
func New[T Sample](data []T, rate float64, t tags.Map) (Datum[T], error) {
	if err := ValidateSampleRate(rate); err != nil {
		return Datum[T]{}, err
	}
	return Datum[T]{data: cloneBuffer(data), rate: rate, tags: t}, nil
}

// Of builds a Datum with DefaultSampleRate and no tags.
func Of[T Sample](data []T) Datum[T] {
	return Datum[T]{data: cloneBuffer(data), rate: DefaultSampleRate}
}

// Must panics if err is non-nil and returns d otherwise.
func Must[T Sample](d Datum[T], err error) Datum[T] {
	if err != nil {
		panic(err)
	}
	return d
}

// Adopt builds a Datum that takes ownership of data without copying it. The
// caller must not retain or modify data afterwards.
func Adopt[T Sample](data []T, rate float64, t tags.Map) (Datum[T], error) {
	if err := ValidateSampleRate(rate); err != nil {
		return Datum[T]{}, err
	}
	if data == nil {
		data = []T{}
	}
	return Datum[T]{data: data, rate: rate, tags: t}, nil
}

// ValidateSampleRate reports INVALID_SAMPLE_RATE for rates that are not
// positive finite numbers.
func ValidateSampleRate(rate float64) error {
	if !(rate > 0) || math.IsInf(rate, 1) {
		return errors.InvalidSampleRate(rate)
	}
	return nil
}

func cloneBuffer[T Sample](data []T) []T {
	if data == nil {
		return []T{}
	}
	return slices.Clone(data)
}

// Data returns a copy of the sample buffer.
func (d Datum[T]) Data() []T { return slices.Clone(d.data) }

// SampleRate returns the sample rate in samples per second.
func (d Datum[T]) SampleRate() float64 { return d.rate }

// Validate reports INVALID_SAMPLE_RATE for a Datum not built by New, Of or
// Adopt, such as the zero value.
func (d Datum[T]) Validate() error { return ValidateSampleRate(d.rate) }

// Tags returns the tag map.
func (d Datum[T]) Tags() tags.Map { return d.tags }

// Len returns the number of samples.
func (d Datum[T]) Len() int { return len(d.data) }

// At returns the i-th sample. It panics if i is out of range.
func (d Datum[T]) At(i int) T { return d.data[i] }

// Samples iterates over the buffer without copying it.
func (d Datum[T]) Samples() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, v := range d.data {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Duration returns the signal length in time, saturating at the largest
// representable time.Duration.
func (d Datum[T]) Duration() time.Duration {
	if d.rate <= 0 {
		return 0
	}
	ns := float64(len(d.data)) / d.rate * float64(time.Second)
	if ns >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}

// Unpack returns the fields in their fixed order: data, sample rate, tags.
func (d Datum[T]) Unpack() ([]T, float64, tags.Map) {
	return d.Data(), d.rate, d.tags
}

// WithData returns a copy of d holding a copy of data.
func (d Datum[T]) WithData(data []T) Datum[T] {
	d.data = cloneBuffer(data)
	return d
}

// WithTags returns a copy of d with its tags replaced.
func (d Datum[T]) WithTags(t tags.Map) Datum[T] {
	d.tags = t
	return d
}

// WithSampleRate returns a copy of d with its sample rate replaced.
func (d Datum[T]) WithSampleRate(rate float64) (Datum[T], error) {
	if err := ValidateSampleRate(rate); err != nil {
		return Datum[T]{}, err
	}
	d.rate = rate
	return d, nil
}

// WithTag returns a copy of d with one tag set, overriding any existing value.
func (d Datum[T]) WithTag(key string, value tags.Value) Datum[T] {
	d.tags = d.tags.With(key, value)
	return d
}

// OverTags merges the tags returned by fn(d.Tags()) into d's tags.
func (d Datum[T]) OverTags(fn func(tags.Map) (tags.Map, error), policy tags.Policy) (Datum[T], error) {
	update, err := fn(d.tags)
	if err != nil {
		return Datum[T]{}, err
	}
	return d.mergeTags(update, policy)
}

// MapTags merges the tags returned by fn(d) into d's tags.
func (d Datum[T]) MapTags(fn func(Datum[T]) (tags.Map, error), policy tags.Policy) (Datum[T], error) {
	update, err := fn(d)
	if err != nil {
		return Datum[T]{}, err
	}
	return d.mergeTags(update, policy)
}

// MergeTags merges t into d's tags with policy.
func (d Datum[T]) MergeTags(t tags.Map, policy tags.Policy) (Datum[T], error) {
	return d.mergeTags(t, policy)
}

func (d Datum[T]) mergeTags(update tags.Map, policy tags.Policy) (Datum[T], error) {
	merged, err := tags.Merge(d.tags, update, policy)
	if err != nil {
		return Datum[T]{}, err
	}
	d.tags = merged
	return d, nil
}

// Equal reports whether d and o hold equal buffers, rates and tags. NaN
// samples compare equal to NaN.
func (d Datum[T]) Equal(o Datum[T]) bool {
	return d.rate == o.rate && d.tags.Equal(o.tags) && samplesEqual(d.data, o.data)
}

func samplesEqual[T Sample](a, b []T) bool {
	return slices.EqualFunc(a, b, func(x, y T) bool {
		return x == y || (x != x && y != y)
	})
}

// ContainerKind implements Container.
func (Datum[T]) ContainerKind() Kind { return KindDatum }

func (Datum[T]) sealed(T) {}
