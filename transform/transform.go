package transform

import (
	"fmt"

	"github.com/kbukum/datumkit/datum"
	"github.com/kbukum/datumkit/errors"
	"github.com/kbukum/datumkit/tags"
)

// DefaultProvenanceKey is the tag key that records the name of the last
// transformation applied to a Datum.
const DefaultProvenanceKey = "applied"

// StepFunc transforms a whole Datum. The Datum it receives owns a private
// copy of the buffer, so the function may modify that buffer in place.
type StepFunc[T datum.Sample] func(datum.Datum[T]) (datum.Datum[T], error)

// Transformation is a named, stateless step over a Datum. The zero value is
// not usable; build one with New, FromBuffer, FromBufferRate or Map.
type Transformation[T datum.Sample] struct {
	name          string
	fn            StepFunc[T]
	policy        tags.Policy
	provenanceKey string
	extra         tags.Map
}

// Option configures a Transformation.
type Option func(*options)

type options struct {
	policy        tags.Policy
	provenanceKey string
	extra         tags.Map
}

// WithPolicy sets the policy used to merge the transformation's tags into
// the input tags. The default is tags.Override.
func WithPolicy(p tags.Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithProvenanceKey changes the tag key that records the transformation name.
func WithProvenanceKey(key string) Option {
	return func(o *options) { o.provenanceKey = key }
}

// WithoutProvenance disables the provenance tag.
func WithoutProvenance() Option {
	return func(o *options) { o.provenanceKey = "" }
}

// WithTags adds tags merged into every output alongside the provenance tag.
func WithTags(t tags.Map) Option {
	return func(o *options) { o.extra = t }
}

// New builds a Transformation from a function over whole Datums. Tags the
// function sets are kept; the provenance tag is merged on top of them.
func New[T datum.Sample](name string, fn StepFunc[T], opts ...Option) Transformation[T] {
	o := options{policy: tags.Override, provenanceKey: DefaultProvenanceKey}
	for _, opt := range opts {
		opt(&o)
	}
	return Transformation[T]{
		name:          name,
		fn:            fn,
		policy:        o.policy,
		provenanceKey: o.provenanceKey,
		extra:         o.extra,
	}
}

// FromBuffer lifts a function over the sample buffer. Sample rate and tags
// are carried from the input.
func FromBuffer[T datum.Sample](name string, fn func([]T) ([]T, error), opts ...Option) Transformation[T] {
	return New(name, func(d datum.Datum[T]) (datum.Datum[T], error) {
		data, rate, t := d.Unpack()
		out, err := fn(data)
		if err != nil {
			return datum.Datum[T]{}, err
		}
		return datum.Adopt(out, rate, t)
	}, opts...)
}

// FromBufferRate lifts a function over the buffer and sample rate. The rate
// it returns replaces the input rate and must be positive and finite.
func FromBufferRate[T datum.Sample](name string, fn func([]T, float64) ([]T, float64, error), opts ...Option) Transformation[T] {
	return New(name, func(d datum.Datum[T]) (datum.Datum[T], error) {
		data, rate, t := d.Unpack()
		out, newRate, err := fn(data, rate)
		if err != nil {
			return datum.Datum[T]{}, err
		}
		return datum.Adopt(out, newRate, t)
	}, opts...)
}

// Map lifts an element-wise function.
func Map[T datum.Sample](name string, fn func(T) T, opts ...Option) Transformation[T] {
	return FromBuffer(name, func(data []T) ([]T, error) {
		for i, v := range data {
			data[i] = fn(v)
		}
		return data, nil
	}, opts...)
}

// Name returns the transformation's name.
func (t Transformation[T]) Name() string { return t.name }

// Policy returns the tag merge policy.
func (t Transformation[T]) Policy() tags.Policy { return t.policy }

// ProvenanceKey returns the provenance tag key, or "" when disabled.
func (t Transformation[T]) ProvenanceKey() string { return t.provenanceKey }

// Tags returns the tags merged into every output, provenance included.
func (t Transformation[T]) Tags() tags.Map {
	out := t.extra
	if t.provenanceKey != "" {
		out = out.With(t.provenanceKey, tags.String(t.name))
	}
	return out
}

// Apply runs t on d. The result holds the function's output buffer and rate,
// and d's tags merged with the transformation tags under t's policy. Any
// failure is reported as an *errors.TransformationError.
func Apply[T datum.Sample](t Transformation[T], d datum.Datum[T]) (datum.Datum[T], error) {
	return ApplyAt(t, d, errors.NoEntry)
}

// ApplyAt is Apply for a Datum found at the given collection entry; the entry
// is recorded in the error.
func ApplyAt[T datum.Sample](t Transformation[T], d datum.Datum[T], entry int) (out datum.Datum[T], err error) {
	fail := func(cause error) error {
		return errors.NewTransformationError(t.name, cause).AtEntry(entry)
	}
	if t.fn == nil {
		return datum.Datum[T]{}, fail(errors.InvalidInput("fn", "transformation has no function"))
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = datum.Datum[T]{}, fail(errors.Internal(fmt.Errorf("panic: %v", r)))
		}
	}()

	// The function works on a private copy of the buffer; d keeps its own.
	in, ierr := datum.Adopt(d.Data(), d.SampleRate(), d.Tags())
	if ierr != nil {
		return datum.Datum[T]{}, fail(ierr)
	}
	res, ferr := t.fn(in)
	if ferr != nil {
		return datum.Datum[T]{}, fail(ferr)
	}
	if verr := datum.ValidateSampleRate(res.SampleRate()); verr != nil {
		return datum.Datum[T]{}, fail(verr)
	}
	merged, merr := tags.Merge(res.Tags(), t.Tags(), t.policy)
	if merr != nil {
		return datum.Datum[T]{}, fail(merr)
	}
	return res.WithTags(merged), nil
}

// CheckPurity applies t to d twice and reports IMPURE_TRANSFORMATION when the
// two results differ. Failures of t itself are returned unchanged.
func CheckPurity[T datum.Sample](t Transformation[T], d datum.Datum[T]) error {
	first, err := Apply(t, d)
	if err != nil {
		return err
	}
	second, err := Apply(t, d)
	if err != nil {
		return err
	}
	if !first.Equal(second) {
		return errors.Impure(t.name)
	}
	return nil
}

func (t Transformation[T]) String() string {
	return fmt.Sprintf("Transformation(%s)", t.name)
}
