package pipeline

import (
	"slices"
	"strings"

	"github.com/kbukum/datumkit/datum"
	"github.com/kbukum/datumkit/transform"
)

// Pipeline is an immutable, ordered sequence of transformations. The zero
// value is the empty pipeline, which returns its input unchanged.
type Pipeline[T datum.Sample] struct {
	name  string
	steps []transform.Transformation[T]
}

// Compose builds a pipeline applying ts in order.
func Compose[T datum.Sample](ts ...transform.Transformation[T]) Pipeline[T] {
	return Pipeline[T]{steps: slices.Clone(ts)}
}

// Concat joins pipelines end to end. The result is unnamed.
func Concat[T datum.Sample](ps ...Pipeline[T]) Pipeline[T] {
	var steps []transform.Transformation[T]
	for _, p := range ps {
		steps = append(steps, p.steps...)
	}
	return Pipeline[T]{steps: steps}
}

// Then returns a new pipeline with t appended. p is left unchanged and the
// two never share a backing array.
func (p Pipeline[T]) Then(t transform.Transformation[T]) Pipeline[T] {
	steps := make([]transform.Transformation[T], len(p.steps), len(p.steps)+1)
	copy(steps, p.steps)
	p.steps = append(steps, t)
	return p
}

// Named returns a copy of p with a name. Named pipelines record their name
// in the tags of the collections they process.
func (p Pipeline[T]) Named(name string) Pipeline[T] {
	p.name = name
	return p
}

// Name returns the pipeline name, or "" for unnamed pipelines.
func (p Pipeline[T]) Name() string { return p.name }

// Len returns the number of steps.
func (p Pipeline[T]) Len() int { return len(p.steps) }

// Steps returns a copy of the steps.
func (p Pipeline[T]) Steps() []transform.Transformation[T] { return slices.Clone(p.steps) }

// Names returns the step names in order.
func (p Pipeline[T]) Names() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name()
	}
	return names
}

func (p Pipeline[T]) String() string {
	name := p.name
	if name == "" {
		name = "pipeline"
	}
	return name + "[" + strings.Join(p.Names(), " -> ") + "]"
}
