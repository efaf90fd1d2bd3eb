package pipeline

import (
	"slices"
	"sync"

	"github.com/kbukum/datumkit/datum"
)

// TraceStep is the output of one step of a traced run.
type TraceStep struct {
	Step   int
	Name   string
	Output any
}

// Trace collects the intermediate containers of a run. Pass it with
// WithTrace; it is safe to share between concurrent runs, though the
// recorded steps then interleave.
type Trace struct {
	mu    sync.Mutex
	steps []TraceStep
}

// NewTrace creates an empty trace.
func NewTrace() *Trace { return &Trace{} }

func (tr *Trace) record(step int, name string, out any) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.steps = append(tr.steps, TraceStep{Step: step, Name: name, Output: out})
}

// Steps returns the recorded steps in execution order.
func (tr *Trace) Steps() []TraceStep {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return slices.Clone(tr.steps)
}

// Len returns the number of recorded steps.
func (tr *Trace) Len() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return len(tr.steps)
}

// Reset drops every recorded step.
func (tr *Trace) Reset() {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.steps = nil
}

// Traced returns the output of the last recorded step called name.
func Traced[T datum.Sample](tr *Trace, name string) (datum.Container[T], bool) {
	steps := tr.Steps()
	for i := len(steps) - 1; i >= 0; i-- {
		if steps[i].Name != name {
			continue
		}
		c, ok := steps[i].Output.(datum.Container[T])
		return c, ok
	}
	return nil, false
}
