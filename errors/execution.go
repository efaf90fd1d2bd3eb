package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// NoEntry is the entry index reported for a Datum transformed outside of a collection.
const NoEntry = -1

// TransformationError reports a failure raised by a transformation function.
type TransformationError struct {
	// Transformation is the name of the failing transformation.
	Transformation string
	// Entry is the position of the offending Datum in its collection, or NoEntry.
	Entry int
	// Cause is the error returned (or panic recovered) from the function.
	Cause error
}

// NewTransformationError creates a TransformationError for a standalone Datum.
func NewTransformationError(name string, cause error) *TransformationError {
	return &TransformationError{Transformation: name, Entry: NoEntry, Cause: cause}
}

// AtEntry returns a copy of the error located at the given collection entry.
func (e *TransformationError) AtEntry(entry int) *TransformationError {
	c := *e
	c.Entry = entry
	return &c
}

func (e *TransformationError) Error() string {
	if e.Entry == NoEntry {
		return fmt.Sprintf("%s: transformation %q: %v", ErrCodeTransformation, e.Transformation, e.Cause)
	}
	return fmt.Sprintf("%s: transformation %q at entry %d: %v", ErrCodeTransformation, e.Transformation, e.Entry, e.Cause)
}

// Unwrap returns the original cause.
func (e *TransformationError) Unwrap() error { return e.Cause }

// ErrorCode returns ErrCodeTransformation.
func (e *TransformationError) ErrorCode() ErrorCode { return ErrCodeTransformation }

// PipelineExecutionError reports the step at which a pipeline run stopped.
// Under fail-fast it holds exactly one failure; under fail-soft it holds every
// failure of the step, ordered by entry index.
type PipelineExecutionError struct {
	// Pipeline is the pipeline name, empty for unnamed pipelines.
	Pipeline string
	// Step is the zero-based index of the failing transformation.
	Step int
	// StepName is the name of the failing transformation.
	StepName string
	// Failures are the transformation failures of the step.
	Failures []*TransformationError
	// Cause is set instead of Failures when the run stopped for a reason other
	// than a failing function (e.g. context cancellation).
	Cause error
}

func (e *PipelineExecutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: step %d (%q)", ErrCodePipelineExecution, e.Step, e.StepName)
	if e.Pipeline != "" {
		fmt.Fprintf(&b, " of pipeline %q", e.Pipeline)
	}
	switch {
	case e.Cause != nil:
		fmt.Fprintf(&b, ": %v", e.Cause)
	case len(e.Failures) == 1:
		fmt.Fprintf(&b, ": %v", e.Failures[0])
	case len(e.Failures) > 1:
		fmt.Fprintf(&b, ": %d entries failed, first: %v", len(e.Failures), e.Failures[0])
	}
	return b.String()
}

// Unwrap exposes every failure (and the cause, if any) to errors.Is / errors.As.
func (e *PipelineExecutionError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures)+1)
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// ErrorCode returns ErrCodePipelineExecution.
func (e *PipelineExecutionError) ErrorCode() ErrorCode { return ErrCodePipelineExecution }

// Entry returns the entry index of the first failure, or NoEntry.
func (e *PipelineExecutionError) Entry() int {
	if len(e.Failures) == 0 {
		return NoEntry
	}
	return e.Failures[0].Entry
}

// Entries returns the entry indexes of all failures.
func (e *PipelineExecutionError) Entries() []int {
	out := make([]int, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f.Entry
	}
	return out
}

// --- Inspection helpers ---

type coder interface {
	ErrorCode() ErrorCode
}

// CodeOf returns the code of the outermost coded error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var c coder
	if stderrors.As(err, &c) {
		return c.ErrorCode()
	}
	return ""
}

// HasCode reports whether any error in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	if c, ok := err.(coder); ok && c.ErrorCode() == code {
		return true
	}
	switch x := err.(type) {
	case interface{ Unwrap() error }:
		return HasCode(x.Unwrap(), code)
	case interface{ Unwrap() []error }:
		for _, inner := range x.Unwrap() {
			if HasCode(inner, code) {
				return true
			}
		}
	}
	return false
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// AsPipelineError extracts a PipelineExecutionError from err's chain.
func AsPipelineError(err error) (*PipelineExecutionError, bool) {
	var pe *PipelineExecutionError
	if stderrors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// AsTransformationError extracts the first TransformationError from err's chain.
func AsTransformationError(err error) (*TransformationError, bool) {
	var te *TransformationError
	if stderrors.As(err, &te) {
		return te, true
	}
	return nil, false
}
