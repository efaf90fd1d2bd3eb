// Package errors provides the error taxonomy shared by every datumkit package.
//
// Construction and lookup failures are reported as *AppError values carrying
// a machine-readable ErrorCode. Failures raised while running user supplied
// transformations are reported as *TransformationError and, at the pipeline
// level, *PipelineExecutionError, both of which keep the original cause and
// the location (step, entry) of the failure.
package errors
