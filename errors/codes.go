package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Construction errors
const (
	// ErrCodeInvalidSampleRate indicates a non-positive or non-finite sample rate.
	ErrCodeInvalidSampleRate ErrorCode = "INVALID_SAMPLE_RATE"
	// ErrCodeDuplicateKey indicates a repeated key while building a tag map.
	ErrCodeDuplicateKey ErrorCode = "DUPLICATE_KEY"
	// ErrCodeInvalidTagValue indicates a Go value that has no tag value kind.
	ErrCodeInvalidTagValue ErrorCode = "INVALID_TAG_VALUE"
	// ErrCodeInvalidInput indicates an argument outside of the accepted domain.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Lookup and merge errors
const (
	// ErrCodeKeyNotFound indicates a missing tag key.
	ErrCodeKeyNotFound ErrorCode = "KEY_NOT_FOUND"
	// ErrCodeTagConflict indicates a key collision under the error merge policy.
	ErrCodeTagConflict ErrorCode = "TAG_CONFLICT"
	// ErrCodeOverlappingEntries indicates two masked collections both hold an entry at one position.
	ErrCodeOverlappingEntries ErrorCode = "OVERLAPPING_ENTRIES"
	// ErrCodeNotFound indicates a missing registry item or definition.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Execution errors
const (
	// ErrCodeTransformation indicates a transformation function failed.
	ErrCodeTransformation ErrorCode = "TRANSFORMATION_FAILED"
	// ErrCodePipelineExecution indicates a pipeline run stopped at a failing step.
	ErrCodePipelineExecution ErrorCode = "PIPELINE_EXECUTION_FAILED"
	// ErrCodeImpureTransformation indicates two identical applications disagreed.
	ErrCodeImpureTransformation ErrorCode = "IMPURE_TRANSFORMATION"
	// ErrCodeCanceled indicates the run was abandoned through its context.
	ErrCodeCanceled ErrorCode = "CANCELED"
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)
