package errors

import (
	"fmt"
	"strings"
)

// AppError is the unified error type for construction, lookup and merge failures.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// ErrorCode returns the machine-readable code.
func (e *AppError) ErrorCode() ErrorCode { return e.Code }

// Is reports whether target is an *AppError with the same code, so
// errors.Is(err, errors.KeyNotFound("")) matches any missing key.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// --- Constructors ---

// InvalidSampleRate creates an error for a sample rate that is not a positive finite number.
func InvalidSampleRate(rate float64) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidSampleRate,
		Message: fmt.Sprintf("sample rate must be positive and finite, got %v", rate),
		Details: map[string]any{"sample_rate": rate},
	}
}

// DuplicateKey creates an error for a key given twice to a tag map constructor.
func DuplicateKey(key string) *AppError {
	return &AppError{
		Code:    ErrCodeDuplicateKey,
		Message: fmt.Sprintf("duplicate tag key %q", key),
		Details: map[string]any{"key": key},
	}
}

// InvalidTagValue creates an error for a value with no supported tag kind.
func InvalidTagValue(key string, value any) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidTagValue,
		Message: fmt.Sprintf("unsupported tag value of type %T for key %q", value, key),
		Details: map[string]any{"key": key},
	}
}

// TagConflict creates an error for a key present on both sides of a merge.
func TagConflict(key string) *AppError {
	return &AppError{
		Code:    ErrCodeTagConflict,
		Message: fmt.Sprintf("tag %q is present in both maps", key),
		Details: map[string]any{"key": key},
	}
}

// KeyNotFound creates an error for a missing tag.
func KeyNotFound(key string) *AppError {
	return &AppError{
		Code:    ErrCodeKeyNotFound,
		Message: fmt.Sprintf("tag %q not found", key),
		Details: map[string]any{"key": key},
	}
}

// NotFound creates an error for a missing named resource.
func NotFound(resource, name string) *AppError {
	details := map[string]any{"resource": resource}
	if name != "" {
		details["name"] = name
	}
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s %q not found", resource, name),
		Details: details,
	}
}

// InvalidInput creates an error for an argument outside of the accepted domain.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code:    ErrCodeInvalidInput,
		Message: fmt.Sprintf("invalid input: %s", reason),
		Details: details,
	}
}

// Validation creates an error from one or more validation messages.
func Validation(messages ...string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidInput,
		Message: strings.Join(messages, "; "),
	}
}

// OverlappingEntries creates an error for two masked collections holding an entry at one index.
func OverlappingEntries(index int) *AppError {
	return &AppError{
		Code:    ErrCodeOverlappingEntries,
		Message: fmt.Sprintf("collections overlap at entry %d", index),
		Details: map[string]any{"entry": index},
	}
}

// Impure creates an error for a transformation whose repeated application disagreed.
func Impure(transformation string) *AppError {
	return &AppError{
		Code:    ErrCodeImpureTransformation,
		Message: fmt.Sprintf("transformation %q returned different results for the same input", transformation),
		Details: map[string]any{"transformation": transformation},
	}
}

// Canceled creates an error for a run abandoned through its context.
func Canceled(cause error) *AppError {
	return &AppError{Code: ErrCodeCanceled, Message: "run canceled", Cause: cause}
}

// Internal creates an error for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: "unexpected internal error", Cause: cause}
}
