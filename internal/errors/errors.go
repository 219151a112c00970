package errors

import (
	"fmt"
)

// VaultError is the structured error type for docvault.
// It carries enough context (version, path, operation) to diagnose a
// failure without re-running the batch job that produced it.
type VaultError struct {
	// Code is the unique error code (e.g., "ERR_202_VERSION_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Storage, Network, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the operator.
	Suggestion string
}

// Error implements the error interface.
func (e *VaultError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *VaultError) Unwrap() error {
	return e.Cause
}

// Is matches errors by code so errors.Is works with VaultError values.
func (e *VaultError) Is(target error) bool {
	if t, ok := target.(*VaultError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *VaultError) WithDetail(key, value string) *VaultError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the operator.
func (e *VaultError) WithSuggestion(suggestion string) *VaultError {
	e.Suggestion = suggestion
	return e
}

// New creates a new VaultError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *VaultError {
	return &VaultError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Newf creates a new VaultError with a formatted message and no cause.
func Newf(code string, format string, args ...any) *VaultError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Wrap creates a VaultError from an existing error.
// The error's message becomes the VaultError message.
func Wrap(code string, err error) *VaultError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// NotFound creates a storage lookup error for a missing path.
func NotFound(path string) *VaultError {
	return New(ErrCodePathNotFound, fmt.Sprintf("path not found: %s", path), nil).
		WithDetail("path", path)
}

// VersionNotFound creates an error for an unresolvable version reference.
func VersionNotFound(ref string) *VaultError {
	return New(ErrCodeVersionNotFound, fmt.Sprintf("version not found: %s", ref), nil).
		WithDetail("version", ref)
}

// LineageNotFound creates an error for an artifact with no lineage record.
// This is distinct from the artifact itself being absent; callers must not
// conflate the two.
func LineageNotFound(location string) *VaultError {
	return New(ErrCodeLineageNotFound, fmt.Sprintf("no lineage record for artifact: %s", location), nil).
		WithDetail("artifact", location)
}

// Unavailable creates a retryable remote backend error.
func Unavailable(message string, cause error) *VaultError {
	return New(ErrCodeStorageUnavailable, message, cause)
}

// Consistency creates an internal invariant violation error.
func Consistency(message string) *VaultError {
	return New(ErrCodeConsistency, message, nil).
		WithSuggestion("inspect the storage root manually or rebuild the affected version")
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a VaultError with Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if ve, ok := err.(*VaultError); ok {
		return ve.Retryable
	}
	return false
}

// IsCode reports whether err is a VaultError with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	ve, ok := err.(*VaultError)
	for !ok {
		u, uok := err.(interface{ Unwrap() error })
		if !uok {
			return false
		}
		err = u.Unwrap()
		if err == nil {
			return false
		}
		ve, ok = err.(*VaultError)
	}
	return ve.Code == code
}

// GetCode extracts the error code from a VaultError.
// Returns empty string if not a VaultError.
func GetCode(err error) string {
	if ve, ok := err.(*VaultError); ok {
		return ve.Code
	}
	return ""
}

// GetCategory extracts the category from a VaultError.
// Returns empty string if not a VaultError.
func GetCategory(err error) Category {
	if ve, ok := err.(*VaultError); ok {
		return ve.Category
	}
	return ""
}
