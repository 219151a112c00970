// Package errors provides structured error handling for docvault.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Storage and lookup errors (file, version, lineage)
//   - 3XX: Network / remote backend errors
//   - 4XX: Validation errors
//   - 5XX: Internal consistency errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryStorage indicates storage and lookup errors.
	CategoryStorage Category = "STORAGE"
	// CategoryNetwork indicates remote backend errors.
	CategoryNetwork Category = "NETWORK"
	// CategoryValidation indicates caller input errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates broken internal invariants.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Storage and lookup errors (200-299)
	ErrCodePathNotFound    = "ERR_201_PATH_NOT_FOUND"
	ErrCodeVersionNotFound = "ERR_202_VERSION_NOT_FOUND"
	ErrCodeLineageNotFound = "ERR_203_LINEAGE_NOT_FOUND"
	ErrCodeSnapshotIO      = "ERR_204_SNAPSHOT_IO"

	// Network errors (300-399)
	ErrCodeStorageUnavailable = "ERR_301_STORAGE_UNAVAILABLE"
	ErrCodeRemoteTimeout      = "ERR_302_REMOTE_TIMEOUT"

	// Validation errors (400-499)
	ErrCodeInvalidIncrement = "ERR_401_INVALID_INCREMENT"
	ErrCodeEmptyFileSet     = "ERR_402_EMPTY_FILE_SET"
	ErrCodeOrphanIndex      = "ERR_403_ORPHAN_INDEX"
	ErrCodeInvalidVersion   = "ERR_404_INVALID_VERSION"

	// Internal errors (500-599)
	ErrCodeConsistency      = "ERR_501_CONSISTENCY"
	ErrCodeDuplicateVersion = "ERR_502_DUPLICATE_VERSION"
	ErrCodeInternal         = "ERR_503_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Numeric portion, e.g. "201" from "ERR_201_PATH_NOT_FOUND".
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStorage
	case '3':
		return CategoryNetwork
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	// Consistency violations require manual intervention.
	switch code {
	case ErrCodeConsistency, ErrCodeDuplicateVersion:
		return SeverityFatal
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
// Only transient remote backend failures are retried; every other kind is a
// caller error or a genuine inconsistency and must propagate immediately.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeStorageUnavailable, ErrCodeRemoteTimeout:
		return true
	default:
		return false
	}
}
