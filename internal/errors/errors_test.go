package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryFromCode(t *testing.T) {
	tests := []struct {
		code     string
		category Category
	}{
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodePathNotFound, CategoryStorage},
		{ErrCodeStorageUnavailable, CategoryNetwork},
		{ErrCodeInvalidIncrement, CategoryValidation},
		{ErrCodeConsistency, CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.category, err.Category)
		})
	}
}

func TestNew_OnlyNetworkCodesAreRetryable(t *testing.T) {
	assert.True(t, New(ErrCodeStorageUnavailable, "down", nil).Retryable)
	assert.True(t, New(ErrCodeRemoteTimeout, "slow", nil).Retryable)

	assert.False(t, New(ErrCodeVersionNotFound, "missing", nil).Retryable)
	assert.False(t, New(ErrCodeDuplicateVersion, "dup", nil).Retryable)
	assert.False(t, New(ErrCodeEmptyFileSet, "empty", nil).Retryable)
}

func TestVaultError_ErrorString(t *testing.T) {
	err := VersionNotFound("v3.2")
	assert.Equal(t, "[ERR_202_VERSION_NOT_FOUND] version not found: v3.2", err.Error())
	assert.Equal(t, "v3.2", err.Details["version"])
}

func TestVaultError_UnwrapChain(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrCodeStorageUnavailable, cause)

	require.NotNil(t, err)
	assert.True(t, stderrors.Is(err, cause))
}

func TestVaultError_IsMatchesByCode(t *testing.T) {
	a := VersionNotFound("v1.0")
	b := VersionNotFound("v2.0")

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, LineageNotFound("indexes/v1.0")))
}

func TestIsCode_FindsWrappedVaultError(t *testing.T) {
	inner := LineageNotFound("indexes/v1.0")
	outer := fmt.Errorf("reading sidecar: %w", inner)

	assert.True(t, IsCode(outer, ErrCodeLineageNotFound))
	assert.False(t, IsCode(outer, ErrCodeVersionNotFound))
	assert.False(t, IsCode(nil, ErrCodeLineageNotFound))
}

func TestLineageNotFound_DistinctFromPathNotFound(t *testing.T) {
	// An artifact that exists but was never recorded must not look like a
	// missing artifact.
	lineageErr := LineageNotFound("indexes/v1.0")
	pathErr := NotFound("indexes/v1.0")

	assert.NotEqual(t, GetCode(lineageErr), GetCode(pathErr))
	assert.False(t, stderrors.Is(lineageErr, pathErr))
}

func TestWithDetailAndSuggestion(t *testing.T) {
	err := Consistency("artifact directory has no lineage record").
		WithDetail("version", "v1.2")

	assert.Equal(t, "v1.2", err.Details["version"])
	assert.NotEmpty(t, err.Suggestion)
	assert.Equal(t, SeverityFatal, err.Severity)
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}
