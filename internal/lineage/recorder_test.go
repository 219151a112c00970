package lineage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/internal/errors"
	"github.com/docvault/docvault/internal/storage"
	"github.com/docvault/docvault/internal/versioning"
)

func newRecorder(t *testing.T) (*Recorder, *storage.Local) {
	t.Helper()
	backend, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	rec, err := NewRecorder(backend, nil)
	require.NoError(t, err)
	return rec, backend
}

func testSpec() Spec {
	return Spec{
		Version:      versioning.MustParse("v1.0"),
		ArtifactPath: "indexes/v1.0",
		Files: []FileRef{
			{Name: "a.txt", SHA256: "aaaa"},
			{Name: "b.txt", SHA256: "bbbb"},
		},
		Parameters: map[string]any{"chunk_size": 512, "embedder": "minilm"},
		Note:       "initial build",
	}
}

func TestRecord_RoundTrip(t *testing.T) {
	ctx := context.Background()
	rec, _ := newRecorder(t)

	written, err := rec.Record(ctx, testSpec())
	require.NoError(t, err)
	assert.NotEmpty(t, written.ID)
	assert.Equal(t, "v1.0", written.DataVersion)
	assert.False(t, written.CreatedAt.IsZero())

	got, err := rec.Get(ctx, "indexes/v1.0")
	require.NoError(t, err)
	assert.Equal(t, written.ID, got.ID)
	assert.Equal(t, written.FilesUsed, got.FilesUsed)
	assert.Equal(t, "initial build", got.Note)
}

func TestRecord_EmptyFileSetRejected(t *testing.T) {
	ctx := context.Background()
	rec, _ := newRecorder(t)

	spec := testSpec()
	spec.Files = nil
	_, err := rec.Record(ctx, spec)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmptyFileSet))
}

func TestRecord_RerecordReplacesAndInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	rec, _ := newRecorder(t)

	first, err := rec.Record(ctx, testSpec())
	require.NoError(t, err)

	// Prime the cache.
	_, err = rec.Get(ctx, "indexes/v1.0")
	require.NoError(t, err)

	spec := testSpec()
	spec.Note = "rebuild with larger chunks"
	second, err := rec.Record(ctx, spec)
	require.NoError(t, err)

	got, err := rec.Get(ctx, "indexes/v1.0")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, "rebuild with larger chunks", got.Note)
	assert.NotEqual(t, first.Note, got.Note)
}

func TestGet_MissingRecord(t *testing.T) {
	ctx := context.Background()
	rec, backend := newRecorder(t)

	// The artifact directory exists; its lineage does not.
	require.NoError(t, backend.Write(ctx, "indexes/v2.0/segments.bin", []byte("x")))

	_, err := rec.Get(ctx, "indexes/v2.0")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeLineageNotFound))
	assert.False(t, errors.IsCode(err, errors.ErrCodePathNotFound))
}

func TestGet_CorruptRecordIsConsistencyError(t *testing.T) {
	ctx := context.Background()
	rec, backend := newRecorder(t)

	require.NoError(t, backend.Write(ctx, "indexes/v1.0/lineage.json", []byte(`{"id": ""}`)))

	_, err := rec.Get(ctx, "indexes/v1.0")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConsistency))
}

func TestList_ReturnsAllRecords(t *testing.T) {
	ctx := context.Background()
	rec, backend := newRecorder(t)

	spec := testSpec()
	_, err := rec.Record(ctx, spec)
	require.NoError(t, err)

	spec.Version = versioning.MustParse("v1.1")
	spec.ArtifactPath = "indexes/v1.1"
	_, err = rec.Record(ctx, spec)
	require.NoError(t, err)

	// Non-lineage files in the tree are ignored.
	require.NoError(t, backend.Write(ctx, "indexes/v1.0/segments.bin", []byte("x")))

	records, err := rec.List(ctx, "indexes")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "v1.0", records[0].DataVersion)
	assert.Equal(t, "v1.1", records[1].DataVersion)
}

func TestDecodeRecord_Invalid(t *testing.T) {
	_, err := DecodeRecord([]byte("not json"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConsistency))
}

func TestComputeID_DistinctPerBuild(t *testing.T) {
	rec, _ := newRecorder(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	rec.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	a, err := rec.Record(ctx, testSpec())
	require.NoError(t, err)
	b, err := rec.Record(ctx, testSpec())
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, a.ID, 16)
}
