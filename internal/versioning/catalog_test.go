package versioning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/internal/storage"
)

func newTestCatalog(t *testing.T) (*Catalog, storage.Backend) {
	t.Helper()
	backend, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	return NewCatalog(backend, "raw"), backend
}

// commitVersion writes a minimal committed version: one file plus manifest.
func commitVersion(t *testing.T, backend storage.Backend, v string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, backend.Write(ctx, "raw/"+v+"/doc.txt", []byte("content")))
	require.NoError(t, backend.Write(ctx, "raw/"+v+"/"+ManifestName, []byte("{}")))
}

func TestCatalog_ListVersionsAscending(t *testing.T) {
	ctx := context.Background()
	cat, backend := newTestCatalog(t)

	commitVersion(t, backend, "v2.0")
	commitVersion(t, backend, "v1.0")
	commitVersion(t, backend, "v1.10")
	commitVersion(t, backend, "v1.2")

	versions, err := cat.ListVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Version{
		MustParse("v1.0"), MustParse("v1.2"), MustParse("v1.10"), MustParse("v2.0"),
	}, versions)
}

func TestCatalog_IgnoresNonVersionEntries(t *testing.T) {
	ctx := context.Background()
	cat, backend := newTestCatalog(t)

	commitVersion(t, backend, "v1.0")
	require.NoError(t, backend.Write(ctx, "raw/latest", []byte("v1.0")))
	require.NoError(t, backend.Write(ctx, "raw/notes.md", []byte("unrelated")))
	require.NoError(t, backend.Write(ctx, "raw/backup/old.txt", []byte("x")))

	versions, err := cat.ListVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Version{MustParse("v1.0")}, versions)
}

func TestCatalog_UncommittedVersionIsInvisible(t *testing.T) {
	ctx := context.Background()
	cat, backend := newTestCatalog(t)

	commitVersion(t, backend, "v1.0")
	// Files copied but manifest never written: a crashed create.
	require.NoError(t, backend.Write(ctx, "raw/v1.1/doc.txt", []byte("half")))

	versions, err := cat.ListVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Version{MustParse("v1.0")}, versions)

	ok, err := cat.Exists(ctx, MustParse("v1.1"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCatalog_LatestEmptyIsNil(t *testing.T) {
	ctx := context.Background()
	cat, _ := newTestCatalog(t)

	latest, err := cat.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestCatalog_Latest(t *testing.T) {
	ctx := context.Background()
	cat, backend := newTestCatalog(t)

	commitVersion(t, backend, "v1.0")
	commitVersion(t, backend, "v3.1")
	commitVersion(t, backend, "v2.5")

	latest, err := cat.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, MustParse("v3.1"), *latest)
}

func TestCatalog_Exists(t *testing.T) {
	ctx := context.Background()
	cat, backend := newTestCatalog(t)

	commitVersion(t, backend, "v1.0")

	ok, err := cat.Exists(ctx, MustParse("v1.0"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cat.Exists(ctx, MustParse("v4.2"))
	require.NoError(t, err)
	assert.False(t, ok)
}
