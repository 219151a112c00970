package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/internal/errors"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, BackendLocal, cfg.Storage.Type)
	assert.Equal(t, "data", cfg.Storage.Root)
	assert.Equal(t, "raw", cfg.Storage.DataPrefix)
	assert.Equal(t, "indexes", cfg.Storage.IndexPrefix)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.InitialDelay)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_ProjectFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
storage:
  type: hybrid
  root: /var/lib/docvault
  remote:
    endpoint: minio.internal:9000
    bucket: doc-snapshots
    prefix: prod
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, BackendHybrid, cfg.Storage.Type)
	assert.Equal(t, "/var/lib/docvault", cfg.Storage.Root)
	assert.Equal(t, "doc-snapshots", cfg.Storage.Remote.Bucket)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched fields keep their defaults.
	assert.Equal(t, "raw", cfg.Storage.DataPrefix)
}

func TestLoad_YmlSpelling(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".docvault.yml"),
		[]byte("storage:\n  root: elsewhere\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "elsewhere", cfg.Storage.Root)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName),
		[]byte("logging:\n  level: warn\n"), 0o644))

	t.Setenv("DOCVAULT_LOG_LEVEL", "debug")
	t.Setenv("DOCVAULT_STORAGE_ROOT", "/mnt/vault")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/mnt/vault", cfg.Storage.Root)
}

func TestLoad_EnvCredentialsForRemote(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOCVAULT_STORAGE_TYPE", "remote")
	t.Setenv("DOCVAULT_REMOTE_ENDPOINT", "s3.example.com")
	t.Setenv("DOCVAULT_REMOTE_BUCKET", "snapshots")
	t.Setenv("DOCVAULT_ACCESS_KEY", "AKIA")
	t.Setenv("DOCVAULT_SECRET_KEY", "secret")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, BackendRemote, cfg.Storage.Type)
	assert.Equal(t, "AKIA", cfg.Storage.Remote.AccessKey)
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName),
		[]byte("storage: [unclosed"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfigInvalid))
}

func TestValidate_UnknownStorageType(t *testing.T) {
	cfg := NewConfig()
	cfg.Storage.Type = "ftp"

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfigInvalid))
}

func TestValidate_HybridRequiresRemoteSettings(t *testing.T) {
	cfg := NewConfig()
	cfg.Storage.Type = BackendHybrid

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfigInvalid))

	cfg.Storage.Remote.Endpoint = "minio:9000"
	err = cfg.Validate()
	require.Error(t, err, "bucket still missing")

	cfg.Storage.Remote.Bucket = "snapshots"
	require.NoError(t, cfg.Validate())
}

func TestValidate_PrefixesMustDiffer(t *testing.T) {
	cfg := NewConfig()
	cfg.Storage.IndexPrefix = cfg.Storage.DataPrefix

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfigInvalid))
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := NewConfig()
	cfg.Storage.Root = "/tmp/vault"
	cfg.Logging.Level = "debug"

	require.NoError(t, cfg.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/vault", loaded.Storage.Root)
	assert.Equal(t, "debug", loaded.Logging.Level)
}
