package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/internal/config"
)

func TestInitCmd_WritesTemplate(t *testing.T) {
	dir := t.TempDir()

	output, err := run(t, dir, "init")
	require.NoError(t, err)
	assert.Contains(t, output, ".docvault.yaml")

	data, err := os.ReadFile(filepath.Join(dir, config.ConfigFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "storage:")
	assert.Contains(t, string(data), "data_prefix: raw")

	// The generated template must load cleanly.
	_, err = config.Load(dir)
	require.NoError(t, err)
}

func TestInitCmd_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "init")
	require.NoError(t, err)

	_, err = run(t, dir, "init")
	require.Error(t, err)

	_, err = run(t, dir, "init", "--force")
	require.NoError(t, err)
}
