package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYamlLoader_DefaultAndNamed(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "math.yaml")
	require.NoError(t, os.WriteFile(p, []byte("default: 1\nversion: \"1.0\"\n"), 0o644))

	mod, err := yamlLoader(p)
	require.NoError(t, err)
	assert.True(t, mod.HasDefault)
	assert.Equal(t, 1, mod.Default)
	assert.Equal(t, "1.0", mod.Named["version"])
}

func TestYamlLoader_ScalarDocumentBecomesDefault(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "flag.yaml")
	require.NoError(t, os.WriteFile(p, []byte("true\n"), 0o644))

	mod, err := yamlLoader(p)
	require.NoError(t, err)
	assert.True(t, mod.HasDefault)
	assert.Equal(t, true, mod.Default)
}

func TestYamlLoader_MissingFile(t *testing.T) {
	_, err := yamlLoader("/nonexistent/path.yaml")
	require.Error(t, err)
}
