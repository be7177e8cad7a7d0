package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/apitree/record"
)

func TestFSSource_List(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "math.yaml"), []byte("default: {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.yaml"), []byte("ignored"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	src := NewFSSource(func(string) (record.LoadedModule, error) { return record.LoadedModule{}, nil }, ".yaml")

	files, dirs, err := src.List(dir)
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Equal(t, "math", files[0].Stem)

	require.Len(t, dirs, 1)
	assert.Equal(t, "sub", dirs[0].Name)
}

func TestFSSource_Load_NoLoaderConfigured(t *testing.T) {
	src := &FSSource{}
	_, err := src.Load("anything")
	require.Error(t, err)
}

func TestFSSource_Load_Delegates(t *testing.T) {
	want := record.LoadedModule{HasDefault: true, Default: 1}
	src := NewFSSource(func(p string) (record.LoadedModule, error) { return want, nil })

	got, err := src.Load("anything")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
