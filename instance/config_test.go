package instance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "api", cfg.Dir)
	assert.Equal(t, Eager, cfg.Mode)
	assert.True(t, cfg.AllowApiOverwrite)
	assert.True(t, cfg.Hooks.Enabled)
	assert.Equal(t, "**", cfg.Hooks.Pattern)
	assert.True(t, cfg.Scope.Enabled)
	assert.Equal(t, MergeShallow, cfg.Scope.Merge)
}

func TestNewConfig_OptionsApply(t *testing.T) {
	cfg, err := NewConfig(WithDir("modules"), WithLazy(), WithApiDepth(2))
	require.NoError(t, err)
	assert.Equal(t, "modules", cfg.Dir)
	assert.Equal(t, Lazy, cfg.Mode)
	assert.Equal(t, 2, cfg.ApiDepth)
}

func TestValidate_RejectsEmptyDir(t *testing.T) {
	_, err := NewConfig(WithDir(""))
	require.Error(t, err)
}

func TestValidate_RejectsNegativeApiDepth(t *testing.T) {
	_, err := NewConfig(WithApiDepth(-1))
	require.Error(t, err)
}

func TestValidate_AcceptsValidEnumValues(t *testing.T) {
	_, err := NewConfig(WithMode(Lazy), WithRuntime(0), WithApiShape(ShapeFunction))
	require.NoError(t, err)
}

func TestFromYAML_ReadsFullDeclarativeShape(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	doc := `
dir: modules
mode: lazy
apiDepth: 2
runtime: live
apiShape: object
allowApiOverwrite: false
context:
  timeout: 5000
reference:
  apiVersion: v2
hooks:
  enabled: true
  pattern: "math.*"
  suppressErrors: true
scope:
  enabled: true
  merge: deep
`
	require.NoError(t, os.WriteFile(p, []byte(doc), 0o644))

	cfg, err := FromYAML(p)
	require.NoError(t, err)
	assert.Equal(t, "modules", cfg.Dir)
	assert.Equal(t, Lazy, cfg.Mode)
	assert.Equal(t, 2, cfg.ApiDepth)
	assert.False(t, cfg.AllowApiOverwrite)
	assert.Equal(t, ShapeObject, cfg.ApiShape)
	assert.Equal(t, 5000, cfg.Context["timeout"])
	assert.Equal(t, "v2", cfg.Reference["apiVersion"])
	assert.True(t, cfg.Hooks.SuppressErrors)
	assert.Equal(t, "math.*", cfg.Hooks.Pattern)
	assert.Equal(t, MergeDeep, cfg.Scope.Merge)
}

func TestFromYAML_MissingFileErrors(t *testing.T) {
	_, err := FromYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestWithConfig_SeedsBuilderForLaterOptionsToOverride(t *testing.T) {
	seed, err := FromYAML(writeTempYAML(t, "dir: fromfile\nmode: lazy\n"))
	require.NoError(t, err)

	cfg, err := NewConfig(WithConfig(seed), WithDir("fromflag"))
	require.NoError(t, err)
	assert.Equal(t, "fromflag", cfg.Dir)
	assert.Equal(t, Lazy, cfg.Mode)
}

func writeTempYAML(t *testing.T, doc string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(doc), 0o644))
	return p
}
