// Package apitreetest provides an in-memory build.Source double so
// tests can exercise ModuleAnalyzer, ShapeRules, and both builders
// without touching a real filesystem — the same role a hand-rolled
// fixture harness plays for an interpreter's test suite, just scoped
// to this module's single collaborator interface instead of a whole
// harness package.
package apitreetest

import (
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/aledsdavies/apitree/apierrs"
	"github.com/aledsdavies/apitree/build"
	"github.com/aledsdavies/apitree/record"
)

// MapSource is a Source backed entirely by an in-memory map from slash-
// separated path to record.LoadedModule. Directories are inferred from
// path prefixes, so there is no need to separately register folders.
type MapSource struct {
	mu      sync.RWMutex
	modules map[string]record.LoadedModule
}

// NewMapSource returns an empty MapSource ready for Add calls.
func NewMapSource() *MapSource {
	return &MapSource{modules: make(map[string]record.LoadedModule)}
}

// Add registers one file at slashPath (e.g. "math/math.mjs") with the
// given loaded exports. The extension is kept in the registered path
// (matching a real file's path) but stripped for the purposes of
// FileEntry.Stem, mirroring how build.FSSource derives a stem.
func (m *MapSource) Add(slashPath string, mod record.LoadedModule) *MapSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modules[slashPath] = mod
	return m
}

// Default is a convenience constructor for a simple {hasDefault:true,
// default} module with no named exports.
func Default(v any) record.LoadedModule {
	return record.LoadedModule{HasDefault: true, Default: v}
}

// Named is a convenience constructor for a named-only module.
func Named(named map[string]any) record.LoadedModule {
	return record.LoadedModule{Named: named}
}

// Mixed is a convenience constructor for a default-plus-named module.
func Mixed(def any, named map[string]any) record.LoadedModule {
	return record.LoadedModule{HasDefault: true, Default: def, Named: named}
}

func (m *MapSource) Load(p string) (record.LoadedModule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mod, ok := m.modules[p]
	if !ok {
		return record.LoadedModule{}, apierrs.New(apierrs.LoaderError, p, "no module registered at this path")
	}
	return mod, nil
}

func (m *MapSource) List(dir string) ([]build.FileEntry, []build.DirEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dir = strings.TrimSuffix(dir, "/")
	fileSet := map[string]bool{}
	dirSet := map[string]bool{}

	for p := range m.modules {
		rel, ok := relativeChild(dir, p)
		if !ok {
			continue
		}
		if idx := strings.IndexByte(rel, '/'); idx >= 0 {
			dirSet[rel[:idx]] = true
		} else {
			fileSet[rel] = true
		}
	}

	var files []build.FileEntry
	for name := range fileSet {
		files = append(files, build.FileEntry{Stem: stemOf(name), Path: path.Join(dir, name)})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Stem < files[j].Stem })

	var dirs []build.DirEntry
	for name := range dirSet {
		dirs = append(dirs, build.DirEntry{Name: name, Path: path.Join(dir, name)})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name < dirs[j].Name })

	return files, dirs, nil
}

// relativeChild reports whether p lies under dir and returns the
// remainder path relative to dir (with no leading slash).
func relativeChild(dir, p string) (string, bool) {
	if dir == "" {
		return p, !strings.HasPrefix(p, "/")
	}
	prefix := dir + "/"
	if !strings.HasPrefix(p, prefix) {
		return "", false
	}
	return strings.TrimPrefix(p, prefix), true
}

func stemOf(name string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext)
}
