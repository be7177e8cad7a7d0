package build

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aledsdavies/apitree/apierrs"
	"github.com/aledsdavies/apitree/record"
)

// Loader is the narrow collaborator a caller provides to turn one
// discovered file into a record.LoadedModule. Go has no runtime
// equivalent of a dynamic `import()`, so unlike a JS/TS module system,
// FSSource cannot read a file's exports off disk by itself — a caller
// registers a Loader (typically a generated or hand-written switch
// over file path) that supplies the already-decoded default/named
// values. This is exactly the ModuleLoader boundary this package
// carves out as an external collaborator; FSSource only owns the
// directory-walking half of Source.
type Loader func(path string) (record.LoadedModule, error)

// FSSource is the default filesystem-backed Source: it walks a real
// directory tree with os.ReadDir for structure (List) and delegates
// content loading to a caller-supplied Loader (Load). Extensions lists
// the file suffixes treated as modules (others, e.g. README.md, are
// ignored); a nil or empty Extensions treats every regular file as a
// candidate module.
type FSSource struct {
	Extensions []string
	load       Loader
}

// NewFSSource returns a Source rooted at the real filesystem, using
// load to resolve each discovered file's exports.
func NewFSSource(load Loader, extensions ...string) *FSSource {
	return &FSSource{Extensions: extensions, load: load}
}

func (s *FSSource) List(path string) ([]FileEntry, []DirEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, nil, apierrs.Wrap(apierrs.LoaderError, path, "reading directory", err)
	}

	var files []FileEntry
	var dirs []DirEntry
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		full := filepath.Join(path, name)
		if e.IsDir() {
			dirs = append(dirs, DirEntry{Name: name, Path: full})
			continue
		}
		if !s.matches(name) {
			continue
		}
		files = append(files, FileEntry{Stem: stem(name), Path: full})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Stem < files[j].Stem })
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name < dirs[j].Name })
	return files, dirs, nil
}

func (s *FSSource) Load(path string) (record.LoadedModule, error) {
	if s.load == nil {
		return record.LoadedModule{}, apierrs.New(apierrs.LoaderError, path, "no Loader configured for FSSource")
	}
	return s.load(path)
}

func (s *FSSource) matches(name string) bool {
	if len(s.Extensions) == 0 {
		return true
	}
	for _, ext := range s.Extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func stem(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext)
}
