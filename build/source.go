// Package build implements EagerBuilder and LazyBuilder: both walk a
// directory tree, ask shape.Plan what each entry means, and assemble an
// ApiNode tree. They differ only in when files get imported — never in
// what the plan says.
package build

import "github.com/aledsdavies/apitree/record"

// DirEntry is one subdirectory discovered under a path.
type DirEntry struct {
	Name string
	Path string
}

// FileEntry is one source file discovered under a path, already split
// into stem (no extension) and full path.
type FileEntry struct {
	Stem string
	Path string
}

// Source is the combined external collaborator this package carves
// out of scope: disk I/O and the host module system itself. Anything
// that can list a directory's immediate files/subdirectories and load
// one file by path can drive both builders; the real filesystem-backed
// implementation and the in-memory apitreetest.MapSource both satisfy
// this by composition (List + record.ModuleLoader).
type Source interface {
	record.ModuleLoader
	List(path string) (files []FileEntry, dirs []DirEntry, err error)
}
