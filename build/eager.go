package build

import (
	"github.com/aledsdavies/apitree/record"
	"github.com/aledsdavies/apitree/sanitize"
	"github.com/aledsdavies/apitree/shape"
)

// EagerBuild walks src from root and returns a fully materialized
// ApiNode tree: every file is loaded and every subdirectory recursed
// into before EagerBuild returns.
func EagerBuild(src Source, root string, opts Options) (*record.ApiNode, error) {
	return buildDirEager(src, root, rootFolderName(root), 0, opts)
}

func buildDirEager(src Source, path, folderName string, depth int, opts Options) (*record.ApiNode, error) {
	dirRec, dirEntries, err := analyzeDir(src, path, folderName, depth, opts)
	if err != nil {
		return nil, err
	}

	plan, err := shape.Plan(dirRec, shape.Eager, opts.AllowOverwrite, opts.FuncNamer)
	if err != nil {
		return nil, err
	}

	container := record.NewContainer()
	assembleFiles(container, plan)

	for _, de := range dirEntries {
		if !opts.depthAllowed(depth + 1) {
			continue
		}
		childKey := sanitize.Sanitize(de.Name, opts.Sanitize)
		child, err := buildDirEager(src, de.Path, de.Name, depth+1, opts)
		if err != nil {
			return nil, err
		}
		container.Set(childKey, shape.Flatten(child, childKey))
	}

	return container, nil
}

// analyzeDir lists path via src, analyzes every file found, and returns
// the resulting DirectoryRecord alongside the raw subdirectory entries
// (callers decide separately whether/how to recurse into them — eager
// recurses immediately, lazy defers behind a proxy).
func analyzeDir(src Source, path, folderName string, depth int, opts Options) (record.DirectoryRecord, []DirEntry, error) {
	fileEntries, dirEntries, err := src.List(path)
	if err != nil {
		return record.DirectoryRecord{}, nil, err
	}

	files := make([]record.ModuleRecord, 0, len(fileEntries))
	for _, fe := range fileEntries {
		key := sanitize.Sanitize(fe.Stem, opts.Sanitize)
		rec, err := record.Analyze(src, fe.Path, fe.Stem, key)
		if err != nil {
			return record.DirectoryRecord{}, nil, err
		}
		files = append(files, rec)
	}

	apiKey := sanitize.Sanitize(folderName, opts.Sanitize)
	dirRec := record.NewDirectoryRecord(path, folderName, apiKey, depth, files, nil)
	return dirRec, dirEntries, nil
}
