package build

import (
	"github.com/aledsdavies/apitree/record"
	"github.com/aledsdavies/apitree/sanitize"
	"github.com/aledsdavies/apitree/shape"
)

// LazyBuild walks src from root and returns an ApiNode tree whose
// subdirectories are LazyProxy-backed placeholders: only root's own
// files are loaded eagerly. Every subdirectory defers loading until
// Resolve is called against it.
func LazyBuild(src Source, root string, opts Options) (*record.ApiNode, error) {
	return buildDirLazy(src, root, rootFolderName(root), 0, opts)
}

func buildDirLazy(src Source, path, folderName string, depth int, opts Options) (*record.ApiNode, error) {
	dirRec, dirEntries, err := analyzeDir(src, path, folderName, depth, opts)
	if err != nil {
		return nil, err
	}

	plan, err := shape.Plan(dirRec, shape.Lazy, opts.AllowOverwrite, opts.FuncNamer)
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
		container.Set(childKey, &record.ApiNode{Proxy: newSubdirProxy(src, de, depth+1, opts, childKey)})
	}

	return container, nil
}

// newSubdirProxy builds the LazyProxy for one subdirectory: OwnKeys is
// the cheap scan (List only, no file loads, no ShapePlan); the resolve
// closure does the real recursive build plus the same upward-flatten
// pass (rule 13) EagerBuild applies inline, so a materialized lazy
// subtree is indistinguishable from its eager counterpart.
func newSubdirProxy(src Source, de DirEntry, depth int, opts Options, childKey string) *record.LazyProxy {
	keys := func() []string { return cheapKeys(src, de.Path, opts) }
	resolve := func() (*record.ApiNode, error) {
		child, err := buildDirLazy(src, de.Path, de.Name, depth, opts)
		if err != nil {
			return nil, err
		}
		return shape.Flatten(child, childKey), nil
	}
	return record.NewLazyProxy(keys, resolve)
}

// cheapKeys lists a directory's immediate files and subdirectories
// without loading any of them, for LazyProxy.OwnKeys. This is a
// best-effort approximation of the eventual materialized key set —
// sanitized file/folder names rather than the post-ShapePlan promoted
// keys (e.g. rule 4/11's single-export promotion, or rule 12's
// function-name override) — since computing the exact post-plan shape
// would require the same loads OwnKeys exists to avoid.
func cheapKeys(src Source, path string, opts Options) []string {
	files, dirs, err := src.List(path)
	if err != nil {
		return nil
	}
	keys := make([]string, 0, len(files)+len(dirs))
	for _, f := range files {
		keys = append(keys, sanitize.Sanitize(f.Stem, opts.Sanitize))
	}
	for _, d := range dirs {
		keys = append(keys, sanitize.Sanitize(d.Name, opts.Sanitize))
	}
	return keys
}

// Resolve materializes the child of parent at key if it is still a
// LazyProxy, swapping the result into parent's Children in place so
// the identity seen by future Get calls is the materialized node —
// replacing placeholders with real values in place. On failure, parent
// is left with a fresh, unexhausted proxy (see
// record.LazyProxy.Retry) so a subsequent Resolve call re-attempts
// rather than replaying a cached error forever.
func Resolve(parent *record.ApiNode, key string) (*record.ApiNode, error) {
	child := parent.Get(key)
	if child == nil || child.Proxy == nil {
		return child, nil
	}

	result, err := child.Proxy.Materialize()
	if err != nil {
		parent.Set(key, &record.ApiNode{Proxy: child.Proxy.Retry()})
		return nil, err
	}

	parent.Set(key, result)
	return result, nil
}
