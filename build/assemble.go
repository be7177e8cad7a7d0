package build

import (
	"path/filepath"

	"github.com/aledsdavies/apitree/record"
	"github.com/aledsdavies/apitree/sanitize"
	"github.com/aledsdavies/apitree/shape"
)

// Options carries the subset of Config both builders need. The
// instance package is responsible for translating the full Config into
// this narrower shape so build stays ignorant of instance-level
// concerns (hooks, context, lifecycle).
type Options struct {
	ApiDepth       int // 0 means unlimited; see Config.ApiDepth's ℕ ∪ {∞} domain
	Sanitize       sanitize.Rules
	AllowOverwrite bool
	FuncNamer      shape.FunctionNamer
}

func (o Options) depthAllowed(depth int) bool {
	return o.ApiDepth <= 0 || depth < o.ApiDepth
}

// rootFolderName is the final segment of root, the folder name rule 6
// compares root-level file keys against; "" for an empty root.
func rootFolderName(root string) string {
	if root == "" {
		return ""
	}
	return filepath.Base(root)
}

// assembleFiles applies the per-file decisions of plan onto container,
// implementing the attach semantics for all eight Tag values
// uniformly for both builders.
func assembleFiles(container *record.ApiNode, plan shape.ShapePlan) {
	for _, fd := range plan.PerFile {
		switch fd.Tag {
		case shape.PreserveAsNamespace, shape.UseFilenameAsKey:
			container.Set(fd.Key, buildFileNamespace(fd.File))

		case shape.UseAsFolderCallable:
			container.Callable = fd.File.Default
			mergeNamed(container, fd.File.Named)

		case shape.FlattenDefaultObject:
			mergeObjectProps(container, fd.File.Default)
			mergeNamed(container, fd.File.Named)

		case shape.FlattenNamedOnly, shape.MergeIntoFolder:
			mergeNamed(container, fd.File.Named)

		case shape.RootContribute:
			if container.Callable == nil && fd.File.HasDefault {
				container.Callable = fd.File.Default
			}
			mergeNamed(container, fd.File.Named)

		case shape.PromoteSingleNamedExport:
			container.Set(fd.Key, &record.ApiNode{Leaf: singleExportValue(fd.File)})
		}
	}
}

func singleExportValue(f record.ModuleRecord) any {
	if f.HasDefault {
		return f.Default
	}
	for _, v := range f.Named {
		return v
	}
	return nil
}

// buildFileNamespace builds the namespace node for one file under
// PRESERVE_AS_NAMESPACE / USE_FILENAME_AS_KEY: an object default
// contributes its own properties (no separate callable identity, since
// an object is never directly invocable); a function or primitive
// default becomes the node's own Callable identity; named exports
// always layer on top, matching rule 9's "named exports layer on top"
// generalized to the namespace case.
//
// Resolves the open question on primitive defaults conservatively:
// Callable is set for primitive defaults too (nothing is discarded),
// but record.IsCallable gates whether the instance layer will actually
// let a caller invoke the node — a primitive default simply never
// satisfies that check, so `api.foo()` on a primitive default fails
// the same way calling a non-function would anywhere else in Go.
func buildFileNamespace(f record.ModuleRecord) *record.ApiNode {
	node := record.NewContainer()
	if f.HasDefault {
		if f.DefaultKind == record.KindObject {
			mergeObjectProps(node, f.Default)
		} else {
			node.Callable = f.Default
		}
	}
	mergeNamed(node, f.Named)
	return node
}

func mergeNamed(node *record.ApiNode, named map[string]any) {
	for key, val := range named {
		node.Set(key, &record.ApiNode{Leaf: val})
	}
}

func mergeObjectProps(node *record.ApiNode, obj any) {
	for key, val := range record.AsProperties(obj) {
		node.Set(key, &record.ApiNode{Leaf: val})
	}
}

// subDirRecord builds the lightweight DirectoryRecord stand-in Plan
// needs for a subdirectory: Plan only ever reads Path/FolderName/ApiKey/
// Depth off dir.SubDirs, never their Files, so a full recursive analysis
// of the child isn't needed just to decide the parent's ShapePlan.
func subDirRecord(entry DirEntry, depth int, rules sanitize.Rules) record.DirectoryRecord {
	return record.DirectoryRecord{
		Path:       entry.Path,
		FolderName: entry.Name,
		ApiKey:     sanitize.Sanitize(entry.Name, rules),
		Depth:      depth,
	}
}
