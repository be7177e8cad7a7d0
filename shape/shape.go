// Package shape implements ShapeRules: the pure decision engine that
// maps a directory's files and subdirectories to a ShapePlan. Nothing
// in this package imports the build package — EagerBuilder and
// LazyBuilder both call Plan and must see byte-identical decisions,
// which is the only way eager and lazy trees stay behaviorally
// identical: the decision engine is a pure function of its inputs.
package shape

import (
	"sort"
	"strings"

	"github.com/aledsdavies/apitree/apierrs"
	"github.com/aledsdavies/apitree/record"
)

// Tag is the per-file decision enum.
type Tag int

const (
	RootContribute Tag = iota
	MergeIntoFolder
	UseAsFolderCallable
	FlattenDefaultObject
	FlattenNamedOnly
	PreserveAsNamespace
	UseFilenameAsKey
	PromoteSingleNamedExport
)

func (t Tag) String() string {
	switch t {
	case RootContribute:
		return "ROOT_CONTRIBUTE"
	case MergeIntoFolder:
		return "MERGE_INTO_FOLDER"
	case UseAsFolderCallable:
		return "USE_AS_FOLDER_CALLABLE"
	case FlattenDefaultObject:
		return "FLATTEN_DEFAULT_OBJECT"
	case FlattenNamedOnly:
		return "FLATTEN_NAMED_ONLY"
	case PreserveAsNamespace:
		return "PRESERVE_AS_NAMESPACE"
	case UseFilenameAsKey:
		return "USE_FILENAME_AS_KEY"
	case PromoteSingleNamedExport:
		return "PROMOTE_SINGLE_NAMED_EXPORT"
	default:
		return "UNKNOWN"
	}
}

// SubdirTag is the per-subdirectory decision enum.
type SubdirTag int

const (
	RecurseAsNamespace SubdirTag = iota
	RecurseAsLazy
	AdoptFolderNameFromChild
)

// Mode selects which SubdirTag a subdirectory gets: namespace (eager,
// materialize immediately) or lazy (defer behind a proxy).
type Mode int

const (
	Eager Mode = iota
	Lazy
)

// FileDecision is one file's plan entry, including the resolved key it
// should be attached under (empty when the tag flattens the file's
// exports directly with no single key, e.g. FlattenNamedOnly).
type FileDecision struct {
	File record.ModuleRecord
	Tag  Tag
	// Key is the key this file's node/value is attached under in its
	// containing scope. For UseFilenameAsKey this preserves the
	// function's own name rather than the sanitized apiKey (rule 12
	// below); for tags that flatten named exports, Key is unused.
	Key string
}

// SubdirDecision is one subdirectory's plan entry.
type SubdirDecision struct {
	Dir record.DirectoryRecord
	Tag SubdirTag
}

// ShapePlan is the full per-directory decision record produced by Plan.
type ShapePlan struct {
	PerFile   []FileDecision
	PerSubdir []SubdirDecision
}

// FunctionNamer lets a caller recover a Go func value's own name (e.g.
// via runtime.FuncForPC) for rule 12. Builders supply this; shape
// itself has no reflection dependency on Go function internals beyond
// what record.ModuleRecord already normalized, keeping Plan a pure
// function of its inputs.
type FunctionNamer func(fn any) (name string, ok bool)

// genericFilenames are filenames treated as anonymous containers by
// rule 11 — their single export promotes to the parent regardless of
// the folder's own name.
var genericFilenames = map[string]bool{
	"index": true,
	"main":  true,
}

// Plan implements the priority-ordered rule set for one directory. allowOverwrite controls the tie-break behavior: when two
// files would promote a named export under the same key, allowOverwrite
// false reports ApiShapeConflict; true lets the later (lexicographic)
// write win.
func Plan(dir record.DirectoryRecord, mode Mode, allowOverwrite bool, namer FunctionNamer) (ShapePlan, error) {
	files := make([]record.ModuleRecord, len(dir.Files))
	copy(files, dir.Files)
	sort.Slice(files, func(i, j int) bool { return files[i].FileStem < files[j].FileStem })

	plan := ShapePlan{}
	seenKeys := make(map[string]string) // promoted key -> source file stem, for conflict detection

	for _, f := range files {
		tag, key := decideFile(f, dir, namer)

		for _, k := range contributedKeys(tag, f, key) {
			if owner, exists := seenKeys[k]; exists && !allowOverwrite {
				return ShapePlan{}, apierrs.New(apierrs.ApiShapeConflict, dir.Path,
					"both "+owner+" and "+f.FileStem+" promote the key \""+k+"\"; set allowApiOverwrite to permit it")
			}
			seenKeys[k] = f.FileStem
		}

		plan.PerFile = append(plan.PerFile, FileDecision{File: f, Tag: tag, Key: key})
	}

	for _, sub := range dir.SubDirs {
		st := RecurseAsNamespace
		if mode == Lazy {
			st = RecurseAsLazy
		}
		plan.PerSubdir = append(plan.PerSubdir, SubdirDecision{Dir: sub, Tag: st})
	}

	return plan, nil
}

// contributedKeys returns the set of keys a file decision actually
// writes into its target scope, for collision detection. Tags that
// flatten a whole named-export set contribute one key per export; tags
// that attach a single resolved value contribute that one key.
// RootContribute's default does not contribute a keyed child (it may
// become the root's own callable identity instead, which is not a
// naming collision), so only its named exports are checked.
func contributedKeys(t Tag, f record.ModuleRecord, key string) []string {
	switch t {
	case FlattenNamedOnly, RootContribute, MergeIntoFolder:
		keys := make([]string, 0, len(f.Named))
		for name := range f.Named {
			keys = append(keys, name)
		}
		return keys
	default:
		if key == "" {
			return nil
		}
		return []string{key}
	}
}

func decideFile(f record.ModuleRecord, dir record.DirectoryRecord, namer FunctionNamer) (Tag, string) {
	// --- Universal rules (1-4), checked at every depth ---

	// Rule 1: self-referential default never collapses.
	if f.HasDefault && f.IsSelfReferentialDefault {
		return PreserveAsNamespace, f.ApiKey
	}

	// Rule 2: multi-default folder, this file carries the (non-self)
	// default — becomes a namespace whose callable identity is the
	// default, named exports attach as its properties.
	if dir.HasMultipleCallableDefaults && f.HasDefault && !f.IsSelfReferentialDefault {
		return PreserveAsNamespace, f.ApiKey
	}

	// Rule 3: multi-default folder, this file is named-only — every
	// named export promotes into the directory's own scope.
	if dir.HasMultipleCallableDefaults && f.NamedOnly {
		return FlattenNamedOnly, ""
	}

	// Rule 4: exactly one named export, matching this file's own
	// apiKey — promote directly, avoiding the "x.x" shape.
	if len(f.Named) == 1 && !f.HasDefault {
		for name := range f.Named {
			if name == f.ApiKey {
				return PromoteSingleNamedExport, f.ApiKey
			}
		}
	}

	// --- Depth-specific rules ---
	if dir.Depth == 0 {
		// Rule 6: file's apiKey matches the root folder's own name and
		// it is named-only -> merge into the root.
		if f.ApiKey == dir.ApiKey && f.NamedOnly {
			return MergeIntoFolder, ""
		}
		// Rule 7: any root file with a default contributes at root
		// scope (first one becomes the root callable; the builder
		// enforces "first" ordering using the same lexicographic walk
		// Plan already sorted by).
		if f.HasDefault {
			return RootContribute, ""
		}
	} else {
		lowerStem := strings.ToLower(f.FileStem)
		lowerFolder := strings.ToLower(dir.FolderName)

		// Rule 8: folder-named file with a function default becomes
		// the folder's own callable identity.
		if f.FileStem == dir.FolderName && f.DefaultKind == record.KindFunction {
			return UseAsFolderCallable, f.ApiKey
		}
		// Rule 9: folder-named file with an object default flattens
		// that object's own properties into the folder.
		if f.FileStem == dir.FolderName && f.DefaultKind == record.KindObject {
			return FlattenDefaultObject, f.ApiKey
		}
		// Rule 10: folder-named, named-only file flattens into the
		// folder.
		if f.FileStem == dir.FolderName && f.NamedOnly {
			return FlattenNamedOnly, ""
		}
		// Rule 11: generic filename with a single export promotes to
		// the parent.
		if genericFilenames[lowerStem] && singleExportCount(f) == 1 {
			return PromoteSingleNamedExport, f.ApiKey
		}
		// Rule 12: function default whose own name matches the file
		// stem (case-insensitively) but differs from the sanitized
		// apiKey — keep the function's own casing.
		if f.DefaultKind == record.KindFunction && namer != nil {
			if fnName, ok := namer(f.Default); ok && strings.ToLower(fnName) == lowerStem && fnName != f.ApiKey {
				return UseFilenameAsKey, fnName
			}
		}
	}

	// Rule 5: fallback.
	return PreserveAsNamespace, f.ApiKey
}

func singleExportCount(f record.ModuleRecord) int {
	count := len(f.Named)
	if f.HasDefault {
		count++
	}
	return count
}

// Flatten implements rule 13, the post-assembly upward-flattening pass:
// if node's assembled children collapse to exactly one child whose key
// equals folderName, node is replaced by that child. Applied bottom-up
// by both builders after a subdirectory node is fully assembled (or,
// in lazy mode, deferred until the proxy materializes — see the
// resolve closure built by build's newSubdirProxy).
func Flatten(node *record.ApiNode, folderName string) *record.ApiNode {
	if node == nil || node.Callable != nil || len(node.Children) != 1 {
		return node
	}
	only, ok := node.Children[folderName]
	if !ok {
		return node
	}
	return only
}
