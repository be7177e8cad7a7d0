// Package record implements ModuleAnalyzer: given a loaded module it
// classifies its exports into the normalized ModuleRecord consumed by
// the shape and build packages, and defines the DirectoryRecord and
// ApiNode data model shared across the rest of apitree.
package record

import (
	"fmt"
	"reflect"
)

// DefaultKind classifies a module's default export.
type DefaultKind int

const (
	// KindNone means the module has no default export.
	KindNone DefaultKind = iota
	// KindFunction means the default export is callable.
	KindFunction
	// KindObject means the default export is a struct, map, slice,
	// pointer or interface value (treated as namespace-shaped).
	KindObject
	// KindPrimitive means the default export is a scalar value.
	KindPrimitive
)

func (k DefaultKind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindObject:
		return "object"
	case KindPrimitive:
		return "primitive"
	default:
		return "none"
	}
}

// LoadedModule is what a ModuleLoader hands back for one file: the
// default export (if any) and the named exports map. This is the
// normalized shape every host module system is adapted down to before
// it reaches ModuleAnalyzer.
type LoadedModule struct {
	HasDefault bool
	Default    any
	Named      map[string]any
}

// ModuleLoader is the external collaborator named in the purpose and
// scope of this system: disk I/O and the host module system live
// outside this package. Anything satisfying this interface — a real
// filesystem loader, a plugin-based loader, or an in-memory test
// double — can drive Analyze and, transitively, the builders.
type ModuleLoader interface {
	Load(path string) (LoadedModule, error)
}

// CallableDefault lets a user module opt a non-function default export
// into callable treatment under the multi-callable-default protocol. A
// module returns CallableDefault{Value: x} instead of x to request
// this.
type CallableDefault struct {
	Value any
}

// ModuleRecord is the normalized, analyzed view of one source file.
type ModuleRecord struct {
	FilePath                 string
	FileStem                 string
	ApiKey                   string
	HasDefault                bool
	Default                  any
	DefaultKind              DefaultKind
	Named                    map[string]any
	NamedOnly                bool
	IsSelfReferentialDefault bool
	MarkedAsCallableDefault  bool
}

// IsCallable reports whether v is directly invocable the way a user
// function export is: a Go func value, or a value implementing Call.
func IsCallable(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(Caller); ok {
		return true
	}
	return reflect.ValueOf(v).Kind() == reflect.Func
}

// Caller lets non-func Go values (closures over state, generated
// adapters) present themselves as callable leaves to the builders and
// hook pipeline without being literal func values.
type Caller interface {
	Call(args []any) (any, error)
}

// Analyze classifies one file's exports into a ModuleRecord. It never
// invokes the default export; classification is purely by reflected
// shape and by the self-referential-default identity check.
func Analyze(loader ModuleLoader, filePath, fileStem, apiKey string) (ModuleRecord, error) {
	loaded, err := loader.Load(filePath)
	if err != nil {
		return ModuleRecord{}, fmt.Errorf("loading %s: %w", filePath, err)
	}

	rec := ModuleRecord{
		FilePath:   filePath,
		FileStem:   fileStem,
		ApiKey:     apiKey,
		HasDefault: loaded.HasDefault,
		Named:      loaded.Named,
	}

	def := loaded.Default
	if cd, ok := def.(CallableDefault); ok {
		rec.MarkedAsCallableDefault = true
		def = cd.Value
	}
	rec.Default = def

	if rec.HasDefault {
		rec.DefaultKind = classify(def)
	} else {
		rec.DefaultKind = KindNone
	}

	rec.NamedOnly = !rec.HasDefault && len(rec.Named) > 0

	if rec.HasDefault {
		rec.IsSelfReferentialDefault = isSelfReferential(def, rec.Named)
	}

	return rec, nil
}

func classify(v any) DefaultKind {
	if v == nil {
		return KindPrimitive
	}
	if IsCallable(v) {
		return KindFunction
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Struct, reflect.Ptr, reflect.Slice, reflect.Interface:
		return KindObject
	default:
		return KindPrimitive
	}
}

// isSelfReferential reports whether the default export is identical to
// one of the named exports — the "export default X; export const y = X"
// pattern that must never recursively collapse (rule 1 in ShapeRules).
func isSelfReferential(def any, named map[string]any) bool {
	for _, v := range named {
		if identical(def, v) {
			return true
		}
	}
	return false
}

func identical(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if av.Kind() != bv.Kind() {
		return false
	}
	switch av.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return av.Pointer() == bv.Pointer()
	default:
		if av.Type().Comparable() {
			return a == b
		}
		return false
	}
}
