package record

import "reflect"

// ObjectExport lets a user module's default export control exactly how
// its own fields are exposed when FLATTEN_DEFAULT_OBJECT or the
// namespace fallback merges it (rule 9 below — the "proxies that users
// ship" case). A value implementing this is read through unchanged —
// Properties must never be asked to accept writes, since the merge
// target is always a freshly-allocated ApiNode, not the user's value.
type ObjectExport interface {
	Properties() map[string]any
}

// AsProperties extracts a property bag from a module's object default
// export: ObjectExport wins if implemented, then a literal
// map[string]any, then exported struct fields by reflection (a pointer
// is dereferenced first). Anything else yields an empty map rather than
// an error — an object-shaped default with no readable fields simply
// contributes no properties.
func AsProperties(v any) map[string]any {
	if v == nil {
		return nil
	}
	if oe, ok := v.(ObjectExport); ok {
		return oe.Properties()
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	out := make(map[string]any, rv.NumField())
	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if field.PkgPath != "" { // unexported
			continue
		}
		out[field.Name] = rv.Field(i).Interface()
	}
	return out
}
