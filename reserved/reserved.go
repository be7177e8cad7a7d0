// Package reserved is the single source of truth for API management
// keys that must never be treated as user-loaded tree content. The
// instance package calls Is to reject a dotted path whose first segment
// is one of these keys, so tree navigation never reaches them.
package reserved

// Key names of the management operations an instance.Instance exposes
// as methods rather than tree entries.
const (
	Shutdown = "shutdown"
	AddApi   = "addApi"
	Describe = "describe"
	Run      = "run"
	Scope    = "scope"
	Hooks    = "hooks"
	Ctx      = "__ctx"
	Impl     = "_impl"
)

var all = map[string]bool{
	Shutdown: true,
	AddApi:   true,
	Describe: true,
	Run:      true,
	Scope:    true,
	Hooks:    true,
	Ctx:      true,
	Impl:     true,
}

// Is reports whether key names a reserved management slot.
func Is(key string) bool {
	return all[key]
}

// Filter returns the entries of keys that are not reserved, for callers
// that need to enumerate only user-loaded content.
func Filter(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !Is(k) {
			out = append(out, k)
		}
	}
	return out
}
