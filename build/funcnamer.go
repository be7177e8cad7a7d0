package build

import (
	"path"
	"reflect"
	"runtime"
	"strings"
)

// FuncName implements shape.FunctionNamer for real Go func values using
// runtime.FuncForPC, the same reflection-through-the-runtime pattern a
// logging middleware uses to recover a caller's own name rather than
// trusting a string the caller passes in. Only reflect.Func values
// resolve; a Caller-interface leaf (no underlying Go func) reports
// ok=false, since rule 12 only ever fires for literal function
// defaults.
func FuncName(fn any) (string, bool) {
	if fn == nil {
		return "", false
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return "", false
	}
	full := runtime.FuncForPC(v.Pointer()).Name()
	if full == "" {
		return "", false
	}
	// full looks like "github.com/aledsdavies/apitree/examplemod.Volume"
	// or "...examplemod.glob..func1" for a closure; take the last
	// dotted segment after stripping the package path.
	short := path.Base(full)
	if idx := strings.LastIndex(short, "."); idx >= 0 {
		short = short[idx+1:]
	}
	if short == "" || strings.Contains(short, "func") {
		return "", false
	}
	return short, true
}
