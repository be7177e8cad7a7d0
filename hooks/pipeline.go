package hooks

import (
	"time"

	"github.com/aledsdavies/apitree/leaf"
)

// Pipeline wraps body — the normalized leaf for the function at path —
// with the before/after/always/error chain. contextFn is called once
// per invocation to read the context map active for that call, since
// the context runtime (not hooks) owns what "current context" means
// for the chosen backend.
func (m *Manager) Pipeline(path string, body leaf.Func, contextFn func() map[string]any) leaf.Func {
	return func(args []any) (result any, err error) {
		ctxMap := contextFn()

		nextArgs, scValue, shortCircuited, beforeErr := m.runBefore(path, args, ctxMap)
		switch {
		case beforeErr != nil:
			result, err = m.runError(path, "before", ctxMap, beforeErr, nil)
		case shortCircuited:
			result = scValue
		default:
			result, err = body(nextArgs)
			if err != nil {
				result, err = m.runError(path, "function", ctxMap, err, result)
			} else {
				var afterErr error
				result, afterErr = m.runAfter(path, result, ctxMap)
				if afterErr != nil {
					result, err = m.runError(path, "after", ctxMap, afterErr, result)
				}
			}
		}

		m.runAlways(path, result, ctxMap)
		return result, err
	}
}

// runBefore executes the before chain, returning either the (possibly
// rewritten) args to call body with, or a short-circuit value that
// skips body entirely. It never calls body itself, so a body error is
// always tagged "function" by Pipeline rather than "before".
func (m *Manager) runBefore(path string, args []any, ctxMap map[string]any) (nextArgs []any, shortCircuitValue any, shortCircuited bool, err error) {
	before := m.snapshot(Before, path)
	currentArgs := args

	for _, e := range before {
		res, err := e.before(BeforeEvent{Path: path, Args: currentArgs, Context: ctxMap})
		if err != nil {
			return nil, nil, false, err
		}
		if res.ShortCircuit {
			return nil, res.Value, true, nil
		}
		if res.Args != nil {
			currentArgs = res.Args
		}
	}

	return currentArgs, nil, false, nil
}

func (m *Manager) runAfter(path string, result any, ctxMap map[string]any) (any, error) {
	after := m.snapshot(After, path)
	current := result
	for _, e := range after {
		res, err := e.after(AfterEvent{Path: path, Result: current, Context: ctxMap})
		if err != nil {
			return current, err
		}
		if res.Changed {
			current = res.Result
		}
	}
	return current, nil
}

func (m *Manager) runAlways(path string, result any, ctxMap map[string]any) {
	for _, e := range m.snapshot(Always, path) {
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.dispatchErrorRecovered(path, "always", ctxMap, r)
				}
			}()
			e.always(AlwaysEvent{Path: path, Result: result, Context: ctxMap})
		}()
	}
}

// runError delivers err to every matching error hook, then returns the
// result the caller should propagate: the original error unless the
// manager was configured to suppress it, in which case the call returns (fallback, nil) per the manager's
// suppressErrors semantics.
func (m *Manager) runError(path, stage string, ctxMap map[string]any, err error, fallback any) (any, error) {
	src := ErrorSource{Stage: stage, Timestamp: stamp()}
	for _, e := range m.snapshot(Error, path) {
		src.HookID = e.id
		src.Priority = e.priority
		e.onErr(ErrorEvent{Path: path, Err: err, Source: src, Context: ctxMap})
	}
	if m.suppressByDefault() {
		return fallback, nil
	}
	return fallback, err
}

func (m *Manager) dispatchErrorRecovered(path, stage string, ctxMap map[string]any, r any) {
	err, ok := r.(error)
	if !ok {
		err = panicError{r}
	}
	// An error raised inside an always hook never propagates to the
	// caller — always hooks cannot modify results, and a panic inside
	// one never reaches the original caller — but it is still
	// delivered to error hooks.
	_, _ = m.runError(path, "always", ctxMap, err, nil)
}

type panicError struct{ v any }

func (p panicError) Error() string { return "panic in hook: " + toString(p.v) }

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if e, ok := v.(error); ok {
		return e.Error()
	}
	return "unknown"
}

// stamp returns the current time for ErrorSource.Timestamp. Hook
// dispatch is the only place apitree reads the wall clock, so it is
// isolated here rather than imported ad hoc.
func stamp() time.Time {
	return time.Now()
}
