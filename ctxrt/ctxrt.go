// Package ctxrt implements ContextRuntime: the per-instance, per-call
// context store with two interchangeable back-ends. In Go,
// "async-local" maps naturally onto context.Context threaded explicitly
// down the call chain; "live-binding" maps onto a shared mutable
// pointer the runtime swaps around each call, similar to an immutable
// with-chaining execution context that snapshots environment at
// creation time, but here it must also support in-place overlay/restore
// rather than only forward chaining.
package ctxrt

import (
	"context"
	"sync/atomic"

	"github.com/aledsdavies/apitree/apierrs"
)

// Merge selects the overlay strategy for Run.
type Merge int

const (
	Shallow Merge = iota
	Deep
)

// Snapshot is the self/context/reference triple an instance installs
// once at construction and that Runtime carries across calls.
type Snapshot struct {
	Self      any
	Context   map[string]any
	Reference map[string]any
}

// Kind selects which Runtime backend Dispatch returns.
type Kind int

const (
	AsyncLocal Kind = iota
	LiveBinding
)

// Runtime is the ContextRuntime contract shared by both backends.
type Runtime interface {
	// Install records the instance's self/context/reference, seeding
	// the root context every later Run overlays on top of.
	Install(snap Snapshot)

	// Current returns the context map visible at ctx's point in the
	// call chain (async-local) or the live shared pointer's current
	// value (live-binding); ctx is ignored by the live-binding backend.
	Current(ctx context.Context) map[string]any

	// Run executes fn with overlay merged on top of the current
	// context using strategy, restoring the prior context once fn
	// returns — invisible outside the callback's dynamic extent. Run
	// does no enabled/disabled check of its own; instance.Run rejects a
	// disabled scope with NewScopeDisabledError before calling it.
	Run(ctx context.Context, overlay map[string]any, strategy Merge, fn func(ctx context.Context) (any, error)) (any, error)

	// WrapCallback returns a context.Context-aware closure over cb that
	// restores the context captured at wrap time before invoking cb —
	// needed so callbacks handed to goroutines or stored for later
	// still observe the context active when they were captured: context
	// carries across asynchronous boundaries this way.
	WrapCallback(ctx context.Context, cb func()) func()
}

// Dispatch selects a Runtime backend from instance configuration
// without callers needing to know which one they got.
func Dispatch(kind Kind) Runtime {
	switch kind {
	case LiveBinding:
		return newLiveBindingRuntime()
	default:
		return newAsyncLocalRuntime()
	}
}

// MergeContext implements the shallow/deep overlay strategies. Deep
// recursively merges nested map[string]any values; any other
// value type (including a slice or a nested struct) is replaced
// wholesale by the overlay, matching "overlay leaves take precedence".
func MergeContext(base, overlay map[string]any, strategy Merge) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		if strategy == Deep {
			if baseChild, ok := out[k].(map[string]any); ok {
				if overlayChild, ok := v.(map[string]any); ok {
					out[k] = MergeContext(baseChild, overlayChild, Deep)
					continue
				}
			}
		}
		out[k] = v
	}
	return out
}

// NewScopeDisabledError is returned by callers (the instance package's
// Run) when the instance was configured with scope: {enabled:false}.
func NewScopeDisabledError() error {
	return apierrs.New(apierrs.RuntimeError, "", "scope is disabled for this instance")
}
