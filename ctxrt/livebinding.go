package ctxrt

import (
	"context"
	"sync/atomic"
)

// liveBindingRuntime maintains a single mutable "current context"
// pointer per instance, updated on the call path. Unlike the
// async-local backend it does not isolate overlapping calls by itself
// — two goroutines calling Run concurrently will observe each other's
// overlay for the duration of the race; callers relying on pure
// live-binding must wrap callbacks explicitly. WrapCallback is where
// that explicit re-binding happens.
type liveBindingRuntime struct {
	current atomic.Pointer[map[string]any]
}

func newLiveBindingRuntime() *liveBindingRuntime {
	return &liveBindingRuntime{}
}

func (r *liveBindingRuntime) Install(snap Snapshot) {
	ctxMap := snap.Context
	if ctxMap == nil {
		ctxMap = map[string]any{}
	}
	r.current.Store(&ctxMap)
}

func (r *liveBindingRuntime) Current(ctx context.Context) map[string]any {
	if p := r.current.Load(); p != nil {
		return *p
	}
	return nil
}

func (r *liveBindingRuntime) Run(ctx context.Context, overlay map[string]any, strategy Merge, fn func(ctx context.Context) (any, error)) (any, error) {
	prev := r.current.Load()
	var prevMap map[string]any
	if prev != nil {
		prevMap = *prev
	}
	merged := MergeContext(prevMap, overlay, strategy)
	r.current.Store(&merged)
	defer r.current.Store(prev)

	return fn(ctx)
}

// WrapCallback snapshots the live pointer at wrap time and re-installs
// it for the duration of cb, then restores whatever was current
// afterward — the explicit re-binding live-binding callbacks need when
// they outlive their enclosing call (goroutines, timers, event-emitter
// handlers).
func (r *liveBindingRuntime) WrapCallback(ctx context.Context, cb func()) func() {
	captured := r.current.Load()
	return func() {
		prev := r.current.Load()
		r.current.Store(captured)
		defer r.current.Store(prev)
		cb()
	}
}
