package ctxrt

import (
	"context"
	"sync/atomic"
)

type asyncLocalCtxKey struct{}

// asyncLocalRuntime backs context on Go's own context.Context, which is
// already exactly an async-local storage primitive: a value attached
// to a context.Context is carried forward by every goroutine/call that
// received that context, and two overlapping calls holding distinct
// context.Context values never see each other's overlay.
type asyncLocalRuntime struct {
	root atomic.Pointer[Snapshot]
}

func newAsyncLocalRuntime() *asyncLocalRuntime {
	return &asyncLocalRuntime{}
}

func (r *asyncLocalRuntime) Install(snap Snapshot) {
	r.root.Store(&snap)
}

func (r *asyncLocalRuntime) Current(ctx context.Context) map[string]any {
	if ctx != nil {
		if v, ok := ctx.Value(asyncLocalCtxKey{}).(map[string]any); ok {
			return v
		}
	}
	if root := r.root.Load(); root != nil {
		return root.Context
	}
	return nil
}

func (r *asyncLocalRuntime) Run(ctx context.Context, overlay map[string]any, strategy Merge, fn func(ctx context.Context) (any, error)) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	merged := MergeContext(r.Current(ctx), overlay, strategy)
	return fn(context.WithValue(ctx, asyncLocalCtxKey{}, merged))
}

// WrapCallback is a pass-through: a context.Context already carries its
// value forward through every closure that references it, so a
// callback captured under ctx continues to see the right overlay
// whenever it eventually runs, with no extra bookkeeping needed — the
// one backend where Go's stdlib already does exactly what context
// wrapping needs to do.
func (r *asyncLocalRuntime) WrapCallback(ctx context.Context, cb func()) func() {
	return cb
}
