package instance_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/apitree/apitreetest"
	"github.com/aledsdavies/apitree/hooks"
	"github.com/aledsdavies/apitree/instance"
)

type callerFunc func(args []any) (any, error)

func (c callerFunc) Call(args []any) (any, error) { return c(args) }

func addCaller() callerFunc {
	return func(args []any) (any, error) {
		return args[0].(int) + args[1].(int), nil
	}
}

func newMathInstance(t *testing.T, opts ...instance.Option) *instance.Instance {
	t.Helper()
	src := apitreetest.NewMapSource().Add("api/math/math.mjs", apitreetest.Named(map[string]any{
		"add": addCaller(),
	}))
	all := append([]instance.Option{instance.WithSource(src)}, opts...)
	inst, err := instance.New(all...)
	require.NoError(t, err)
	return inst
}

func TestNew_RequiresSource(t *testing.T) {
	_, err := instance.New()
	require.Error(t, err)
}

func TestInstance_CallLeaf(t *testing.T) {
	inst := newMathInstance(t)
	defer inst.Shutdown(context.Background())

	result, err := inst.Call(context.Background(), "math.add", 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, result)
}

func TestInstance_CallNonCallable(t *testing.T) {
	src := apitreetest.NewMapSource().Add("api/config.mjs", apitreetest.Default(42))
	inst, err := instance.New(instance.WithSource(src))
	require.NoError(t, err)
	defer inst.Shutdown(context.Background())

	// The root-level default 42 becomes the root's own callable slot
	// (path ""), which holds a non-function value.
	_, err = inst.Call(context.Background(), "")
	require.Error(t, err)
}

func TestInstance_Keys(t *testing.T) {
	inst := newMathInstance(t)
	defer inst.Shutdown(context.Background())

	keys, err := inst.Keys("math")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"add"}, keys)
}

func TestInstance_NavigateUnknownPathSuggestsClosest(t *testing.T) {
	inst := newMathInstance(t)
	defer inst.Shutdown(context.Background())

	_, err := inst.Get("mth")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did you mean")
	assert.Contains(t, err.Error(), "math")
}

func TestInstance_NavigateRejectsReservedKey(t *testing.T) {
	inst := newMathInstance(t)
	defer inst.Shutdown(context.Background())

	_, err := inst.Get("shutdown")
	require.Error(t, err)
}

func TestInstance_LazyModeMaterializesOnDemand(t *testing.T) {
	inst := newMathInstance(t, instance.WithLazy())
	defer inst.Shutdown(context.Background())

	result, err := inst.Call(context.Background(), "math.add", 10, 5)
	require.NoError(t, err)
	assert.Equal(t, 15, result)
}

func TestInstance_AddApi(t *testing.T) {
	src := apitreetest.NewMapSource().
		Add("math/math.mjs", apitreetest.Named(map[string]any{"add": addCaller()})).
		Add("extra/extra.mjs", apitreetest.Named(map[string]any{"double": callerFunc(func(args []any) (any, error) {
			return args[0].(int) * 2, nil
		})}))

	inst, err := instance.New(instance.WithSource(src))
	require.NoError(t, err)
	defer inst.Shutdown(context.Background())

	err = inst.AddApi("extraNs", "extra")
	require.NoError(t, err)

	result, err := inst.Call(context.Background(), "extraNs.double", 21)
	require.NoError(t, err)
	assert.Equal(t, 42, result)
}

func TestInstance_AddApiRejectsPathThroughLeaf(t *testing.T) {
	src := apitreetest.NewMapSource().
		Add("api/count/count.mjs", apitreetest.Named(map[string]any{"count": 42})).
		Add("extra/extra.mjs", apitreetest.Named(map[string]any{"double": callerFunc(func(args []any) (any, error) {
			return args[0].(int) * 2, nil
		})}))

	inst, err := instance.New(instance.WithSource(src))
	require.NoError(t, err)
	defer inst.Shutdown(context.Background())

	err = inst.AddApi("count.extra", "extra")
	require.Error(t, err, "a path through a promoted leaf node must be rejected, not silently turned into a container")
}

// TestInstance_EagerAndLazyDescribeIdentically exercises the invariant
// that a path resolves to the same shape regardless of mode: an eager
// and a lazy instance over the same source must produce identical
// describe(true) snapshots once the lazy tree is fully materialized.
func TestInstance_EagerAndLazyDescribeIdentically(t *testing.T) {
	newSrc := func() *apitreetest.MapSource {
		return apitreetest.NewMapSource().Add("api/math/math.mjs", apitreetest.Named(map[string]any{"add": addCaller()}))
	}

	eager, err := instance.New(instance.WithSource(newSrc()))
	require.NoError(t, err)
	defer eager.Shutdown(context.Background())

	lazy, err := instance.New(instance.WithSource(newSrc()), instance.WithLazy())
	require.NoError(t, err)
	defer lazy.Shutdown(context.Background())

	if diff := cmp.Diff(eager.Describe(true), lazy.Describe(true)); diff != "" {
		t.Errorf("eager and lazy describe(true) diverged (-eager +lazy):\n%s", diff)
	}
}

// TestInstance_AddApiMatchesFreshBuildShape exercises the invariant
// that AddApi(path, folder) followed by describe(true) contains at
// path exactly the tree a direct build over folder would produce.
func TestInstance_AddApiMatchesFreshBuildShape(t *testing.T) {
	extraSrc := func() *apitreetest.MapSource {
		return apitreetest.NewMapSource().Add("extra/extra.mjs", apitreetest.Named(map[string]any{"double": callerFunc(func(args []any) (any, error) {
			return args[0].(int) * 2, nil
		})}))
	}

	fresh, err := instance.New(instance.WithSource(extraSrc()), instance.WithDir("extra"))
	require.NoError(t, err)
	defer fresh.Shutdown(context.Background())

	host, err := instance.New(instance.WithSource(extraSrc()))
	require.NoError(t, err)
	defer host.Shutdown(context.Background())
	require.NoError(t, host.AddApi("extraNs", "extra"))

	hostTree := host.Describe(true)
	extraSubtree, ok := hostTree.Children["extraNs"]
	require.True(t, ok)

	if diff := cmp.Diff(fresh.Describe(true), extraSubtree); diff != "" {
		t.Errorf("AddApi subtree diverged from a fresh build over the same folder (-fresh +addApi):\n%s", diff)
	}
}

func TestInstance_RunOverlayIsolated(t *testing.T) {
	inst, err := instance.New(
		instance.WithSource(apitreetest.NewMapSource()),
		instance.WithContext(map[string]any{"timeout": 5000}),
	)
	require.NoError(t, err)
	defer inst.Shutdown(context.Background())

	result, err := inst.Run(context.Background(), map[string]any{"timeout": 10000}, func(ctx context.Context) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestInstance_RunRejectedWhenScopeDisabled(t *testing.T) {
	inst, err := instance.New(
		instance.WithSource(apitreetest.NewMapSource()),
		instance.WithScope(instance.ScopeConfig{Enabled: false}),
	)
	require.NoError(t, err)
	defer inst.Shutdown(context.Background())

	_, err = inst.Run(context.Background(), nil, func(ctx context.Context) (any, error) {
		return nil, nil
	})
	require.Error(t, err)
}

func TestInstance_ShutdownIsIdempotent(t *testing.T) {
	inst := newMathInstance(t)

	calls := 0
	inst.OnShutdown(func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, inst.Shutdown(context.Background()))
	require.NoError(t, inst.Shutdown(context.Background()))
	assert.Equal(t, 1, calls, "shutdown disposers must run exactly once even if Shutdown is called twice")
}

func TestInstance_ShutdownAggregatesDisposerErrors(t *testing.T) {
	inst := newMathInstance(t)

	inst.OnShutdown(func(ctx context.Context) error { return errors.New("disposer failed") })

	err := inst.Shutdown(context.Background())
	require.Error(t, err)
}

func TestInstance_HooksWrapCalls(t *testing.T) {
	inst := newMathInstance(t)
	defer inst.Shutdown(context.Background())

	var seenPath string
	inst.Hooks().OnBefore(func(e hooks.BeforeEvent) (hooks.BeforeResult, error) {
		seenPath = e.Path
		return hooks.BeforeResult{}, nil
	}, hooks.Options{})

	_, err := inst.Call(context.Background(), "math.add", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "math.add", seenPath)
}

func TestInstance_TraceEmptyWithoutDebug(t *testing.T) {
	inst := newMathInstance(t)
	defer inst.Shutdown(context.Background())

	assert.Empty(t, inst.Trace())
}

func TestInstance_TraceRecordsBuildStepsWithDebug(t *testing.T) {
	inst := newMathInstance(t, instance.WithDebug(true))
	defer inst.Shutdown(context.Background())

	trace := inst.Trace()
	require.NotEmpty(t, trace)
	assert.Contains(t, trace[0], "dir=")
}
