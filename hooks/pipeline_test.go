package hooks

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noContext() map[string]any { return nil }

func addBody(args []any) (any, error) {
	return args[0].(int) + args[1].(int), nil
}

func TestPipeline_NoHooksCallsBodyDirectly(t *testing.T) {
	m := NewManager(false)
	fn := m.Pipeline("math.add", addBody, noContext)

	result, err := fn([]any{2, 3})
	require.NoError(t, err)
	assert.Equal(t, 5, result)
}

// TestPipeline_BeforeHookShortCircuit verifies that a before hook
// short-circuits the call, skipping the body and the after chain,
// while always still observes the short-circuited value.
func TestPipeline_BeforeHookShortCircuit(t *testing.T) {
	m := NewManager(false)
	m.OnBefore(func(BeforeEvent) (BeforeResult, error) {
		return BeforeResult{ShortCircuit: true, Value: 999}, nil
	}, Options{})

	afterCalled := false
	m.OnAfter(func(AfterEvent) (AfterResult, error) {
		afterCalled = true
		return AfterResult{}, nil
	}, Options{})

	var alwaysResult any
	m.OnAlways(func(e AlwaysEvent) { alwaysResult = e.Result }, Options{})

	fn := m.Pipeline("math.add", addBody, noContext)
	result, err := fn([]any{2, 3})

	require.NoError(t, err)
	assert.Equal(t, 999, result)
	assert.False(t, afterCalled, "after hooks must not run on short-circuit")
	assert.Equal(t, 999, alwaysResult)
}

// TestPipeline_ArgRewriteChain verifies that three before hooks at
// descending priority rewrite args in sequence before the body runs.
func TestPipeline_ArgRewriteChain(t *testing.T) {
	m := NewManager(false)
	// doubles a
	m.OnBefore(func(e BeforeEvent) (BeforeResult, error) {
		a := e.Args[0].(int)
		b := e.Args[1].(int)
		return BeforeResult{Args: []any{a * 2, b}}, nil
	}, Options{Priority: 300})
	// adds 10 to b
	m.OnBefore(func(e BeforeEvent) (BeforeResult, error) {
		a := e.Args[0].(int)
		b := e.Args[1].(int)
		return BeforeResult{Args: []any{a, b + 10}}, nil
	}, Options{Priority: 200})
	// swaps args
	m.OnBefore(func(e BeforeEvent) (BeforeResult, error) {
		return BeforeResult{Args: []any{e.Args[1], e.Args[0]}}, nil
	}, Options{Priority: 100})

	fn := m.Pipeline("math.add", addBody, noContext)
	result, err := fn([]any{2, 3})
	require.NoError(t, err)
	// a=2,b=3 -> double a: (4,3) -> add 10 to b: (4,13) -> swap: (13,4) -> 13+4=17
	assert.Equal(t, 17, result)
}

func TestPipeline_AfterHookReplacesResult(t *testing.T) {
	m := NewManager(false)
	m.OnAfter(func(e AfterEvent) (AfterResult, error) {
		return AfterResult{Result: e.Result.(int) * 100, Changed: true}, nil
	}, Options{})

	fn := m.Pipeline("math.add", addBody, noContext)
	result, err := fn([]any{2, 3})
	require.NoError(t, err)
	assert.Equal(t, 500, result)
}

func TestPipeline_BeforeErrorDispatchesToErrorHooks(t *testing.T) {
	m := NewManager(false)
	wantErr := errors.New("before failed")
	m.OnBefore(func(BeforeEvent) (BeforeResult, error) { return BeforeResult{}, wantErr }, Options{})

	var gotErr error
	var gotStage string
	m.OnError(func(e ErrorEvent) {
		gotErr = e.Err
		gotStage = e.Source.Stage
	}, Options{})

	fn := m.Pipeline("math.add", addBody, noContext)
	_, err := fn([]any{2, 3})

	assert.Equal(t, wantErr, err)
	assert.Equal(t, wantErr, gotErr)
	assert.Equal(t, "before", gotStage)
}

func TestPipeline_BodyErrorDispatchesAsFunctionStage(t *testing.T) {
	m := NewManager(false)
	wantErr := errors.New("body failed")
	failingBody := func(args []any) (any, error) { return nil, wantErr }

	var gotErr error
	var gotStage string
	m.OnError(func(e ErrorEvent) {
		gotErr = e.Err
		gotStage = e.Source.Stage
	}, Options{})

	fn := m.Pipeline("math.add", failingBody, noContext)
	_, err := fn([]any{2, 3})

	assert.Equal(t, wantErr, err)
	assert.Equal(t, wantErr, gotErr)
	assert.Equal(t, "function", gotStage, "a body error must be tagged as the function stage, not before")
}

func TestPipeline_SuppressErrors(t *testing.T) {
	m := NewManager(true)
	m.OnBefore(func(BeforeEvent) (BeforeResult, error) { return BeforeResult{}, errors.New("boom") }, Options{})

	fn := m.Pipeline("math.add", addBody, noContext)
	result, err := fn([]any{2, 3})

	require.NoError(t, err)
	assert.Nil(t, result)
}

// TestPipeline_AlwaysPanicNeverPropagatesButReachesErrorHooks exercises
// the "always hook errors never reach the caller, but are still
// delivered to error hooks" rule.
func TestPipeline_AlwaysPanicNeverPropagatesButReachesErrorHooks(t *testing.T) {
	m := NewManager(false)
	m.OnAlways(func(AlwaysEvent) { panic("boom in always") }, Options{})

	var gotStage string
	m.OnError(func(e ErrorEvent) { gotStage = e.Source.Stage }, Options{})

	fn := m.Pipeline("math.add", addBody, noContext)
	result, err := fn([]any{2, 3})

	require.NoError(t, err, "an always-hook panic must never surface to the caller")
	assert.Equal(t, 5, result)
	assert.Equal(t, "always", gotStage)
}

func TestPipeline_AfterErrorDispatchesToErrorHooks(t *testing.T) {
	m := NewManager(false)
	wantErr := errors.New("after failed")
	m.OnAfter(func(AfterEvent) (AfterResult, error) { return AfterResult{}, wantErr }, Options{})

	var gotStage string
	m.OnError(func(e ErrorEvent) { gotStage = e.Source.Stage }, Options{})

	fn := m.Pipeline("math.add", addBody, noContext)
	_, err := fn([]any{2, 3})

	assert.Equal(t, wantErr, err)
	assert.Equal(t, "after", gotStage)
}

func TestPipeline_PatternScopingOnlyWrapsMatchingPaths(t *testing.T) {
	m := NewManager(false)
	called := false
	m.OnBefore(func(BeforeEvent) (BeforeResult, error) {
		called = true
		return BeforeResult{}, nil
	}, Options{Pattern: "math.*"})

	fn := m.Pipeline("other.add", addBody, noContext)
	_, err := fn([]any{2, 3})
	require.NoError(t, err)
	assert.False(t, called)
}
