package instance

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aledsdavies/apitree/apierrs"
	"github.com/aledsdavies/apitree/build"
	"github.com/aledsdavies/apitree/ctxrt"
	"github.com/aledsdavies/apitree/hooks"
	"github.com/aledsdavies/apitree/leaf"
	"github.com/aledsdavies/apitree/record"
	"github.com/aledsdavies/apitree/reserved"
	"github.com/aledsdavies/apitree/sanitize"
	"github.com/aledsdavies/apitree/shape"
)

// shutdownGrace bounds how long Shutdown waits on a registered
// shutdown hook before proceeding with internal disposal anyway,
// targeting roughly 5 seconds.
const shutdownGrace = 5 * time.Second

// ShutdownFunc is a user-registered disposer run during Shutdown.
type ShutdownFunc func(ctx context.Context) error

// Instance is the mutable state owned by one bound API tree, plus the
// AddApi/Scope/Shutdown/Describe management operations layered on top
// of it.
type Instance struct {
	mu sync.RWMutex

	id     string
	config Config
	root   *record.ApiNode
	loaded bool

	runtime ctxrt.Runtime
	hooks   *hooks.Manager

	// trace accumulates build-step diagnostics when cfg.Debug is set.
	// Never populated otherwise, so the common path pays nothing for it.
	trace []string

	shutdownFns        []ShutdownFunc
	shutdownInProgress bool
	shutdownCompleted  bool
}

// New builds a fresh Instance: validates config, builds the raw tree
// via build.EagerBuild/LazyBuild, merges reference at the root,
// installs the chosen ContextRuntime, and constructs the hook manager.
func New(opts ...Option) (*Instance, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	if cfg.Source == nil {
		return nil, apierrs.New(apierrs.ArgumentError, cfg.Dir, "no Source configured: use instance.WithSource")
	}

	id, err := newInstanceID(cfg.Dir)
	if err != nil {
		return nil, apierrs.Wrap(apierrs.LifecycleError, cfg.Dir, "generating instance id", err)
	}

	buildOpts := build.Options{
		ApiDepth:       cfg.ApiDepth,
		Sanitize:       cfg.Sanitize,
		AllowOverwrite: cfg.AllowApiOverwrite,
		FuncNamer:      build.FuncName,
	}

	var trace []string
	if cfg.Debug {
		trace = append(trace, fmt.Sprintf("build: dir=%q mode=%s apiDepth=%d", cfg.Dir, modeString(cfg.Mode), cfg.ApiDepth))
	}

	var root *record.ApiNode
	if cfg.Mode == Lazy {
		root, err = build.LazyBuild(cfg.Source, cfg.Dir, buildOpts)
	} else {
		root, err = build.EagerBuild(cfg.Source, cfg.Dir, buildOpts)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Debug {
		trace = append(trace, fmt.Sprintf("build: produced %d root keys", len(root.Keys())))
	}

	mergeReference(root, cfg.Reference)
	if cfg.Debug && len(cfg.Reference) > 0 {
		trace = append(trace, fmt.Sprintf("build: merged %d reference keys", len(cfg.Reference)))
	}

	rt := ctxrt.Dispatch(cfg.Runtime)
	rt.Install(ctxrt.Snapshot{Context: cfg.Context, Reference: cfg.Reference})

	inst := &Instance{
		id:      id,
		config:  cfg,
		root:    root,
		loaded:  true,
		runtime: rt,
		hooks:   hooks.NewManager(cfg.Hooks.SuppressErrors),
		trace:   trace,
	}
	if !cfg.Hooks.Enabled {
		inst.hooks.Disable()
	} else {
		inst.hooks.Enable(firstNonEmpty(cfg.Hooks.Pattern, "**"))
	}

	return inst, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// mergeReference attaches cfg.Reference's own keys at the root without
// overwriting keys the build already populated: shallow, no-clobber.
func mergeReference(root *record.ApiNode, reference map[string]any) {
	for k, v := range reference {
		if root.Get(k) != nil {
			continue
		}
		root.Set(k, &record.ApiNode{Leaf: v})
	}
}

// ID returns the instance's opaque id.
func (i *Instance) ID() string { return i.id }

// Hooks returns the instance's HookManager for registration.
func (i *Instance) Hooks() *hooks.Manager { return i.hooks }

// Trace returns the build-step diagnostics recorded when the instance
// was constructed with WithDebug(true). Nil when debug was off.
func (i *Instance) Trace() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.trace
}

// Keys lists the children at path without forcing materialization
// beyond what's needed to descend to path itself (path's own last
// segment may still be a LazyProxy; its OwnKeys is returned
// unmaterialized).
func (i *Instance) Keys(path string) ([]string, error) {
	parent, last := i.root, path
	if idx := strings.LastIndexByte(path, '.'); idx >= 0 {
		p, err := i.navigate(path[:idx])
		if err != nil {
			return nil, err
		}
		parent, last = p, path[idx+1:]
	} else if reserved.Is(last) {
		parent = nil
	}
	if child := parent.Get(last); child != nil && child.Proxy != nil {
		return child.Proxy.OwnKeys(), nil
	}
	node, err := i.navigate(path)
	if err != nil {
		return nil, err
	}
	return node.Keys(), nil
}

// Get returns the raw value at path — a node's Callable if set, else
// its Leaf — without invoking it.
func (i *Instance) Get(path string) (any, error) {
	node, err := i.navigate(path)
	if err != nil {
		return nil, err
	}
	if node.Callable != nil {
		return node.Callable, nil
	}
	return node.Leaf, nil
}

// Call invokes the callable leaf at path through the full
// before/after/always/error pipeline, with context supplied by the
// instance's ContextRuntime. path == "" calls the root node's own
// callable identity, e.g. api("World") when the root itself resolves
// to a callable default export.
func (i *Instance) Call(ctx context.Context, path string, args ...any) (any, error) {
	node, err := i.rootOrNavigate(path)
	if err != nil {
		return nil, err
	}

	target := node.Callable
	if target == nil {
		target = node.Leaf
	}
	fn, ok := leaf.Adapt(target)
	if !ok {
		return nil, apierrs.New(apierrs.ArgumentError, path, "value at path is not callable")
	}

	wrapped := i.hooks.Pipeline(path, fn, func() map[string]any { return i.runtime.Current(ctx) })
	return wrapped(i.wrapCallbackArgs(ctx, args))
}

// wrapCallbackArgs re-binds the context onto any bare func() argument
// (the shape a leaf typically uses to accept a completion or retry
// callback), so the callback observes the context active at call time
// even if the leaf invokes it from a goroutine after Call returns —
// context carries across asynchronous boundaries this way. Callbacks
// with any other signature pass through unchanged — wrapping
// an arbitrary typed func would require building a reflect.MakeFunc
// shim per call site, which buys nothing over users threading ctx
// through their own callback explicitly.
func (i *Instance) wrapCallbackArgs(ctx context.Context, args []any) []any {
	out := make([]any, len(args))
	for idx, a := range args {
		if cb, ok := a.(func()); ok {
			out[idx] = i.runtime.WrapCallback(ctx, cb)
			continue
		}
		out[idx] = a
	}
	return out
}

func (i *Instance) rootOrNavigate(path string) (*record.ApiNode, error) {
	if path == "" {
		return i.root, nil
	}
	return i.navigate(path)
}

func (i *Instance) navigate(path string) (*record.ApiNode, error) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return nil, apierrs.New(apierrs.ArgumentError, path, "path must not be empty")
	}
	if reserved.Is(segs[0]) {
		return nil, apierrs.New(apierrs.ArgumentError, path, "path refers to a reserved management key; use the dedicated method instead")
	}

	current := i.root
	walked := ""
	for _, seg := range segs {
		if seg == "" {
			return nil, apierrs.New(apierrs.ArgumentError, path, "path must not contain empty segments")
		}
		next, err := build.Resolve(current, seg)
		if err != nil {
			return nil, apierrs.Wrap(apierrs.MaterializationError, path, "materializing "+walked+seg, err)
		}
		if next == nil {
			return nil, apierrs.WithSuggestion(
				apierrs.New(apierrs.LoaderError, path, fmt.Sprintf("no such key %q", seg)),
				seg, current.Keys())
		}
		current = next
		walked += seg + "."
	}
	return current, nil
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	var segs []string
	start := 0
	for idx := 0; idx <= len(path); idx++ {
		if idx == len(path) || path[idx] == '.' {
			segs = append(segs, path[start:idx])
			start = idx + 1
		}
	}
	return segs
}

// AddApi loads a new subtree via the instance's own mode/source and
// attaches it at dottedPath.
func (i *Instance) AddApi(dottedPath, folderPath string, opts ...AddApiOption) error {
	return i.addApi(dottedPath, folderPath, opts...)
}

// Run executes fn with overlay merged into the current context for the
// duration of the call. Returns RuntimeError if scope is disabled for
// this instance.
func (i *Instance) Run(ctx context.Context, overlay map[string]any, fn func(ctx context.Context) (any, error)) (any, error) {
	i.mu.RLock()
	enabled := i.config.Scope.Enabled
	merge := i.config.Scope.Merge
	i.mu.RUnlock()

	if !enabled {
		return nil, ctxrt.NewScopeDisabledError()
	}

	strategy := ctxrt.Shallow
	if merge == MergeDeep {
		strategy = ctxrt.Deep
	}
	return i.runtime.Run(ctx, overlay, strategy, fn)
}

// OnShutdown registers a user disposer run during Shutdown, in
// registration order, before internal resources are released.
func (i *Instance) OnShutdown(fn ShutdownFunc) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.shutdownFns = append(i.shutdownFns, fn)
}

// Shutdown tears the instance down: idempotent, re-entrant-safe (a
// nested call while one is in progress is a no-op), bounded by
// shutdownGrace, and aggregates user-disposer failures with any
// internal disposal failure into one compound error.
func (i *Instance) Shutdown(ctx context.Context) error {
	i.mu.Lock()
	if i.shutdownCompleted {
		i.mu.Unlock()
		return nil
	}
	if i.shutdownInProgress {
		i.mu.Unlock()
		return nil
	}
	i.shutdownInProgress = true
	fns := append([]ShutdownFunc(nil), i.shutdownFns...)
	i.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- runShutdownFns(ctx, fns)
	}()

	var userErr error
	select {
	case userErr = <-done:
	case <-time.After(shutdownGrace):
		userErr = apierrs.New(apierrs.LifecycleError, "", "shutdown timed out waiting for user disposers")
	}

	i.mu.Lock()
	i.hooks.Clear()
	i.loaded = false
	i.shutdownInProgress = false
	i.shutdownCompleted = true
	i.mu.Unlock()

	return userErr
}

func runShutdownFns(ctx context.Context, fns []ShutdownFunc) error {
	var errs []error
	for _, fn := range fns {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return apierrs.Wrap(apierrs.LifecycleError, "", "shutdown disposer failed", errs[0])
	}
	return apierrs.Wrap(apierrs.LifecycleError, "", fmt.Sprintf("%d shutdown disposers failed", len(errs)), errs[0])
}

// AddApiOption configures one AddApi call.
type AddApiOption func(*addApiSettings)

type addApiSettings struct {
	metadata map[string]any
}

func WithMetadata(meta map[string]any) AddApiOption {
	return func(s *addApiSettings) { s.metadata = meta }
}

func (i *Instance) addApi(dottedPath, folderPath string, opts ...AddApiOption) error {
	settings := &addApiSettings{}
	for _, o := range opts {
		o(settings)
	}

	segs := splitPath(dottedPath)
	if len(segs) == 0 {
		return apierrs.New(apierrs.ArgumentError, dottedPath, "dotted path must not be empty")
	}
	for idx, seg := range segs {
		if seg == "" {
			return apierrs.New(apierrs.ArgumentError, dottedPath, "dotted path must not contain empty segments")
		}
		segs[idx] = sanitize.Sanitize(seg, i.config.Sanitize)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	buildOpts := build.Options{
		ApiDepth:       i.config.ApiDepth,
		Sanitize:       i.config.Sanitize,
		AllowOverwrite: i.config.AllowApiOverwrite,
		FuncNamer:      build.FuncName,
	}

	var sub *record.ApiNode
	var err error
	if i.config.Mode == Lazy {
		sub, err = build.LazyBuild(i.config.Source, folderPath, buildOpts)
	} else {
		sub, err = build.EagerBuild(i.config.Source, folderPath, buildOpts)
	}
	if err != nil {
		return apierrs.Wrap(apierrs.LoaderError, folderPath, "loading addApi subtree", err)
	}

	parent := i.root
	for _, seg := range segs[:len(segs)-1] {
		next := parent.Get(seg)
		if next == nil {
			next = record.NewContainer()
			parent.Set(seg, next)
		}
		if next.Children == nil && next.Proxy == nil {
			return apierrs.New(apierrs.ApiShapeConflict, dottedPath, "path passes through a non-container value")
		}
		parent = next
	}

	last := segs[len(segs)-1]
	existing := parent.Get(last)
	if existing != nil && !i.config.AllowApiOverwrite {
		return nil
	}
	if existing != nil && existing.Children != nil && sub.Children != nil && sub.Callable == nil {
		for k, v := range sub.Children {
			existing.Set(k, v)
		}
		return nil
	}

	parent.Set(last, shape.Flatten(sub, last))
	return nil
}
