package record

import "sync"

// LazyProxy is the transparent stand-in for an unmaterialized directory
// node. It is deliberately generic: the directory scan (Keys) and the
// actual import-and-plan work (Resolve) are supplied as closures by the
// build package, so this type carries only the at-most-once
// materialization contract and the cheap-introspection contract.
type LazyProxy struct {
	keys    func() []string
	resolve func() (*ApiNode, error)

	once   sync.Once
	result *ApiNode
	err    error
}

// NewLazyProxy constructs a proxy backed by keys (a cheap, non-importing
// directory/file scan) and resolve (the real materialization, run at
// most once even under concurrent access).
func NewLazyProxy(keys func() []string, resolve func() (*ApiNode, error)) *LazyProxy {
	return &LazyProxy{keys: keys, resolve: resolve}
}

// OwnKeys returns the cheap key scan without triggering materialization.
func (p *LazyProxy) OwnKeys() []string {
	if p == nil || p.keys == nil {
		return nil
	}
	return p.keys()
}

// Has reports whether key is among the cheap key scan, again without
// materializing.
func (p *LazyProxy) Has(key string) bool {
	for _, k := range p.OwnKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// Materialize resolves the proxy exactly once; concurrent callers block
// on the same sync.Once and observe the same (*ApiNode, error) result,
// satisfying "at-most-once" and "shared in-flight".
//
// On failure the once is still spent: the failing call's error is
// returned to every waiter and to every later call on this proxy,
// because sync.Once does not retry. A caller that wants retry
// semantics — a MaterializationError is safe to retry — must use a
// fresh LazyProxy; build.Resolve does this by replacing the parent's
// slot with p.Retry() on error.
func (p *LazyProxy) Materialize() (*ApiNode, error) {
	p.once.Do(func() {
		p.result, p.err = p.resolve()
	})
	return p.result, p.err
}

// Retry returns a fresh LazyProxy backed by the same keys/resolve
// closures, for the caller documented in Materialize: a failed
// materialization is not useful to retry through the same proxy (its
// once is already spent), but the underlying closures are stateless
// and safe to re-run from a brand new once.
func (p *LazyProxy) Retry() *LazyProxy {
	return NewLazyProxy(p.keys, p.resolve)
}

// Resolved reports whether Materialize has already run and succeeded,
// letting callers avoid re-entering the once for a cheap identity check.
func (p *LazyProxy) Resolved() (*ApiNode, bool) {
	if p.result != nil {
		return p.result, true
	}
	return nil, false
}
