// Package apierrs defines the error taxonomy every boundary in apitree
// reports through: a small closed Kind enum plus an Error struct that
// carries the failing path and wraps the underlying cause.
package apierrs

import (
	"fmt"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Kind is one of the tags named in the failure-reporting design.
type Kind string

const (
	// ArgumentError marks bad input: empty/malformed dotted paths,
	// wrong option types, invalid scope.merge values.
	ArgumentError Kind = "ArgumentError"
	// LoaderError marks file/folder not found, import failure, or an
	// unsupported module form surfaced by a ModuleLoader.
	LoaderError Kind = "LoaderError"
	// ApiShapeConflict marks an attempt to extend through a primitive,
	// or a collision when overwrites are disabled.
	ApiShapeConflict Kind = "ApiShapeConflict"
	// MaterializationError marks a failure inside a LazyProxy's
	// resolution; the proxy remains unresolved and is safe to retry.
	MaterializationError Kind = "MaterializationError"
	// HookError marks a failure inside a hook handler.
	HookError Kind = "HookError"
	// LifecycleError marks a shutdown timeout or recursive shutdown
	// misuse.
	LifecycleError Kind = "LifecycleError"
	// RuntimeError marks context back-end misuse (e.g. scope disabled).
	RuntimeError Kind = "RuntimeError"
)

// Error is the concrete error type returned across every package
// boundary in this module.
type Error struct {
	Kind    Kind
	Path    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Path != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s at %q: %s: %v", e.Kind, e.Path, e.Message, e.Cause)
		}
		return fmt.Sprintf("%s at %q: %s", e.Kind, e.Path, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error target carrying the same Kind, so an *Error
// built with that Kind serves as a sentinel-style target, e.g.
// errors.Is(err, apierrs.New(apierrs.ArgumentError, "", "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an *Error with no wrapped cause.
func New(kind Kind, path, message string) *Error {
	return &Error{Kind: kind, Path: path, Message: message}
}

// Wrap constructs an *Error around an existing cause.
func Wrap(kind Kind, path, message string, cause error) *Error {
	return &Error{Kind: kind, Path: path, Message: message, Cause: cause}
}

// Suggest returns the closest candidate to name by fuzzy rank, or ""
// when candidates is empty or nothing ranks close enough to be useful.
// Used to attach "did you mean" hints to ArgumentError/LoaderError
// values raised when a dotted path segment fails to resolve.
func Suggest(name string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) == 0 {
		return ""
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return best.Target
}

// WithSuggestion appends a "did you mean" hint to an error's message
// when a suggestion is available.
func WithSuggestion(err *Error, name string, candidates []string) *Error {
	if hint := Suggest(name, candidates); hint != "" {
		err.Message = fmt.Sprintf("%s (did you mean %q?)", err.Message, hint)
	}
	return err
}
