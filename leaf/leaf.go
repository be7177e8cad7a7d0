// Package leaf normalizes a user-callable export — a literal Go func
// value or a record.Caller — into the single signature the context
// runtime and hook pipeline wrap uniformly. Go has no equivalent of
// JavaScript's "any function, any arity, called with .apply"; Adapt is
// the one place that reflection boundary is crossed, so the rest of
// apitree never reasons about arbitrary func shapes again.
package leaf

import (
	"fmt"
	"reflect"

	"github.com/aledsdavies/apitree/record"
)

// Func is the normalized callable signature every leaf is adapted to
// before the context runtime or hook pipeline ever sees it.
type Func func(args []any) (any, error)

var errType = reflect.TypeOf((*error)(nil)).Elem()

// Adapt wraps v — a reflect.Func value or a record.Caller — as a Func.
// ok is false for anything not satisfying record.IsCallable.
func Adapt(v any) (Func, bool) {
	if v == nil {
		return nil, false
	}
	if c, ok := v.(record.Caller); ok {
		return c.Call, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Func {
		return nil, false
	}
	return adaptReflect(rv), true
}

// adaptReflect builds a Func around a literal Go function value using
// reflection to convert the untyped args slice to the function's
// parameter types and its results back to (any, error). Variadic
// functions and functions returning (T) or (T, error) are supported;
// any other return shape is reported as a record.Caller-style error
// rather than panicking, since a misshapen leaf should fail the call,
// not the process.
func adaptReflect(fn reflect.Value) Func {
	ft := fn.Type()
	return func(args []any) (any, error) {
		in, err := convertArgs(ft, args)
		if err != nil {
			return nil, err
		}
		out := fn.Call(in)
		return splitResults(ft, out)
	}
}

func convertArgs(ft reflect.Type, args []any) ([]reflect.Value, error) {
	numIn := ft.NumIn()
	variadic := ft.IsVariadic()

	if !variadic && len(args) != numIn {
		return nil, fmt.Errorf("leaf: expected %d argument(s), got %d", numIn, len(args))
	}
	if variadic && len(args) < numIn-1 {
		return nil, fmt.Errorf("leaf: expected at least %d argument(s), got %d", numIn-1, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		var target reflect.Type
		switch {
		case !variadic || i < numIn-1:
			target = ft.In(i)
		default:
			target = ft.In(numIn - 1).Elem()
		}
		v, err := convertOne(a, target)
		if err != nil {
			return nil, fmt.Errorf("leaf: argument %d: %w", i, err)
		}
		in[i] = v
	}
	return in, nil
}

func convertOne(a any, target reflect.Type) (reflect.Value, error) {
	if a == nil {
		return reflect.Zero(target), nil
	}
	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(target) {
		return v, nil
	}
	if v.Type().ConvertibleTo(target) {
		return v.Convert(target), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", v.Type(), target)
}

func splitResults(ft reflect.Type, out []reflect.Value) (any, error) {
	switch ft.NumOut() {
	case 0:
		return nil, nil
	case 1:
		if ft.Out(0) == errType {
			return nil, asError(out[0])
		}
		return out[0].Interface(), nil
	default:
		last := out[len(out)-1]
		if ft.Out(ft.NumOut()-1) == errType {
			if err := asError(last); err != nil {
				return nil, err
			}
			if len(out) == 2 {
				return out[0].Interface(), nil
			}
			vals := make([]any, len(out)-1)
			for i, v := range out[:len(out)-1] {
				vals[i] = v.Interface()
			}
			return vals, nil
		}
		vals := make([]any, len(out))
		for i, v := range out {
			vals[i] = v.Interface()
		}
		return vals, nil
	}
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}
