package lazy

import (
	"context"
	"fmt"
	"reflect"
)

// Defaulter constrains NewDefault: P is *T and fills a zero T with its
// default contents.
type Defaulter[T any] interface {
	*T
	SetDefaults()
}

// NewDefault returns a Cell whose value is a zero T after SetDefaults has
// been called on it.
func NewDefault[T any, P Defaulter[T]](opts ...Option) (*Cell[T], error) {
	return newCell[T](func(context.Context) (T, error) {
		var v T
		P(&v).SetDefaults()
		return v, nil
	}, newConfig(opts))
}

// NewZero returns a Cell whose value is constructed from T alone: the zero
// value for value types, a freshly allocated pointee for pointers, and empty
// maps, slices and channels. Interface, func and unsafe pointer types cannot
// be constructed; reading such a cell fails with ErrNoDefaultConstructor,
// and that fault is cached in every mode.
func NewZero[T any](opts ...Option) (*Cell[T], error) {
	cfg := newConfig(opts)
	cfg.stickyFaults = true
	return newCell(zeroFactory[T](), cfg)
}

func zeroFactory[T any]() Factory[T] {
	typ := reflect.TypeFor[T]()
	return func(context.Context) (T, error) {
		var zero T
		switch typ.Kind() {
		case reflect.Interface, reflect.Func, reflect.UnsafePointer:
			return zero, fmt.Errorf("%w for %s", ErrNoDefaultConstructor, typ)
		case reflect.Pointer:
			return reflect.New(typ.Elem()).Convert(typ).Interface().(T), nil
		case reflect.Map:
			return reflect.MakeMap(typ).Interface().(T), nil
		case reflect.Slice:
			return reflect.MakeSlice(typ, 0, 0).Interface().(T), nil
		case reflect.Chan:
			return reflect.MakeChan(typ, 0).Interface().(T), nil
		default:
			return zero, nil
		}
	}
}
