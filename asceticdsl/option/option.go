package option

import (
	"fmt"
	"reflect"
)

// Option is a value that may be absent. Accessor reads and string coercion return
// Nothing instead of an error when there is no value to produce.
type Option[T any] struct {
	val   T
	valid bool
}

// Some creates an Option containing the given value.
func Some[T any](val T) Option[T] {
	return Option[T]{val: val, valid: true}
}

// Nothing creates an empty Option.
func Nothing[T any]() Option[T] {
	return Option[T]{}
}

// Of wraps val, treating nil interfaces, nil pointers, maps, slices, funcs and
// channels as Nothing.
func Of[T any](val T) Option[T] {
	if IsNil(val) {
		return Nothing[T]()
	}
	return Some(val)
}

// FromPointer dereferences p, or returns Nothing for a nil pointer.
func FromPointer[T any](p *T) Option[T] {
	if p == nil {
		return Nothing[T]()
	}
	return Some(*p)
}

func (o Option[T]) IsSome() bool {
	return o.valid
}

func (o Option[T]) IsNothing() bool {
	return !o.valid
}

// Get returns the contained value and whether it is present.
func (o Option[T]) Get() (T, bool) {
	return o.val, o.valid
}

// Unwrap returns the contained value.
// Panics if the Option is Nothing.
func (o Option[T]) Unwrap() T {
	if !o.valid {
		panic("called Unwrap on a Nothing Option")
	}
	return o.val
}

func (o Option[T]) UnwrapOr(def T) T {
	if o.valid {
		return o.val
	}
	return def
}

// UnwrapOrZero returns the contained value or the zero value of T.
func (o Option[T]) UnwrapOrZero() T {
	return o.val
}

// Pointer returns a pointer to a copy of the value, or nil.
func (o Option[T]) Pointer() *T {
	if !o.valid {
		return nil
	}
	v := o.val
	return &v
}

func (o Option[T]) Or(optb Option[T]) Option[T] {
	if o.valid {
		return o
	}
	return optb
}

// Map applies f to the contained value, if any.
func Map[T any, U any](o Option[T], f func(T) U) Option[U] {
	if o.valid {
		return Some(f(o.val))
	}
	return Nothing[U]()
}

// AndThen chains a computation that may itself produce no value.
func AndThen[T any, U any](o Option[T], f func(T) Option[U]) Option[U] {
	if o.valid {
		return f(o.val)
	}
	return Nothing[U]()
}

func (o Option[T]) String() string {
	if o.valid {
		return fmt.Sprintf("Some(%v)", o.val)
	}
	return "Nothing"
}

// Absent is implemented by Option and any other holder that can report a missing value.
type Absent interface {
	IsNothing() bool
}

// IsNil reports whether v carries no value: a nil interface, a nil pointer, map,
// slice, func or channel, or an Absent holder that is empty.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	if a, ok := v.(Absent); ok {
		return a.IsNothing()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
