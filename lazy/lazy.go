// Package lazy provides single-assignment memoised values.
package lazy

import "sync"

// Value holds a value that is computed on first access and then cached.
// A Value is safe for concurrent use; the supplier runs at most once.
type Value[T any] struct {
	once     sync.Once
	supplier func() (T, bool)
	value    T
	present  bool
}

// Of returns a Value computed by supplier.
func Of[T any](supplier func() T) *Value[T] {
	return &Value[T]{supplier: func() (T, bool) { return supplier(), true }}
}

// Optional returns a Value whose supplier may yield no value.
func Optional[T any](supplier func() (T, bool)) *Value[T] {
	return &Value[T]{supplier: supplier}
}

// Empty returns an evaluated Value without a value.
func Empty[T any]() *Value[T] {
	v := &Value[T]{}
	v.once.Do(func() {})
	return v
}

// Get returns the value, evaluating it on first call. Absent values yield
// the zero value of T.
func (v *Value[T]) Get() T {
	v.resolve()
	return v.value
}

// Lookup returns the value and whether the supplier produced one.
func (v *Value[T]) Lookup() (T, bool) {
	v.resolve()
	return v.value, v.present
}

// OrElse returns the value or fallback when absent.
func (v *Value[T]) OrElse(fallback T) T {
	if value, ok := v.Lookup(); ok {
		return value
	}
	return fallback
}

func (v *Value[T]) resolve() {
	v.once.Do(func() {
		if v.supplier == nil {
			return
		}
		v.value, v.present = v.supplier()
		v.supplier = nil
	})
}
