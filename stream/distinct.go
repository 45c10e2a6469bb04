package stream

import "reflect"

// DistinctUntilChanged suppresses consecutive duplicate values: a value is
// delivered only if it differs from the previously delivered one. Terminal
// signals pass through unchanged.
//
// If eq is nil, Same is used.
func DistinctUntilChanged[T any](src Observable[T], eq func(a, b T) bool) Observable[T] {
	if eq == nil {
		eq = Same[T]
	}
	return Defer(func(o Observer[T]) Subscription {
		var (
			last T
			has  bool
		)
		return src.Subscribe(Observer[T]{
			Next: func(v T) {
				if has && eq(last, v) {
					return
				}
				last, has = v, true
				o.OnNext(v)
			},
			Err:      o.OnErr,
			Complete: o.OnComplete,
		})
	})
}

// Same reports whether a and b are equal under Go's == operator.
// Values of non-comparable dynamic types are never considered equal,
// mirroring reference-equality semantics for slices, maps and funcs.
func Same[T any](a, b T) bool {
	av := reflect.ValueOf(a)
	if av.IsValid() && !av.Type().Comparable() {
		return false
	}
	bv := reflect.ValueOf(b)
	if bv.IsValid() && !bv.Type().Comparable() {
		return false
	}
	return any(a) == any(b)
}
