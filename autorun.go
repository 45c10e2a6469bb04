package autorun

import (
	"github.com/roach88/autorun/internal/runner"
	"github.com/roach88/autorun/stream"
)

// ErrPending signals that a value required by the expression is not yet
// available. The current evaluation is discarded and retried once the
// value arrives; ErrPending itself never surfaces to subscribers.
var ErrPending = runner.ErrPending

// ErrNoActivePass is returned by accessors called outside a running
// evaluation.
var ErrNoActivePass = runner.ErrNoActivePass

// Run returns a stream of every successful evaluation result of fn,
// unfiltered. Each subscription creates an independent runner: the initial
// evaluation happens synchronously on subscribe, and further evaluations
// are triggered by the tracked sources fn read most recently.
//
// The stream completes once every source still tracked has completed, and
// fails on the first error from fn or from any source.
func Run[T any](fn func() (T, error)) stream.Observable[T] {
	return stream.Defer(func(o stream.Observer[T]) stream.Subscription {
		return runner.Connect(
			func() (any, error) { return fn() },
			stream.Observer[any]{
				Next: func(v any) {
					if o.Next != nil {
						// Comma-ok keeps a nil result from panicking
						// when T is an interface type.
						t, _ := v.(T)
						o.Next(t)
					}
				},
				Err:      o.OnErr,
				Complete: o.OnComplete,
			},
		)
	})
}

// Computed is Run with consecutive equal results suppressed, compared with
// stream.Same.
func Computed[T any](fn func() (T, error)) stream.Observable[T] {
	return stream.DistinctUntilChanged(Run(fn), nil)
}

// Autorun connects to Computed(fn) immediately, discarding the results,
// and returns the teardown handle. Use it for expressions evaluated for
// their side effects.
func Autorun[T any](fn func() (T, error)) stream.Subscription {
	return Computed(fn).Subscribe(stream.Observer[T]{})
}
