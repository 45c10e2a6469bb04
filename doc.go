// Package autorun re-evaluates an expression whenever any reactive source
// it reads produces a new value, without the caller declaring dependencies
// up front.
//
// An expression reads sources through instrumented accessors:
//
//	total := autorun.Computed(func() (int, error) {
//		a, err := autorun.Track(priceA)
//		if err != nil {
//			return 0, err
//		}
//		b, err := autorun.Untrack(priceB)
//		if err != nil {
//			return 0, err
//		}
//		return a + b, nil
//	})
//
// Track arms a source to trigger re-evaluation; Untrack reads the latest
// value without arming it. When a required value is not yet available the
// accessor returns ErrPending; the expression propagates it like any other
// error and the in-flight evaluation is silently discarded until the value
// arrives. Each accessor has weak/normal/strong variants controlling how
// long a conditionally-read source stays connected (see the Strength
// constants).
//
// Three entry points wrap the runner:
//
//   - Run emits every successful evaluation's result, unfiltered.
//   - Computed suppresses consecutive equal results.
//   - Autorun connects immediately and returns only the teardown handle.
//
// Each subscription to the returned stream creates an independent runner
// with its own dependency connections; nothing is shared between
// subscriptions, even for the same expression.
//
// The runtime is single-threaded and cooperative: evaluations run
// synchronously inside the delivery of an emission. It is not safe to drive
// the same sources from multiple goroutines.
package autorun
