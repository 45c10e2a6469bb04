// Package stream defines the push-based stream protocol consumed by the
// autorun runner: a source that can be subscribed to and that delivers zero
// or more values, then at most one terminal signal (error or completion).
//
// The protocol is deliberately minimal. It is not a general-purpose reactive
// algebra - it provides exactly the capabilities the runner consumes:
//
//   - Observable[T]: something that can be subscribed to.
//   - Observer[T]: the three delivery callbacks (Next, Err, Complete).
//   - Subscription: the teardown handle for one connection.
//   - Subject[T] / Value[T]: hot multicast sources; Value replays its
//     current value to each new subscriber.
//   - DistinctUntilChanged: the consecutive-duplicate filter used both on
//     each dependency connection and on Computed output.
//
// DELIVERY CONTRACT:
//
// A well-behaved source delivers values synchronously or asynchronously, in
// a single-threaded cooperative fashion, and delivers exactly one terminal
// signal. After a terminal signal, or after Unsubscribe, no further
// callbacks fire. The Subject and Value implementations in this package
// uphold the contract; external sources must do the same.
//
// Sources used with the autorun accessors must be comparable by Go interface
// identity (the provided sources are pointers). Identity, not structural
// equality, decides whether two accessor calls refer to the same source.
package stream
