// Package runner implements the autorun expression runner.
//
// The runner re-evaluates a user expression whenever any reactive source it
// read during its latest evaluation pushes a new value. Dependencies are
// discovered at run time: the expression reads sources through instrumented
// accessors, and the runner records which sources each pass touched.
//
// ARCHITECTURE:
//
// One Runner instance exists per connection to the public surface. Each
// instance owns a Registry: the set of dependency entries, one per distinct
// source, each holding a live connection, the latest value, and the
// per-pass usage flags.
//
// Single-Threaded Pass Loop:
// A pass is one synchronous execution of the expression against the current
// dependency snapshot. Passes run synchronously inside the delivery of an
// emission, so a pass always runs to completion (success, abort, or failure)
// before any other pass starts. There are no locks; reentrancy - a runner
// reading another runner's output - is handled by save/restore of the
// ambient access context around every pass.
//
// Pass outcomes:
//  1. Success: the expression returned a value. Unused entries at or below
//     Normal strength are pruned, then the value is emitted downstream.
//  2. Abort (ErrPending): a required value is not yet available. Nothing is
//     emitted; provisionally downgraded entries are restored and only
//     unused Weak entries are pruned, because an aborted pass gives no
//     information about whether an entry is truly unused.
//  3. Failure: any other error. It propagates downstream, every connection
//     is released, and no further passes run.
//
// Completion:
// The runner completes once every entry that the latest pass read through
// the tracked accessor has completed. An entry read only through the
// untracked accessor still counts until it delivers its first value; after
// that it is permanently exempt. A source that completes without ever
// delivering a value completes the whole runner immediately, since no pass
// reading it can ever finish.
//
// Determinism:
// Entries are kept in creation order and every observable action (pass
// start, emission, prune, completion) is stamped with a logical sequence
// number from Clock and the runner's token. Trace output is therefore
// reproducible when a fixed token generator is used.
package runner
