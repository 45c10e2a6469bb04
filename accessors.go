package autorun

import (
	"github.com/roach88/autorun/internal/runner"
	"github.com/roach88/autorun/stream"
)

// Strength controls how long a source read in one evaluation stays
// connected when later evaluations stop reading it.
type Strength = runner.Strength

const (
	// Weak sources are disconnected after any evaluation that did not
	// read them, including discarded ones.
	Weak = runner.Weak
	// Normal sources are disconnected after a successful evaluation that
	// did not read them. This is the default.
	Normal = runner.Normal
	// Strong sources stay connected for the lifetime of the runner.
	Strong = runner.Strong
)

// Track reads src's latest value and arms it: future emissions trigger
// re-evaluation. Normal strength.
//
// If src has not delivered a value yet, Track returns ErrPending and the
// expression should return it; the evaluation is discarded and retried when
// the value arrives. Outside an active evaluation Track returns
// ErrNoActivePass.
func Track[V any](src stream.Observable[V]) (V, error) {
	return access(src, true, runner.Normal)
}

// TrackWeak is Track with Weak strength.
func TrackWeak[V any](src stream.Observable[V]) (V, error) {
	return access(src, true, runner.Weak)
}

// TrackNormal is Track with explicit Normal strength.
func TrackNormal[V any](src stream.Observable[V]) (V, error) {
	return access(src, true, runner.Normal)
}

// TrackStrong is Track with Strong strength.
func TrackStrong[V any](src stream.Observable[V]) (V, error) {
	return access(src, true, runner.Strong)
}

// Untrack reads src's latest value without arming it: its emissions do not
// trigger re-evaluation, but the value read is always the latest delivered.
// Normal strength.
func Untrack[V any](src stream.Observable[V]) (V, error) {
	return access(src, false, runner.Normal)
}

// UntrackWeak is Untrack with Weak strength.
func UntrackWeak[V any](src stream.Observable[V]) (V, error) {
	return access(src, false, runner.Weak)
}

// UntrackNormal is Untrack with explicit Normal strength.
func UntrackNormal[V any](src stream.Observable[V]) (V, error) {
	return access(src, false, runner.Normal)
}

// UntrackStrong is Untrack with Strong strength.
func UntrackStrong[V any](src stream.Observable[V]) (V, error) {
	return access(src, false, runner.Strong)
}

// access resolves one accessor call through the ambient context of the
// evaluation currently executing.
func access[V any](src stream.Observable[V], tracked bool, strength Strength) (V, error) {
	var zero V
	reg := runner.Ambient()
	if reg == nil {
		return zero, ErrNoActivePass
	}
	v, err := reg.Access(src, connectVia(src), tracked, strength)
	if err != nil {
		return zero, err
	}
	out, _ := v.(V)
	return out, nil
}

// connectVia erases src's value type and applies the consecutive-duplicate
// filter, so two equal emissions in a row never count as a new emission.
func connectVia[V any](src stream.Observable[V]) runner.Connector {
	return func(o stream.Observer[any]) stream.Subscription {
		return stream.DistinctUntilChanged(src, nil).Subscribe(stream.Observer[V]{
			Next:     func(v V) { o.OnNext(v) },
			Err:      o.OnErr,
			Complete: o.OnComplete,
		})
	}
}
