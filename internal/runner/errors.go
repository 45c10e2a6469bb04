package runner

import "errors"

// ErrPending is the non-local abort signal: a required value is not yet
// available. Accessors return it when an entry has no value, and user
// expressions propagate it like any other error. The pass driver is the
// single point that interprets it (via errors.Is), turning the pass into a
// silent abort instead of a failure.
//
// ErrPending is a distinct sentinel value, so user code cannot produce a
// colliding error by accident; wrapping it with fmt.Errorf("...: %w", ...)
// still matches.
var ErrPending = errors.New("autorun: required value not yet available")

// ErrNoActivePass is returned by accessors used outside an active pass.
// Accessors are only valid while an expression is being evaluated.
var ErrNoActivePass = errors.New("autorun: accessor used outside an active pass")
