package runner

import (
	"errors"
	"io"
	"log/slog"

	"github.com/roach88/autorun/stream"
)

// Expression is a user expression evaluated by a runner. It reads its
// sources through the accessor family and either returns a result, returns
// ErrPending (a required value is not yet available), or returns a genuine
// error that fails the runner.
type Expression func() (any, error)

// Option configures a runner instance.
type Option func(*Runner)

// WithTokenGenerator overrides the runner token generator.
// Tests use NewFixedGenerator for deterministic trace output.
func WithTokenGenerator(gen TokenGenerator) Option {
	return func(r *Runner) { r.tokens = gen }
}

// WithTraceSink attaches a sink receiving the runner's trace events.
func WithTraceSink(sink TraceSink) Option {
	return func(r *Runner) { r.sink = sink }
}

// WithLogger overrides the runner's logger. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithClock overrides the runner's logical clock. Used when several runner
// instances must share one seq sequence (e.g. a recorded scenario).
func WithClock(clock *Clock) Option {
	return func(r *Runner) { r.clock = clock }
}

// Runner is one live connection to an expression: a registry of dependency
// entries plus the pass state machine. A Runner is created per Subscribe
// call, never shared, and owns its upstream connections exclusively.
type Runner struct {
	expr   Expression
	down   stream.Observer[any]
	reg    *Registry
	clock  *Clock
	tokens TokenGenerator
	token  string
	sink   TraceSink
	logger *slog.Logger

	// inPass is true while the expression is executing; deliveries that
	// would re-check completion mid-pass are deferred to the pass driver.
	inPass bool

	// terminal latches once the runner has emitted completion or failure,
	// or its subscription was released. No further passes run.
	terminal bool
}

// Connect creates a runner instance for expr, runs the initial pass
// synchronously, and returns the teardown handle. Results, failure and
// completion are delivered through down, possibly before Connect returns.
func Connect(expr Expression, down stream.Observer[any], opts ...Option) stream.Subscription {
	r := &Runner{
		expr:   expr,
		down:   down,
		clock:  NewClock(),
		tokens: UUIDv7Generator{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.reg = newRegistry(r)
	r.token = r.tokens.Generate()

	r.logger.Debug("runner connected", "token", r.token)
	r.runPass("connect")
	return &runnerSubscription{run: r}
}

// runnerSubscription is the teardown handle handed to the caller.
type runnerSubscription struct {
	run *Runner
}

func (s *runnerSubscription) Unsubscribe() { s.run.teardown() }
func (s *runnerSubscription) Closed() bool { return s.run.terminal }

// runPass drives one pass: provisional downgrade, ambient installation,
// expression evaluation, and exhaustive interpretation of the outcome.
func (r *Runner) runPass(trigger string) {
	if r.terminal {
		return
	}

	r.trace(Event{Type: eventPassStarted, Trigger: trigger})
	r.reg.beginPass()

	r.inPass = true
	restore := install(r.reg)
	v, err := r.expr()
	restore()
	r.inPass = false

	switch {
	case errors.Is(err, ErrPending) || (err == nil && r.reg.halted):
		// Abort: a required value is not yet available. The halted flag
		// covers expressions that swallowed ErrPending instead of
		// propagating it.
		r.reg.restoreDowngraded()
		r.reg.prune(Weak)
		r.trace(Event{Type: eventPassAborted, Trigger: trigger})
		r.logger.Debug("pass aborted", "token", r.token, "trigger", trigger)

	case err != nil:
		r.logger.Debug("pass failed", "token", r.token, "trigger", trigger, "error", err)
		r.fail(err)
		return

	default:
		r.reg.prune(Normal)
		r.trace(Event{Type: eventResultEmitted, Trigger: trigger, Result: renderResult(v)})
		r.logger.Debug("pass succeeded", "token", r.token, "trigger", trigger)
		r.down.OnNext(v)
	}

	r.reg.pendingCompletionCheck = false
	r.checkCompletion()
}

// onAsyncValue handles a value delivered after an entry's opening call
// returned. A value on a tracked entry triggers a pass; the first value on
// an untracked entry only re-checks completion, because the entry just
// became exempt from the completion rule.
func (r *Runner) onAsyncValue(e *entry, first bool) {
	if r.terminal {
		return
	}
	if e.tracked {
		r.runPass("emission")
		return
	}
	if first {
		r.checkCompletion()
	}
}

// onAsyncComplete handles a completion signal delivered after an entry's
// opening call returned. A source completing without ever delivering a
// value completes the whole runner immediately: no pass reading it can
// ever finish. Otherwise only tracked entries re-check completion.
func (r *Runner) onAsyncComplete(e *entry) {
	if r.terminal {
		return
	}
	if !e.hasValue {
		r.complete()
		return
	}
	if e.tracked {
		r.checkCompletion()
	}
}

// checkCompletion completes the runner once every entry that still matters
// has completed. Checks requested mid-pass are deferred to the pass driver.
func (r *Runner) checkCompletion() {
	if r.terminal {
		return
	}
	if r.inPass {
		r.reg.pendingCompletionCheck = true
		return
	}
	for _, e := range r.reg.order {
		if e.completed && !e.hasValue {
			// A dependency that can never deliver: the output can never
			// emit again.
			r.complete()
			return
		}
	}
	for _, e := range r.reg.order {
		if e.requiresCompletion() && !e.completed {
			return
		}
	}
	r.complete()
}

// complete emits the completion signal and tears the runner down.
func (r *Runner) complete() {
	if r.terminal {
		return
	}
	r.terminal = true
	r.reg.releaseAll()
	r.trace(Event{Type: eventCompleted})
	r.logger.Debug("runner completed", "token", r.token)
	r.down.OnComplete()
}

// fail emits the failure downstream and tears the runner down. Failures
// are terminal: they are never retried and release every connection.
func (r *Runner) fail(err error) {
	if r.terminal {
		return
	}
	r.terminal = true
	r.reg.releaseAll()
	r.trace(Event{Type: eventFailed, Error: err.Error()})
	r.logger.Debug("runner failed", "token", r.token, "error", err)
	r.down.OnErr(err)
}

// teardown releases every dependency connection exactly once. Safe to call
// from inside delivery of a value.
func (r *Runner) teardown() {
	if r.terminal {
		return
	}
	r.terminal = true
	r.reg.releaseAll()
	r.logger.Debug("runner torn down", "token", r.token)
}
