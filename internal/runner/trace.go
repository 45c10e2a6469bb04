package runner

import "fmt"

// EventType identifies a trace event kind.
type EventType string

const (
	eventPassStarted       EventType = "pass_started"
	eventResultEmitted     EventType = "result_emitted"
	eventPassAborted       EventType = "pass_aborted"
	eventDependencyAdded   EventType = "dependency_added"
	eventDependencyDropped EventType = "dependency_dropped"
	eventCompleted         EventType = "completed"
	eventFailed            EventType = "failed"
)

// Event is one observable action of a runner instance: a pass starting or
// ending, a dependency connection opening or closing, or a terminal signal.
// Events are purely diagnostic; the runner's semantics do not depend on
// them.
type Event struct {
	// Token identifies the runner instance (one per connection).
	Token string `json:"token"`

	// Seq is the logical clock stamp; strictly increasing per runner.
	Seq int64 `json:"seq"`

	// Type is the event kind.
	Type EventType `json:"type"`

	// Trigger names what caused a pass to start.
	Trigger string `json:"trigger,omitempty"`

	// Result holds the emitted value for result_emitted events, rendered
	// with %v so traces stay JSON-serializable for arbitrary value types.
	Result string `json:"result,omitempty"`

	// Source positions the affected dependency for dependency events:
	// its creation ordinal within this runner instance.
	Source int `json:"source"`

	// Strength is the dependency's retention policy at event time.
	Strength string `json:"strength,omitempty"`

	// Error holds the failure message for failed events.
	Error string `json:"error,omitempty"`
}

// TraceSink receives trace events as they happen. Record is called
// synchronously from inside the runner, so implementations must not call
// back into the runner.
type TraceSink interface {
	Record(Event)
}

// SinkFunc adapts a function to the TraceSink interface.
type SinkFunc func(Event)

// Record implements TraceSink.
func (f SinkFunc) Record(ev Event) { f(ev) }

// trace stamps and records an event if a sink is configured.
func (r *Runner) trace(ev Event) {
	if r.sink == nil {
		return
	}
	ev.Token = r.token
	ev.Seq = r.clock.Next()
	r.sink.Record(ev)
}

// traceDependency records a dependency lifecycle event.
func (r *Runner) traceDependency(t EventType, e *entry) {
	if r.sink == nil {
		return
	}
	r.trace(Event{
		Type:     t,
		Source:   e.id,
		Strength: e.strength.String(),
	})
}

// renderResult formats an emitted value for trace output.
func renderResult(v any) string {
	return fmt.Sprintf("%v", v)
}
