package stream

// Subject is a hot multicast source. Values pushed with Next are delivered
// to every current subscriber; late subscribers miss earlier values.
//
// Subject follows the cooperative single-goroutine model of the runner: it
// is not safe for concurrent use from multiple goroutines. Deliveries happen
// synchronously inside Next/Fail/Complete.
type Subject[T any] struct {
	subs   []*subjectSub[T]
	err    error
	done   bool
	failed bool
}

type subjectSub[T any] struct {
	subject  *Subject[T]
	observer Observer[T]
	closed   bool
}

func (s *subjectSub[T]) Unsubscribe() {
	if s.closed {
		return
	}
	s.closed = true
	s.subject.drop(s)
}

func (s *subjectSub[T]) Closed() bool { return s.closed }

// NewSubject creates an empty Subject.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{}
}

// Subscribe implements Observable. If the subject has already terminated,
// the terminal signal is delivered synchronously and the returned
// subscription is closed.
func (s *Subject[T]) Subscribe(o Observer[T]) Subscription {
	if s.done {
		if s.failed {
			o.OnErr(s.err)
		} else {
			o.OnComplete()
		}
		return closedSubscription{}
	}
	sub := &subjectSub[T]{subject: s, observer: o}
	s.subs = append(s.subs, sub)
	return sub
}

// Next delivers v to every current subscriber. No-op after termination.
func (s *Subject[T]) Next(v T) {
	if s.done {
		return
	}
	for _, sub := range s.snapshot() {
		if !sub.closed {
			sub.observer.OnNext(v)
		}
	}
}

// Fail terminates the subject with err.
func (s *Subject[T]) Fail(err error) {
	if s.done {
		return
	}
	s.done, s.failed, s.err = true, true, err
	subs := s.snapshot()
	s.subs = nil
	for _, sub := range subs {
		if !sub.closed {
			sub.closed = true
			sub.observer.OnErr(err)
		}
	}
}

// Complete terminates the subject normally.
func (s *Subject[T]) Complete() {
	if s.done {
		return
	}
	s.done = true
	subs := s.snapshot()
	s.subs = nil
	for _, sub := range subs {
		if !sub.closed {
			sub.closed = true
			sub.observer.OnComplete()
		}
	}
}

// Done reports whether the subject has terminated.
func (s *Subject[T]) Done() bool { return s.done }

// SubscriberCount returns the number of live subscriptions.
// Used by tests to verify connection retention and release.
func (s *Subject[T]) SubscriberCount() int { return len(s.subs) }

// snapshot copies the subscriber list so a delivery callback may
// subscribe or unsubscribe without corrupting the iteration.
func (s *Subject[T]) snapshot() []*subjectSub[T] {
	out := make([]*subjectSub[T], len(s.subs))
	copy(out, s.subs)
	return out
}

func (s *Subject[T]) drop(target *subjectSub[T]) {
	for i, sub := range s.subs {
		if sub == target {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// Value is a stateful source: it holds a current value and replays it
// synchronously to every new subscriber, then behaves like a Subject.
type Value[T any] struct {
	subject *Subject[T]
	current T
	has     bool
}

// NewValue creates a Value holding v.
func NewValue[T any](v T) *Value[T] {
	return &Value[T]{subject: NewSubject[T](), current: v, has: true}
}

// NewEmptyValue creates a Value with no current value. Subscribers receive
// nothing until the first Set.
func NewEmptyValue[T any]() *Value[T] {
	return &Value[T]{subject: NewSubject[T]()}
}

// Subscribe implements Observable. The current value, if any, is delivered
// synchronously before Subscribe returns.
func (v *Value[T]) Subscribe(o Observer[T]) Subscription {
	if v.has && !v.subject.done {
		o.OnNext(v.current)
	}
	return v.subject.Subscribe(o)
}

// Set updates the current value and pushes it to subscribers.
func (v *Value[T]) Set(next T) {
	if v.subject.done {
		return
	}
	v.current = next
	v.has = true
	v.subject.Next(next)
}

// Get returns the current value.
func (v *Value[T]) Get() T { return v.current }

// Fail terminates the source with err.
func (v *Value[T]) Fail(err error) { v.subject.Fail(err) }

// Complete terminates the source normally. The current value is not
// re-delivered.
func (v *Value[T]) Complete() { v.subject.Complete() }

// SubscriberCount returns the number of live subscriptions.
func (v *Value[T]) SubscriberCount() int { return v.subject.SubscriberCount() }
