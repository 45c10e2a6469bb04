package stream

// Observer receives deliveries from a source. Any callback may be nil, in
// which case that delivery is dropped.
type Observer[T any] struct {
	// Next receives a value.
	Next func(T)
	// Err receives the terminal error. At most one of Err/Complete fires.
	Err func(error)
	// Complete receives the terminal completion signal.
	Complete func()
}

// OnNext invokes the Next callback if set.
func (o Observer[T]) OnNext(v T) {
	if o.Next != nil {
		o.Next(v)
	}
}

// OnErr invokes the Err callback if set.
func (o Observer[T]) OnErr(err error) {
	if o.Err != nil {
		o.Err(err)
	}
}

// OnComplete invokes the Complete callback if set.
func (o Observer[T]) OnComplete() {
	if o.Complete != nil {
		o.Complete()
	}
}

// Subscription is the ownership handle for one connection to a source.
type Subscription interface {
	// Unsubscribe releases the connection. Idempotent. After the first
	// call no further deliveries reach the observer.
	Unsubscribe()
	// Closed reports whether the connection has been released or has
	// delivered its terminal signal.
	Closed() bool
}

// Observable is a connectable push source of values of type T.
type Observable[T any] interface {
	// Subscribe opens a connection. Deliveries may begin synchronously,
	// before Subscribe returns.
	Subscribe(Observer[T]) Subscription
}

// ObservableFunc adapts a function to the Observable interface.
//
// Go func values are not comparable, so an ObservableFunc cannot be used
// directly as an autorun source. Wrap it with Defer (or any pointer-based
// Observable) when identity matters.
type ObservableFunc[T any] func(Observer[T]) Subscription

// Subscribe implements Observable.
func (f ObservableFunc[T]) Subscribe(o Observer[T]) Subscription {
	return f(o)
}

// derived is a pointer-based Observable backed by a subscribe function.
// Pointer identity makes every derived source usable as an autorun source.
type derived[T any] struct {
	subscribe func(Observer[T]) Subscription
}

func (d *derived[T]) Subscribe(o Observer[T]) Subscription {
	return d.subscribe(o)
}

// Defer builds a fresh identity-comparable Observable from a subscribe
// function.
func Defer[T any](subscribe func(Observer[T]) Subscription) Observable[T] {
	return &derived[T]{subscribe: subscribe}
}

// closedSubscription is a subscription that is already terminated.
type closedSubscription struct{}

func (closedSubscription) Unsubscribe() {}
func (closedSubscription) Closed() bool { return true }

// flagSubscription tracks closed state behind a caller-supplied teardown.
type flagSubscription struct {
	closed   bool
	teardown func()
}

func (s *flagSubscription) Unsubscribe() {
	if s.closed {
		return
	}
	s.closed = true
	if s.teardown != nil {
		s.teardown()
	}
}

func (s *flagSubscription) Closed() bool { return s.closed }

// NewSubscription wraps a teardown function in a Subscription.
// The teardown runs at most once.
func NewSubscription(teardown func()) Subscription {
	return &flagSubscription{teardown: teardown}
}

// Of emits the given values synchronously on subscribe, then completes.
func Of[T any](values ...T) Observable[T] {
	return Defer(func(o Observer[T]) Subscription {
		for _, v := range values {
			o.OnNext(v)
		}
		o.OnComplete()
		return closedSubscription{}
	})
}

// Empty completes synchronously without emitting.
func Empty[T any]() Observable[T] {
	return Defer(func(o Observer[T]) Subscription {
		o.OnComplete()
		return closedSubscription{}
	})
}

// Throw fails synchronously with err without emitting.
func Throw[T any](err error) Observable[T] {
	return Defer(func(o Observer[T]) Subscription {
		o.OnErr(err)
		return closedSubscription{}
	})
}

// Never emits nothing and never terminates.
func Never[T any]() Observable[T] {
	return Defer(func(Observer[T]) Subscription {
		return NewSubscription(nil)
	})
}
