package runner

import "sync/atomic"

// Clock is a monotonic logical clock stamping trace events in order.
//
// All trace events carry a strictly increasing seq number from this clock,
// never a wall-clock timestamp, so recorded traces are deterministic and
// comparable across runs.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations),
// although the runner's single-threaded design means one goroutine
// typically calls Next().
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0; the first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
