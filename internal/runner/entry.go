package runner

import "github.com/roach88/autorun/stream"

// Strength is the retention policy for a dependency entry: it controls
// whether an entry that went unused in a pass keeps its connection.
//
//   - Weak entries are dropped after any pass that did not use them,
//     including aborted passes.
//   - Normal entries are dropped only after a successful pass that did not
//     use them.
//   - Strong entries are never dropped while the runner is alive.
type Strength int

const (
	Weak Strength = iota + 1
	Normal
	Strong
)

// String returns the lowercase policy name.
func (s Strength) String() string {
	switch s {
	case Weak:
		return "weak"
	case Normal:
		return "normal"
	case Strong:
		return "strong"
	default:
		return "unknown"
	}
}

// Connector opens a connection to a source, delivering through the given
// observer. The public accessor layer builds one per source, applying the
// consecutive-duplicate filter and erasing the source's value type.
type Connector func(stream.Observer[any]) stream.Subscription

// entry is the per-source bookkeeping record: one per distinct source
// referenced by a runner instance. An entry exists if and only if the
// registry holds a live connection to its source.
type entry struct {
	// key is the source's identity: the Observable interface value passed
	// to an accessor. Two accessor calls with the same source resolve to
	// the same entry.
	key any

	// id is the creation ordinal within this runner instance, stable for
	// the entry's lifetime. Trace events reference entries by id.
	id int

	// sub is the ownership handle for the live connection.
	// Released exactly once, on prune or runner teardown.
	sub stream.Subscription

	value    any
	hasValue bool

	// used and tracked are per-pass flags, reset at the start of every
	// pass. used means the pass read this source at all; tracked means it
	// read it through the tracked accessor.
	used    bool
	tracked bool

	// completed records that the source delivered its completion signal.
	completed bool

	strength Strength

	// opening is true during the synchronous portion of the connection
	// opening call. Deliveries in that window are captured as the entry's
	// initial state instead of triggering passes.
	opening bool

	// openErr holds an error delivered during the opening window. It is
	// returned from the access call itself, surfacing as the pass failure.
	openErr error
}

// requiresCompletion reports whether this entry's completion is a
// precondition for the runner's own completion. Entries read only through
// the untracked accessor are exempt once they have delivered a first value;
// before that they are still unclassified and count as tracked.
func (e *entry) requiresCompletion() bool {
	return e.tracked || !e.hasValue
}
