package runner

import "github.com/roach88/autorun/stream"

// Registry owns the dependency entries for one runner instance. It opens
// and releases connections, applies the strength-based retention policy,
// and forwards asynchronous deliveries to the runner.
//
// Entries are kept both in a map keyed by source identity and in an
// insertion-order slice, so pruning, completion checks and trace output are
// deterministic.
type Registry struct {
	run     *Runner
	entries map[any]*entry
	order   []*entry
	nextID  int

	// maybeRestore holds the entries provisionally downgraded from Normal
	// to Weak at the start of the current pass. If the pass aborts, the
	// downgrade is undone: an aborted pass proves nothing about usage.
	maybeRestore []*entry

	// halted latches when an access call hands out ErrPending during the
	// current pass. The pass driver treats the pass as aborted even if the
	// expression swallowed the error and returned normally.
	halted bool

	// pendingCompletionCheck defers completion checks requested while a
	// pass is running; the pass driver re-evaluates after the pass ends.
	pendingCompletionCheck bool
}

func newRegistry(run *Runner) *Registry {
	return &Registry{
		run:     run,
		entries: make(map[any]*entry),
	}
}

// Access resolves one accessor call against the registry.
//
// If no entry exists for key, one is created and its connection opened
// immediately; values, errors and completions delivered during the opening
// call are captured as the entry's initial state. A synchronously delivered
// error is returned to the caller and surfaces as the pass's failure.
//
// The entry is marked used; tracked access forces the tracked flag; the
// strength is raised to max(current, requested), never lowered within a
// pass. If the entry has a value it is returned; otherwise the pass is
// aborted via ErrPending.
func (reg *Registry) Access(key any, connect Connector, tracked bool, strength Strength) (any, error) {
	e, ok := reg.entries[key]
	if !ok {
		e = reg.addEntry(key, connect, strength)
		if e.openErr != nil {
			return nil, e.openErr
		}
	}

	e.used = true
	if tracked {
		e.tracked = true
	}
	if strength > e.strength {
		e.strength = strength
	}

	if e.hasValue {
		return e.value, nil
	}

	reg.halted = true
	return nil, ErrPending
}

// addEntry creates an entry and opens its connection synchronously.
func (reg *Registry) addEntry(key any, connect Connector, strength Strength) *entry {
	e := &entry{key: key, id: reg.nextID, strength: strength}
	reg.nextID++
	reg.entries[key] = e
	reg.order = append(reg.order, e)
	reg.run.traceDependency(eventDependencyAdded, e)

	e.opening = true
	e.sub = connect(stream.Observer[any]{
		Next:     func(v any) { reg.deliverValue(e, v) },
		Err:      func(err error) { reg.deliverError(e, err) },
		Complete: func() { reg.deliverComplete(e) },
	})
	e.opening = false
	return e
}

// deliverValue handles a value delivery from an entry's connection. During
// the opening window the value is captured inline; afterwards a value on a
// tracked entry re-runs the expression, and a first value on an untracked
// entry re-checks completion (its exemption status just changed).
func (reg *Registry) deliverValue(e *entry, v any) {
	first := !e.hasValue
	e.value, e.hasValue = v, true
	if e.opening {
		return
	}
	reg.run.onAsyncValue(e, first)
}

// deliverError handles a terminal error from an entry's connection. Any
// failure - tracked or untracked - fails the whole runner.
func (reg *Registry) deliverError(e *entry, err error) {
	if e.opening {
		e.openErr = err
		return
	}
	reg.run.fail(err)
}

// deliverComplete handles a completion signal from an entry's connection.
func (reg *Registry) deliverComplete(e *entry) {
	e.completed = true
	if e.opening {
		reg.pendingCompletionCheck = true
		return
	}
	reg.run.onAsyncComplete(e)
}

// beginPass runs the provisional-downgrade protocol: every Normal entry is
// set to Weak and remembered for restoration, and every entry's per-pass
// flags are reset. If the pass ends up not referencing a downgraded entry,
// pruning at Normal threshold removes it; if the pass aborts, the downgrade
// is undone.
func (reg *Registry) beginPass() {
	reg.halted = false
	reg.maybeRestore = reg.maybeRestore[:0]
	for _, e := range reg.order {
		if e.strength == Normal {
			e.strength = Weak
			reg.maybeRestore = append(reg.maybeRestore, e)
		}
		e.used = false
		e.tracked = false
	}
}

// restoreDowngraded undoes the provisional downgrade after an aborted pass.
func (reg *Registry) restoreDowngraded() {
	for _, e := range reg.maybeRestore {
		e.strength = Normal
	}
	reg.maybeRestore = reg.maybeRestore[:0]
}

// prune releases and removes every entry that the pass just concluded did
// not use and whose strength is at or below threshold. Normal threshold
// follows a successful pass; Weak threshold follows an aborted one.
func (reg *Registry) prune(threshold Strength) {
	kept := reg.order[:0]
	for _, e := range reg.order {
		if !e.used && e.strength <= threshold {
			delete(reg.entries, e.key)
			e.sub.Unsubscribe()
			reg.run.traceDependency(eventDependencyDropped, e)
			continue
		}
		kept = append(kept, e)
	}
	// Clear trailing slots so released entries do not linger in the
	// backing array.
	for i := len(kept); i < len(reg.order); i++ {
		reg.order[i] = nil
	}
	reg.order = kept
}

// releaseAll releases every connection and empties the registry.
// Called once, on runner teardown.
func (reg *Registry) releaseAll() {
	order := reg.order
	reg.order = nil
	reg.entries = make(map[any]*entry)
	for _, e := range order {
		if e.sub != nil {
			e.sub.Unsubscribe()
		}
	}
}

// Len returns the number of live entries. Used by tests.
func (reg *Registry) Len() int { return len(reg.order) }
