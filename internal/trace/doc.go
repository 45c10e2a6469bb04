// Package trace persists runner trace events to SQLite.
//
// The runner itself only knows the TraceSink interface; this package
// provides the durable implementation behind it. Recorded traces are
// keyed by scenario name and runner token and ordered by the runner's
// logical clock, so a listed trace reads back exactly as it was
// produced.
package trace
