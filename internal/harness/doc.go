// Package harness executes declarative autorun scenarios.
//
// A scenario defines named stateful sources, one expression over them, and
// a list of steps that push values into, complete, or fail those sources.
// The harness connects a runner to the expression, drives the steps, and
// returns everything the connection delivered together with the runner's
// trace events.
//
// Scenarios are deterministic by construction: sources are created in
// declaration order, the runner uses a fixed token and a fresh logical
// clock, and trace events carry no wall-clock timestamps. The same
// scenario therefore always produces the same trace, which makes golden
// comparison (see RunWithGolden) meaningful.
//
// The expression is a small operator tree rather than arbitrary code, so
// scenarios can live in YAML files next to the golden traces they
// produce:
//
//	name: tracked-plus-untracked
//	sources:
//	  - name: A
//	    initial: 1
//	  - name: B
//	    initial: 2
//	expression:
//	  op: add
//	  args:
//	    - {op: read, source: A}
//	    - {op: read, source: B, mode: untracked}
//	steps:
//	  - set: B
//	    value: 5
//	  - set: A
//	    value: 2
//	expect:
//	  results: [3, 7]
package harness
