package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/autorun"
	"github.com/roach88/autorun/internal/runner"
	"github.com/roach88/autorun/stream"
)

// ScenarioToken is the fixed runner token scenarios run under, keeping
// golden traces stable across runs.
const ScenarioToken = "scenario-run"

// Result is the outcome of executing a scenario.
type Result struct {
	// Pass indicates all expectations held.
	Pass bool `json:"pass"`

	// Results is the sequence of values the runner emitted.
	Results []int64 `json:"results"`

	// Completed records whether the runner delivered completion.
	Completed bool `json:"completed"`

	// Error holds the runner's failure message, if it failed.
	Error string `json:"error,omitempty"`

	// Trace is the runner's trace event log, in seq order.
	Trace []runner.Event `json:"trace"`

	// Failures lists expectation violations. Empty when Pass is true.
	Failures []string `json:"failures,omitempty"`
}

func (r *Result) failf(format string, args ...any) {
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run executes a scenario and evaluates its expectations.
//
// Execution flow:
//  1. Create sources in declaration order.
//  2. Connect a runner to the compiled expression; the initial pass runs
//     synchronously.
//  3. Drive the steps in order.
//  4. Release the connection and evaluate expectations.
func Run(sc *Scenario) (*Result, error) {
	return RunWith(sc, nil, nil)
}

// RunWith is Run with scenario-level logging and an extra trace sink,
// used by the CLI. Events always land in the Result's trace; extra, if
// non-nil, receives a copy of each one. Both may be nil.
func RunWith(sc *Scenario, logger *slog.Logger, extra runner.TraceSink) (*Result, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	sources := make(map[string]*stream.Value[int64], len(sc.Sources))
	for _, decl := range sc.Sources {
		if decl.Initial != nil {
			sources[decl.Name] = stream.NewValue(*decl.Initial)
		} else {
			sources[decl.Name] = stream.NewEmptyValue[int64]()
		}
	}

	result := &Result{Pass: true, Results: []int64{}}
	sink := runner.SinkFunc(func(ev runner.Event) {
		result.Trace = append(result.Trace, ev)
		if extra != nil {
			extra.Record(ev)
		}
	})

	sub := runner.Connect(
		compile(sc.Expression, sources),
		stream.Observer[any]{
			Next: func(v any) {
				result.Results = append(result.Results, v.(int64))
			},
			Err: func(err error) {
				result.Error = err.Error()
			},
			Complete: func() { result.Completed = true },
		},
		runner.WithTokenGenerator(runner.NewFixedGenerator(ScenarioToken)),
		runner.WithTraceSink(sink),
		runner.WithLogger(logger),
	)

	logger.Info("scenario connected",
		"scenario", sc.Name,
		"expression", sc.Expression.describe(),
	)

	// Steps keep running after the runner terminates: a terminated runner
	// must ignore further source activity, and expectations verify that.
	for i, st := range sc.Steps {
		switch {
		case st.Set != "":
			logger.Debug("step set", "index", i, "source", st.Set, "value", st.Value)
			sources[st.Set].Set(st.Value)
		case st.Complete != "":
			logger.Debug("step complete", "index", i, "source", st.Complete)
			sources[st.Complete].Complete()
		case st.Fail != "":
			logger.Debug("step fail", "index", i, "source", st.Fail, "message", st.Message)
			sources[st.Fail].Fail(fmt.Errorf("%s", st.Message))
		}
	}

	evaluateConnections(sc, sources, result)
	sub.Unsubscribe()
	evaluateExpect(sc, result)
	return result, nil
}

// compile turns the expression tree into a runner expression reading
// through the public accessors.
func compile(node *ExprNode, sources map[string]*stream.Value[int64]) runner.Expression {
	return func() (any, error) {
		v, err := eval(node, sources)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

func eval(n *ExprNode, sources map[string]*stream.Value[int64]) (int64, error) {
	switch n.Op {
	case "read":
		return evalRead(n, sources)
	case "const":
		return n.Value, nil
	case "add":
		var sum int64
		for _, arg := range n.Args {
			v, err := eval(arg, sources)
			if err != nil {
				return 0, err
			}
			sum += v
		}
		return sum, nil
	case "mod":
		a, err := eval(n.Args[0], sources)
		if err != nil {
			return 0, err
		}
		b, err := eval(n.Args[1], sources)
		if err != nil {
			return 0, err
		}
		if b == 0 {
			return 0, fmt.Errorf("mod by zero in %s", n.describe())
		}
		return a % b, nil
	case "cond":
		c, err := eval(n.Args[0], sources)
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return eval(n.Args[1], sources)
		}
		return eval(n.Args[2], sources)
	default:
		return 0, fmt.Errorf("unknown op %q", n.Op)
	}
}

func evalRead(n *ExprNode, sources map[string]*stream.Value[int64]) (int64, error) {
	src := sources[n.Source]
	tracked := n.Mode != "untracked"

	switch n.Strength {
	case "weak":
		if tracked {
			return autorun.TrackWeak[int64](src)
		}
		return autorun.UntrackWeak[int64](src)
	case "strong":
		if tracked {
			return autorun.TrackStrong[int64](src)
		}
		return autorun.UntrackStrong[int64](src)
	default:
		if tracked {
			return autorun.Track[int64](src)
		}
		return autorun.Untrack[int64](src)
	}
}

// evaluateConnections checks per-source subscription counts before the
// harness releases its own connection.
func evaluateConnections(sc *Scenario, sources map[string]*stream.Value[int64], result *Result) {
	if sc.Expect == nil {
		return
	}
	for name, want := range sc.Expect.Connections {
		if got := sources[name].SubscriberCount(); got != want {
			result.failf("source %s: %d connection(s), want %d", name, got, want)
		}
	}
}

// evaluateExpect checks emitted results and terminal signals.
func evaluateExpect(sc *Scenario, result *Result) {
	if sc.Expect == nil {
		return
	}
	ex := sc.Expect

	if len(result.Results) != len(ex.Results) {
		result.failf("emitted %d result(s) %v, want %d %v",
			len(result.Results), result.Results, len(ex.Results), ex.Results)
	} else {
		for i := range ex.Results {
			if result.Results[i] != ex.Results[i] {
				result.failf("result %d: got %d, want %d", i, result.Results[i], ex.Results[i])
			}
		}
	}

	if result.Completed != ex.Completed {
		result.failf("completed = %v, want %v", result.Completed, ex.Completed)
	}
	if result.Error != ex.Error {
		result.failf("error = %q, want %q", result.Error, ex.Error)
	}
}
