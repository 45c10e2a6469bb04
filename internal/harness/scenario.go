package harness

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario is one declarative autorun test case: named sources, an
// expression over them, steps that drive the sources, and expectations on
// what the runner delivered.
type Scenario struct {
	// Name uniquely identifies the scenario; golden files are named
	// after it (see GoldenName).
	Name string `yaml:"name"`

	// Description explains what the scenario demonstrates.
	Description string `yaml:"description,omitempty"`

	// Sources declares the stateful sources, in creation order.
	Sources []SourceDecl `yaml:"sources"`

	// Expression is the operator tree evaluated by the runner.
	Expression *ExprNode `yaml:"expression"`

	// Steps drive the sources after the initial evaluation.
	Steps []Step `yaml:"steps,omitempty"`

	// Expect holds the expectations checked after all steps ran.
	Expect *Expect `yaml:"expect,omitempty"`
}

// SourceDecl declares one stateful source.
type SourceDecl struct {
	Name string `yaml:"name"`

	// Initial is the source's starting value. A source without an
	// initial value delivers nothing until its first set step, so
	// expressions reading it abort until then.
	Initial *int64 `yaml:"initial,omitempty"`
}

// ExprNode is one node of the expression tree.
//
// Supported ops:
//
//	read  - read a declared source; fields: source, mode, strength
//	const - a literal value; field: value
//	add   - sum of all args
//	mod   - args[0] % args[1]
//	cond  - args[1] if args[0] is non-zero, else args[2]
type ExprNode struct {
	Op       string      `yaml:"op"`
	Source   string      `yaml:"source,omitempty"`
	Mode     string      `yaml:"mode,omitempty"`     // "tracked" (default) | "untracked"
	Strength string      `yaml:"strength,omitempty"` // "weak" | "normal" (default) | "strong"
	Value    int64       `yaml:"value,omitempty"`
	Args     []*ExprNode `yaml:"args,omitempty"`
}

// Step is one action against a declared source. Exactly one of Set,
// Complete or Fail must be present.
type Step struct {
	// Set names the source receiving Value.
	Set   string `yaml:"set,omitempty"`
	Value int64  `yaml:"value,omitempty"`

	// Complete names the source delivering its completion signal.
	Complete string `yaml:"complete,omitempty"`

	// Fail names the source failing with Message.
	Fail    string `yaml:"fail,omitempty"`
	Message string `yaml:"message,omitempty"`
}

// Expect holds the expectations evaluated after all steps ran.
type Expect struct {
	// Results is the exact sequence of emitted results.
	Results []int64 `yaml:"results"`

	// Completed asserts the runner delivered its completion signal.
	Completed bool `yaml:"completed,omitempty"`

	// Error asserts the runner failed with this message.
	Error string `yaml:"error,omitempty"`

	// Connections asserts per-source live subscription counts after the
	// final step, verifying retention and release.
	Connections map[string]int `yaml:"connections,omitempty"`
}

// LoadScenario reads and validates a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &sc, nil
}

// Validate checks structural consistency: names present and unique,
// exactly one action per step, every reference resolvable, and a
// well-formed expression tree.
func (sc *Scenario) Validate() error {
	if sc.Name == "" {
		return fmt.Errorf("scenario has no name")
	}
	if sc.Expression == nil {
		return fmt.Errorf("scenario has no expression")
	}

	names := make(map[string]bool, len(sc.Sources))
	for _, src := range sc.Sources {
		if src.Name == "" {
			return fmt.Errorf("source with empty name")
		}
		if names[src.Name] {
			return fmt.Errorf("duplicate source %q", src.Name)
		}
		names[src.Name] = true
	}

	if err := sc.Expression.validate(names); err != nil {
		return fmt.Errorf("expression: %w", err)
	}

	for i, st := range sc.Steps {
		target, actions := "", 0
		for _, name := range []string{st.Set, st.Complete, st.Fail} {
			if name != "" {
				actions++
				target = name
			}
		}
		if actions != 1 {
			return fmt.Errorf("step %d: exactly one of set/complete/fail required", i)
		}
		if !names[target] {
			return fmt.Errorf("step %d: unknown source %q", i, target)
		}
	}

	if sc.Expect != nil {
		for name := range sc.Expect.Connections {
			if !names[name] {
				return fmt.Errorf("expect.connections: unknown source %q", name)
			}
		}
	}
	return nil
}

func (n *ExprNode) validate(sources map[string]bool) error {
	switch n.Op {
	case "read":
		if !sources[n.Source] {
			return fmt.Errorf("read of unknown source %q", n.Source)
		}
		switch n.Mode {
		case "", "tracked", "untracked":
		default:
			return fmt.Errorf("read %s: invalid mode %q", n.Source, n.Mode)
		}
		switch n.Strength {
		case "", "weak", "normal", "strong":
		default:
			return fmt.Errorf("read %s: invalid strength %q", n.Source, n.Strength)
		}
	case "const":
	case "add":
		if len(n.Args) == 0 {
			return fmt.Errorf("add requires at least one arg")
		}
	case "mod":
		if len(n.Args) != 2 {
			return fmt.Errorf("mod requires exactly two args")
		}
	case "cond":
		if len(n.Args) != 3 {
			return fmt.Errorf("cond requires exactly three args")
		}
	default:
		return fmt.Errorf("unknown op %q", n.Op)
	}
	for _, arg := range n.Args {
		if err := arg.validate(sources); err != nil {
			return err
		}
	}
	return nil
}

// describe renders the tree for logs and error messages.
func (n *ExprNode) describe() string {
	switch n.Op {
	case "read":
		mode := n.Mode
		if mode == "" {
			mode = "tracked"
		}
		return fmt.Sprintf("%s(%s)", mode, n.Source)
	case "const":
		return fmt.Sprintf("%d", n.Value)
	default:
		parts := make([]string, len(n.Args))
		for i, arg := range n.Args {
			parts[i] = arg.describe()
		}
		return fmt.Sprintf("%s(%s)", n.Op, strings.Join(parts, ", "))
	}
}
