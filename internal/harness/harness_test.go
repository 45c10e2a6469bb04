package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, name string) *Scenario {
	t.Helper()
	sc, err := LoadScenario(filepath.Join("testdata", name))
	require.NoError(t, err)
	return sc
}

func TestLoadScenario_ParsesAndValidates(t *testing.T) {
	sc := load(t, "sum.yaml")
	assert.Equal(t, "sum", sc.Name)
	require.Len(t, sc.Sources, 2)
	assert.Equal(t, "a", sc.Sources[0].Name)
	require.NotNil(t, sc.Sources[0].Initial)
	assert.Equal(t, int64(1), *sc.Sources[0].Initial)
	assert.Equal(t, "add", sc.Expression.Op)
	require.Len(t, sc.Steps, 1)
	assert.Equal(t, "a", sc.Steps[0].Set)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join("testdata", "does-not-exist.yaml"))
	require.Error(t, err)
}

func TestValidate_RejectsBadScenarios(t *testing.T) {
	one := int64(1)
	read := func(src string) *ExprNode { return &ExprNode{Op: "read", Source: src} }

	cases := []struct {
		name string
		sc   Scenario
		want string
	}{
		{
			name: "no name",
			sc:   Scenario{Expression: read("a"), Sources: []SourceDecl{{Name: "a"}}},
			want: "no name",
		},
		{
			name: "no expression",
			sc:   Scenario{Name: "x", Sources: []SourceDecl{{Name: "a"}}},
			want: "no expression",
		},
		{
			name: "duplicate source",
			sc: Scenario{
				Name:       "x",
				Sources:    []SourceDecl{{Name: "a"}, {Name: "a", Initial: &one}},
				Expression: read("a"),
			},
			want: `duplicate source "a"`,
		},
		{
			name: "read of unknown source",
			sc: Scenario{
				Name:       "x",
				Sources:    []SourceDecl{{Name: "a"}},
				Expression: read("b"),
			},
			want: `unknown source "b"`,
		},
		{
			name: "invalid mode",
			sc: Scenario{
				Name:       "x",
				Sources:    []SourceDecl{{Name: "a"}},
				Expression: &ExprNode{Op: "read", Source: "a", Mode: "sometimes"},
			},
			want: "invalid mode",
		},
		{
			name: "invalid strength",
			sc: Scenario{
				Name:       "x",
				Sources:    []SourceDecl{{Name: "a"}},
				Expression: &ExprNode{Op: "read", Source: "a", Strength: "mighty"},
			},
			want: "invalid strength",
		},
		{
			name: "step with no action",
			sc: Scenario{
				Name:       "x",
				Sources:    []SourceDecl{{Name: "a"}},
				Expression: read("a"),
				Steps:      []Step{{}},
			},
			want: "exactly one of set/complete/fail",
		},
		{
			name: "step with two actions",
			sc: Scenario{
				Name:       "x",
				Sources:    []SourceDecl{{Name: "a"}},
				Expression: read("a"),
				Steps:      []Step{{Set: "a", Complete: "a"}},
			},
			want: "exactly one of set/complete/fail",
		},
		{
			name: "step on unknown source",
			sc: Scenario{
				Name:       "x",
				Sources:    []SourceDecl{{Name: "a"}},
				Expression: read("a"),
				Steps:      []Step{{Set: "b"}},
			},
			want: `unknown source "b"`,
		},
		{
			name: "mod arity",
			sc: Scenario{
				Name:       "x",
				Sources:    []SourceDecl{{Name: "a"}},
				Expression: &ExprNode{Op: "mod", Args: []*ExprNode{read("a")}},
			},
			want: "mod requires exactly two args",
		},
		{
			name: "unknown op",
			sc: Scenario{
				Name:       "x",
				Sources:    []SourceDecl{{Name: "a"}},
				Expression: &ExprNode{Op: "mul"},
			},
			want: `unknown op "mul"`,
		},
		{
			name: "connections on unknown source",
			sc: Scenario{
				Name:       "x",
				Sources:    []SourceDecl{{Name: "a"}},
				Expression: read("a"),
				Expect:     &Expect{Connections: map[string]int{"b": 1}},
			},
			want: `unknown source "b"`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.sc.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestRun_SumScenario(t *testing.T) {
	result, err := Run(load(t, "sum.yaml"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "failures: %v", result.Failures)
	assert.Equal(t, []int64{3, 5}, result.Results)
	assert.False(t, result.Completed)
	assert.Empty(t, result.Error)
}

func TestRun_PendingThenCompleteScenario(t *testing.T) {
	result, err := Run(load(t, "pending-then-complete.yaml"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "failures: %v", result.Failures)
	assert.Equal(t, []int64{4}, result.Results)
	assert.True(t, result.Completed)
}

func TestRun_ReportsExpectationFailures(t *testing.T) {
	one := int64(1)
	sc := &Scenario{
		Name:       "wrong expectations",
		Sources:    []SourceDecl{{Name: "a", Initial: &one}},
		Expression: &ExprNode{Op: "read", Source: "a"},
		Expect:     &Expect{Results: []int64{99}, Completed: true},
	}

	result, err := Run(sc)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Len(t, result.Failures, 2)
	assert.Equal(t, []int64{1}, result.Results)
}

func TestRun_SourceFailureStep(t *testing.T) {
	one := int64(1)
	sc := &Scenario{
		Name:       "source failure",
		Sources:    []SourceDecl{{Name: "a", Initial: &one}},
		Expression: &ExprNode{Op: "read", Source: "a"},
		Steps:      []Step{{Fail: "a", Message: "boom"}},
		Expect: &Expect{
			Results: []int64{1},
			Error:   "boom",
		},
	}

	result, err := Run(sc)
	require.NoError(t, err)

	assert.True(t, result.Pass, "failures: %v", result.Failures)
	assert.Equal(t, "boom", result.Error)
	assert.False(t, result.Completed)
}

func TestRun_UntrackedReadDoesNotRetrigger(t *testing.T) {
	one, two := int64(1), int64(2)
	sc := &Scenario{
		Name:    "untracked read",
		Sources: []SourceDecl{{Name: "a", Initial: &one}, {Name: "b", Initial: &two}},
		Expression: &ExprNode{Op: "add", Args: []*ExprNode{
			{Op: "read", Source: "a"},
			{Op: "read", Source: "b", Mode: "untracked"},
		}},
		Steps: []Step{
			{Set: "b", Value: 10}, // untracked: no re-evaluation
			{Set: "a", Value: 5},  // tracked: re-evaluates with latest b
		},
		Expect: &Expect{
			Results:     []int64{3, 15},
			Connections: map[string]int{"a": 1, "b": 1},
		},
	}

	result, err := Run(sc)
	require.NoError(t, err)
	assert.True(t, result.Pass, "failures: %v", result.Failures)
}

func TestRun_CondSwitchesDependencies(t *testing.T) {
	one, ten, twenty := int64(1), int64(10), int64(20)
	sc := &Scenario{
		Name: "cond switch",
		Sources: []SourceDecl{
			{Name: "flag", Initial: &one},
			{Name: "x", Initial: &ten},
			{Name: "y", Initial: &twenty},
		},
		Expression: &ExprNode{Op: "cond", Args: []*ExprNode{
			{Op: "read", Source: "flag"},
			{Op: "read", Source: "x"},
			{Op: "read", Source: "y"},
		}},
		Steps: []Step{
			{Set: "flag", Value: 0},
		},
		Expect: &Expect{
			Results: []int64{10, 20},
			// The branch not taken is released after the second pass.
			Connections: map[string]int{"flag": 1, "x": 0, "y": 1},
		},
	}

	result, err := Run(sc)
	require.NoError(t, err)
	assert.True(t, result.Pass, "failures: %v", result.Failures)
}

func TestRun_ModByZeroFailsRunner(t *testing.T) {
	one, zero := int64(1), int64(0)
	sc := &Scenario{
		Name:    "mod by zero",
		Sources: []SourceDecl{{Name: "a", Initial: &one}, {Name: "b", Initial: &zero}},
		Expression: &ExprNode{Op: "mod", Args: []*ExprNode{
			{Op: "read", Source: "a"},
			{Op: "read", Source: "b"},
		}},
	}

	result, err := Run(sc)
	require.NoError(t, err)

	assert.Empty(t, result.Results)
	assert.Contains(t, result.Error, "mod by zero")
}

func TestRun_RejectsInvalidScenario(t *testing.T) {
	_, err := Run(&Scenario{Name: "x"})
	require.Error(t, err)
}

func TestGoldenName(t *testing.T) {
	assert.Equal(t, "pending-then-complete", GoldenName("Pending Then Complete"))
	assert.Equal(t, "sum", GoldenName("sum"))
}

func TestGolden_Sum(t *testing.T) {
	_, err := RunWithGolden(t, load(t, "sum.yaml"))
	require.NoError(t, err)
}

func TestGolden_PendingThenComplete(t *testing.T) {
	_, err := RunWithGolden(t, load(t, "pending-then-complete.yaml"))
	require.NoError(t, err)
}
