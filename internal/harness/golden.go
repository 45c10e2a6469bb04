package harness

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/autorun/internal/runner"
)

// TraceSnapshot is the golden-file payload for one scenario execution:
// the emitted results, the terminal signal, and the full trace event log.
type TraceSnapshot struct {
	Scenario  string         `json:"scenario"`
	Results   []int64        `json:"results"`
	Completed bool           `json:"completed"`
	Error     string         `json:"error,omitempty"`
	Trace     []runner.Event `json:"trace"`
}

// GoldenName derives the golden fixture name from a scenario name:
// Unicode-normalized (NFC), lowercased, spaces replaced with dashes.
// Scenario files written on different platforms then resolve to the
// same fixture.
func GoldenName(name string) string {
	name = norm.NFC.String(name)
	name = strings.ToLower(name)
	return strings.ReplaceAll(name, " ", "-")
}

// RunWithGolden executes a scenario and compares its trace snapshot
// against testdata/golden/{GoldenName}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, sc *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(sc)
	if err != nil {
		return nil, err
	}

	snapshot := TraceSnapshot{
		Scenario:  sc.Name,
		Results:   result.Results,
		Completed: result.Completed,
		Error:     result.Error,
		Trace:     result.Trace,
	}
	data, err := json.MarshalIndent(&snapshot, "", "  ")
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, GoldenName(sc.Name), data)

	return result, nil
}
