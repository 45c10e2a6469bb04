package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI with the given args and returns stdout and the
// command error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRoot_RejectsInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "validate", filepath.Join("testdata", "sum.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestExitError_CodeExtraction(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "nope")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	wrapped := WrapExitError(ExitCommandError, "open", errors.New("no such file"))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
	assert.Contains(t, wrapped.Error(), "no such file")
	assert.EqualError(t, errors.Unwrap(wrapped), "no such file")
}

func TestOutputFormatter_JSONEnvelope(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}
	require.NoError(t, f.Success(map[string]int{"n": 1}))

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	buf.Reset()
	require.NoError(t, f.Error("E001", "broken", nil))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E001", resp.Error.Code)
}

func TestRun_PassingScenario(t *testing.T) {
	out, err := execute(t, "run", filepath.Join("testdata", "sum.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "PASS  sum")
	assert.Contains(t, out, "results=[3 5]")
}

func TestRun_FailingScenarioExitsWithFailure(t *testing.T) {
	out, err := execute(t, "run", filepath.Join("testdata", "failing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "FAIL  failing")
}

func TestRun_MissingScenarioFile(t *testing.T) {
	_, err := execute(t, "run", filepath.Join("testdata", "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_JSONOutput(t *testing.T) {
	out, err := execute(t, "--format", "json", "run", filepath.Join("testdata", "sum.yaml"))
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	payload, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var reports []RunReport
	require.NoError(t, json.Unmarshal(payload, &reports))
	require.Len(t, reports, 1)
	assert.True(t, reports[0].Pass)
	assert.Equal(t, []int64{3, 5}, reports[0].Results)
}

func TestRun_RecordsAndTraceReadsBack(t *testing.T) {
	db := filepath.Join(t.TempDir(), "traces.db")

	_, err := execute(t, "run", "--db", db, filepath.Join("testdata", "sum.yaml"))
	require.NoError(t, err)

	out, err := execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "sum")

	out, err = execute(t, "trace", "--db", db, "sum")
	require.NoError(t, err)
	assert.Contains(t, out, "pass_started")
	assert.Contains(t, out, "result_emitted")
	assert.Contains(t, out, "result=5")
}

func TestTrace_UnknownScenario(t *testing.T) {
	db := filepath.Join(t.TempDir(), "traces.db")

	_, err := execute(t, "run", "--db", db, filepath.Join("testdata", "sum.yaml"))
	require.NoError(t, err)

	_, err = execute(t, "trace", "--db", db, "nope")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestTrace_RequiresDatabaseFlag(t *testing.T) {
	_, err := execute(t, "trace")
	require.Error(t, err)
}

func TestValidate_ValidFile(t *testing.T) {
	out, err := execute(t, "validate", filepath.Join("testdata", "sum.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "OK")
}

func TestValidate_RejectsUnknownOp(t *testing.T) {
	out, err := execute(t, "validate", filepath.Join("testdata", "bad-op.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "bad-op.yaml")
}

func TestValidate_JSONOutput(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", filepath.Join("testdata", "bad-op.yaml"))
	require.Error(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	payload, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result ValidationResult
	require.NoError(t, json.Unmarshal(payload, &result))
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Issues)
}
