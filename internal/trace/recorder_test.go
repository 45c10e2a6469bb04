package trace

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/autorun/internal/runner"
)

func openTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	rec, err := Open(filepath.Join(t.TempDir(), "trace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })
	return rec
}

func TestRecorder_AppendAndList(t *testing.T) {
	rec := openTestRecorder(t)
	ctx := context.Background()

	events := []runner.Event{
		{Token: "run-1", Seq: 1, Type: "pass_started", Trigger: "connect"},
		{Token: "run-1", Seq: 2, Type: "dependency_added", Source: 0, Strength: "normal"},
		{Token: "run-1", Seq: 3, Type: "result_emitted", Trigger: "connect", Result: "3"},
	}
	for _, ev := range events {
		require.NoError(t, rec.Append(ctx, "sum", ev))
	}

	got, err := rec.List(ctx, "sum")
	require.NoError(t, err)
	assert.Equal(t, events, got)
}

func TestRecorder_ListReturnsSeqOrder(t *testing.T) {
	rec := openTestRecorder(t)
	ctx := context.Background()

	// Inserted out of order; List must return seq order.
	require.NoError(t, rec.Append(ctx, "s", runner.Event{Token: "r", Seq: 3, Type: "completed"}))
	require.NoError(t, rec.Append(ctx, "s", runner.Event{Token: "r", Seq: 1, Type: "pass_started", Trigger: "connect"}))
	require.NoError(t, rec.Append(ctx, "s", runner.Event{Token: "r", Seq: 2, Type: "result_emitted", Result: "1"}))

	got, err := rec.List(ctx, "s")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(1), got[0].Seq)
	assert.Equal(t, int64(2), got[1].Seq)
	assert.Equal(t, int64(3), got[2].Seq)
}

func TestRecorder_AppendIsIdempotent(t *testing.T) {
	rec := openTestRecorder(t)
	ctx := context.Background()

	ev := runner.Event{Token: "r", Seq: 1, Type: "pass_started", Trigger: "connect"}
	require.NoError(t, rec.Append(ctx, "s", ev))
	require.NoError(t, rec.Append(ctx, "s", ev))

	got, err := rec.List(ctx, "s")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRecorder_ScenariosAreIsolated(t *testing.T) {
	rec := openTestRecorder(t)
	ctx := context.Background()

	require.NoError(t, rec.Append(ctx, "beta", runner.Event{Token: "r", Seq: 1, Type: "pass_started"}))
	require.NoError(t, rec.Append(ctx, "alpha", runner.Event{Token: "r", Seq: 1, Type: "pass_started"}))

	names, err := rec.Scenarios(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, names)

	got, err := rec.List(ctx, "alpha")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = rec.List(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecorder_SinkRecordsRunnerEvents(t *testing.T) {
	rec := openTestRecorder(t)
	ctx := context.Background()

	var sinkErrs []error
	sink := rec.Sink(ctx, "live", func(err error) { sinkErrs = append(sinkErrs, err) })

	sink.Record(runner.Event{Token: "r", Seq: 1, Type: "pass_started", Trigger: "connect"})
	sink.Record(runner.Event{Token: "r", Seq: 2, Type: "result_emitted", Result: "42"})

	require.Empty(t, sinkErrs)
	got, err := rec.List(ctx, "live")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "42", got[1].Result)
}

func TestOpen_ReopenExistingDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.db")
	ctx := context.Background()

	rec, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, rec.Append(ctx, "s", runner.Event{Token: "r", Seq: 1, Type: "pass_started"}))
	require.NoError(t, rec.Close())

	rec, err = Open(path)
	require.NoError(t, err)
	defer rec.Close()

	got, err := rec.List(ctx, "s")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
