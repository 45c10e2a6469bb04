package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/autorun/internal/runner"
	"github.com/roach88/autorun/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
}

// TraceListing is the JSON payload of the trace command.
type TraceListing struct {
	Scenario string         `json:"scenario,omitempty"`
	Names    []string       `json:"scenarios,omitempty"`
	Events   []runner.Event `json:"events,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [scenario]",
		Short: "Inspect recorded trace events",
		Long: `Inspect trace events recorded by run --db.

Without an argument, lists the recorded scenario names. With a scenario
name, prints that scenario's events in logical clock order.

Example:
  autorun trace --db ./traces.db
  autorun trace --db ./traces.db sum`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runTrace(opts *TraceOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	recorder, err := trace.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open trace database", err)
	}
	defer recorder.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if len(args) == 0 {
		names, err := recorder.Scenarios(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list scenarios", err)
		}
		if opts.Format == "json" {
			return formatter.Success(TraceListing{Names: names})
		}
		for _, name := range names {
			fmt.Fprintln(formatter.Writer, name)
		}
		return nil
	}

	scenario := args[0]
	events, err := recorder.List(ctx, scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list trace events", err)
	}
	if len(events) == 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("no trace recorded for scenario %q", scenario))
	}

	if opts.Format == "json" {
		return formatter.Success(TraceListing{Scenario: scenario, Events: events})
	}
	printEvents(formatter.Writer, events)
	return nil
}

func printEvents(w io.Writer, events []runner.Event) {
	for _, ev := range events {
		fmt.Fprintf(w, "%4d  %-19s", ev.Seq, ev.Type)
		if ev.Trigger != "" {
			fmt.Fprintf(w, "  trigger=%s", ev.Trigger)
		}
		if ev.Result != "" {
			fmt.Fprintf(w, "  result=%s", ev.Result)
		}
		if ev.Strength != "" {
			fmt.Fprintf(w, "  source=%d strength=%s", ev.Source, ev.Strength)
		}
		if ev.Error != "" {
			fmt.Fprintf(w, "  error=%s", ev.Error)
		}
		fmt.Fprintln(w)
	}
}
