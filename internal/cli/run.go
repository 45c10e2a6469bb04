package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/autorun/internal/harness"
	"github.com/roach88/autorun/internal/runner"
	"github.com/roach88/autorun/internal/trace"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
}

// RunReport is the per-scenario outcome in run command output.
type RunReport struct {
	Scenario  string   `json:"scenario"`
	Pass      bool     `json:"pass"`
	Results   []int64  `json:"results"`
	Completed bool     `json:"completed"`
	Error     string   `json:"error,omitempty"`
	Failures  []string `json:"failures,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>...",
		Short: "Run scenario files against the expression runner",
		Long: `Run one or more declarative scenario files.

Each scenario declares sources, an expression over them, steps that
drive the sources, and expectations on the emitted results. With --db,
every runner trace event is also recorded to a SQLite database for
later inspection with the trace command.

Example:
  autorun run ./scenarios/sum.yaml
  autorun run --db ./traces.db ./scenarios/*.yaml --verbose`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database (optional)")

	return cmd
}

func runScenarios(opts *RunOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	var logWriter io.Writer = cmd.ErrOrStderr()
	if !opts.Verbose {
		logWriter = io.Discard
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{Level: logLevel}))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var recorder *trace.Recorder
	if opts.Database != "" {
		var err error
		recorder, err = trace.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open trace database", err)
		}
		defer func() {
			if closeErr := recorder.Close(); closeErr != nil {
				logger.Error("error closing trace database", "error", closeErr)
			}
		}()
	}

	reports := make([]RunReport, 0, len(paths))
	failed := 0
	for _, path := range paths {
		sc, err := harness.LoadScenario(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load scenario", err)
		}

		var sink runner.TraceSink
		if recorder != nil {
			sink = recorder.Sink(ctx, sc.Name, func(err error) {
				logger.Error("trace record failed", "scenario", sc.Name, "error", err)
			})
		}

		formatter.VerboseLog("Running scenario %q from %s", sc.Name, path)
		result, err := harness.RunWith(sc, logger, sink)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to run scenario", err)
		}

		if !result.Pass {
			failed++
		}
		reports = append(reports, RunReport{
			Scenario:  sc.Name,
			Pass:      result.Pass,
			Results:   result.Results,
			Completed: result.Completed,
			Error:     result.Error,
			Failures:  result.Failures,
		})
	}

	if opts.Format == "json" {
		if err := formatter.Success(reports); err != nil {
			return err
		}
	} else {
		printRunReports(formatter.Writer, reports)
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenario(s) failed", failed, len(reports)))
	}
	return nil
}

func printRunReports(w io.Writer, reports []RunReport) {
	for _, rep := range reports {
		status := "PASS"
		if !rep.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%s  %s  results=%v completed=%v\n", status, rep.Scenario, rep.Results, rep.Completed)
		if rep.Error != "" {
			fmt.Fprintf(w, "      error: %s\n", rep.Error)
		}
		for _, failure := range rep.Failures {
			fmt.Fprintf(w, "      %s\n", failure)
		}
	}
}
