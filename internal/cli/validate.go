package cli

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/encoding/yaml"
	"github.com/spf13/cobra"

	"github.com/roach88/autorun/internal/harness"
)

//go:embed schema.cue
var scenarioSchema string

// ValidationIssue is one problem found in a scenario file.
type ValidationIssue struct {
	File    string `json:"file"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results for the validate command.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml>...",
		Short: "Validate scenario files without running them",
		Long: `Validate scenario files against the scenario schema.

Checks the CUE schema (field names, op names, modes, strengths) and the
structural rules (unique sources, resolvable references, step shape)
without connecting a runner. Faster than run for authoring feedback.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	ctx := cuecontext.New()
	schemaVal := ctx.CompileString(scenarioSchema)
	if err := schemaVal.Err(); err != nil {
		return WrapExitError(ExitCommandError, "failed to compile scenario schema", err)
	}
	schema := schemaVal.LookupPath(cue.ParsePath("#Scenario"))
	if err := schema.Err(); err != nil {
		return WrapExitError(ExitCommandError, "scenario schema has no #Scenario definition", err)
	}

	var issues []ValidationIssue
	for _, path := range paths {
		formatter.VerboseLog("Validating %s", path)
		issues = append(issues, validateFile(ctx, schema, path)...)
	}

	result := ValidationResult{Valid: len(issues) == 0, Issues: issues}
	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		printValidation(formatter, result, len(paths))
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d validation issue(s)", len(issues)))
	}
	return nil
}

// validateFile checks one scenario file, schema first, then the
// structural rules the schema cannot express.
func validateFile(ctx *cue.Context, schema cue.Value, path string) []ValidationIssue {
	file, err := yaml.Extract(path, nil)
	if err != nil {
		return cueIssues(path, err)
	}
	data := ctx.BuildFile(file)
	if err := data.Err(); err != nil {
		return cueIssues(path, err)
	}

	unified := schema.Unify(data)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return cueIssues(path, err)
	}

	// LoadScenario applies the structural rules on top of the schema.
	if _, err := harness.LoadScenario(path); err != nil {
		return []ValidationIssue{{File: path, Message: err.Error()}}
	}
	return nil
}

// cueIssues flattens a CUE error list into per-position issues.
func cueIssues(path string, err error) []ValidationIssue {
	var issues []ValidationIssue
	for _, e := range cueerrors.Errors(err) {
		issue := ValidationIssue{File: path, Message: e.Error()}
		if pos := e.Position(); pos.IsValid() {
			issue.Line = pos.Line()
		}
		issues = append(issues, issue)
	}
	if len(issues) == 0 {
		issues = append(issues, ValidationIssue{File: path, Message: err.Error()})
	}
	return issues
}

func printValidation(f *OutputFormatter, result ValidationResult, fileCount int) {
	if result.Valid {
		fmt.Fprintf(f.Writer, "OK  %d file(s) valid\n", fileCount)
		return
	}
	for _, issue := range result.Issues {
		if issue.Line > 0 {
			fmt.Fprintf(f.Writer, "%s:%d: %s\n", issue.File, issue.Line, issue.Message)
		} else {
			fmt.Fprintf(f.Writer, "%s: %s\n", issue.File, issue.Message)
		}
	}
}
