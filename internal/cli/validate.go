package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/subsync/internal/harness"
)

// ValidationResult reports whether one scenario file loaded cleanly.
type ValidationResult struct {
	Path  string `json:"path"`
	Name  string `json:"name,omitempty"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario|dir>...",
		Short: "Validate scenario files",
		Long: `Parse and validate scenario files without running them.

YAML files are decoded strictly (unknown fields are errors). CUE files are
evaluated and must be concrete. Every subset parent, step target, record
reference, filter expression and assertion is checked.

Exit codes:
  0 - All scenarios are valid
  1 - One or more scenarios are invalid
  2 - Command error (missing paths)

Examples:
  subsync validate ./scenarios
  subsync validate cascade.cue promote.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, args []string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	files, err := expandScenarioArgs(args)
	if err != nil {
		return f.Fail(ExitCommandError, CodeNotFound, "failed to find scenarios", err)
	}

	results := make([]ValidationResult, 0, len(files))
	invalid := 0
	for _, path := range files {
		f.VerboseLog("validating %s", path)
		r := ValidationResult{Path: path, Valid: true}
		s, err := harness.LoadScenario(path)
		if err != nil {
			r.Valid = false
			r.Error = err.Error()
			invalid++
		} else {
			r.Name = s.Name
		}
		opts.Logger().Debug("validated scenario", "path", path, "valid", r.Valid)
		results = append(results, r)
	}

	if opts.Format == "json" {
		var failure *CLIError
		if invalid > 0 {
			failure = &CLIError{
				Code:    CodeInvalidScenario,
				Message: fmt.Sprintf("%d scenario(s) invalid", invalid),
			}
		}
		if err := f.Result(results, "", failure); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, r := range results {
			if r.Valid {
				fmt.Fprintf(w, "✓ %s (%s)\n", r.Name, r.Path)
			} else {
				fmt.Fprintf(w, "✗ %s\n  %s\n", r.Path, r.Error)
			}
		}
	}

	if invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) invalid", invalid))
	}
	return nil
}
