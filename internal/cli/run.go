package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/subsync/internal/harness"
	"github.com/roach88/subsync/internal/journal"
	"github.com/roach88/subsync/internal/subset"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string

	// RunIDs overrides the journal run id generator (for testing).
	// If nil, defaults to subset.UUIDv7Generator.
	RunIDs subset.OriginGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run one scenario and print its trace",
		Long: `Run a scenario and print every collection event it produced,
followed by the final contents of each live collection.

With --db the run and its trace are written to a SQLite journal that the
trace and runs commands can read back.

Exit codes:
  0 - All assertions held
  1 - One or more assertions failed
  2 - Command error (invalid scenario, database error)

Examples:
  subsync run ./scenarios/cascade.cue
  subsync run ./scenarios/cascade.cue --db ./subsync.db
  subsync run ./scenarios/cascade.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (optional)")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger()
	f := newFormatter(opts.RootOptions, cmd)

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return f.Fail(ExitCommandError, CodeLoadFailed, "failed to load scenario", err)
	}

	runOpts := []harness.Option{harness.WithLogger(logger)}
	if opts.Database != "" {
		j, err := journal.Open(opts.Database)
		if err != nil {
			return f.Fail(ExitCommandError, CodeJournal, "failed to open journal", err)
		}
		defer func() {
			if closeErr := j.Close(); closeErr != nil {
				logger.Error("error closing journal", "error", closeErr)
			}
		}()

		gen := opts.RunIDs
		if gen == nil {
			gen = subset.UUIDv7Generator{}
		}
		runID := gen.Generate()
		f.VerboseLog("journaling run %s to %s", runID, opts.Database)
		runOpts = append(runOpts, harness.WithJournal(j, runID))
	}

	result, err := harness.RunContext(ctx, scenario, runOpts...)
	if err != nil {
		return f.Fail(ExitCommandError, CodeRunFailed, "failed to run scenario", err)
	}
	logger.Info("scenario finished", "scenario", scenario.Name, "pass", result.Pass, "events", len(result.Trace))

	if opts.Format == "json" {
		var failure *CLIError
		if !result.Pass {
			failure = &CLIError{
				Code:    CodeRunFailed,
				Message: fmt.Sprintf("%d assertion(s) failed", len(result.Errors)),
				Details: result.Errors,
			}
		}
		if err := f.Result(result, result.Run, failure); err != nil {
			return err
		}
	} else {
		writeRunText(cmd.OutOrStdout(), scenario, result)
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("%d assertion(s) failed", len(result.Errors)))
	}
	return nil
}

func writeRunText(w io.Writer, scenario *harness.Scenario, result *harness.Result) {
	fmt.Fprintf(w, "Scenario: %s\n", scenario.Name)
	if result.Run != "" {
		fmt.Fprintf(w, "Run: %s\n", result.Run)
	}

	fmt.Fprintln(w, "\nTrace:")
	for _, e := range result.Trace {
		writeTraceLine(w, e.Seq, e.Collection, e.Event, e.Record, e.Origin, e.Index)
	}

	fmt.Fprintln(w, "\nFinal:")
	for _, name := range slices.Concat(scenario.Collections, subsetNames(scenario)) {
		labels, ok := result.Final[name]
		if !ok {
			fmt.Fprintf(w, "  %s (disposed)\n", name)
			continue
		}
		fmt.Fprintf(w, "  %s [%s]\n", name, strings.Join(labels, ", "))
	}

	fmt.Fprintln(w)
	if result.Pass {
		fmt.Fprintln(w, "✓ All assertions passed")
		return
	}
	for _, e := range result.Errors {
		fmt.Fprintf(w, "✗ %s\n", e)
	}
}

func writeTraceLine(w io.Writer, seq int64, coll, event, record, origin string, index int) {
	fmt.Fprintf(w, "  [%d] %s %s", seq, coll, event)
	if record != "" {
		fmt.Fprintf(w, " %s", record)
	}
	if index >= 0 {
		fmt.Fprintf(w, " @%d", index)
	}
	if origin != "" {
		fmt.Fprintf(w, " (from %s)", origin)
	}
	fmt.Fprintln(w)
}

func subsetNames(s *harness.Scenario) []string {
	names := make([]string, 0, len(s.Subsets))
	for _, def := range s.Subsets {
		names = append(names, def.Name)
	}
	return names
}
