package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/subsync/internal/journal"
	"github.com/roach88/subsync/internal/value"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
	Scenario string
}

// RunSummary describes one journaled run.
type RunSummary struct {
	ID       string `json:"id"`
	Scenario string `json:"scenario"`
	Passed   bool   `json:"passed"`
	Seq      int64  `json:"seq"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List journaled runs",
		Long: `List the runs recorded in a journal, oldest first.

Examples:
  subsync runs --db ./subsync.db
  subsync runs --db ./subsync.db --scenario cascade --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "only runs of this scenario")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	j, err := journal.Open(opts.Database)
	if err != nil {
		return f.Fail(ExitCommandError, CodeJournal, "failed to open journal", err)
	}
	defer j.Close()

	runs, err := j.ListRuns(context.Background(), opts.Scenario)
	if err != nil {
		return f.Fail(ExitCommandError, CodeJournal, "failed to list runs", err)
	}

	summaries := make([]RunSummary, 0, len(runs))
	for _, r := range runs {
		summaries = append(summaries, RunSummary{ID: r.ID, Scenario: r.Scenario, Passed: r.Passed, Seq: r.Seq})
	}

	if opts.Format == "json" {
		return f.Success(summaries)
	}

	if len(summaries) == 0 {
		return f.Success("No runs found.")
	}
	var buf strings.Builder
	for _, r := range summaries {
		mark := "✓"
		if !r.Passed {
			mark = "✗"
		}
		fmt.Fprintf(&buf, "%s %s  %s\n", mark, r.ID, r.Scenario)
	}
	return f.Success(strings.TrimSuffix(buf.String(), "\n"))
}

// nativeObject converts a journal detail into plain Go values for JSON
// output.
func nativeObject(obj value.Object) map[string]any {
	out, _ := value.Native(obj).(map[string]any)
	return out
}
