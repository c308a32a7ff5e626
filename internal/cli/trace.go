package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/subsync/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database   string
	RunID      string
	Collection string // optional - filter to one collection
}

// TraceEvent is one journaled event in trace output.
type TraceEvent struct {
	Seq        int64          `json:"seq"`
	Collection string         `json:"collection"`
	Event      string         `json:"event"`
	Record     string         `json:"record,omitempty"`
	Origin     string         `json:"origin,omitempty"`
	Index      *int           `json:"index,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
}

// TraceStats holds summary statistics for a run.
type TraceStats struct {
	TotalEvents int            `json:"total_events"`
	ByEvent     map[string]int `json:"by_event"`
	Tagged      int            `json:"tagged"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Run      string       `json:"run"`
	Scenario string       `json:"scenario"`
	Passed   bool         `json:"passed"`
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the journaled trace of a run",
		Long: `Read a run back from the journal.

Shows every collection event in order with the record it concerned and the
subset whose mutation produced it, followed by summary statistics.

Examples:
  subsync trace --db ./subsync.db --run 0190c0de-...
  subsync trace --db ./subsync.db --run 0190c0de-... --collection small
  subsync trace --db ./subsync.db --run 0190c0de-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to trace (required)")
	_ = cmd.MarkFlagRequired("run")
	cmd.Flags().StringVar(&opts.Collection, "collection", "", "filter to one collection")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	f := newFormatter(opts.RootOptions, cmd)

	j, err := journal.Open(opts.Database)
	if err != nil {
		return f.Fail(ExitCommandError, CodeJournal, "failed to open journal", err)
	}
	defer j.Close()

	run, entries, err := j.ReadRun(ctx, opts.RunID)
	if errors.Is(err, journal.ErrRunNotFound) {
		return f.Fail(ExitCommandError, CodeNotFound, fmt.Sprintf("run not found: %s", opts.RunID), nil)
	}
	if err != nil {
		return f.Fail(ExitCommandError, CodeJournal, "failed to read run", err)
	}
	if opts.Collection != "" {
		entries, err = j.ReadCollection(ctx, opts.RunID, opts.Collection)
		if err != nil {
			return f.Fail(ExitCommandError, CodeJournal, "failed to read collection", err)
		}
	}

	result, err := buildTraceResult(run, entries)
	if err != nil {
		return f.Fail(ExitCommandError, CodeJournal, "failed to decode journal", err)
	}

	if opts.Format == "json" {
		return f.Result(result, run.ID, nil)
	}

	w := cmd.OutOrStdout()
	status := "passed"
	if !run.Passed {
		status = "failed"
	}
	fmt.Fprintf(w, "Run: %s\nScenario: %s (%s)\n\nTimeline:\n", run.ID, run.Scenario, status)
	for _, e := range entries {
		writeTraceLine(w, e.Seq, e.Collection, e.Event, e.Record, e.Origin, e.Index)
	}
	fmt.Fprintf(w, "\nStats: %d events, %d tagged by a subset\n", result.Stats.TotalEvents, result.Stats.Tagged)
	return nil
}

func buildTraceResult(run journal.Run, entries []journal.Entry) (TraceResult, error) {
	result := TraceResult{
		Run:      run.ID,
		Scenario: run.Scenario,
		Passed:   run.Passed,
		Timeline: make([]TraceEvent, 0, len(entries)),
		Stats:    TraceStats{ByEvent: make(map[string]int)},
	}

	for _, e := range entries {
		ev := TraceEvent{
			Seq:        e.Seq,
			Collection: e.Collection,
			Event:      e.Event,
			Record:     e.Record,
			Origin:     e.Origin,
		}
		if e.Index >= 0 {
			idx := e.Index
			ev.Index = &idx
		}
		detail, err := journal.UnmarshalDetail(e.Detail)
		if err != nil {
			return result, fmt.Errorf("entry %d: %w", e.Seq, err)
		}
		if len(detail) > 0 {
			ev.Detail = nativeObject(detail)
		}

		result.Timeline = append(result.Timeline, ev)
		result.Stats.TotalEvents++
		result.Stats.ByEvent[e.Event]++
		if e.Origin != "" {
			result.Stats.Tagged++
		}
	}
	return result, nil
}
