package journal

import (
	"context"
	"fmt"
)

// WriteRun inserts or updates a run. A zero Seq is assigned from the
// journal clock; the assigned run is returned.
func (j *Journal) WriteRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		return run, fmt.Errorf("write run: empty id")
	}
	if run.Seq == 0 {
		run.Seq = j.clock.Next()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO runs (id, scenario, passed, seq)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET passed = excluded.passed
	`, run.ID, run.Scenario, boolToInt(run.Passed), run.Seq)
	if err != nil {
		return run, fmt.Errorf("write run %s: %w", run.ID, err)
	}
	return run, nil
}

// WriteEntry inserts one entry. Duplicate (run, seq) pairs are ignored.
func (j *Journal) WriteEntry(ctx context.Context, e Entry) error {
	return j.WriteEntries(ctx, []Entry{e})
}

// WriteEntries inserts entries in a single transaction. Duplicate
// (run, seq) pairs are silently ignored so that a trace can be re-journaled.
//
// The run referenced by each entry must exist (foreign key constraint).
func (j *Journal) WriteEntries(ctx context.Context, entries []Entry) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write entries: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (run_id, seq, collection, event, record, origin, idx, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write entries: prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		detail := e.Detail
		if detail == "" {
			detail = "{}"
		}
		if _, err := stmt.ExecContext(ctx, e.Run, e.Seq, e.Collection, e.Event, e.Record, e.Origin, e.Index, detail); err != nil {
			return fmt.Errorf("write entry %s/%d: %w", e.Run, e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write entries: commit: %w", err)
	}
	return nil
}

// DeleteRun removes a run and, through the foreign key, its entries.
func (j *Journal) DeleteRun(ctx context.Context, id string) error {
	if _, err := j.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
