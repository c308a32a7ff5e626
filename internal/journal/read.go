package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrRunNotFound is returned by ReadRun for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// ReadRun returns a run and its entries ordered by seq.
func (j *Journal) ReadRun(ctx context.Context, id string) (Run, []Entry, error) {
	var run Run
	var passed int
	err := j.db.QueryRowContext(ctx, `
		SELECT id, scenario, passed, seq FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.Scenario, &passed, &run.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, nil, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, nil, fmt.Errorf("read run %s: %w", id, err)
	}
	run.Passed = passed != 0

	entries, err := j.readEntries(ctx, `WHERE run_id = ?`, id)
	if err != nil {
		return Run{}, nil, err
	}
	return run, entries, nil
}

// ReadCollection returns the entries of one collection in a run.
func (j *Journal) ReadCollection(ctx context.Context, runID, collection string) ([]Entry, error) {
	return j.readEntries(ctx, `WHERE run_id = ? AND collection = ?`, runID, collection)
}

// ListRuns returns every run, oldest first. scenario filters by name when
// not empty.
func (j *Journal) ListRuns(ctx context.Context, scenario string) ([]Run, error) {
	query := `SELECT id, scenario, passed, seq FROM runs`
	var args []any
	if scenario != "" {
		query += ` WHERE scenario = ?`
		args = append(args, scenario)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		var passed int
		if err := rows.Scan(&r.ID, &r.Scenario, &passed, &r.Seq); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Passed = passed != 0
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LastSeq returns the highest entry seq of a run, 0 if it has none.
func (j *Journal) LastSeq(ctx context.Context, runID string) (int64, error) {
	var seq int64
	err := j.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM entries WHERE run_id = ?
	`, runID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq %s: %w", runID, err)
	}
	return seq, nil
}

func (j *Journal) readEntries(ctx context.Context, where string, args ...any) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, seq, collection, event, record, origin, idx, detail
		FROM entries `+where+`
		ORDER BY seq ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Run, &e.Seq, &e.Collection, &e.Event, &e.Record, &e.Origin, &e.Index, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}
