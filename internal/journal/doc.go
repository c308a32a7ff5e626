// Package journal stores traces of scenario runs in SQLite.
//
// A run is one execution of a scenario. Each entry is one event observed on
// one collection during that run: the event name, the record it concerned,
// the origin that tagged it and a canonical JSON detail blob.
//
// # Ordering
//
// Entries are ordered by their logical sequence number within a run and runs
// by a journal-wide logical clock. Wall time is never stored, so replaying a
// scenario produces identical rows.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON: deleting a run deletes its entries
package journal
