// Package harness runs declarative subset scenarios.
//
// A scenario, written in YAML or CUE, declares root collections, records and
// a chain of subsets, then applies mutations (add, remove, reset, set,
// destroy, dispose, refresh, set_filter, trigger) and checks the final
// contents of every collection.
//
// Every event raised on every collection is recorded in dispatch order with
// a deterministic sequence number, the record's ref, and the name of the
// subset that produced it. The trace is compared against golden files and
// can be written to a journal.
//
// Child collections are traced before their subset attaches, so a
// subset's initial refresh (reset followed by refresh) is the first thing
// recorded on its child. On a root collection the trace listener is
// registered first, so an event appears before the events it causes
// further down the tree.
package harness
