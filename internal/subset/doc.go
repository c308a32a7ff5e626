// Package subset keeps a child collection equal to the records of a parent
// collection that match a filter, and propagates mutations both ways.
//
// A Subset links exactly one parent to exactly one child:
//
//	parent add/remove/change/reset  ->  child follows the filter
//	child add/reset                 ->  parent receives the records
//	parent or child dispose         ->  the subset and its child are disposed
//
// Subsets stack. When the parent is itself the child of another subset, a
// record must pass both filters to reach the grandchild, and a record added at
// the bottom of a tree travels to the root and back down every sibling branch
// whose filters it passes.
//
// Every mutation a subset performs is tagged with the subset's own
// events.Origin. Its handlers ignore events carrying that origin, which is
// what stops parent-to-child-to-parent feedback.
//
// All propagation is synchronous: when a collection method returns, every
// linked collection in the tree has been updated.
package subset
