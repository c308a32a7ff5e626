// Package record implements the individual record held by collections: a
// bag of attributes with a client identifier, an optional logical key (the
// "id" attribute), change tracking for the most recent Set, and Destroy.
package record
