// Package filter provides record predicates for subsets: plain Go
// functions, declarative attribute conditions, and CEL expressions, plus the
// combinators used to stack a subset's own predicate on the predicate
// inherited from upstream.
package filter
