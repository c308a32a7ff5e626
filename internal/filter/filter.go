package filter

import "github.com/roach88/subsync/internal/record"

// Matcher is anything that decides record membership.
// collection.Filterer and *subset.Subset satisfy it.
type Matcher interface {
	Matches(r *record.Record) bool
}

// Predicate adapts a function to Matcher.
type Predicate func(r *record.Record) bool

// Matches calls p. A nil Predicate accepts everything.
func (p Predicate) Matches(r *record.Record) bool {
	if p == nil {
		return true
	}
	return p(r)
}

// True accepts every record.
func True(*record.Record) bool { return true }

// And accepts records matched by every m. Nil matchers are skipped, and the
// matchers are evaluated left to right with short-circuit.
func And(ms ...Matcher) Predicate {
	return func(r *record.Record) bool {
		for _, m := range ms {
			if m == nil {
				continue
			}
			if !m.Matches(r) {
				return false
			}
		}
		return true
	}
}

// Stack builds an effective predicate: own AND upstream. upstream may be
// nil, meaning the parent is unfiltered.
func Stack(own, upstream Matcher) Predicate {
	return And(own, upstream)
}
