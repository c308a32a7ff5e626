package filter

import (
	"fmt"
	"strings"

	"github.com/roach88/subsync/internal/record"
	"github.com/roach88/subsync/internal/value"
)

// Operator is a comparison applied by a Condition.
type Operator string

const (
	OpEqual        Operator = "eq"
	OpNotEqual     Operator = "ne"
	OpLessThan     Operator = "lt"
	OpLessEqual    Operator = "lte"
	OpGreaterThan  Operator = "gt"
	OpGreaterEqual Operator = "gte"
	OpIn           Operator = "in"
	OpContains     Operator = "contains"
	OpExists       Operator = "exists"
)

var operatorAliases = map[string]Operator{
	"eq": OpEqual, "==": OpEqual, "=": OpEqual,
	"ne": OpNotEqual, "!=": OpNotEqual,
	"lt": OpLessThan, "<": OpLessThan,
	"lte": OpLessEqual, "<=": OpLessEqual,
	"gt": OpGreaterThan, ">": OpGreaterThan,
	"gte": OpGreaterEqual, ">=": OpGreaterEqual,
	"in":       OpIn,
	"contains": OpContains,
	"exists":   OpExists,
}

// ParseOperator resolves an operator name or symbol ("lt", "<", ...).
func ParseOperator(s string) (Operator, error) {
	op, ok := operatorAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown operator %q", s)
	}
	return op, nil
}

// Condition compares one attribute against a constant.
type Condition struct {
	Key      string
	Operator Operator
	Value    value.Value
}

// Matches evaluates the condition. A missing attribute never matches, except
// that OpExists reports presence. Ordered comparisons between mismatched
// types never match.
func (c Condition) Matches(r *record.Record) bool {
	if c.Operator == OpExists {
		want := true
		if b, ok := c.Value.(value.Bool); ok {
			want = bool(b)
		}
		return r.Has(c.Key) == want
	}

	got := r.Get(c.Key)
	if got == nil {
		return false
	}

	switch c.Operator {
	case OpEqual:
		return value.Equal(got, c.Value)
	case OpNotEqual:
		return !value.Equal(got, c.Value)
	case OpLessThan:
		cmp, ok := value.Compare(got, c.Value)
		return ok && cmp < 0
	case OpLessEqual:
		cmp, ok := value.Compare(got, c.Value)
		return ok && cmp <= 0
	case OpGreaterThan:
		cmp, ok := value.Compare(got, c.Value)
		return ok && cmp > 0
	case OpGreaterEqual:
		cmp, ok := value.Compare(got, c.Value)
		return ok && cmp >= 0
	case OpIn:
		return contains(c.Value, got)
	case OpContains:
		return contains(got, c.Value)
	default:
		return false
	}
}

// contains reports whether haystack holds needle: an element of an Array,
// or a substring of a String.
func contains(haystack, needle value.Value) bool {
	switch h := haystack.(type) {
	case value.Array:
		for _, item := range h {
			if value.Equal(item, needle) {
				return true
			}
		}
	case value.String:
		if s, ok := needle.(value.String); ok {
			return strings.Contains(string(h), string(s))
		}
	}
	return false
}

// String renders the condition, e.g. "number lt 10".
func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.Key, c.Operator, value.Native(c.Value))
}

// Conditions is a conjunction of conditions. An empty set matches
// everything.
type Conditions []Condition

// Matches reports whether every condition matches.
func (cs Conditions) Matches(r *record.Record) bool {
	for _, c := range cs {
		if !c.Matches(r) {
			return false
		}
	}
	return true
}

// Predicate returns cs as a Predicate.
func (cs Conditions) Predicate() Predicate {
	return cs.Matches
}
