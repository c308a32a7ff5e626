package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/subsync/internal/record"
	"github.com/roach88/subsync/internal/value"
)

func numbered(n int64) *record.Record {
	return record.New(value.Of(value.O("id", value.Int(n)), value.O("number", value.Int(n))))
}

func lessThan(n int64) Predicate {
	return func(r *record.Record) bool {
		v, ok := r.Get("number").(value.Int)
		return ok && int64(v) < n
	}
}

func TestPredicate_NilAcceptsEverything(t *testing.T) {
	var p Predicate
	assert.True(t, p.Matches(numbered(1)))
	assert.True(t, True(numbered(1)))
}

func TestStack(t *testing.T) {
	parent := lessThan(10)
	child := Stack(lessThan(5), parent)

	assert.True(t, child.Matches(numbered(1)))
	assert.False(t, child.Matches(numbered(7)))

	unfiltered := Stack(lessThan(5), nil)
	assert.True(t, unfiltered.Matches(numbered(4)))
}

func TestAnd_ShortCircuits(t *testing.T) {
	calls := 0
	counting := Predicate(func(*record.Record) bool { calls++; return true })

	assert.False(t, And(lessThan(0), counting).Matches(numbered(1)))
	assert.Equal(t, 0, calls)
}

func TestParseOperator(t *testing.T) {
	for in, want := range map[string]Operator{
		"lt": OpLessThan, "<": OpLessThan, " LTE ": OpLessEqual, "==": OpEqual,
		"!=": OpNotEqual, ">": OpGreaterThan, ">=": OpGreaterEqual,
		"in": OpIn, "contains": OpContains, "exists": OpExists,
	} {
		got, err := ParseOperator(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseOperator("like")
	assert.Error(t, err)
}

func TestCondition_Matches(t *testing.T) {
	r := record.New(value.Of(
		value.O("number", value.Int(5)),
		value.O("name", value.String("alpha")),
		value.O("tags", value.Array{value.String("x"), value.String("y")}),
		value.O("gone", value.Null{}),
	))

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"eq", Condition{"number", OpEqual, value.Int(5)}, true},
		{"ne", Condition{"number", OpNotEqual, value.Int(5)}, false},
		{"lt", Condition{"number", OpLessThan, value.Int(10)}, true},
		{"lt boundary", Condition{"number", OpLessThan, value.Int(5)}, false},
		{"lte", Condition{"number", OpLessEqual, value.Int(5)}, true},
		{"gt", Condition{"number", OpGreaterThan, value.Int(0)}, true},
		{"gte", Condition{"number", OpGreaterEqual, value.Int(6)}, false},
		{"type mismatch", Condition{"number", OpLessThan, value.String("z")}, false},
		{"in", Condition{"number", OpIn, value.Array{value.Int(1), value.Int(5)}}, true},
		{"not in", Condition{"number", OpIn, value.Array{value.Int(1)}}, false},
		{"contains element", Condition{"tags", OpContains, value.String("y")}, true},
		{"contains substring", Condition{"name", OpContains, value.String("lph")}, true},
		{"missing", Condition{"nope", OpEqual, value.Int(1)}, false},
		{"exists", Condition{"name", OpExists, nil}, true},
		{"exists null", Condition{"gone", OpExists, nil}, false},
		{"not exists", Condition{"nope", OpExists, value.Bool(false)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cond.Matches(r))
		})
	}
}

func TestConditions_Conjunction(t *testing.T) {
	cs := Conditions{
		{Key: "number", Operator: OpGreaterThan, Value: value.Int(0)},
		{Key: "number", Operator: OpLessThan, Value: value.Int(10)},
	}

	assert.True(t, cs.Matches(numbered(5)))
	assert.False(t, cs.Predicate().Matches(numbered(10)))
	assert.True(t, Conditions(nil).Matches(numbered(10)))
	assert.Equal(t, "number gt 0", cs[0].String())
}

func TestCompileCEL(t *testing.T) {
	p, err := CompileCEL("r.number < 10")
	require.NoError(t, err)

	assert.True(t, p.Matches(numbered(5)))
	assert.False(t, p.Matches(numbered(15)))
	assert.False(t, p.Matches(record.New(nil)), "missing attribute does not match")
}

func TestCompileCEL_IdentifierVariables(t *testing.T) {
	p, err := CompileCEL(`id == "3"`)
	require.NoError(t, err)
	assert.True(t, p.Matches(numbered(3)))
	assert.False(t, p.Matches(numbered(4)))

	anon := record.New(nil)
	q, err := CompileCEL(`cid == "` + anon.CID() + `"`)
	require.NoError(t, err)
	assert.True(t, q.Matches(anon))
}

func TestCompileCEL_Rejects(t *testing.T) {
	_, err := CompileCEL("r.number <")
	assert.Error(t, err)

	_, err = CompileCEL(`"text"`)
	assert.Error(t, err)
}
