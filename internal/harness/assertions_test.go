package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssertionError_Error(t *testing.T) {
	err := &AssertionError{
		Type:     AssertLength,
		Target:   "small",
		Expected: "2 records",
		Actual:   "1 records [a]",
		Trace: []TraceEntry{
			{Seq: 1, Collection: "small", Event: "reset", Origin: "small", Index: -1},
			{Seq: 4, Collection: "small", Event: "add", Record: "a", Index: 0},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: length on small")
	assert.Contains(t, msg, "Expected: 2 records")
	assert.Contains(t, msg, "Actual: 1 records [a]")
	assert.Contains(t, msg, "[1] reset (from small)")
	assert.Contains(t, msg, "[4] add a\n")
}

func TestAssertionError_NoTrace(t *testing.T) {
	err := &AssertionError{Type: AssertLive, Target: "small", Expected: "disposed=false", Actual: "disposed=true"}
	assert.NotContains(t, err.Error(), "Trace of")
}

func TestEvaluateAssertions_NoAssertions(t *testing.T) {
	result, err := Run(&Scenario{Name: "eval", Collections: []string{"library"}})
	assert.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Equal(t, map[string][]string{"library": {}}, result.Final)
}

func TestEvaluateAssertions_UnknownTarget(t *testing.T) {
	h := &Harness{result: NewResult()}
	errs := EvaluateAssertions(h, []Assertion{{Type: AssertLength, Target: "library"}})
	assert.Equal(t, []string{`assertion[0]: unknown target "library"`}, errs)
}
