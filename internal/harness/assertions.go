package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the target's part of the trace to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Target   string       // Collection or subset the assertion inspected
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEntry // Trace entries of Target
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s on %s\n", e.Type, e.Target)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nTrace of %s:\n", e.Target)
		for _, entry := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s", entry.Seq, entry.Event)
			if entry.Record != "" {
				fmt.Fprintf(&buf, " %s", entry.Record)
			}
			if entry.Origin != "" {
				fmt.Fprintf(&buf, " (from %s)", entry.Origin)
			}
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// EvaluateAssertions evaluates all assertions against the harness state.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(h *Harness, assertions []Assertion) []string {
	var errors []string

	for i, a := range assertions {
		var err error

		if _, ok := h.collections[a.Target]; !ok {
			errors = append(errors, fmt.Sprintf("assertion[%d]: unknown target %q", i, a.Target))
			continue
		}

		switch a.Type {
		case AssertLength:
			err = h.assertLength(a)
		case AssertContains:
			err = h.assertMembership(a, true)
		case AssertExcludes:
			err = h.assertMembership(a, false)
		case AssertOrder:
			err = h.assertOrder(a)
		case AssertEventCount:
			err = h.assertEventCount(a)
		case AssertDisposed:
			err = h.assertDisposed(a, true)
		case AssertLive:
			err = h.assertDisposed(a, false)
		case AssertInvariant:
			err = h.assertInvariant(a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

func (h *Harness) fail(a Assertion, expected, actual string) error {
	var trace []TraceEntry
	for _, e := range h.result.Trace {
		if e.Collection == a.Target {
			trace = append(trace, e)
		}
	}
	return &AssertionError{
		Type:     a.Type,
		Target:   a.Target,
		Expected: expected,
		Actual:   actual,
		Trace:    trace,
	}
}

// contents returns the record labels a collection holds, nil if it is
// unknown or disposed.
func (h *Harness) contents(name string) []string {
	c, ok := h.collections[name]
	if !ok || c.Disposed() {
		return nil
	}
	labels := make([]string, 0, c.Len())
	for _, r := range c.Records() {
		labels = append(labels, h.label(r))
	}
	return labels
}

func (h *Harness) assertLength(a Assertion) error {
	got := h.contents(a.Target)
	if len(got) != a.Count {
		return h.fail(a,
			fmt.Sprintf("%d records", a.Count),
			fmt.Sprintf("%d records %v", len(got), got))
	}
	return nil
}

func (h *Harness) assertMembership(a Assertion, want bool) error {
	got := h.contents(a.Target)
	var wrong []string
	for _, ref := range a.Records {
		if slices.Contains(got, ref) != want {
			wrong = append(wrong, ref)
		}
	}
	if len(wrong) == 0 {
		return nil
	}
	if want {
		return h.fail(a, fmt.Sprintf("records %v", a.Records), fmt.Sprintf("missing %v from %v", wrong, got))
	}
	return h.fail(a, fmt.Sprintf("none of %v", a.Records), fmt.Sprintf("found %v in %v", wrong, got))
}

func (h *Harness) assertOrder(a Assertion) error {
	got := h.contents(a.Target)
	if !slices.Equal(got, a.Records) {
		return h.fail(a, fmt.Sprintf("%v", a.Records), fmt.Sprintf("%v", got))
	}
	return nil
}

func (h *Harness) assertEventCount(a Assertion) error {
	n := h.result.Count(a.Target, a.Event)
	if n != a.Count {
		return h.fail(a,
			fmt.Sprintf("%d %q events", a.Count, a.Event),
			fmt.Sprintf("%d %q events", n, a.Event))
	}
	return nil
}

func (h *Harness) assertDisposed(a Assertion, want bool) error {
	disposed := h.collections[a.Target].Disposed()
	if disposed != want {
		return h.fail(a, fmt.Sprintf("disposed=%t", want), fmt.Sprintf("disposed=%t", disposed))
	}
	return nil
}

func (h *Harness) assertInvariant(a Assertion) error {
	s, ok := h.subsets[a.Target]
	if !ok {
		return h.fail(a, "a subset", "a root collection")
	}
	if s.Disposed() {
		return h.fail(a, "a live subset", "subset is disposed")
	}
	parent := s.Parent()
	var stray, rejected []string
	for _, r := range s.Child().Records() {
		if !parent.Contains(r) {
			stray = append(stray, h.label(r))
		}
		if !s.Matches(r) {
			rejected = append(rejected, h.label(r))
		}
	}
	if len(stray) > 0 || len(rejected) > 0 {
		return h.fail(a,
			"every child record in the parent and passing the filter",
			fmt.Sprintf("not in parent %v, failing filter %v", stray, rejected))
	}
	return nil
}
