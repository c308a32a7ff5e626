package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/subsync/internal/value"
)

// TraceSnapshot captures the trace and final contents of a scenario run.
// It is serialized with canonical JSON for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []TraceEntry
	Final        map[string][]string
}

// toCanonicalMap converts a TraceSnapshot to plain maps and slices, the
// shapes value.MarshalCanonical accepts.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, e := range s.Trace {
		entry := map[string]any{
			"seq":        e.Seq,
			"collection": e.Collection,
			"event":      e.Event,
		}
		if e.Record != "" {
			entry["record"] = e.Record
		}
		if e.Origin != "" {
			entry["origin"] = e.Origin
		}
		if e.Index >= 0 {
			entry["index"] = e.Index
		}
		if len(e.Changes) > 0 {
			entry["changes"] = e.Changes
		}
		traceList[i] = entry
	}

	final := make(map[string]any, len(s.Final))
	for name, labels := range s.Final {
		final[name] = labels
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
		"final":         final,
	}
}

// MarshalSnapshot renders a result as canonical JSON.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		Final:        result.Final,
	}
	return value.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario cannot be executed. A snapshot mismatch
// fails t through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
