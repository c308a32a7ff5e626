package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/subsync/internal/filter"
)

// Scenario declares a graph of collections and subsets, seeds it with
// records, applies a sequence of mutations and checks the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name" json:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description" json:"description"`

	// Collections lists the root collections, created empty.
	Collections []string `yaml:"collections" json:"collections"`

	// Records declares the record instances steps refer to by ref.
	Records []RecordDef `yaml:"records,omitempty" json:"records,omitempty"`

	// Subsets are linked in declaration order. A subset's parent must be a
	// root collection or an earlier subset.
	Subsets []SubsetDef `yaml:"subsets,omitempty" json:"subsets,omitempty"`

	// Steps run after every subset is linked.
	Steps []Step `yaml:"steps,omitempty" json:"steps,omitempty"`

	// Assertions validate the trace and the final state.
	Assertions []Assertion `yaml:"assertions" json:"assertions"`
}

// RecordDef declares one record instance.
type RecordDef struct {
	Ref   string         `yaml:"ref" json:"ref"`
	Attrs map[string]any `yaml:"attrs,omitempty" json:"attrs,omitempty"`
}

// Where is one attribute condition of a declarative filter.
type Where struct {
	Key   string `yaml:"key" json:"key"`
	Op    string `yaml:"op" json:"op"`
	Value any    `yaml:"value,omitempty" json:"value,omitempty"`
}

// SubsetDef links a child collection, named Name, below Parent.
type SubsetDef struct {
	Name   string `yaml:"name" json:"name"`
	Parent string `yaml:"parent" json:"parent"`

	// Filter is a CEL expression over r, id and cid.
	Filter string `yaml:"filter,omitempty" json:"filter,omitempty"`

	// Where conditions are combined with Filter.
	Where []Where `yaml:"where,omitempty" json:"where,omitempty"`

	Triggers    string `yaml:"triggers,omitempty" json:"triggers,omitempty"`
	Refresh     *bool  `yaml:"refresh,omitempty" json:"refresh,omitempty"`
	ResetPolicy string `yaml:"reset_policy,omitempty" json:"reset_policy,omitempty"`
}

// Step is one mutation.
type Step struct {
	Op string `yaml:"op" json:"op"`

	// Target names a collection or subset.
	Target string `yaml:"target,omitempty" json:"target,omitempty"`

	// Records are refs for add, remove and reset.
	Records []string `yaml:"records,omitempty" json:"records,omitempty"`

	// Record is the ref for set and destroy.
	Record string `yaml:"record,omitempty" json:"record,omitempty"`

	Attrs map[string]any `yaml:"attrs,omitempty" json:"attrs,omitempty"`
	At    *int           `yaml:"at,omitempty" json:"at,omitempty"`

	// Event is the custom event name for trigger.
	Event string `yaml:"event,omitempty" json:"event,omitempty"`

	// Filter and Where replace a subset's filter for set_filter.
	Filter string  `yaml:"filter,omitempty" json:"filter,omitempty"`
	Where  []Where `yaml:"where,omitempty" json:"where,omitempty"`
}

// Step operations.
const (
	OpAdd           = "add"
	OpRemove        = "remove"
	OpReset         = "reset"
	OpSet           = "set"
	OpDestroy       = "destroy"
	OpDispose       = "dispose"
	OpDisposeSubset = "dispose_subset"
	OpRefresh       = "refresh"
	OpTrigger       = "trigger"
	OpSetFilter     = "set_filter"
)

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "length": Target holds exactly Count records
	// - "contains": Target holds every record in Records
	// - "excludes": Target holds none of Records
	// - "order": Target holds exactly Records, in order
	// - "event_count": Event was seen on Target exactly Count times
	// - "disposed" / "live": Target's disposal state
	// - "invariant": every record of subset Target is in its parent and
	//   passes its filter
	Type string `yaml:"type" json:"type"`

	Target  string   `yaml:"target" json:"target"`
	Count   int      `yaml:"count,omitempty" json:"count,omitempty"`
	Records []string `yaml:"records,omitempty" json:"records,omitempty"`
	Event   string   `yaml:"event,omitempty" json:"event,omitempty"`
}

// Assertion type constants.
const (
	AssertLength     = "length"
	AssertContains   = "contains"
	AssertExcludes   = "excludes"
	AssertOrder      = "order"
	AssertEventCount = "event_count"
	AssertDisposed   = "disposed"
	AssertLive       = "live"
	AssertInvariant  = "invariant"
)

// LoadScenario reads a scenario file. Files ending in .cue are evaluated
// with CUE; everything else is parsed as YAML with unknown fields rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario *Scenario
	if filepath.Ext(path) == ".cue" {
		scenario, err = ParseCUE(data, path)
	} else {
		scenario, err = ParseYAML(data)
	}
	if err != nil {
		return nil, err
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseYAML decodes a YAML scenario without validating it.
func ParseYAML(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// ParseCUE evaluates a CUE scenario and decodes the concrete result without
// validating it. filename is used in error positions.
func ParseCUE(data []byte, filename string) (*Scenario, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile CUE: %s", formatCUEError(err))
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("scenario is not concrete: %s", formatCUEError(err))
	}

	var scenario Scenario
	if err := v.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to decode CUE: %s", formatCUEError(err))
	}
	return &scenario, nil
}

func formatCUEError(err error) string {
	return strings.TrimSpace(cueerrors.Details(err, nil))
}

// validateScenario checks that required fields are present and that every
// name a subset, step or assertion uses is declared.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Collections) == 0 {
		return fmt.Errorf("collections list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	names := make(map[string]bool)
	for i, name := range s.Collections {
		if name == "" {
			return fmt.Errorf("collections[%d]: name is required", i)
		}
		if names[name] {
			return fmt.Errorf("collections[%d]: duplicate name %q", i, name)
		}
		names[name] = true
	}

	subsets := make(map[string]bool)
	for i := range s.Subsets {
		def := &s.Subsets[i]
		if def.Name == "" {
			return fmt.Errorf("subsets[%d]: name is required", i)
		}
		if names[def.Name] {
			return fmt.Errorf("subsets[%d]: duplicate name %q", i, def.Name)
		}
		if !names[def.Parent] {
			return fmt.Errorf("subsets[%d]: unknown parent %q", i, def.Parent)
		}
		if err := validateFilter(def.Filter, def.Where); err != nil {
			return fmt.Errorf("subsets[%d]: %w", i, err)
		}
		if _, err := parseResetPolicy(def.ResetPolicy); err != nil {
			return fmt.Errorf("subsets[%d]: %w", i, err)
		}
		names[def.Name] = true
		subsets[def.Name] = true
	}

	refs := make(map[string]bool)
	for i, rec := range s.Records {
		if rec.Ref == "" {
			return fmt.Errorf("records[%d]: ref is required", i)
		}
		if refs[rec.Ref] {
			return fmt.Errorf("records[%d]: duplicate ref %q", i, rec.Ref)
		}
		refs[rec.Ref] = true
	}

	for i := range s.Steps {
		if err := validateStep(&s.Steps[i], names, subsets, refs); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(&s.Assertions[i], names, subsets, refs); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}

	return nil
}

func validateFilter(expr string, where []Where) error {
	if expr != "" {
		if _, err := filter.CompileCEL(expr); err != nil {
			return err
		}
	}
	for i, w := range where {
		if w.Key == "" {
			return fmt.Errorf("where[%d]: key is required", i)
		}
		if _, err := filter.ParseOperator(w.Op); err != nil {
			return fmt.Errorf("where[%d]: %w", i, err)
		}
	}
	return nil
}

func validateRefs(list []string, refs map[string]bool) error {
	for _, ref := range list {
		if !refs[ref] {
			return fmt.Errorf("unknown record %q", ref)
		}
	}
	return nil
}

func validateStep(st *Step, names, subsets, refs map[string]bool) error {
	switch st.Op {
	case OpAdd, OpRemove, OpReset:
		if !names[st.Target] {
			return fmt.Errorf("%s: unknown target %q", st.Op, st.Target)
		}
		if st.Op != OpReset && len(st.Records) == 0 {
			return fmt.Errorf("%s: records list is required", st.Op)
		}
		return validateRefs(st.Records, refs)
	case OpSet, OpDestroy:
		if !refs[st.Record] {
			return fmt.Errorf("%s: unknown record %q", st.Op, st.Record)
		}
		if st.Op == OpSet && len(st.Attrs) == 0 {
			return fmt.Errorf("set: attrs are required")
		}
	case OpDispose:
		if !names[st.Target] {
			return fmt.Errorf("dispose: unknown target %q", st.Target)
		}
	case OpDisposeSubset, OpRefresh:
		if !subsets[st.Target] {
			return fmt.Errorf("%s: unknown subset %q", st.Op, st.Target)
		}
	case OpSetFilter:
		if !subsets[st.Target] {
			return fmt.Errorf("set_filter: unknown subset %q", st.Target)
		}
		return validateFilter(st.Filter, st.Where)
	case OpTrigger:
		if !names[st.Target] {
			return fmt.Errorf("trigger: unknown target %q", st.Target)
		}
		if st.Event == "" {
			return fmt.Errorf("trigger: event is required")
		}
	default:
		return fmt.Errorf("unknown op %q", st.Op)
	}
	return nil
}

var assertionTypes = []string{
	AssertLength, AssertContains, AssertExcludes, AssertOrder,
	AssertEventCount, AssertDisposed, AssertLive, AssertInvariant,
}

func validateAssertion(a *Assertion, names, subsets, refs map[string]bool) error {
	if !slices.Contains(assertionTypes, a.Type) {
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	if !names[a.Target] {
		return fmt.Errorf("%s: unknown target %q", a.Type, a.Target)
	}

	switch a.Type {
	case AssertLength:
		if a.Count < 0 {
			return fmt.Errorf("length: count must be non-negative")
		}
	case AssertContains, AssertExcludes:
		if len(a.Records) == 0 {
			return fmt.Errorf("%s: records list is required", a.Type)
		}
		return validateRefs(a.Records, refs)
	case AssertOrder:
		return validateRefs(a.Records, refs)
	case AssertEventCount:
		if a.Event == "" {
			return fmt.Errorf("event_count: event is required")
		}
	case AssertInvariant:
		if !subsets[a.Target] {
			return fmt.Errorf("invariant: %q is not a subset", a.Target)
		}
	}
	return nil
}
