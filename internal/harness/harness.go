package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/subsync/internal/collection"
	"github.com/roach88/subsync/internal/events"
	"github.com/roach88/subsync/internal/filter"
	"github.com/roach88/subsync/internal/journal"
	"github.com/roach88/subsync/internal/record"
	"github.com/roach88/subsync/internal/subset"
	"github.com/roach88/subsync/internal/testutil"
	"github.com/roach88/subsync/internal/value"
)

// Harness executes one scenario against live collections and subsets.
// Every collection event is stamped with a deterministic sequence number,
// and subsets get sequential origin ids, so a scenario always yields the
// same trace.
type Harness struct {
	scenario    *Scenario
	collections map[string]*collection.Collection
	subsets     map[string]*subset.Subset
	records     map[string]*record.Record
	labels      map[*record.Record]string
	order       []string
	clock       *testutil.DeterministicClock
	originGen   *testutil.SequentialGenerator
	logger      *slog.Logger
	result      *Result
}

// Option configures a run.
type Option func(*runConfig)

type runConfig struct {
	logger  *slog.Logger
	journal *journal.Journal
	runID   string
}

// WithLogger routes collection and subset logs to l. Runs are silent by
// default.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) { c.logger = l }
}

// WithJournal records the run and its trace in j under runID.
func WithJournal(j *journal.Journal, runID string) Option {
	return func(c *runConfig) {
		c.journal = j
		c.runID = runID
	}
}

// Run executes a scenario and returns the result. An error means the
// scenario could not be executed; failed assertions are reported in the
// result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	return RunContext(context.Background(), scenario, opts...)
}

// RunContext is Run with a context for journal writes.
func RunContext(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	h := &Harness{
		scenario:    scenario,
		collections: make(map[string]*collection.Collection),
		subsets:     make(map[string]*subset.Subset),
		records:     make(map[string]*record.Record),
		labels:      make(map[*record.Record]string),
		clock:       testutil.NewDeterministicClock(),
		originGen:   testutil.NewSequentialGenerator(scenario.Name),
		logger:      cfg.logger,
		result:      NewResult(),
	}

	if err := h.setup(); err != nil {
		return nil, fmt.Errorf("failed to set up scenario: %w", err)
	}
	for i, st := range scenario.Steps {
		if err := h.apply(st); err != nil {
			return nil, fmt.Errorf("steps[%d] (%s): %w", i, st.Op, err)
		}
	}

	for _, msg := range EvaluateAssertions(h, scenario.Assertions) {
		h.result.AddError(msg)
	}
	h.snapshotFinal()

	if cfg.journal != nil {
		if err := h.writeJournal(ctx, cfg.journal, cfg.runID); err != nil {
			return nil, fmt.Errorf("failed to journal run: %w", err)
		}
		h.result.Run = cfg.runID
	}

	return h.result, nil
}

func (h *Harness) setup() error {
	for _, def := range h.scenario.Records {
		attrs, err := value.ObjectFrom(def.Attrs)
		if err != nil {
			return fmt.Errorf("record %q: %w", def.Ref, err)
		}
		r := record.New(attrs)
		h.records[def.Ref] = r
		h.labels[r] = def.Ref
	}

	for _, name := range h.scenario.Collections {
		c := collection.New(collection.WithName(name), collection.WithLogger(h.logger))
		h.track(name, c)
	}

	for _, def := range h.scenario.Subsets {
		if err := h.link(def); err != nil {
			return fmt.Errorf("subset %q: %w", def.Name, err)
		}
	}
	return nil
}

// link spawns the child and starts tracing it before the subset attaches, so
// the initial refresh is part of the trace.
func (h *Harness) link(def SubsetDef) error {
	parent, err := h.collection(def.Parent)
	if err != nil {
		return err
	}
	m, err := buildFilter(def.Filter, def.Where)
	if err != nil {
		return err
	}
	policy, err := parseResetPolicy(def.ResetPolicy)
	if err != nil {
		return err
	}

	child, err := parent.Spawn(collection.WithName(def.Name), collection.WithLogger(h.logger))
	if err != nil {
		return err
	}
	h.track(def.Name, child)

	s, err := subset.New(subset.Options{
		Parent:      parent,
		Child:       child,
		Filter:      m,
		Triggers:    def.Triggers,
		Refresh:     def.Refresh,
		Name:        def.Name,
		ResetPolicy: policy,
		Logger:      h.logger,
		OriginGen:   h.originGen,
	})
	if err != nil {
		return err
	}
	h.subsets[def.Name] = s
	return nil
}

func (h *Harness) track(name string, c *collection.Collection) {
	h.collections[name] = c
	h.order = append(h.order, name)
	c.On(events.All, h, func(ev collection.Event) {
		entry := TraceEntry{
			Seq:        h.clock.Next(),
			Collection: name,
			Event:      ev.Name,
			Origin:     ev.Origin.Name(),
			Index:      -1,
		}
		if ev.Record != nil {
			entry.Record = h.label(ev.Record)
		}
		switch ev.Name {
		case events.Add, events.Remove:
			entry.Index = ev.Index
		case events.Change:
			entry.Changes = ev.Changes
		}
		h.result.Trace = append(h.result.Trace, entry)
	})
}

func (h *Harness) apply(st Step) error {
	switch st.Op {
	case OpAdd, OpRemove, OpReset:
		c, err := h.collection(st.Target)
		if err != nil {
			return err
		}
		recs, err := h.refs(st.Records)
		if err != nil {
			return err
		}
		switch st.Op {
		case OpAdd:
			var opts []collection.MutateOption
			if st.At != nil {
				opts = append(opts, collection.At(*st.At))
			}
			c.AddAll(recs, opts...)
		case OpRemove:
			c.RemoveAll(recs)
		default:
			c.Reset(recs)
		}
	case OpSet, OpDestroy:
		r, err := h.record(st.Record)
		if err != nil {
			return err
		}
		if st.Op == OpDestroy {
			r.Destroy()
			return nil
		}
		attrs, err := value.ObjectFrom(st.Attrs)
		if err != nil {
			return err
		}
		r.Set(attrs)
	case OpDispose, OpTrigger:
		c, err := h.collection(st.Target)
		if err != nil {
			return err
		}
		if st.Op == OpDispose {
			c.Dispose()
			return nil
		}
		c.Trigger(st.Event, nil)
	case OpDisposeSubset, OpRefresh, OpSetFilter:
		s, err := h.subset(st.Target)
		if err != nil {
			return err
		}
		switch st.Op {
		case OpDisposeSubset:
			s.Dispose()
		case OpRefresh:
			s.Refresh()
		default:
			m, err := buildFilter(st.Filter, st.Where)
			if err != nil {
				return err
			}
			s.SetFilter(m)
			s.Refresh()
		}
	default:
		return fmt.Errorf("unknown op %q", st.Op)
	}
	return nil
}

func (h *Harness) collection(name string) (*collection.Collection, error) {
	c, ok := h.collections[name]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", name)
	}
	return c, nil
}

func (h *Harness) subset(name string) (*subset.Subset, error) {
	s, ok := h.subsets[name]
	if !ok {
		return nil, fmt.Errorf("unknown subset %q", name)
	}
	return s, nil
}

func (h *Harness) record(ref string) (*record.Record, error) {
	r, ok := h.records[ref]
	if !ok {
		return nil, fmt.Errorf("unknown record %q", ref)
	}
	return r, nil
}

func (h *Harness) refs(names []string) ([]*record.Record, error) {
	out := make([]*record.Record, 0, len(names))
	for _, name := range names {
		r, err := h.record(name)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (h *Harness) label(r *record.Record) string {
	if ref, ok := h.labels[r]; ok {
		return ref
	}
	if id := r.ID(); id != "" {
		return id
	}
	return r.CID()
}

func (h *Harness) snapshotFinal() {
	for _, name := range h.order {
		c := h.collections[name]
		if c.Disposed() {
			continue
		}
		labels := make([]string, 0, c.Len())
		for _, r := range c.Records() {
			labels = append(labels, h.label(r))
		}
		h.result.Final[name] = labels
	}
}

func (h *Harness) writeJournal(ctx context.Context, j *journal.Journal, runID string) error {
	if _, err := j.WriteRun(ctx, journal.Run{
		ID:       runID,
		Scenario: h.scenario.Name,
		Passed:   h.result.Pass,
	}); err != nil {
		return err
	}

	entries := make([]journal.Entry, 0, len(h.result.Trace))
	for _, e := range h.result.Trace {
		detail := ""
		if len(e.Changes) > 0 {
			changes := make(value.Array, len(e.Changes))
			for i, name := range e.Changes {
				changes[i] = value.String(name)
			}
			var err error
			detail, err = journal.MarshalDetail(value.Of(value.O("changes", changes)))
			if err != nil {
				return err
			}
		}
		entries = append(entries, journal.Entry{
			Run:        runID,
			Seq:        e.Seq,
			Collection: e.Collection,
			Event:      e.Event,
			Record:     e.Record,
			Origin:     e.Origin,
			Index:      e.Index,
			Detail:     detail,
		})
	}
	return j.WriteEntries(ctx, entries)
}

// buildFilter combines a CEL expression and where conditions. It returns nil
// when neither is given.
func buildFilter(expr string, where []Where) (filter.Matcher, error) {
	var ms []filter.Matcher
	if expr != "" {
		p, err := filter.CompileCEL(expr)
		if err != nil {
			return nil, err
		}
		ms = append(ms, p)
	}
	if len(where) > 0 {
		conds := make(filter.Conditions, 0, len(where))
		for i, w := range where {
			op, err := filter.ParseOperator(w.Op)
			if err != nil {
				return nil, fmt.Errorf("where[%d]: %w", i, err)
			}
			v, err := value.From(w.Value)
			if err != nil {
				return nil, fmt.Errorf("where[%d]: %w", i, err)
			}
			conds = append(conds, filter.Condition{Key: w.Key, Operator: op, Value: v})
		}
		ms = append(ms, conds)
	}

	switch len(ms) {
	case 0:
		return nil, nil
	case 1:
		return ms[0], nil
	}
	return filter.And(ms...), nil
}

func parseResetPolicy(s string) (subset.ResetPolicy, error) {
	switch s {
	case "", "union":
		return subset.ResetUnion, nil
	case "filtered":
		return subset.ResetFiltered, nil
	}
	return subset.ResetUnion, fmt.Errorf("unknown reset_policy %q", s)
}
