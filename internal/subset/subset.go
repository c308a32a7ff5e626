package subset

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/subsync/internal/collection"
	"github.com/roach88/subsync/internal/events"
	"github.com/roach88/subsync/internal/filter"
	"github.com/roach88/subsync/internal/record"
)

// ResetPolicy controls which child records a child reset pushes upstream.
type ResetPolicy int

const (
	// ResetUnion adds every record of the reset child to the parent.
	ResetUnion ResetPolicy = iota

	// ResetFiltered adds only the records that pass the effective filter.
	// Rejected records never reach the parent, so sibling views are not
	// affected by them.
	ResetFiltered
)

// String returns the policy name used in scenario files.
func (p ResetPolicy) String() string {
	if p == ResetFiltered {
		return "filtered"
	}
	return "union"
}

// Options configures a Subset.
type Options struct {
	// Parent is required.
	Parent *collection.Collection

	// Child defaults to Parent.Spawn().
	Child *collection.Collection

	// Filter is the subset's own predicate. nil accepts every record.
	Filter filter.Matcher

	// Triggers is a space-separated list of attribute names. When set, a
	// parent change is re-evaluated only if one of them changed.
	Triggers string

	// TriggerSet is Triggers already split. Both are merged.
	TriggerSet []string

	// Refresh populates the child at construction. nil means true.
	Refresh *bool

	// Name labels the subset in logs. Defaults to the child's name.
	Name string

	// Model overrides the child's record constructor after linking.
	Model collection.ModelFunc

	ResetPolicy ResetPolicy

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// OriginGen defaults to UUIDv7Generator.
	OriginGen OriginGenerator
}

// Bool returns a pointer to b, for Options.Refresh.
func Bool(b bool) *bool {
	return &b
}

// Event is dispatched on a subset's own emitter.
type Event struct {
	Name    string
	Subset  *Subset
	Payload any
}

// Subset links a parent collection to a filtered child collection.
//
// The subset owns its subscriptions on both collections but never the
// collections themselves, except that disposing the subset disposes the
// child.
type Subset struct {
	name     string
	parent   *collection.Collection
	child    *collection.Collection
	own      filter.Matcher
	upstream filter.Matcher
	triggers []string
	policy   ResetPolicy
	origin   *events.Origin
	events   *events.Emitter[Event]
	logger   *slog.Logger

	disposing bool
	disposed  bool
}

// New links opts.Parent to opts.Child (or a spawned child) and, unless
// opts.Refresh is false, populates the child from the parent.
func New(opts Options) (*Subset, error) {
	parent := opts.Parent
	if parent == nil {
		return nil, &LinkError{Code: ErrCodeMissingParent, Message: "parent collection is required", Subset: opts.Name}
	}
	if parent.Disposed() {
		return nil, &LinkError{Code: ErrCodeParentDisposed, Message: "parent collection is disposed", Subset: opts.Name}
	}

	child := opts.Child
	if child == nil {
		spawned, err := parent.Spawn()
		if err != nil {
			return nil, &LinkError{Code: ErrCodeParentDisposed, Message: "cannot spawn child", Subset: opts.Name, Err: err}
		}
		child = spawned
	}
	if child.Disposed() {
		return nil, &LinkError{Code: ErrCodeChildDisposed, Message: "child collection is disposed", Subset: opts.Name}
	}
	if isAncestor(child, parent) {
		return nil, &LinkError{
			Code:    ErrCodeCycle,
			Message: "child " + child.Name() + " is the parent or an ancestor of the parent",
			Subset:  opts.Name,
		}
	}

	name := opts.Name
	if name == "" {
		name = child.Name()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gen := opts.OriginGen
	if gen == nil {
		gen = UUIDv7Generator{}
	}

	s := &Subset{
		name:     name,
		triggers: parseTriggers(opts.Triggers, opts.TriggerSet),
		policy:   opts.ResetPolicy,
		origin:   events.NewOrigin(gen.Generate(), name),
		events:   events.NewEmitter[Event](),
		logger:   logger.With("subset", name),
	}

	if err := s.SetParent(parent); err != nil {
		return nil, err
	}
	if err := s.SetChild(child); err != nil {
		parent.OffOwner(s)
		return nil, err
	}
	s.SetFilter(opts.Filter)
	if opts.Model != nil {
		child.SetModel(opts.Model)
	}
	if opts.Refresh == nil || *opts.Refresh {
		s.Refresh()
	}

	s.logger.Info("subset linked",
		"parent", parent.Name(),
		"child", child.Name(),
		"triggers", strings.Join(s.triggers, " "),
		"origin", s.origin.ID(),
	)
	return s, nil
}

// isAncestor reports whether c is p or sits above p in a subset tree.
func isAncestor(c, p *collection.Collection) bool {
	for cur := p; cur != nil; cur = cur.Superset() {
		if cur == c {
			return true
		}
	}
	return false
}

func parseTriggers(s string, set []string) []string {
	var out []string
	for _, name := range append(strings.Fields(s), set...) {
		if name != "" && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

// Name returns the subset's label.
func (s *Subset) Name() string { return s.name }

// Parent returns the parent collection, nil once disposed.
func (s *Subset) Parent() *collection.Collection { return s.parent }

// Child returns the child collection, nil once disposed.
func (s *Subset) Child() *collection.Collection { return s.child }

// Origin returns the tag this subset puts on its own mutations.
func (s *Subset) Origin() *events.Origin { return s.origin }

// Triggers returns a copy of the trigger attribute names.
func (s *Subset) Triggers() []string { return slices.Clone(s.triggers) }

// Disposed reports whether the subset has been disposed.
func (s *Subset) Disposed() bool { return s.disposed }

// SetFilter installs the subset's own predicate and captures the parent's
// filterer as the upstream predicate. It does not refresh the child.
func (s *Subset) SetFilter(m filter.Matcher) {
	if m == nil {
		m = filter.Predicate(filter.True)
	}
	s.own = m
	s.captureUpstream()
}

func (s *Subset) captureUpstream() {
	s.upstream = nil
	if s.parent == nil {
		return
	}
	// Assigning a nil Filterer directly would produce a non-nil Matcher.
	if f := s.parent.Filterer(); f != nil {
		s.upstream = f
	}
}

// Matches is the effective filter: the subset's own predicate and the
// parent's upstream predicate, in that order.
func (s *Subset) Matches(r *record.Record) bool {
	return filter.Stack(s.own, s.upstream).Matches(r)
}

// TriggerMatched reports whether a change to r should be re-evaluated. With
// no triggers every change is. Otherwise the record's most recent Set must
// have changed at least one trigger attribute.
func (s *Subset) TriggerMatched(r *record.Record) bool {
	if len(s.triggers) == 0 {
		return true
	}
	if !r.HasChanged() {
		return false
	}
	for _, name := range r.ChangedAttributes() {
		if slices.Contains(s.triggers, name) {
			return true
		}
	}
	return false
}

// Refresh replaces the child's contents with the parent's matching records
// in parent order, emitting one "reset" and then one "refresh" on the child.
func (s *Subset) Refresh() {
	s.refresh()
}

func (s *Subset) refresh(opts ...collection.MutateOption) {
	if s.disposed {
		return
	}
	recs := s.parent.Filter(s.Matches)
	s.child.Reset(recs, append([]collection.MutateOption{collection.From(s.origin)}, opts...)...)
	s.logger.Debug("subset refreshed", "records", len(recs))
	s.child.Trigger(events.Refresh, s)
}
