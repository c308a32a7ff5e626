package collection

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/subsync/internal/events"
	"github.com/roach88/subsync/internal/record"
	"github.com/roach88/subsync/internal/value"
)

// ErrDisposed is returned when an operation needs a live collection.
var ErrDisposed = errors.New("collection is disposed")

// ModelFunc constructs records from attributes. It is the collection's
// record-constructor binding, used by AddAttrs.
type ModelFunc func(attrs value.Object) *record.Record

// Filterer is an effective membership predicate. A collection that is the
// child of a subset remembers the subset as its filterer so that subsets
// attached below it can stack on top of it.
type Filterer interface {
	Matches(r *record.Record) bool
}

// Event is dispatched by a collection.
type Event struct {
	Name       string
	Collection *Collection

	// Record is set for add, remove, change, change:<attr> and destroy.
	Record *record.Record

	// Index is the position the record was inserted at (add) or removed
	// from (remove).
	Index int

	// Changes lists changed attribute names for change events.
	Changes []string

	// Previous holds the contents replaced by a reset.
	Previous []*record.Record

	// Origin is the provenance tag of the mutation, nil if untagged.
	Origin *events.Origin

	// Payload carries arbitrary data for events raised through Trigger.
	Payload any
}

// Collection is an ordered set of records, unique by logical key when a
// record has one and by client identifier otherwise.
//
// Events of held records (change, change:<attr>, destroy) are re-emitted on
// the collection, and a destroyed record is removed before its destroy event
// is forwarded.
//
// Collection is not safe for concurrent use.
type Collection struct {
	name    string
	records []*record.Record
	byID    map[string]*record.Record
	byCID   map[string]*record.Record
	events  *events.Emitter[Event]

	model    ModelFunc
	superset *Collection
	filterer Filterer
	logger   *slog.Logger

	spawned  int
	disposed bool
}

// Option configures a collection at construction.
type Option func(*Collection)

// WithName labels the collection for logs and traces.
func WithName(name string) Option {
	return func(c *Collection) { c.name = name }
}

// WithModel sets the record-constructor binding.
func WithModel(fn ModelFunc) Option {
	return func(c *Collection) { c.model = fn }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Collection) { c.logger = l }
}

// WithRecords seeds the collection without emitting events.
func WithRecords(recs ...*record.Record) Option {
	return func(c *Collection) { c.AddAll(recs, Silent()) }
}

// New creates an empty collection.
func New(opts ...Option) *Collection {
	c := &Collection{
		byID:   make(map[string]*record.Record),
		byCID:  make(map[string]*record.Record),
		events: events.NewEmitter[Event](),
		model:  record.New,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Spawn creates a new empty collection configured like this one (same
// record constructor and logger). Options override the inherited settings.
// The default name is "<name>/<n>".
func (c *Collection) Spawn(opts ...Option) (*Collection, error) {
	if c.disposed {
		return nil, fmt.Errorf("spawn from %q: %w", c.name, ErrDisposed)
	}
	c.spawned++
	base := []Option{
		WithName(fmt.Sprintf("%s/%d", c.name, c.spawned)),
		WithModel(c.model),
		WithLogger(c.logger),
	}
	return New(append(base, opts...)...), nil
}

// Name returns the collection's label.
func (c *Collection) Name() string { return c.name }

// Model returns the record-constructor binding.
func (c *Collection) Model() ModelFunc { return c.model }

// SetModel replaces the record-constructor binding. nil restores record.New.
func (c *Collection) SetModel(fn ModelFunc) {
	if fn == nil {
		fn = record.New
	}
	c.model = fn
}

// Superset returns the collection this one is filtered from, if any.
func (c *Collection) Superset() *Collection { return c.superset }

// SetSuperset records the upstream collection.
func (c *Collection) SetSuperset(p *Collection) { c.superset = p }

// Filterer returns the predicate that governs this collection's membership
// when it is a subset child, or nil.
func (c *Collection) Filterer() Filterer { return c.filterer }

// SetFilterer records the governing predicate.
func (c *Collection) SetFilterer(f Filterer) { c.filterer = f }

// Disposed reports whether Dispose was called.
func (c *Collection) Disposed() bool { return c.disposed }

// Len returns the number of records.
func (c *Collection) Len() int { return len(c.records) }

// At returns the record at index i, or nil if out of range.
func (c *Collection) At(i int) *record.Record {
	if i < 0 || i >= len(c.records) {
		return nil
	}
	return c.records[i]
}

// Records returns a copy of the contents in order.
func (c *Collection) Records() []*record.Record {
	out := make([]*record.Record, len(c.records))
	copy(out, c.records)
	return out
}

// IndexOf returns the position of this exact instance, or -1.
func (c *Collection) IndexOf(r *record.Record) int {
	for i, held := range c.records {
		if held == r {
			return i
		}
	}
	return -1
}

// Contains reports whether this exact instance is held.
func (c *Collection) Contains(r *record.Record) bool {
	return c.IndexOf(r) >= 0
}

// GetByID returns the record held under a logical key, or nil.
func (c *Collection) GetByID(id string) *record.Record {
	if id == "" {
		return nil
	}
	return c.byID[id]
}

// GetByCID returns the record held under a client identifier, or nil.
func (c *Collection) GetByCID(cid string) *record.Record {
	return c.byCID[cid]
}

// Get returns the held record matching r by logical key, falling back to
// client identifier. The result may be a different instance than r.
func (c *Collection) Get(r *record.Record) *record.Record {
	if r == nil {
		return nil
	}
	if held := c.GetByID(r.ID()); held != nil {
		return held
	}
	return c.GetByCID(r.CID())
}

// Lookup resolves a bare key as a logical key, then as a client identifier.
func (c *Collection) Lookup(key string) *record.Record {
	if held := c.GetByID(key); held != nil {
		return held
	}
	return c.GetByCID(key)
}

// Filter returns the records matching pred, in order.
func (c *Collection) Filter(pred func(*record.Record) bool) []*record.Record {
	var out []*record.Record
	for _, r := range c.records {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// On subscribes to collection events. See events.Emitter.On.
func (c *Collection) On(name string, owner any, fn events.Handler[Event]) *events.Subscription {
	return c.events.On(name, owner, fn)
}

// Off revokes one subscription.
func (c *Collection) Off(sub *events.Subscription) {
	c.events.Off(sub)
}

// OffOwner revokes every subscription held by owner.
func (c *Collection) OffOwner(owner any) int {
	return c.events.OffOwner(owner)
}

// Listeners returns the number of active subscriptions held by owner.
func (c *Collection) Listeners(owner any) int {
	return c.events.Count(owner)
}

// Trigger emits a custom event (loading, sync, error, refresh, ...).
func (c *Collection) Trigger(name string, payload any) {
	c.emit(Event{Name: name, Payload: payload})
}

func (c *Collection) emit(ev Event) {
	ev.Collection = c
	c.events.Emit(ev.Name, ev)
}

// Dispose emits "dispose", releases every held record and subscription, and
// marks the collection unusable. Disposing twice is a no-op.
func (c *Collection) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	c.emit(Event{Name: events.Dispose})
	for _, r := range c.records {
		r.Events().OffOwner(c)
	}
	c.records = nil
	c.byID = make(map[string]*record.Record)
	c.byCID = make(map[string]*record.Record)
	c.events.OffAll()
	c.superset = nil
	c.filterer = nil
	c.logger.Debug("collection disposed", "collection", c.name)
}

// String renders the collection for logs.
func (c *Collection) String() string {
	return fmt.Sprintf("%s[%d]", c.name, len(c.records))
}
