package record

import (
	"slices"
	"strconv"
	"sync/atomic"

	"github.com/roach88/subsync/internal/events"
	"github.com/roach88/subsync/internal/value"
)

// IDAttribute is the attribute holding a record's logical key.
const IDAttribute = "id"

var cidCounter atomic.Int64

// nextCID returns a process-unique client identifier ("c1", "c2", ...).
func nextCID() string {
	return "c" + strconv.FormatInt(cidCounter.Add(1), 10)
}

// Event is dispatched by a record.
type Event struct {
	Name   string
	Record *Record

	// Changes lists the attribute names changed by the Set call that
	// produced a change event, sorted.
	Changes []string
}

// Record is a set of named attributes with a transient client identifier
// and, once an "id" attribute is assigned, a logical key.
//
// Every Set call replaces the record's change set: HasChanged and
// ChangedAttributes describe only the most recent Set.
type Record struct {
	cid       string
	attrs     value.Object
	previous  value.Object
	changed   value.Object
	events    *events.Emitter[Event]
	destroyed bool
}

// New creates a record holding a copy of attrs.
func New(attrs value.Object) *Record {
	if attrs == nil {
		attrs = value.Object{}
	}
	return &Record{
		cid:      nextCID(),
		attrs:    attrs.Clone(),
		previous: value.Object{},
		changed:  value.Object{},
		events:   events.NewEmitter[Event](),
	}
}

// CID returns the client identifier, unique for the record's in-memory
// lifetime.
func (r *Record) CID() string {
	return r.cid
}

// ID returns the logical key, or "" if none is assigned.
func (r *Record) ID() string {
	return value.Key(r.attrs[IDAttribute])
}

// Get returns the named attribute, or nil if absent.
func (r *Record) Get(name string) value.Value {
	return r.attrs[name]
}

// Has reports whether the attribute is present and not Null.
func (r *Record) Has(name string) bool {
	v, ok := r.attrs[name]
	if !ok {
		return false
	}
	_, isNull := v.(value.Null)
	return !isNull
}

// Attributes returns a copy of all attributes.
func (r *Record) Attributes() value.Object {
	return r.attrs.Clone()
}

// SetOption configures a Set call.
type SetOption func(*setConfig)

type setConfig struct {
	silent bool
}

// Silent suppresses change events. The change set is still recorded.
func Silent() SetOption {
	return func(c *setConfig) { c.silent = true }
}

// Set merges attrs into the record. It emits "change:<attr>" for each
// attribute whose value differs, then a single "change". It returns whether
// anything changed.
func (r *Record) Set(attrs value.Object, opts ...SetOption) bool {
	cfg := setConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	r.previous = r.attrs.Clone()
	r.changed = value.Object{}
	for k, v := range attrs {
		if v == nil {
			v = value.Null{}
		}
		if cur, ok := r.attrs[k]; ok && value.Equal(cur, v) {
			continue
		}
		r.attrs[k] = v
		r.changed[k] = v
	}
	if len(r.changed) == 0 {
		return false
	}
	if cfg.silent {
		return true
	}

	names := r.ChangedAttributes()
	for _, name := range names {
		r.events.Emit(events.ChangeOf(name), Event{Name: events.ChangeOf(name), Record: r, Changes: names})
	}
	r.events.Emit(events.Change, Event{Name: events.Change, Record: r, Changes: names})
	return true
}

// HasChanged reports whether the last Set changed anything.
func (r *Record) HasChanged() bool {
	return len(r.changed) > 0
}

// ChangedAttributes returns the names changed by the last Set, sorted.
func (r *Record) ChangedAttributes() []string {
	names := make([]string, 0, len(r.changed))
	for k := range r.changed {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// Previous returns the value an attribute had before the last Set.
func (r *Record) Previous(name string) value.Value {
	return r.previous[name]
}

// Destroy emits "destroy". Collections holding the record remove it in
// response. Destroying twice is a no-op.
func (r *Record) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	r.events.Emit(events.Destroy, Event{Name: events.Destroy, Record: r})
}

// Destroyed reports whether Destroy was called.
func (r *Record) Destroyed() bool {
	return r.destroyed
}

// Events exposes the record's emitter so collections can subscribe.
func (r *Record) Events() *events.Emitter[Event] {
	return r.events
}

// String renders the record for logs.
func (r *Record) String() string {
	if id := r.ID(); id != "" {
		return id
	}
	return r.cid
}
