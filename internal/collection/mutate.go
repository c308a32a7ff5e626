package collection

import (
	"github.com/roach88/subsync/internal/events"
	"github.com/roach88/subsync/internal/record"
	"github.com/roach88/subsync/internal/value"
)

// MutateOption configures Add, Remove and Reset.
type MutateOption func(*mutation)

type mutation struct {
	at     int
	hasAt  bool
	silent bool
	origin *events.Origin
}

// At inserts added records starting at index i (clamped to the bounds).
func At(i int) MutateOption {
	return func(m *mutation) {
		m.at = i
		m.hasAt = true
	}
}

// Silent suppresses the events the mutation would emit.
func Silent() MutateOption {
	return func(m *mutation) { m.silent = true }
}

// From tags the mutation's events with a provenance origin.
func From(o *events.Origin) MutateOption {
	return func(m *mutation) { m.origin = o }
}

func applyOptions(opts []MutateOption) mutation {
	var m mutation
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Add inserts r unless a record with the same logical key or client
// identifier is already held. It returns whether r was inserted.
func (c *Collection) Add(r *record.Record, opts ...MutateOption) bool {
	return len(c.AddAll([]*record.Record{r}, opts...)) == 1
}

// AddAll inserts every record not already held, in order, then emits one
// "add" per inserted record. It returns the inserted records.
func (c *Collection) AddAll(recs []*record.Record, opts ...MutateOption) []*record.Record {
	if c.disposed {
		return nil
	}
	m := applyOptions(opts)

	at := len(c.records)
	if m.hasAt {
		at = max(0, min(m.at, len(c.records)))
	}

	var added []*record.Record
	var positions []int
	for _, r := range recs {
		if r == nil || c.Get(r) != nil {
			continue
		}
		c.insert(r, at)
		added = append(added, r)
		positions = append(positions, at)
		at++
	}

	if m.silent {
		return added
	}
	for i, r := range added {
		c.emit(Event{Name: events.Add, Record: r, Index: positions[i], Origin: m.origin})
	}
	return added
}

// AddAttrs builds records with the collection's record constructor and adds
// them.
func (c *Collection) AddAttrs(attrs []value.Object, opts ...MutateOption) []*record.Record {
	recs := make([]*record.Record, 0, len(attrs))
	for _, a := range attrs {
		recs = append(recs, c.model(a))
	}
	return c.AddAll(recs, opts...)
}

// Remove removes the held record matching r by key. It returns the removed
// instance, which may differ from r, or nil.
func (c *Collection) Remove(r *record.Record, opts ...MutateOption) *record.Record {
	removed := c.RemoveAll([]*record.Record{r}, opts...)
	if len(removed) == 0 {
		return nil
	}
	return removed[0]
}

// RemoveAll removes each matching record, emitting "remove" as it goes.
func (c *Collection) RemoveAll(recs []*record.Record, opts ...MutateOption) []*record.Record {
	if c.disposed {
		return nil
	}
	m := applyOptions(opts)

	var removed []*record.Record
	for _, r := range recs {
		held := c.Get(r)
		if held == nil {
			continue
		}
		idx := c.IndexOf(held)
		c.detach(held, idx)
		removed = append(removed, held)
		if !m.silent {
			c.emit(Event{Name: events.Remove, Record: held, Index: idx, Origin: m.origin})
		}
	}
	return removed
}

// Reset replaces the entire contents and emits a single "reset".
// Duplicate records in recs are kept once.
func (c *Collection) Reset(recs []*record.Record, opts ...MutateOption) {
	if c.disposed {
		return
	}
	m := applyOptions(opts)

	previous := c.records
	for _, r := range previous {
		r.Events().OffOwner(c)
	}
	c.records = nil
	c.byID = make(map[string]*record.Record)
	c.byCID = make(map[string]*record.Record)

	for _, r := range recs {
		if r == nil || c.Get(r) != nil {
			continue
		}
		c.insert(r, len(c.records))
	}

	if !m.silent {
		c.emit(Event{Name: events.Reset, Previous: previous, Origin: m.origin})
	}
}

func (c *Collection) insert(r *record.Record, at int) {
	c.records = append(c.records, nil)
	copy(c.records[at+1:], c.records[at:])
	c.records[at] = r
	c.index(r)
	r.Events().On(events.All, c, c.onRecordEvent)
}

func (c *Collection) detach(r *record.Record, idx int) {
	c.records = append(c.records[:idx], c.records[idx+1:]...)
	if id := r.ID(); id != "" && c.byID[id] == r {
		delete(c.byID, id)
	}
	delete(c.byCID, r.CID())
	r.Events().OffOwner(c)
}

func (c *Collection) index(r *record.Record) {
	if id := r.ID(); id != "" {
		c.byID[id] = r
	}
	c.byCID[r.CID()] = r
}

// onRecordEvent forwards a held record's events. A destroyed record is
// removed first; a change of the "id" attribute re-keys the record.
func (c *Collection) onRecordEvent(ev record.Event) {
	switch ev.Name {
	case events.Destroy:
		c.Remove(ev.Record)
	case events.Change:
		c.rekey(ev.Record)
	}
	c.emit(Event{Name: ev.Name, Record: ev.Record, Changes: ev.Changes})
}

func (c *Collection) rekey(r *record.Record) {
	prev := value.Key(r.Previous(record.IDAttribute))
	if prev == r.ID() {
		return
	}
	if prev != "" && c.byID[prev] == r {
		delete(c.byID, prev)
	}
	if id := r.ID(); id != "" {
		c.byID[id] = r
	}
}
