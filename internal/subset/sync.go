package subset

import (
	"github.com/roach88/subsync/internal/collection"
	"github.com/roach88/subsync/internal/record"
)

// KeyResolver looks records up by logical key and by client identifier.
type KeyResolver interface {
	GetByID(id string) *record.Record
	GetByCID(cid string) *record.Record
}

// resolve finds the instance kr holds for r: by logical key when r has one,
// then by client identifier.
func resolve(kr KeyResolver, r *record.Record) *record.Record {
	if id := r.ID(); id != "" {
		if held := kr.GetByID(id); held != nil {
			return held
		}
	}
	return kr.GetByCID(r.CID())
}

// ensure makes the child hold exactly r. A different instance under the same
// key is replaced in place.
func (s *Subset) ensure(r *record.Record) {
	held := resolve(s.child, r)
	if held == r {
		return
	}
	if held == nil {
		s.child.Add(r, collection.From(s.origin))
		return
	}
	idx := s.child.IndexOf(held)
	s.child.Remove(held, collection.From(s.origin))
	s.child.Add(r, collection.At(idx), collection.From(s.origin))
	s.logger.Debug("subset replaced instance", "cid", r.CID(), "id", r.ID(), "index", idx)
}

func (s *Subset) onParentAdd(ev collection.Event) {
	if ev.Origin == s.origin {
		return
	}
	r := ev.Record
	if !s.Matches(r) {
		s.logger.Debug("subset parent add rejected", "cid", r.CID(), "id", r.ID(), "origin", ev.Origin.String())
		return
	}
	s.logger.Debug("subset parent add", "cid", r.CID(), "id", r.ID(), "origin", ev.Origin.String())
	s.ensure(r)
}

func (s *Subset) onParentRemove(ev collection.Event) {
	s.logger.Debug("subset parent remove", "cid", ev.Record.CID(), "id", ev.Record.ID(), "origin", ev.Origin.String())
	s.child.Remove(ev.Record, collection.From(ev.Origin))
}

func (s *Subset) onParentReset(ev collection.Event) {
	s.logger.Debug("subset parent reset", "origin", ev.Origin.String())
	s.Refresh()
}

func (s *Subset) onParentChange(ev collection.Event) {
	r := ev.Record
	if !s.TriggerMatched(r) {
		return
	}
	if s.Matches(r) {
		s.logger.Debug("subset parent change admitted", "cid", r.CID(), "id", r.ID())
		s.ensure(r)
		return
	}
	if s.child.Remove(r, collection.From(s.origin)) != nil {
		s.logger.Debug("subset parent change evicted", "cid", r.CID(), "id", r.ID())
	}
}

func (s *Subset) onChildAdd(ev collection.Event) {
	if ev.Origin == s.origin {
		return
	}
	r := ev.Record
	s.logger.Debug("subset child add", "cid", r.CID(), "id", r.ID(), "origin", ev.Origin.String())

	s.parent.Add(r, collection.From(s.origin))
	if s.disposed {
		return
	}

	// The parent may hold another instance under the same key, or may have
	// dropped r while its own upstream filters ran.
	held := resolve(s.parent, r)
	if held == nil {
		return
	}
	if s.Matches(held) {
		s.ensure(held)
		return
	}
	s.child.Remove(r, collection.From(s.origin))
}

func (s *Subset) onChildReset(ev collection.Event) {
	if ev.Origin == s.origin {
		return
	}
	recs := s.child.Records()
	if s.policy == ResetFiltered {
		recs = s.child.Filter(s.Matches)
	}
	s.logger.Debug("subset child reset", "records", len(recs), "policy", s.policy.String(), "origin", ev.Origin.String())

	s.parent.AddAll(recs, collection.From(s.origin))
	s.refresh(collection.Silent())
}
