package subset

import (
	"github.com/roach88/subsync/internal/collection"
	"github.com/roach88/subsync/internal/events"
)

// On subscribes to events raised on the subset itself, such as "dispose".
func (s *Subset) On(name string, owner any, fn events.Handler[Event]) *events.Subscription {
	return s.events.On(name, owner, fn)
}

// OffOwner revokes every subset subscription held by owner.
func (s *Subset) OffOwner(owner any) int {
	return s.events.OffOwner(owner)
}

// Trigger raises a custom event on the subset.
func (s *Subset) Trigger(name string, payload any) {
	s.events.Emit(name, Event{Name: name, Subset: s, Payload: payload})
}

// Dispose emits "dispose" on the subset, detaches it from both collections,
// disposes the child, and drops every listener. Disposed reports true only
// once teardown has finished; a Dispose call made while teardown is running,
// or after it, is a no-op.
//
// Because the child's own dispose event reaches every subset that uses it as
// a parent, disposing a subset tears down the whole tree below it.
func (s *Subset) Dispose() {
	if s.disposed || s.disposing {
		return
	}
	s.disposing = true
	s.Trigger(events.Dispose, s)

	parent, child := s.parent, s.child
	parent.OffOwner(s)
	child.OffOwner(s)
	child.Dispose()

	s.events.OffAll()
	s.parent = nil
	s.child = nil
	s.disposing = false
	s.disposed = true
	s.logger.Info("subset disposed")
}

// Subcollection links parent to a new child collection and returns the
// child. opts.Parent and opts.Child default to parent and parent.Spawn().
func Subcollection(parent *collection.Collection, opts Options) (*collection.Collection, error) {
	if opts.Parent == nil {
		opts.Parent = parent
	}
	s, err := New(opts)
	if err != nil {
		return nil, err
	}
	return s.Child(), nil
}
