package subset

import (
	"github.com/roach88/subsync/internal/collection"
	"github.com/roach88/subsync/internal/events"
)

// SetParent attaches the subset to c as its parent. Every subscription the
// subset held on the previous parent is removed first, so attaching the same
// collection twice does not double events. Attaching the subset's own child,
// or a collection below it, fails with ErrCodeCycle and leaves the subset
// unchanged.
func (s *Subset) SetParent(c *collection.Collection) error {
	if s.disposed {
		return errDisposed(s)
	}
	if c == nil {
		return &LinkError{Code: ErrCodeMissingParent, Message: "parent collection is required", Subset: s.name}
	}
	if s.child != nil && isAncestor(s.child, c) {
		return &LinkError{
			Code:    ErrCodeCycle,
			Message: "parent " + c.Name() + " is the child or a descendant of the child",
			Subset:  s.name,
		}
	}
	if s.parent != nil {
		s.parent.OffOwner(s)
	}
	s.parent = c

	c.On(events.Add, s, s.onParentAdd)
	c.On(events.Remove, s, s.onParentRemove)
	c.On(events.Reset, s, s.onParentReset)
	c.On(events.Change, s, s.onParentChange)
	c.On(events.Dispose, s, s.onDispose)
	c.On(events.Loading, s, func(collection.Event) {
		s.child.Trigger(events.Loading, nil)
	})
	c.On(events.Sync, s, s.onParentLoaded)
	c.On(events.Error, s, s.onParentLoaded)

	if s.child != nil {
		s.child.SetSuperset(c)
	}
	if s.own != nil {
		s.captureUpstream()
	}
	return nil
}

// SetChild attaches the subset to c as its child, removing the subscriptions
// it held on the previous child. The child inherits the parent's record
// constructor and remembers the parent as its superset and the subset as its
// filterer. A child that is the parent or one of its ancestors fails with
// ErrCodeCycle.
func (s *Subset) SetChild(c *collection.Collection) error {
	if s.disposed {
		return errDisposed(s)
	}
	if c == nil {
		return &LinkError{Code: ErrCodeMissingChild, Message: "child collection is required", Subset: s.name}
	}
	if isAncestor(c, s.parent) {
		return &LinkError{
			Code:    ErrCodeCycle,
			Message: "child " + c.Name() + " is the parent or an ancestor of the parent",
			Subset:  s.name,
		}
	}
	if s.child != nil {
		s.child.OffOwner(s)
	}
	s.child = c

	c.On(events.Add, s, s.onChildAdd)
	c.On(events.Reset, s, s.onChildReset)
	c.On(events.Dispose, s, s.onDispose)

	c.SetSuperset(s.parent)
	c.SetFilterer(s)
	c.SetModel(s.parent.Model())
	return nil
}

func (s *Subset) onParentLoaded(collection.Event) {
	s.child.Trigger(events.Loaded, nil)
}

func (s *Subset) onDispose(collection.Event) {
	s.Dispose()
}

func errDisposed(s *Subset) error {
	return &LinkError{Code: ErrCodeSubsetDisposed, Message: "subset is disposed", Subset: s.name}
}
