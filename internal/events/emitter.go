package events

// Handler receives one dispatched event.
type Handler[E any] func(E)

// Subscription is a single registered listener. It can be revoked
// individually through Emitter.Off or in bulk through Emitter.OffOwner.
type Subscription struct {
	name    string
	owner   any
	removed bool
}

// Name returns the event name the subscription listens for.
func (s *Subscription) Name() string { return s.name }

// Active reports whether the subscription has not been revoked.
func (s *Subscription) Active() bool { return !s.removed }

type listener[E any] struct {
	sub *Subscription
	fn  Handler[E]
}

// Emitter is a synchronous publish/subscribe registry of named events.
//
// Dispatch is ordered by registration and runs over a snapshot of the
// listener list, so handlers may subscribe or unsubscribe while an event is
// in flight. A listener revoked during dispatch is skipped if its turn has
// not come yet.
//
// Emitter is not safe for concurrent use; all mutation is expected to be
// serialized through the call stack.
type Emitter[E any] struct {
	listeners []listener[E]
}

// NewEmitter creates an empty emitter.
func NewEmitter[E any]() *Emitter[E] {
	return &Emitter[E]{}
}

// On registers fn for events called name. Use All to receive every event.
//
// owner identifies who holds the subscription so that OffOwner can revoke
// everything registered by one party. owner must be comparable (typically a
// pointer) or nil.
func (e *Emitter[E]) On(name string, owner any, fn Handler[E]) *Subscription {
	sub := &Subscription{name: name, owner: owner}
	e.listeners = append(e.listeners, listener[E]{sub: sub, fn: fn})
	return sub
}

// Off revokes a single subscription. Revoking twice is a no-op.
func (e *Emitter[E]) Off(sub *Subscription) {
	if sub == nil || sub.removed {
		return
	}
	sub.removed = true
	e.compact()
}

// OffOwner revokes every subscription registered with owner and returns how
// many were removed.
func (e *Emitter[E]) OffOwner(owner any) int {
	n := 0
	for _, l := range e.listeners {
		if !l.sub.removed && l.sub.owner == owner {
			l.sub.removed = true
			n++
		}
	}
	if n > 0 {
		e.compact()
	}
	return n
}

// OffAll revokes every subscription.
func (e *Emitter[E]) OffAll() {
	for _, l := range e.listeners {
		l.sub.removed = true
	}
	e.listeners = nil
}

// Emit dispatches ev to listeners of name and to All listeners, in
// registration order.
func (e *Emitter[E]) Emit(name string, ev E) {
	if len(e.listeners) == 0 {
		return
	}
	snapshot := make([]listener[E], len(e.listeners))
	copy(snapshot, e.listeners)
	for _, l := range snapshot {
		if l.sub.removed {
			continue
		}
		if l.sub.name == name || l.sub.name == All {
			l.fn(ev)
		}
	}
}

// Len returns the number of active subscriptions.
func (e *Emitter[E]) Len() int {
	return len(e.listeners)
}

// Count returns the number of active subscriptions held by owner.
func (e *Emitter[E]) Count(owner any) int {
	n := 0
	for _, l := range e.listeners {
		if l.sub.owner == owner {
			n++
		}
	}
	return n
}

// compact drops revoked listeners. Snapshots taken by in-flight Emit calls
// are unaffected because compact always allocates a fresh slice.
func (e *Emitter[E]) compact() {
	kept := make([]listener[E], 0, len(e.listeners))
	for _, l := range e.listeners {
		if !l.sub.removed {
			kept = append(kept, l)
		}
	}
	e.listeners = kept
}
