// Package events provides the synchronous publish/subscribe mechanism used by
// records, collections and subsets.
//
// Subscriptions are keyed by owner so a party can revoke exactly the set it
// installed (OffOwner) without touching anyone else's listeners. Dispatch is
// synchronous and ordered by registration; there are no goroutines.
//
// Origin is the provenance token carried by mutations. A subset tags the
// mutations it performs with its own Origin and ignores events carrying it,
// which is what stops parent/child propagation from bouncing forever.
package events
