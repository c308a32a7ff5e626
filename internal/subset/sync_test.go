package subset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/subsync/internal/collection"
	"github.com/roach88/subsync/internal/events"
	"github.com/roach88/subsync/internal/record"
	"github.com/roach88/subsync/internal/value"
)

func TestChildAdd_ParentHasRecord(t *testing.T) {
	parent := newCollection("parent")
	child := newCollection("child")
	r := record.New(nil)
	parent.Add(r)
	link(t, Options{Parent: parent, Child: child})
	parentAdds := count(parent, events.Add)
	childAdds := count(child, events.Add)

	child.Add(r)

	assert.Equal(t, 0, *parentAdds, "parent already holds the record")
	assert.Equal(t, 0, *childAdds, "child already holds the record")
	assert.Equal(t, 1, parent.Len())
	assert.Equal(t, 1, child.Len())
}

func TestChildAdd_KeepsParentInstance(t *testing.T) {
	parent := newCollection("parent")
	child := newCollection("child")
	original := withID(1)
	parent.Add(original)
	link(t, Options{Parent: parent, Child: child})

	child.Add(withID(1))

	assert.Same(t, original, child.GetByID("1"))
}

func TestChildAdd_ParentLacksRecord(t *testing.T) {
	parent := newCollection("parent")
	child := newCollection("child")
	s := link(t, Options{Parent: parent, Child: child})
	parentEvents := capture(parent)
	childAdds := count(child, events.Add)

	r := record.New(nil)
	child.Add(r)

	assert.Equal(t, 1, parent.Len())
	assert.Same(t, r, parent.At(0))
	require.Len(t, *parentEvents, 1)
	assert.Equal(t, events.Add, (*parentEvents)[0].Name)
	assert.Same(t, s.Origin(), (*parentEvents)[0].Origin)
	assert.Equal(t, 1, *childAdds, "the record is not added to the child again")
}

func TestChildAdd_RejectedRecordStaysInParent(t *testing.T) {
	parent := newCollection("parent")
	child := newCollection("child")
	link(t, Options{Parent: parent, Child: child, Filter: numberBelow(10)})

	child.Add(number(20))

	assert.Equal(t, 1, parent.Len())
	assert.Equal(t, 0, child.Len())
}

func TestParentAdd_SameInstanceInChild(t *testing.T) {
	parent := newCollection("parent")
	child := newCollection("child")
	r := record.New(nil)
	child.Add(r)
	link(t, Options{Parent: parent, Child: child, Refresh: Bool(false)})
	childEvents := capture(child)

	parent.Add(r)

	assert.Empty(t, *childEvents)
	assert.Equal(t, 1, child.Len())
}

func TestParentAdd_RecordAlreadyPropagated(t *testing.T) {
	parent := newCollection("parent")
	child := newCollection("child")
	link(t, Options{Parent: parent, Child: child})
	r := record.New(nil)
	child.Add(r)
	childEvents := capture(child)

	parent.Add(r)

	assert.Empty(t, *childEvents)
}

func TestParentAdd_ReplacesDifferentInstance(t *testing.T) {
	parent := newCollection("parent")
	child := newCollection("child")
	stale := withID(1)
	child.Add(stale)
	s := link(t, Options{Parent: parent, Child: child, Refresh: Bool(false)})
	childEvents := capture(child)

	fresh := withID(1)
	parent.Add(fresh)

	assert.Same(t, fresh, child.GetByID("1"))
	assert.Equal(t, 1, child.Len())
	require.Len(t, *childEvents, 2)
	assert.Equal(t, events.Remove, (*childEvents)[0].Name)
	assert.Equal(t, events.Add, (*childEvents)[1].Name)
	assert.Same(t, s.Origin(), (*childEvents)[1].Origin)
}

func TestParentAdd_ReplacementKeepsPosition(t *testing.T) {
	parent := newCollection("parent")
	child := newCollection("child")
	child.AddAll([]*record.Record{withID(1), withID(2), withID(3)})
	link(t, Options{Parent: parent, Child: child, Refresh: Bool(false)})

	fresh := withID(2)
	parent.Add(fresh)

	assert.Same(t, fresh, child.At(1))
	assert.Equal(t, 3, child.Len())
}

func TestParentAdd_NewRecord(t *testing.T) {
	parent := newCollection("parent")
	child := newCollection("child")
	link(t, Options{Parent: parent, Child: child})

	parent.Add(record.New(nil))

	assert.Equal(t, 1, child.Len())
}

func TestParentAdd_FilteredOut(t *testing.T) {
	parent := newCollection("parent")
	child := newCollection("child")
	link(t, Options{Parent: parent, Child: child, Filter: attrEquals("foo", "baz")})

	parent.Add(model(value.O("foo", value.String("bar"))))

	assert.Equal(t, 0, child.Len())
}

func TestChildRemove_LeavesParent(t *testing.T) {
	parent := newCollection("parent")
	child := newCollection("child")
	link(t, Options{Parent: parent, Child: child})
	r := record.New(nil)

	child.Add(r)
	child.Remove(r)

	assert.Equal(t, 1, parent.Len())
	assert.Equal(t, 0, child.Len())
}

func TestParentRemove_RemovesFromChild(t *testing.T) {
	parent := newCollection("parent")
	child := newCollection("child")
	r := record.New(nil)
	parent.Add(r)
	child.Add(r)
	link(t, Options{Parent: parent, Child: child})
	origin := events.NewOrigin("external", "")
	removes := capture(child)

	parent.Remove(r, collection.From(origin))

	assert.Equal(t, 0, parent.Len())
	assert.Equal(t, 0, child.Len())
	require.Len(t, *removes, 1)
	assert.Same(t, origin, (*removes)[0].Origin, "the parent's origin is forwarded")
}

func TestParentChange_TriggerNotMatched(t *testing.T) {
	parent := newCollection("parent")
	child := newCollection("child")
	link(t, Options{Parent: parent, Child: child, Filter: attrEquals("foo", "bar"), Triggers: "awesome"})
	r := model(value.O("foo", value.String("baz")))
	parent.Add(r)
	require.Equal(t, 0, child.Len())

	r.Set(value.Of(value.O("foo", value.String("bar"))))

	assert.Equal(t, 0, child.Len())
}

func TestParentChange_NoTriggers(t *testing.T) {
	parent := newCollection("parent")
	child := newCollection("child")
	link(t, Options{Parent: parent, Child: child, Filter: attrEquals("foo", "bar")})
	r := model(value.O("foo", value.String("baz")))
	parent.Add(r)
	require.Equal(t, 0, child.Len())

	r.Set(value.Of(value.O("foo", value.String("bar"))))

	assert.Equal(t, 1, child.Len())
	assert.Same(t, r, child.At(0))
}

func TestParentChange_TriggerMatched(t *testing.T) {
	parent := newCollection("parent")
	child := newCollection("child")
	link(t, Options{Parent: parent, Child: child, Filter: attrEquals("foo", "bar"), Triggers: "foo"})
	r := model(value.O("foo", value.String("baz")))
	parent.Add(r)
	require.Equal(t, 0, child.Len())

	r.Set(value.Of(value.O("foo", value.String("bar"))))

	assert.Equal(t, 1, child.Len())
}

func TestParentChange_NoLongerMatches(t *testing.T) {
	parent := newCollection("parent")
	child := newCollection("child")
	link(t, Options{Parent: parent, Child: child, Filter: attrEquals("foo", "bar")})
	r := model(value.O("foo", value.String("bar")))
	parent.Add(r)
	require.Equal(t, 1, child.Len())

	r.Set(value.Of(value.O("foo", value.String("baz"))))

	assert.Equal(t, 0, child.Len())
	assert.Equal(t, 1, parent.Len())
}

func TestParentChange_NullAttributeEvicts(t *testing.T) {
	parent := newCollection("parent")
	child := newCollection("child")
	r := withID(1)
	parent.Add(r)
	s := link(t, Options{Parent: parent, Child: child, Filter: attrEquals("prop", "val")})
	require.Equal(t, 0, child.Len())

	r.Set(value.Of(value.O("prop", value.String("val"))))
	require.Equal(t, 1, child.Len())

	var removedFrom *collection.Collection
	child.On(events.Remove, nil, func(ev collection.Event) { removedFrom = ev.Collection })
	r.Set(value.Object{"prop": nil})

	assert.Equal(t, 0, child.Len())
	assert.Same(t, child, removedFrom)
	assertInvariant(t, s)
}

func TestChildReset_AddsRecordsToParent(t *testing.T) {
	parent := newCollection("parent")
	child := newCollection("child")
	link(t, Options{Parent: parent, Child: child})

	child.Reset([]*record.Record{record.New(nil)})

	assert.Equal(t, 1, child.Len())
	assert.Equal(t, 1, parent.Len())
}

func TestChildReset_UsesParentInstances(t *testing.T) {
	parent := newCollection("parent")
	child := newCollection("child")
	parent.Add(withID(1))
	link(t, Options{Parent: parent, Child: child})

	child.Reset([]*record.Record{withID(1)})

	assert.Same(t, parent.GetByID("1"), child.GetByID("1"))
}

func TestChildReset_OneResetOneRefresh(t *testing.T) {
	parent := newCollection("parent")
	child := newCollection("child")
	parent.Add(record.New(nil))
	link(t, Options{Parent: parent, Child: child})
	resets := count(child, events.Reset)
	refreshes := count(child, events.Refresh)

	child.Reset(nil)

	assert.Equal(t, 1, *resets)
	assert.Equal(t, 1, *refreshes)
	assert.Equal(t, 1, child.Len(), "refreshed from the parent")
}

func TestChildReset_Policies(t *testing.T) {
	for _, tt := range []struct {
		policy     ResetPolicy
		parentSize int
	}{
		{ResetUnion, 2},
		{ResetFiltered, 1},
	} {
		t.Run(tt.policy.String(), func(t *testing.T) {
			parent := newCollection("parent")
			child := newCollection("child")
			s := link(t, Options{Parent: parent, Child: child, Filter: numberBelow(10), ResetPolicy: tt.policy})

			child.Reset([]*record.Record{number(20), number(1)})

			assert.Equal(t, tt.parentSize, parent.Len())
			assert.Equal(t, 1, child.Len())
			assertInvariant(t, s)
		})
	}
}

func TestParentReset_RefreshesChild(t *testing.T) {
	parent := newCollection("parent")
	child := newCollection("child")
	s := link(t, Options{Parent: parent, Child: child, Filter: numberBelow(10)})
	parent.Add(number(1))
	refreshes := count(child, events.Refresh)

	parent.Reset([]*record.Record{number(2), number(3), number(30)})

	assert.Equal(t, 1, *refreshes)
	assert.Equal(t, 2, child.Len())
	assertInvariant(t, s)
}

func TestDestroy_RemovesFromParentAndChild(t *testing.T) {
	parent := newCollection("parent")
	child := newCollection("child")
	link(t, Options{Parent: parent, Child: child})
	r := record.New(nil)
	parent.Add(r)
	require.Equal(t, 1, parent.Len())
	require.Equal(t, 1, child.Len())

	r.Destroy()

	assert.Equal(t, 0, parent.Len())
	assert.Equal(t, 0, child.Len())
}

func TestNoFeedback_EachCollectionSeesOneAdd(t *testing.T) {
	parent := newCollection("parent")
	child := newCollection("child")
	link(t, Options{Parent: parent, Child: child})
	parentAdds := count(parent, events.Add)
	childAdds := count(child, events.Add)

	child.Add(record.New(nil))
	parent.Add(record.New(nil))

	assert.Equal(t, 2, *parentAdds)
	assert.Equal(t, 2, *childAdds)
}

func TestSiblings_AreIndependent(t *testing.T) {
	parent := newCollection("parent")
	small := link(t, Options{Parent: parent, Filter: numberBelow(5)})
	large := link(t, Options{Parent: parent, Filter: numberAbove(5)})

	small.Child().Add(number(1))
	large.Child().Add(number(9))

	assert.Equal(t, 2, parent.Len())
	assert.Equal(t, 1, small.Child().Len())
	assert.Equal(t, 1, large.Child().Len())

	large.Child().Remove(large.Child().At(0))
	assert.Equal(t, 1, small.Child().Len())
	assert.Equal(t, 2, parent.Len())

	// A record added to one sibling that matches the other reaches it
	// through the parent.
	small.Child().Add(number(2))
	assert.Equal(t, 2, small.Child().Len())
	assert.Equal(t, 0, large.Child().Len())
	assertInvariant(t, small)
}

func TestSiblings_CrossPropagation(t *testing.T) {
	parent := newCollection("parent")
	below := link(t, Options{Parent: parent, Filter: numberBelow(100)})
	all := link(t, Options{Parent: parent})

	r := number(3)
	below.Child().Add(r)

	assert.Same(t, r, all.Child().At(0))
}
