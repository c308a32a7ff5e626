package subset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/subsync/internal/collection"
	"github.com/roach88/subsync/internal/events"
	"github.com/roach88/subsync/internal/filter"
	"github.com/roach88/subsync/internal/record"
	"github.com/roach88/subsync/internal/value"
)

func TestNew_SplitsTriggers(t *testing.T) {
	s := link(t, Options{
		Parent:     newCollection("parent"),
		Child:      newCollection("child"),
		Triggers:   "awesome foo bar",
		TriggerSet: []string{"foo", "baz"},
	})

	assert.Equal(t, []string{"awesome", "foo", "bar", "baz"}, s.Triggers())
}

func TestNew_RefreshesChild(t *testing.T) {
	child := newCollection("child")
	refreshed := count(child, events.Refresh)

	link(t, Options{Parent: newCollection("parent"), Child: child})

	assert.Equal(t, 1, *refreshed)
}

func TestNew_AcceptsFilter(t *testing.T) {
	parent := newCollection("parent")
	parent.AddAll([]*record.Record{number(1), number(20)})

	s := link(t, Options{Parent: parent, Filter: numberBelow(10)})

	assert.Equal(t, 1, s.Child().Len())
	assert.True(t, s.Matches(number(3)))
	assert.False(t, s.Matches(number(30)))
}

func TestNew_NoRefreshKeepsChildContents(t *testing.T) {
	child := newCollection("child")
	child.Add(record.New(nil))

	link(t, Options{Parent: newCollection("parent"), Child: child, Refresh: Bool(false)})

	assert.Equal(t, 1, child.Len())
}

func TestNew_SpawnsChild(t *testing.T) {
	parent := newCollection("items")
	s := link(t, Options{Parent: parent})

	require.NotNil(t, s.Child())
	assert.Equal(t, "items/1", s.Child().Name())
	assert.Equal(t, "items/1", s.Name())
	assert.Same(t, parent, s.Child().Superset())
	assert.Same(t, s, s.Child().Filterer())
}

func TestNew_Name(t *testing.T) {
	s := link(t, Options{Parent: newCollection("items"), Name: "small"})
	assert.Equal(t, "small", s.Name())
	assert.Equal(t, "small", s.Origin().Name())
	assert.Equal(t, "subset-1", s.Origin().ID())
}

func TestNew_ChildInheritsParentModel(t *testing.T) {
	built := 0
	parent := collection.New(collection.WithLogger(quiet), collection.WithModel(func(attrs value.Object) *record.Record {
		built++
		return record.New(attrs)
	}))
	child := newCollection("child")

	link(t, Options{Parent: parent, Child: child})
	child.AddAttrs([]value.Object{value.Of(value.O("id", value.Int(1)))})

	assert.Equal(t, 1, built)
	assert.Equal(t, 1, parent.Len())
}

func TestNew_ModelOverride(t *testing.T) {
	overridden := 0
	s := link(t, Options{
		Parent: newCollection("parent"),
		Model: func(attrs value.Object) *record.Record {
			overridden++
			return record.New(attrs)
		},
	})

	s.Child().AddAttrs([]value.Object{{}})
	assert.Equal(t, 1, overridden)
}

func TestNew_Errors(t *testing.T) {
	disposed := newCollection("gone")
	disposed.Dispose()

	_, err := New(Options{Logger: quiet})
	assert.True(t, IsLinkError(err, ErrCodeMissingParent))

	_, err = New(Options{Parent: disposed, Logger: quiet})
	assert.True(t, IsLinkError(err, ErrCodeParentDisposed))

	_, err = New(Options{Parent: newCollection("p"), Child: disposed, Logger: quiet})
	assert.True(t, IsLinkError(err, ErrCodeChildDisposed))

	p := newCollection("p")
	_, err = New(Options{Parent: p, Child: p, Logger: quiet})
	assert.True(t, IsLinkError(err, ErrCodeCycle))
	assert.Contains(t, err.Error(), "CYCLE")
}

func TestNew_RejectsAncestorAsChild(t *testing.T) {
	grandparent := newCollection("grandparent")
	parent := sub(t, grandparent, nil)

	_, err := New(Options{Parent: parent, Child: grandparent, Name: "loop", Logger: quiet})

	var le *LinkError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeCycle, le.Code)
	assert.Equal(t, "loop", le.Subset)
}

func TestSetParent_DoesNotDoubleEvents(t *testing.T) {
	parent := newCollection("parent")
	s := link(t, Options{Parent: parent, Child: newCollection("child")})
	called := false
	parent.On("foo", s, func(collection.Event) { called = true })

	require.NoError(t, s.SetParent(parent))
	parent.Trigger("foo", nil)

	assert.False(t, called)
	// add remove reset change dispose loading sync error
	assert.Equal(t, 8, parent.Listeners(s))
}

func TestSetChild_DoesNotDoubleEvents(t *testing.T) {
	child := newCollection("child")
	s := link(t, Options{Parent: newCollection("parent"), Child: child})
	called := false
	child.On("foo", s, func(collection.Event) { called = true })

	require.NoError(t, s.SetChild(child))
	child.Trigger("foo", nil)

	assert.False(t, called)
	// add reset dispose
	assert.Equal(t, 3, child.Listeners(s))
}

func TestSetParent_MovesSubset(t *testing.T) {
	a := newCollection("a")
	b := newCollection("b")
	s := link(t, Options{Parent: a})

	require.NoError(t, s.SetParent(b))
	assert.Same(t, b, s.Child().Superset())
	assert.Equal(t, 0, a.Listeners(s))

	a.Add(number(1))
	assert.Equal(t, 0, s.Child().Len())
	b.Add(number(2))
	assert.Equal(t, 1, s.Child().Len())
}

func TestSetParent_RejectsDescendant(t *testing.T) {
	grandparent := newCollection("grandparent")
	s1 := link(t, Options{Parent: grandparent, Name: "s1"})
	s2 := link(t, Options{Parent: s1.Child(), Name: "s2"})

	for _, target := range []*collection.Collection{s1.Child(), s2.Child()} {
		err := s1.SetParent(target)
		assert.True(t, IsLinkError(err, ErrCodeCycle), "parent %s", target.Name())
	}

	// The rejected relinks left s1 attached to the grandparent.
	assert.Same(t, grandparent, s1.Parent())
	assert.Same(t, grandparent, s1.Child().Superset())
	grandparent.Add(number(1))
	assert.Equal(t, 1, s2.Child().Len())
}

func TestSetChild_RejectsAncestor(t *testing.T) {
	grandparent := newCollection("grandparent")
	s1 := link(t, Options{Parent: grandparent, Name: "s1"})
	s2 := link(t, Options{Parent: s1.Child(), Name: "s2"})
	child := s2.Child()

	for _, target := range []*collection.Collection{grandparent, s1.Child()} {
		err := s2.SetChild(target)
		assert.True(t, IsLinkError(err, ErrCodeCycle), "child %s", target.Name())
	}

	assert.Same(t, child, s2.Child())
	assert.Equal(t, 3, child.Listeners(s2))
	assert.Equal(t, 0, grandparent.Listeners(s2))
}

func TestRelink_Errors(t *testing.T) {
	s := link(t, Options{Parent: newCollection("parent")})

	assert.True(t, IsLinkError(s.SetParent(nil), ErrCodeMissingParent))
	assert.True(t, IsLinkError(s.SetChild(nil), ErrCodeMissingChild))

	s.Dispose()
	assert.True(t, IsLinkError(s.SetParent(newCollection("other")), ErrCodeSubsetDisposed))
	assert.True(t, IsLinkError(s.SetChild(newCollection("other")), ErrCodeSubsetDisposed))
}

func TestRefresh_ReplacesChildWithParentRecords(t *testing.T) {
	s := link(t, Options{Parent: newCollection("parent")})
	r := record.New(nil)
	s.Parent().Add(r, collection.Silent())
	require.Equal(t, 0, s.Child().Len())

	s.Refresh()

	assert.Equal(t, 1, s.Child().Len())
	assert.Same(t, r, s.Child().At(0))
}

func TestRefresh_OnlyMatchingRecords(t *testing.T) {
	s := link(t, Options{Parent: newCollection("parent")})
	s.SetFilter(filter.Predicate(func(r *record.Record) bool { return r.ID() == "1" }))
	s.Parent().AddAll([]*record.Record{withID(1), withID(2)}, collection.Silent())

	s.Refresh()

	assert.Equal(t, 1, s.Child().Len())
	assert.NotNil(t, s.Child().GetByID("1"))
}

func TestRefresh_EmitsOneResetThenRefresh(t *testing.T) {
	s := link(t, Options{Parent: newCollection("parent")})
	got := capture(s.Child())

	s.Refresh()

	require.Len(t, *got, 2)
	assert.Equal(t, events.Reset, (*got)[0].Name)
	assert.Same(t, s.Origin(), (*got)[0].Origin)
	assert.Equal(t, events.Refresh, (*got)[1].Name)
	assert.Same(t, s, (*got)[1].Payload)
}

func TestRefresh_PreservesParentOrder(t *testing.T) {
	parent := newCollection("parent")
	parent.AddAll([]*record.Record{number(3), number(30), number(1), number(2)})

	s := link(t, Options{Parent: parent, Filter: numberBelow(10)})

	require.Equal(t, 3, s.Child().Len())
	assert.Equal(t, value.Int(3), s.Child().At(0).Get("number"))
	assert.Equal(t, value.Int(1), s.Child().At(1).Get("number"))
	assert.Equal(t, value.Int(2), s.Child().At(2).Get("number"))
	assertInvariant(t, s)
}

func TestSetFilter_DoesNotRefresh(t *testing.T) {
	s := link(t, Options{Parent: newCollection("parent")})
	refreshed := count(s.Child(), events.Refresh)

	s.SetFilter(filter.Predicate(func(*record.Record) bool { return false }))

	assert.Equal(t, 0, *refreshed)
}

func TestMatches_StacksUpstreamFilter(t *testing.T) {
	grandparent := newCollection("grandparent")
	parent := sub(t, grandparent, numberBelow(10))
	s := link(t, Options{Parent: parent, Filter: numberAbove(2)})

	assert.True(t, s.Matches(number(5)))
	assert.False(t, s.Matches(number(1)), "own filter")
	assert.False(t, s.Matches(number(15)), "upstream filter")
}

func TestMatches_AcceptsConditionsAndCEL(t *testing.T) {
	parent := newCollection("parent")
	parent.AddAll([]*record.Record{number(1), number(5), number(9)})

	byCondition := link(t, Options{Parent: parent, Filter: filter.Conditions{
		{Key: "number", Operator: filter.OpGreaterEqual, Value: value.Int(5)},
	}})
	byCEL, err := filter.CompileCEL("r.number < 6")
	require.NoError(t, err)
	byExpr := link(t, Options{Parent: parent, Filter: byCEL})

	assert.Equal(t, 2, byCondition.Child().Len())
	assert.Equal(t, 2, byExpr.Child().Len())
}

func TestTriggerMatched(t *testing.T) {
	s := link(t, Options{Parent: newCollection("parent"), Triggers: "foo"})
	r := record.New(nil)

	assert.False(t, s.TriggerMatched(r), "no pending change")

	r.Set(value.Of(value.O("foo", value.Int(1))))
	assert.True(t, s.TriggerMatched(r))

	r.Set(value.Of(value.O("bar", value.Int(1))))
	assert.False(t, s.TriggerMatched(r))

	always := link(t, Options{Parent: newCollection("parent")})
	assert.True(t, always.TriggerMatched(record.New(nil)))
}

func TestLoadingEvents_AreRelayedToChild(t *testing.T) {
	s := link(t, Options{Parent: newCollection("parent")})
	loading := count(s.Child(), events.Loading)
	loaded := count(s.Child(), events.Loaded)

	s.Parent().Trigger(events.Loading, nil)
	s.Parent().Trigger(events.Sync, nil)
	s.Parent().Trigger(events.Error, nil)

	assert.Equal(t, 1, *loading)
	assert.Equal(t, 2, *loaded)
}

func TestResetPolicy_String(t *testing.T) {
	assert.Equal(t, "union", ResetUnion.String())
	assert.Equal(t, "filtered", ResetFiltered.String())
}
