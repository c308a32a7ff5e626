package subset

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/subsync/internal/collection"
	"github.com/roach88/subsync/internal/filter"
	"github.com/roach88/subsync/internal/record"
	"github.com/roach88/subsync/internal/testutil"
	"github.com/roach88/subsync/internal/value"
)

var quiet = slog.New(slog.DiscardHandler)

// link builds a subset with a quiet logger and deterministic origins.
func link(t *testing.T, opts Options) *Subset {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = quiet
	}
	if opts.OriginGen == nil {
		opts.OriginGen = testutil.NewSequentialGenerator("subset")
	}
	s, err := New(opts)
	require.NoError(t, err)
	return s
}

// sub builds a subcollection of parent with a quiet logger.
func sub(t *testing.T, parent *collection.Collection, f filter.Matcher) *collection.Collection {
	t.Helper()
	child, err := Subcollection(parent, Options{Filter: f, Logger: quiet})
	require.NoError(t, err)
	return child
}

func newCollection(name string) *collection.Collection {
	return collection.New(collection.WithName(name), collection.WithLogger(quiet))
}

func model(pairs ...value.Pair) *record.Record {
	return record.New(value.Of(pairs...))
}

func withID(id int64) *record.Record {
	return model(value.O("id", value.Int(id)))
}

func number(n int64) *record.Record {
	return model(value.O("number", value.Int(n)))
}

func numberBelow(n int64) filter.Predicate {
	return func(r *record.Record) bool {
		v, ok := r.Get("number").(value.Int)
		return ok && int64(v) < n
	}
}

func numberAbove(n int64) filter.Predicate {
	return func(r *record.Record) bool {
		v, ok := r.Get("number").(value.Int)
		return ok && int64(v) > n
	}
}

func attrEquals(name, want string) filter.Predicate {
	return func(r *record.Record) bool {
		return value.Equal(r.Get(name), value.String(want))
	}
}

// count tallies events called name on c.
func count(c *collection.Collection, name string) *int {
	n := new(int)
	c.On(name, nil, func(collection.Event) { *n++ })
	return n
}

// capture records every event on c.
func capture(c *collection.Collection) *[]collection.Event {
	var got []collection.Event
	c.On("all", nil, func(ev collection.Event) { got = append(got, ev) })
	return &got
}

// assertInvariant checks that child holds exactly the parent's records that
// match s, in parent order, as the same instances.
func assertInvariant(t *testing.T, s *Subset) {
	t.Helper()
	want := s.Parent().Filter(s.Matches)
	got := s.Child().Records()
	require.Len(t, got, len(want))
	for i := range want {
		require.Same(t, want[i], got[i], "index %d", i)
	}
}
