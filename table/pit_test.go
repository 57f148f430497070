package table_test

import (
	"testing"
	"time"

	"github.com/named-data/ndnrepo/dispatch"
	"github.com/named-data/ndnrepo/ndn"
	"github.com/named-data/ndnrepo/ndn/security"
	"github.com/named-data/ndnrepo/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nopListener = dispatch.ContentListenerFuncs{}

func TestPitFindMatches(t *testing.T) {
	pit := table.NewPit()
	xy := pit.InsertInterest(ndn.NewInterest(ndn.MustNameFromString("/x/y")), nopListener, time.Minute)
	x := pit.InsertInterest(ndn.NewInterest(ndn.MustNameFromString("/x"), ndn.WithMaxSuffixComponents(1)), nopListener, time.Minute)
	other := pit.InsertInterest(ndn.NewInterest(ndn.MustNameFromString("/z")), nopListener, time.Minute)
	filter := pit.InsertFilter(ndn.MustNameFromString("/x"), nopListener)
	root := pit.InsertFilter(ndn.Name{}, nopListener)
	producer := pit.InsertProducer(ndn.MustNameFromString("/x"), dispatch.InterestListenerFunc(func([]*ndn.Interest) int { return 0 }))

	assert.Equal(t, 6, pit.Len())
	assert.Equal(t, 3, pit.Count(table.KindInterest))
	assert.Equal(t, 2, pit.Count(table.KindFilter))
	assert.Equal(t, 1, pit.Count(table.KindProducer))

	obj := newObject(t, "/x/y/z", "data", security.DigestSha256{})
	interests, filters := pit.FindMatches(obj)
	assert.Equal(t, []*table.PitEntry{xy}, interests)
	assert.Equal(t, []*table.PitEntry{filter, root}, filters)

	obj = newObject(t, "/x/y", "data", security.DigestSha256{})
	interests, _ = pit.FindMatches(obj)
	assert.Equal(t, []*table.PitEntry{xy, x}, interests)

	assert.True(t, xy.Satisfy())
	assert.False(t, xy.Cancel())
	assert.Equal(t, table.StateSatisfied, xy.State())
	interests, _ = pit.FindMatches(obj)
	assert.Equal(t, []*table.PitEntry{x}, interests)

	assert.Equal(t, []*table.PitEntry{producer}, pit.FindProducers(ndn.MustNameFromString("/x/q")))
	assert.Empty(t, pit.FindProducers(ndn.MustNameFromString("/z")))

	found, ok := pit.Lookup(other.ID())
	require.True(t, ok)
	assert.Same(t, other, found)

	assert.True(t, pit.Remove(other))
	assert.False(t, pit.Remove(other))
	_, ok = pit.Lookup(other.ID())
	assert.False(t, ok)
	assert.Empty(t, pit.FindExact(ndn.MustNameFromString("/z")))
	assert.Equal(t, 5, pit.Len())
}

func TestPitCancelBeatsSatisfy(t *testing.T) {
	pit := table.NewPit()
	entry := pit.InsertInterest(ndn.NewInterest(ndn.MustNameFromString("/c")), nopListener, time.Minute)
	assert.True(t, entry.IsPending())
	assert.True(t, entry.Cancel())
	assert.False(t, entry.Satisfy())
	assert.False(t, entry.Cancel())
	assert.Equal(t, table.StateCanceled, entry.State())
}

func TestPitExpiry(t *testing.T) {
	pit := table.NewPit()
	short := pit.InsertInterest(ndn.NewInterest(ndn.MustNameFromString("/e/1")), nopListener, 10*time.Millisecond)
	long := pit.InsertInterest(ndn.NewInterest(ndn.MustNameFromString("/e/2")), nopListener, time.Hour)
	pit.InsertFilter(ndn.MustNameFromString("/e"), nopListener)

	next, ok := pit.NextExpiry()
	require.True(t, ok)
	assert.Equal(t, short.Expiration().UnixNano(), next.UnixNano())

	assert.Empty(t, pit.PopExpired(time.Now().Add(-time.Second)))
	assert.Equal(t, []*table.PitEntry{short}, pit.PopExpired(time.Now().Add(time.Second)))
	assert.Equal(t, 2, pit.Len())
	assert.True(t, short.Expire())
	assert.False(t, short.Cancel())
	assert.False(t, short.Satisfy())
	assert.Equal(t, table.StateExpired, short.State())
	assert.Equal(t, "expired", short.State().String())

	assert.True(t, pit.Remove(long))
	_, ok = pit.NextExpiry()
	assert.False(t, ok)
}

func TestPitEntries(t *testing.T) {
	pit := table.NewPit()
	a := pit.InsertFilter(ndn.MustNameFromString("/a"), nopListener)
	b := pit.InsertFilter(ndn.MustNameFromString("/b"), nopListener)
	assert.Equal(t, []*table.PitEntry{a, b}, pit.Entries())
	assert.Equal(t, "/a", a.Prefix().String())
	assert.True(t, a.Expiration().IsZero())
	assert.Equal(t, table.KindFilter, a.Kind())
}
