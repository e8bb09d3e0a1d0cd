package pearl

import (
	"testing"
	"time"

	"github.com/ncarstens/vstore/cmn"
	"github.com/ncarstens/vstore/fs"
	"github.com/ncarstens/vstore/internal/tassert"
)

func newTestGroup(t *testing.T, period time.Duration) *Group {
	t.Helper()
	dir := t.TempDir()
	settings := &fs.Settings{
		RootDirName:      "bob",
		AlienRootDirName: "alien",
		TimestampPeriod:  period,
		FailRetryTimeout: time.Millisecond,
	}
	return NewGroup(0, dir, settings, nil, nil)
}

// S1: round-trip through a freshly bootstrapped group.
func TestGroupRoundTrip(t *testing.T) {
	g := newTestGroup(t, 100*time.Second)
	g.Run()

	p := cmn.Payload{Bytes: []byte{0x41}, Meta: cmn.Meta{Timestamp: 1000}}
	tassert.CheckFatal(t, g.Put(1, p))

	got, err := g.Get(1)
	tassert.CheckFatal(t, err)
	tassert.Errorf(t, string(got.Bytes) == string(p.Bytes), "expected %v, got %v", p.Bytes, got.Bytes)
}

// S2: conflict resolution picks the highest timestamp across holders.
func TestGroupConflictResolution(t *testing.T) {
	g := newTestGroup(t, 100*time.Second)
	g.Run()

	tassert.CheckFatal(t, g.Put(2, cmn.Payload{Bytes: []byte{0x00}, Meta: cmn.Meta{Timestamp: 500}}))
	tassert.CheckFatal(t, g.Put(2, cmn.Payload{Bytes: []byte{0x01}, Meta: cmn.Meta{Timestamp: 1500}}))

	got, err := g.Get(2)
	tassert.CheckFatal(t, err)
	tassert.Errorf(t, got.Bytes[0] == 0x01, "expected newest value 0x01, got %v", got.Bytes)
}

// S5: duplicate key write is rejected and does not clobber the original.
func TestGroupDuplicateKey(t *testing.T) {
	g := newTestGroup(t, 100*time.Second)
	g.Run()

	tassert.CheckFatal(t, g.Put(1, cmn.Payload{Bytes: []byte{0x41}, Meta: cmn.Meta{Timestamp: 1000}}))
	err := g.Put(1, cmn.Payload{Bytes: []byte{0x42}, Meta: cmn.Meta{Timestamp: 1000}})
	tassert.Errorf(t, cmn.KindOf(err) == cmn.KindDuplicateKey, "expected DuplicateKey, got %v", err)

	got, rerr := g.Get(1)
	tassert.CheckFatal(t, rerr)
	tassert.Errorf(t, got.Bytes[0] == 0x41, "original value must survive")
}

func TestGroupExist(t *testing.T) {
	g := newTestGroup(t, 100*time.Second)
	g.Run()

	tassert.CheckFatal(t, g.Put(1, cmn.Payload{Bytes: []byte{0x1}, Meta: cmn.Meta{Timestamp: 1000}}))
	res, err := g.Exist([]cmn.Key{1, 2})
	tassert.CheckFatal(t, err)
	tassert.Errorf(t, res[0] && !res[1], "expected [true,false], got %v", res)
}

// §8 invariant 8: attach then detach leaves the holder list unchanged.
func TestGroupAttachDetachIsNoOp(t *testing.T) {
	g := newTestGroup(t, 100*time.Second)
	g.Run()
	before := g.Partitions()

	tassert.CheckFatal(t, g.Attach(9_000_000))
	tassert.CheckFatal(t, g.Detach(9_000_000))

	after := g.Partitions()
	tassert.Errorf(t, len(before) == len(after), "expected unchanged partition count, got %d vs %d", len(before), len(after))
}

func TestGroupAttachTwiceFails(t *testing.T) {
	g := newTestGroup(t, 100*time.Second)
	g.Run()

	tassert.CheckFatal(t, g.Attach(9_000_000))
	err := g.Attach(9_000_000)
	tassert.Errorf(t, err != nil, "attaching an already-attached holder should fail")
	tassert.CheckFatal(t, g.Detach(9_000_000))
}

func TestGroupDetachMissingFails(t *testing.T) {
	g := newTestGroup(t, 100*time.Second)
	g.Run()

	err := g.Detach(9_000_000)
	tassert.Errorf(t, err != nil, "detaching a holder that was never attached should fail")
}

// §8 invariant 2: at most one holder satisfies [start, end) for any t.
func TestGroupNoOverlappingHolders(t *testing.T) {
	g := newTestGroup(t, 100*time.Second)
	g.Run()

	tassert.CheckFatal(t, g.Put(1, cmn.Payload{Bytes: []byte{1}, Meta: cmn.Meta{Timestamp: 50}}))
	tassert.CheckFatal(t, g.Put(2, cmn.Payload{Bytes: []byte{2}, Meta: cmn.Meta{Timestamp: 150}}))

	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, t1 := range g.holders {
		count := 0
		for _, t2 := range g.holders {
			if t2.Start <= t1.Start && t1.Start < t2.End {
				count++
			}
		}
		tassert.Errorf(t, count == 1, "holder starting at %d overlaps %d others", t1.Start, count-1)
	}
}
