package pearl_test

import (
	"context"
	"testing"
	"time"

	"github.com/ncarstens/vstore/cmn"
	"github.com/ncarstens/vstore/fs"
	"github.com/ncarstens/vstore/internal/tassert"
	"github.com/ncarstens/vstore/pearl"
	"github.com/ncarstens/vstore/placement"
)

func newTestEngine(t *testing.T) (*pearl.Engine, string, string) {
	t.Helper()
	diskDir := t.TempDir()
	alienDir := t.TempDir()

	pm := placement.New("node-a", []cmn.Node{{Name: "node-a"}, {Name: "node-b"}},
		[]placement.VDisk{{ID: 0, Replicas: []cmn.Replica{{Node: "node-a", Disk: "d1", Path: diskDir}}}})

	settings := &fs.Settings{
		RootDirName:      "bob",
		AlienRootDirName: "alien",
		AlienDisk:        cmn.DiskPath{Name: "alien", Path: alienDir},
		TimestampPeriod:  100 * time.Second,
		FailRetryTimeout: time.Millisecond,
	}
	engine := pearl.NewEngine(settings, pm, nil, nil)
	err := engine.Run(context.Background(), []cmn.DiskPath{{Name: "d1", Path: diskDir}})
	tassert.CheckFatal(t, err)
	return engine, diskDir, alienDir
}

func TestEngineNormalPutGet(t *testing.T) {
	engine, diskDir, _ := newTestEngine(t)
	op := cmn.Operation{VDisk: 0, Disk: cmn.DiskPath{Name: "d1", Path: diskDir}}

	p := cmn.Payload{Bytes: []byte{0x41}, Meta: cmn.Meta{Timestamp: 1000}}
	tassert.CheckFatal(t, engine.Put(op, 1, p))

	got, err := engine.Get(op, 1)
	tassert.CheckFatal(t, err)
	tassert.Errorf(t, got.Bytes[0] == 0x41, "expected round-tripped payload")
}

// S4: a remote alien write creates its group on demand and reads back
// through GetAlien.
func TestEngineAlienPutCreatesGroupOnDemand(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	op := cmn.Operation{VDisk: 0, RemoteNode: "node-b"}

	p := cmn.Payload{Bytes: []byte{0x03}, Meta: cmn.Meta{Timestamp: 2100}}
	tassert.CheckFatal(t, engine.PutAlien(op, 4, p))

	got, err := engine.GetAlien(op, 4)
	tassert.CheckFatal(t, err)
	tassert.Errorf(t, got.Bytes[0] == 0x03, "expected alien round-tripped payload")
}

func TestEngineGetAlienMissingGroupIsKeyNotFound(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	_, err := engine.GetAlien(cmn.Operation{VDisk: 0, RemoteNode: "node-c"}, 1)
	tassert.Errorf(t, cmn.KindOf(err) == cmn.KindKeyNotFound, "expected KeyNotFound, got %v", err)
}

func TestEngineVDiskNotFound(t *testing.T) {
	engine, diskDir, _ := newTestEngine(t)
	_, err := engine.Get(cmn.Operation{VDisk: 99, Disk: cmn.DiskPath{Name: "d1", Path: diskDir}}, 1)
	tassert.Errorf(t, cmn.KindOf(err) == cmn.KindVDiskNotFound, "expected VDiskNotFound, got %v", err)
}

func TestEngineVDisksGroups(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	groups := engine.VDisksGroups()
	tassert.Errorf(t, len(groups) == 1, "expected exactly one discovered normal group, got %d", len(groups))
}
