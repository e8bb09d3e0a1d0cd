package pearl

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ncarstens/vstore/cmn"
	"github.com/ncarstens/vstore/fs"
	"github.com/ncarstens/vstore/placement"
	"github.com/ncarstens/vstore/stats"
)

type normalKey struct {
	vdisk cmn.VDiskID
	disk  string
}

type alienKey struct {
	node  string
	vdisk cmn.VDiskID
}

// Engine aggregates normal Groups (one per local (vdisk, disk)) and alien
// Groups (one per (remote_node, vdisk)), routing an Operation to the right
// one (spec.md §4.5).
type Engine struct {
	settings *fs.Settings
	pm       *placement.Map

	mu     sync.RWMutex // guards both maps
	normal map[normalKey]*Group
	alien  map[alienKey]*Group

	usageOf func(diskName string) *fs.Usage
	mx      *stats.Metrics
}

// NewEngine constructs an empty Engine; call Run to discover/create groups
// and bring them up. mx may be nil, in which case a standalone Metrics
// instance is used (matching backend.NewDispatcher/grinder.NewRouter).
func NewEngine(settings *fs.Settings, pm *placement.Map, usageOf func(string) *fs.Usage, mx *stats.Metrics) *Engine {
	if usageOf == nil {
		usageOf = func(string) *fs.Usage { return &fs.Usage{} }
	}
	if mx == nil {
		mx = stats.NewMetrics()
	}
	return &Engine{
		settings: settings,
		pm:       pm,
		normal:   make(map[normalKey]*Group),
		alien:    make(map[alienKey]*Group),
		usageOf:  usageOf,
		mx:       mx,
	}
}

// Run discovers every normal and alien group on disk and runs Run() on
// each concurrently; it returns once every discovered group has reached
// Ready at least once.
func (e *Engine) Run(ctx context.Context, disks []cmn.DiskPath) error {
	normalGroups, err := ScanNormalGroups(e.settings, e.pm, disks, e.usageOf, e.mx)
	if err != nil {
		return err
	}
	alienUsage := e.usageOf(e.settings.AlienDisk.Name)
	alienGroups, err := ScanAlienGroups(e.settings, e.pm, alienUsage, e.mx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	for _, g := range normalGroups {
		e.normal[normalKey{g.VDisk, g.DiskName}] = g
	}
	for _, g := range alienGroups {
		e.alien[alienKey{g.RemoteNode, g.VDisk}] = g
	}
	e.mu.Unlock()

	grp, _ := errgroup.WithContext(ctx)
	for _, g := range normalGroups {
		g := g
		grp.Go(func() error { g.Run(); return nil })
	}
	for _, g := range alienGroups {
		g := g
		grp.Go(func() error { g.Run(); return nil })
	}
	return grp.Wait()
}

// Put delegates to the normal Group matching op's vdisk and disk.
func (e *Engine) Put(op cmn.Operation, key cmn.Key, data cmn.Payload) error {
	g, ok := e.normalGroup(op.VDisk, op.Disk.Name)
	if !ok {
		return cmn.VDiskNotFound(op.VDisk)
	}
	return g.Put(key, data)
}

// PutAlien delegates to the alien Group for (op.RemoteNode, op.VDisk),
// creating it on first write under the write lock with a double-check to
// avoid a creation race (spec.md §9 "Dynamic group creation").
func (e *Engine) PutAlien(op cmn.Operation, key cmn.Key, data cmn.Payload) error {
	g, err := e.alienGroupOrCreate(op.RemoteNode, op.VDisk)
	if err != nil {
		return err
	}
	return g.Put(key, data)
}

// Get delegates to the normal Group matching op.
func (e *Engine) Get(op cmn.Operation, key cmn.Key) (cmn.Payload, error) {
	g, ok := e.normalGroup(op.VDisk, op.Disk.Name)
	if !ok {
		return cmn.Payload{}, cmn.VDiskNotFound(op.VDisk)
	}
	return g.Get(key)
}

// GetAlien delegates to the alien Group matching op; unlike PutAlien it
// does not create the group on demand (a read against an alien area that
// was never written returns KeyNotFound, not a freshly materialized empty
// group).
func (e *Engine) GetAlien(op cmn.Operation, key cmn.Key) (cmn.Payload, error) {
	e.mu.RLock()
	g, ok := e.alien[alienKey{op.RemoteNode, op.VDisk}]
	e.mu.RUnlock()
	if !ok {
		return cmn.Payload{}, cmn.ErrKeyNotFound
	}
	return g.Get(key)
}

// Exist delegates to the normal Group matching op.
func (e *Engine) Exist(op cmn.Operation, keys []cmn.Key) ([]bool, error) {
	g, ok := e.normalGroup(op.VDisk, op.Disk.Name)
	if !ok {
		return nil, cmn.VDiskNotFound(op.VDisk)
	}
	return g.Exist(keys)
}

// ExistAlien delegates to the alien Group matching op, symmetric to Exist
// (spec.md §9 open question, pinned: same batched scatter/gather shape).
func (e *Engine) ExistAlien(op cmn.Operation, keys []cmn.Key) ([]bool, error) {
	e.mu.RLock()
	g, ok := e.alien[alienKey{op.RemoteNode, op.VDisk}]
	e.mu.RUnlock()
	if !ok {
		return make([]bool, len(keys)), nil
	}
	return g.Exist(keys)
}

// VDisksGroups exposes every normal Group, for the administrative
// interface (spec.md §4.5).
func (e *Engine) VDisksGroups() []*Group {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Group, 0, len(e.normal))
	for _, g := range e.normal {
		out = append(out, g)
	}
	return out
}

// DiskUsage returns a snapshot of every local disk's capacity accounting,
// keyed by disk name, for the admin status surface (C4.1). Groups sharing a
// disk share its Usage record, so the map is built off distinct disk names
// rather than one entry per Group.
func (e *Engine) DiskUsage() map[string]fs.UsageSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]fs.UsageSnapshot, len(e.normal))
	for k, g := range e.normal {
		if _, ok := out[k.disk]; ok {
			continue
		}
		out[k.disk] = g.Usage().Snapshot()
	}
	return out
}

func (e *Engine) normalGroup(vdisk cmn.VDiskID, disk string) (*Group, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	g, ok := e.normal[normalKey{vdisk, disk}]
	return g, ok
}

// alienGroupOrCreate returns the alien Group for (node, vdisk), creating it
// if absent. The new group is inserted into the map under e.mu so a
// concurrent lookup never observes a half-created entry, but Run (which
// retries forever against disk I/O per spec.md §4.3/§5) is called after the
// lock is released: e.mu only guards the maps, not a new group's bootstrap,
// so one alien group coming up slowly cannot stall every other Put/Get/
// Exist/PutAlien routed through this Engine.
func (e *Engine) alienGroupOrCreate(node string, vdisk cmn.VDiskID) (*Group, error) {
	e.mu.RLock()
	g, ok := e.alien[alienKey{node, vdisk}]
	e.mu.RUnlock()
	if ok {
		return g, nil
	}

	e.mu.Lock()
	if g, ok = e.alien[alienKey{node, vdisk}]; ok {
		e.mu.Unlock()
		return g, nil
	}
	dir := e.settings.AlienGroupDir(node, vdisk)
	if err := fs.EnsureDir(dir); err != nil {
		e.mu.Unlock()
		return nil, cmn.Wrap(cmn.KindStorage, "create alien group dir", err)
	}
	g = NewGroup(vdisk, dir, e.settings, e.usageOf(e.settings.AlienDisk.Name), e.mx)
	g.RemoteNode = node
	e.alien[alienKey{node, vdisk}] = g
	e.mu.Unlock()

	g.Run()
	return g, nil
}
