package pearl

import (
	"sync"
	"time"

	"github.com/ncarstens/vstore/cmn"
	"github.com/ncarstens/vstore/cmn/nlog"
	"github.com/ncarstens/vstore/fs"
	"github.com/ncarstens/vstore/stats"
)

// Group manages the time-series of Holders for a single (vdisk, disk)
// pair — or, in the alien area, a single (remote_node, vdisk) pair.
type Group struct {
	VDisk    cmn.VDiskID
	NodeName string // this node's name, for normal groups
	DiskName string // "" for alien groups
	RemoteNode string // set only for alien groups

	dir      string
	settings *fs.Settings
	usage    *fs.Usage
	mx       *stats.Metrics

	mu      sync.RWMutex // guards holders; many readers, one writer
	holders []*Holder    // sorted ascending by Start

	retryDelay time.Duration
}

// NewGroup constructs a Group rooted at dir. Call Run to populate and
// prepare its holders. mx may be nil, in which case a standalone Metrics
// instance is used (matching backend.NewDispatcher/grinder.NewRouter).
func NewGroup(vdisk cmn.VDiskID, dir string, settings *fs.Settings, usage *fs.Usage, mx *stats.Metrics) *Group {
	if mx == nil {
		mx = stats.NewMetrics()
	}
	return &Group{
		VDisk:      vdisk,
		dir:        dir,
		settings:   settings,
		usage:      usage,
		mx:         mx,
		retryDelay: settings.FailRetryTimeout,
	}
}

// Run bootstraps the group: scan its directory for existing holders,
// ensure a holder for the current time window exists, and prepare every
// holder, retrying each stage forever at settings.FailRetryTimeout until
// it succeeds (spec.md §4.3 state machine). Run blocks until the group
// reaches Ready; callers fan it out over a worker pool (see Engine.Run).
func (g *Group) Run() {
	for {
		holders, err := g.scan()
		if err != nil {
			nlog.Warningf("pearl: group %s scan failed: %v, retrying", g.dir, err)
			time.Sleep(g.retryDelay)
			continue
		}
		g.mu.Lock()
		g.holders = holders
		g.mu.Unlock()
		break
	}

	for {
		if err := g.ensureCurrent(); err != nil {
			nlog.Warningf("pearl: group %s ensure-current failed: %v, retrying", g.dir, err)
			time.Sleep(g.retryDelay)
			continue
		}
		break
	}

	for {
		if err := g.prepareAll(); err != nil {
			nlog.Warningf("pearl: group %s prepare failed: %v, retrying", g.dir, err)
			time.Sleep(g.retryDelay)
			continue
		}
		break
	}

	if nlog.V(1) {
		nlog.Infof("pearl: group %s ready", g.dir)
	}
}

func (g *Group) scan() ([]*Holder, error) {
	return scanHolders(g.dir, int64(g.settings.TimestampPeriod/time.Second), g.usage)
}

func (g *Group) ensureCurrent() error {
	g.mu.RLock()
	for _, h := range g.holders {
		if IsActual(h, g.settings.TimestampPeriod) {
			g.mu.RUnlock()
			return nil
		}
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, h := range g.holders {
		if IsActual(h, g.settings.TimestampPeriod) {
			return nil
		}
	}
	start := fs.AlignDown(time.Now().Unix(), g.settings.TimestampPeriod)
	h := NewHolder(fs.HolderDir(g.dir, start), start, int64(g.settings.TimestampPeriod/time.Second), g.usage)
	g.insertLocked(h)
	return nil
}

func (g *Group) prepareAll() error {
	g.mu.RLock()
	holders := append([]*Holder(nil), g.holders...)
	g.mu.RUnlock()
	for _, h := range holders {
		if h.ready() {
			continue
		}
		if err := h.Prepare(); err != nil {
			return err
		}
	}
	return nil
}

// insertLocked inserts h keeping g.holders sorted ascending by Start.
// Caller must hold g.mu for writing.
func (g *Group) insertLocked(h *Holder) {
	i := 0
	for ; i < len(g.holders); i++ {
		if g.holders[i].Start > h.Start {
			break
		}
	}
	g.holders = append(g.holders, nil)
	copy(g.holders[i+1:], g.holders[i:])
	g.holders[i] = h
}

// Put writes (key, payload) to the holder whose window contains
// payload.Meta.Timestamp, creating one aligned to that timestamp if none
// matches. On an error classified NeedsRestart, it attempts a reinit of
// the holder that failed.
func (g *Group) Put(key cmn.Key, p cmn.Payload) error {
	g.mu.RLock()
	h := g.findLocked(p.Meta.Timestamp)
	g.mu.RUnlock()

	if h == nil {
		g.mu.Lock()
		h = g.findLocked(p.Meta.Timestamp)
		if h == nil {
			period := int64(g.settings.TimestampPeriod / time.Second)
			start := fs.AlignDown(p.Meta.Timestamp, g.settings.TimestampPeriod)
			h = NewHolder(fs.HolderDir(g.dir, start), start, period, g.usage)
			g.insertLocked(h)
			if err := h.Prepare(); err != nil {
				g.mu.Unlock()
				return err
			}
		}
		g.mu.Unlock()
	}

	err := h.Write(key, p)
	if err != nil && cmn.NeedsRestart(err) {
		if h.TryReinit() {
			g.mx.HolderReinits.WithLabelValues(stats.VDiskLabel(g.VDisk)).Inc()
			if rerr := h.Reinit(); rerr != nil {
				nlog.Errorf("pearl: holder %s reinit failed: %v", h.dir, rerr)
			}
		}
	}
	return err
}

// findLocked scans newest-to-oldest for the holder whose [Start,End)
// contains ts. Caller must hold g.mu.
func (g *Group) findLocked(ts int64) *Holder {
	for i := len(g.holders) - 1; i >= 0; i-- {
		h := g.holders[i]
		if ts >= h.Start && ts < h.End {
			return h
		}
	}
	return nil
}

// Get reads key across every holder and returns the payload ChooseData
// picks: the highest Meta.Timestamp, newest holder winning ties (holders
// are walked newest-to-oldest so ChooseData's first-seen-wins tie-break
// lands on the newest one).
func (g *Group) Get(key cmn.Key) (cmn.Payload, error) {
	g.mu.RLock()
	holders := append([]*Holder(nil), g.holders...)
	g.mu.RUnlock()

	var (
		candidates []cmn.Payload
		anyErr     error
		allMiss    = true
	)
	for i := len(holders) - 1; i >= 0; i-- {
		h := holders[i]
		p, err := h.Read(key)
		if err != nil {
			if cmn.KindOf(err) != cmn.KindKeyNotFound {
				allMiss = false
				anyErr = err
			}
			if cmn.NeedsReadRestart(err) {
				if h.TryReinit() {
					g.mx.HolderReinits.WithLabelValues(stats.VDiskLabel(g.VDisk)).Inc()
					if rerr := h.Reinit(); rerr != nil {
						nlog.Errorf("pearl: holder %s reinit failed: %v", h.dir, rerr)
					}
				}
			}
			continue
		}
		allMiss = false
		candidates = append(candidates, p)
	}
	if best, ok := ChooseData(candidates); ok {
		return best, nil
	}
	if allMiss {
		return cmn.Payload{}, cmn.ErrKeyNotFound
	}
	if anyErr != nil {
		return cmn.Payload{}, cmn.NewError(cmn.KindFailed, "all holders failed")
	}
	return cmn.Payload{}, cmn.ErrKeyNotFound
}

// Exist fans keys out to every holder and ORs presence per position.
func (g *Group) Exist(keys []cmn.Key) ([]bool, error) {
	g.mu.RLock()
	holders := append([]*Holder(nil), g.holders...)
	g.mu.RUnlock()

	out := make([]bool, len(keys))
	for _, h := range holders {
		res, err := h.Exist(keys)
		if err != nil {
			continue
		}
		for i, v := range res {
			if v {
				out[i] = true
			}
		}
	}
	return out, nil
}

// Attach adds a Holder aligned to start if one is not already present.
func (g *Group) Attach(start int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, h := range g.holders {
		if h.Start == start {
			return cmn.NewError(cmn.KindFailed, "holder already attached")
		}
	}
	period := int64(g.settings.TimestampPeriod / time.Second)
	h := NewHolder(fs.HolderDir(g.dir, start), start, period, g.usage)
	if err := h.Prepare(); err != nil {
		return err
	}
	g.insertLocked(h)
	return nil
}

// Detach removes the Holder starting at start, failing if none is found.
func (g *Group) Detach(start int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, h := range g.holders {
		if h.Start == start {
			h.Close()
			g.holders = append(g.holders[:i], g.holders[i+1:]...)
			return nil
		}
	}
	return cmn.NewError(cmn.KindFailed, "holder not found")
}

// Usage exposes the underlying disk capacity record for the admin status
// surface (C4.1).
func (g *Group) Usage() *fs.Usage {
	return g.usage
}

// Partitions returns the start timestamps of every holder, ascending, for
// the admin "partitions" listing (C9).
func (g *Group) Partitions() []int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]int64, len(g.holders))
	for i, h := range g.holders {
		out[i] = h.Start
	}
	return out
}
