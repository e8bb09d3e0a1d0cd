package pearl

import (
	"strconv"
	"time"

	"github.com/ncarstens/vstore/cmn"
	"github.com/ncarstens/vstore/cmn/cos"
	"github.com/ncarstens/vstore/cmn/nlog"
	"github.com/ncarstens/vstore/fs"
	"github.com/ncarstens/vstore/placement"
	"github.com/ncarstens/vstore/stats"
)

// scanHolders implements Settings.read_vdisk_directory (spec.md §4.4):
// every subdirectory of dir whose name parses as a signed 64-bit integer
// becomes an (unprepared) Holder spanning [name, name+period).
func scanHolders(dir string, period int64, usage *fs.Usage) ([]*Holder, error) {
	names, err := cos.Subdirs(dir)
	if err != nil {
		return nil, cmn.Wrap(cmn.KindStorage, "scan holder dir", err)
	}
	holders := make([]*Holder, 0, len(names))
	for _, name := range names {
		start, err := strconv.ParseInt(name, 10, 64)
		if err != nil {
			continue // not a timestamp-named partition, skip
		}
		holders = append(holders, NewHolder(fs.HolderDir(dir, start), start, period, usage))
	}
	// keep ascending order, matching Group's sorted-list invariant.
	for i := 1; i < len(holders); i++ {
		for j := i; j > 0 && holders[j-1].Start > holders[j].Start; j-- {
			holders[j-1], holders[j] = holders[j], holders[j-1]
		}
	}
	return holders, nil
}

// ScanNormalGroups implements Settings.read_group_from_disk: enumerate
// local disks and, for each, every vdisk this node holds on it, yielding
// one Group per (vdisk, disk) pair with its directory ensured.
func ScanNormalGroups(settings *fs.Settings, pm *placement.Map, disks []cmn.DiskPath, usageOf func(diskName string) *fs.Usage, mx *stats.Metrics) ([]*Group, error) {
	var groups []*Group
	for _, disk := range disks {
		for _, vid := range pm.VDisksByDisk(disk.Name) {
			dir := settings.GroupDir(disk, vid)
			if err := fs.EnsureDir(dir); err != nil {
				return nil, cmn.Wrap(cmn.KindStorage, "ensure group dir", err)
			}
			g := NewGroup(vid, dir, settings, usageOf(disk.Name), mx)
			g.NodeName = pm.Self()
			g.DiskName = disk.Name
			groups = append(groups, g)
		}
	}
	return groups, nil
}

// ScanAlienGroups implements Settings.read_alien_directory: a two-level
// scan of "<alien_disk>/<alien_root>/<node_name>/<vdisk_id>/", skipping
// entries whose node name or vdisk id are not cluster-known, and warning
// when the named node does not actually hold the named vdisk (an invalid
// residual state — the alien data is still reconciled, just flagged).
func ScanAlienGroups(settings *fs.Settings, pm *placement.Map, usage *fs.Usage, mx *stats.Metrics) ([]*Group, error) {
	root := settings.AlienRoot()
	nodeNames, err := cos.Subdirs(root)
	if err != nil {
		return nil, cmn.Wrap(cmn.KindStorage, "scan alien root", err)
	}
	var groups []*Group
	for _, node := range nodeNames {
		if !pm.NodeKnown(node) {
			nlog.Warningf("pearl: alien dir for unknown node %q, skipping", node)
			continue
		}
		nodeDir := cos.JoinDir(root, node)
		vdiskNames, err := cos.Subdirs(nodeDir)
		if err != nil {
			return nil, cmn.Wrap(cmn.KindStorage, "scan alien node dir", err)
		}
		for _, vname := range vdiskNames {
			id, err := strconv.ParseUint(vname, 10, 32)
			if err != nil {
				continue
			}
			vid := cmn.VDiskID(id)
			if !pm.VDiskKnown(vid) {
				nlog.Warningf("pearl: alien dir for unknown vdisk %d, skipping", vid)
				continue
			}
			if !pm.NodeHoldsVDisk(node, vid) {
				nlog.Warningf("pearl: alien data tagged for node %q which does not hold vdisk %d (invalid residual state)", node, vid)
			}
			dir := settings.AlienGroupDir(node, vid)
			g := NewGroup(vid, dir, settings, usage, mx)
			g.RemoteNode = node
			groups = append(groups, g)
		}
	}
	return groups, nil
}

// IsActual reports whether h is the current time-partition: its Start
// equals floor(now/period)*period.
func IsActual(h *Holder, period time.Duration) bool {
	return h.Start == fs.AlignDown(time.Now().Unix(), period)
}

// ChooseData returns the candidate with the greatest Meta.Timestamp; ties
// are broken by iteration order (first seen wins), matching
// Settings.choose_data.
func ChooseData(candidates []cmn.Payload) (cmn.Payload, bool) {
	if len(candidates) == 0 {
		return cmn.Payload{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Meta.Timestamp > best.Meta.Timestamp {
			best = c
		}
	}
	return best, true
}
