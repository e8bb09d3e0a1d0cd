// Package placement implements the cluster-wide key→(vdisk, replicas)
// mapping described in spec.md §4.1, in the spirit of the teacher's
// cluster.Smap: an immutable, loaded-once table that every other package
// consults read-only.
/*
 * Copyright (c) 2024, vstore authors. All rights reserved.
 */
package placement

import (
	"github.com/OneOfOne/xxhash"

	"github.com/ncarstens/vstore/cmn"
)

// VDisk is one cluster-wide virtual disk and its immutable replica set.
type VDisk struct {
	ID       cmn.VDiskID
	Replicas []cmn.Replica
}

// Map is the placement map: all nodes, all vdisks, and this node's
// identity. It is a pure function of its construction inputs — §8
// invariant 1 requires get_operation to be deterministic and stable
// across restarts for unchanged configuration.
type Map struct {
	self   string
	nodes  map[string]cmn.Node
	vdisks []VDisk
}

// New builds a Map for the node named self out of the given node and
// vdisk tables. The vdisk slice order is part of the on-disk format (it
// drives the key hash in Operation) and must be stable across restarts.
func New(self string, nodes []cmn.Node, vdisks []VDisk) *Map {
	nm := make(map[string]cmn.Node, len(nodes))
	for _, n := range nodes {
		nm[n.Name] = n
	}
	return &Map{self: self, nodes: nm, vdisks: vdisks}
}

// Self returns this node's name.
func (m *Map) Self() string { return m.self }

// vdiskFor deterministically maps a key to one of the configured vdisks.
// The algorithm is part of the persistent on-disk layout: changing it
// changes which directory a given key's data lives under.
func (m *Map) vdiskFor(key cmn.Key) VDiskID {
	h := xxhash.ChecksumUint64(uint64(key))
	return m.vdisks[h%uint64(len(m.vdisks))].ID
}

// VDiskID is an alias of cmn.VDiskID, the id type vdiskFor returns.
type VDiskID = cmn.VDiskID

// Operation resolves a key to its vdisk id and, if one of that vdisk's
// replicas lives on this node, the local disk path. A nil *cmn.DiskPath
// return means the operation is alien for this node.
func (m *Map) Operation(key cmn.Key) (cmn.VDiskID, *cmn.DiskPath) {
	id := m.vdiskFor(key)
	vd := m.vdisk(id)
	if vd == nil {
		return id, nil
	}
	for _, r := range vd.Replicas {
		if r.Node == m.self {
			return id, &cmn.DiskPath{Name: r.Disk, Path: r.Path}
		}
	}
	return id, nil
}

func (m *Map) vdisk(id cmn.VDiskID) *VDisk {
	for i := range m.vdisks {
		if m.vdisks[i].ID == id {
			return &m.vdisks[i]
		}
	}
	return nil
}

// VDisk looks up a vdisk by id, returning false if it is not in the
// cluster-wide table (a VDiskNotFound condition for callers that need the
// full replica set, e.g. the admin "vdisks" listing).
func (m *Map) VDisk(id cmn.VDiskID) (VDisk, bool) {
	vd := m.vdisk(id)
	if vd == nil {
		return VDisk{}, false
	}
	return *vd, true
}

// NodeHoldsVDisk reports whether the named node holds a replica of vdisk
// id.
func (m *Map) NodeHoldsVDisk(node string, id cmn.VDiskID) bool {
	vd := m.vdisk(id)
	if vd == nil {
		return false
	}
	for _, r := range vd.Replicas {
		if r.Node == node {
			return true
		}
	}
	return false
}

// NodeKnown reports whether node is part of the cluster-wide node table;
// used by the alien directory scanner to skip unknown residual entries.
func (m *Map) NodeKnown(node string) bool {
	_, ok := m.nodes[node]
	return ok
}

// VDiskKnown reports whether id is part of the cluster-wide vdisk table.
func (m *Map) VDiskKnown(id cmn.VDiskID) bool {
	return m.vdisk(id) != nil
}

// VDisksByDisk iterates the vdisks that have a replica on (this node,
// diskName).
func (m *Map) VDisksByDisk(diskName string) []cmn.VDiskID {
	var out []cmn.VDiskID
	for _, vd := range m.vdisks {
		for _, r := range vd.Replicas {
			if r.Node == m.self && r.Disk == diskName {
				out = append(out, vd.ID)
				break
			}
		}
	}
	return out
}

// AllVDisks returns every cluster-wide vdisk, for the admin "vdisks"
// listing (C9).
func (m *Map) AllVDisks() []VDisk {
	out := make([]VDisk, len(m.vdisks))
	copy(out, m.vdisks)
	return out
}
