// Package cmn provides common low-level types and utilities shared by every
// vstore package: the key/payload data model, the error taxonomy, and the
// small set of identifiers (VDiskID, node/disk names) that placement, the
// pearl engine, and the backend dispatcher all key off of.
/*
 * Copyright (c) 2024, vstore authors. All rights reserved.
 */
package cmn

import "fmt"

// Key is the opaque 64-bit identifier every stored payload is addressed by.
type Key uint64

// VDiskID is the cluster-wide, fixed identifier of a virtual disk. Keys are
// partitioned across a fixed VDiskID set by the placement map (see
// placement.Map.Operation).
type VDiskID uint32

// Meta is caller-supplied metadata attached to a payload. Timestamp drives
// both partition selection (pearl.Group.Put) and conflict
// resolution on read (pearl.Group.Get).
type Meta struct {
	Timestamp int64 `json:"timestamp"`
}

// Payload is the unit of storage: opaque bytes plus metadata.
type Payload struct {
	Bytes []byte `json:"bytes"`
	Meta  Meta   `json:"meta"`
}

// DiskPath names a physical disk and the filesystem path it is mounted at.
// Disk names are unique per node.
type DiskPath struct {
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"path"`
}

func (d DiskPath) String() string { return fmt.Sprintf("%s(%s)", d.Name, d.Path) }

// Node identifies a cluster member. Names are unique cluster-wide.
type Node struct {
	Name    string `yaml:"name" json:"name"`
	Address string `yaml:"address" json:"address"`
}

// Replica is one concrete copy of a vdisk: a (node, disk, path) triple.
type Replica struct {
	Node string `yaml:"node" json:"node"`
	Disk string `yaml:"disk" json:"disk"`
	Path string `yaml:"path" json:"path"`
}

// Operation is the per-request routing decision derived from a placement
// lookup: which vdisk, and whether it resolves to a local disk or must be
// tagged for a remote node's alien area. It is alien iff Disk is the zero
// value (absent).
//
// Two Operations are equal (and hash equal) iff VDisk, Disk, and RemoteNode
// all match; this equality keys the backend dispatcher's exist() batching
// map (see backend.opKey).
type Operation struct {
	VDisk      VDiskID
	Disk       DiskPath // zero value means "no local disk" (alien)
	RemoteNode string   // set only for alien operations
}

// IsAlien reports whether this operation has no local disk target.
func (o Operation) IsAlien() bool { return o.Disk.Name == "" }
