// Package fs owns the on-disk directory layout: the mapping from
// (disk, vdisk, time-partition) and (alien_disk, node, vdisk, time-partition)
// triples to filesystem paths. The layout is part of the persistent
// contract (spec.md §4.4, §6) — changing the path-building functions here
// changes what an already-written cluster looks like on disk.
/*
 * Copyright (c) 2024, vstore authors. All rights reserved.
 */
package fs

import (
	"path/filepath"
	"strconv"
	"time"

	"github.com/ncarstens/vstore/cmn"
	"github.com/ncarstens/vstore/cmn/cos"
)

// Settings is the filesystem layout configuration, shared (via pointer) by
// every Group the way the teacher's Group holds its Settings by shared
// ownership (spec.md §9 "Back-references").
type Settings struct {
	RootDirName      string        // normal root, e.g. "bob"
	AlienRootDirName string        // alien root, e.g. "alien"
	AlienDisk        cmn.DiskPath  // disk reserved for alien storage
	TimestampPeriod  time.Duration // Holder window length
	FailRetryTimeout time.Duration // Group bootstrap retry delay
}

// GroupDir returns the directory holding every Holder of a normal
// (vdisk, disk) group: "<disk.path>/<root_dir>/<vdisk_id>/".
func (s *Settings) GroupDir(disk cmn.DiskPath, vdisk cmn.VDiskID) string {
	return filepath.Join(disk.Path, s.RootDirName, strconv.FormatUint(uint64(vdisk), 10))
}

// AlienRoot returns "<alien_disk.path>/<alien_root>/", the two-level scan
// root for the alien directory scanner.
func (s *Settings) AlienRoot() string {
	return filepath.Join(s.AlienDisk.Path, s.AlienRootDirName)
}

// AlienGroupDir returns the directory holding every Holder of an alien
// (remoteNode, vdisk) group:
// "<alien_disk.path>/<alien_root>/<node_name>/<vdisk_id>/".
func (s *Settings) AlienGroupDir(remoteNode string, vdisk cmn.VDiskID) string {
	return filepath.Join(s.AlienDisk.Path, s.AlienRootDirName, remoteNode, strconv.FormatUint(uint64(vdisk), 10))
}

// HolderDir returns the directory of a single time-partition within a
// group directory: "<group_dir>/<start_ts>/".
func HolderDir(groupDir string, start int64) string {
	return filepath.Join(groupDir, strconv.FormatInt(start, 10))
}

// AlignDown floors a unix timestamp to the nearest period boundary,
// matching "Current Holder = start == floor(now/period)*period" (§4.3) and
// create_pearl's alignment of a payload timestamp (§4.4).
func AlignDown(ts int64, period time.Duration) int64 {
	p := int64(period / time.Second)
	if p <= 0 {
		return ts
	}
	return (ts / p) * p
}

// EnsureDir creates dir if it does not already exist.
func EnsureDir(dir string) error {
	return cos.CreateDir(dir)
}
