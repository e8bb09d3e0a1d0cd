package config

import (
	"fmt"
	"time"

	"github.com/ncarstens/vstore/cmn"
	"github.com/ncarstens/vstore/fs"
	"github.com/ncarstens/vstore/placement"
)

// PlacementMap builds a placement.Map from the parsed config.
func (c *Config) PlacementMap() *placement.Map {
	vdisks := make([]placement.VDisk, len(c.VDisks))
	for i, vd := range c.VDisks {
		vdisks[i] = placement.VDisk{ID: cmn.VDiskID(vd.ID), Replicas: vd.Replicas}
	}
	return placement.New(c.Self, c.Nodes, vdisks)
}

// DiskByName looks up one of this node's configured local disks by name.
func (c *Config) DiskByName(name string) (cmn.DiskPath, error) {
	for _, d := range c.Disks {
		if d.Name == name {
			return d, nil
		}
	}
	return cmn.DiskPath{}, fmt.Errorf("unknown disk %q", name)
}

// PearlLayout builds the fs.Settings the pearl engine scans and writes
// under, resolving pearl.alien_disk against this node's disk list.
func (c *Config) PearlLayout() (*fs.Settings, error) {
	alienDisk, err := c.DiskByName(c.Pearl.AlienDisk)
	if err != nil {
		return nil, fmt.Errorf("pearl.alien_disk: %w", err)
	}
	period := c.Pearl.TimestampPeriod
	if period < time.Second {
		period = time.Second
	}
	return &fs.Settings{
		RootDirName:      c.Pearl.RootDirName,
		AlienRootDirName: c.Pearl.AlienRootDirName,
		AlienDisk:        alienDisk,
		TimestampPeriod:  period,
		FailRetryTimeout: c.Pearl.FailRetryTimeout,
	}, nil
}
