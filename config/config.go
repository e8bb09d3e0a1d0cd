// Package config parses the on-disk cluster configuration file into the
// types the placement map and pearl engine are built from
// (SPEC_FULL.md §6). Validation failures here are fatal at startup — the
// runtime error taxonomy of spec.md §7 never surfaces a config problem.
/*
 * Copyright (c) 2024, vstore authors. All rights reserved.
 */
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/ncarstens/vstore/cmn"
)

// BackendType selects the storage backend implementation (spec.md §6).
type BackendType string

const (
	BackendInMemory BackendType = "in_memory"
	BackendStub     BackendType = "stub"
	BackendPearl    BackendType = "pearl"
)

// PearlSettings mirrors spec.md §6's pearl.* option group.
type PearlSettings struct {
	AlienDisk        string        `yaml:"alien_disk"`
	RootDirName      string        `yaml:"root_dir_name"`
	AlienRootDirName string        `yaml:"alien_root_dir_name"`
	TimestampPeriod  time.Duration `yaml:"timestamp_period"`
	FailRetryTimeout time.Duration `yaml:"fail_retry_timeout"`
}

// VDiskConfig is one cluster-wide vdisk entry as written in cluster.yaml.
type VDiskConfig struct {
	ID       uint32        `yaml:"id"`
	Replicas []cmn.Replica `yaml:"replicas"`
}

// Config is the parsed cluster.yaml document.
type Config struct {
	Self        string        `yaml:"self"` // this node's name
	BackendType BackendType   `yaml:"backend_type"`
	Pearl       PearlSettings `yaml:"pearl"`
	Nodes       []cmn.Node    `yaml:"nodes"`
	Disks       []cmn.DiskPath `yaml:"disks"` // this node's local disks
	VDisks      []VDiskConfig `yaml:"vdisks"`
}

// Load reads and validates a cluster.yaml document from path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &c, nil
}

func (c *Config) validate() error {
	if c.Self == "" {
		return fmt.Errorf("self node name is required")
	}
	switch c.BackendType {
	case BackendInMemory, BackendStub, BackendPearl:
	default:
		return fmt.Errorf("unknown backend_type %q", c.BackendType)
	}
	if c.BackendType == BackendPearl {
		if c.Pearl.TimestampPeriod <= 0 {
			return fmt.Errorf("pearl.timestamp_period must be positive")
		}
		if c.Pearl.FailRetryTimeout <= 0 {
			return fmt.Errorf("pearl.fail_retry_timeout must be positive")
		}
		if c.Pearl.AlienDisk == "" {
			return fmt.Errorf("pearl.alien_disk is required")
		}
	}
	if len(c.VDisks) == 0 {
		return fmt.Errorf("at least one vdisk must be configured")
	}
	for _, vd := range c.VDisks {
		if len(vd.Replicas) == 0 {
			return fmt.Errorf("vdisk %d has no replicas", vd.ID)
		}
	}
	return nil
}
