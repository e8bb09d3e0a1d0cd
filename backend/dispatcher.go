// Package backend implements the front-door request classifier described
// in spec.md §4.6: it resolves each request to a placement Operation,
// applies the local-put alien-fallback policy, and batches a multi-key
// exist() into per-Group calls. It is the Go analogue of the teacher's
// target.backends dispatch table (ais/target.go), generalized from
// "which cloud/in-memory backend" to "which pearl Group".
/*
 * Copyright (c) 2024, vstore authors. All rights reserved.
 */
package backend

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ncarstens/vstore/cmn"
	"github.com/ncarstens/vstore/cmn/nlog"
	"github.com/ncarstens/vstore/placement"
	"github.com/ncarstens/vstore/stats"
)

// PutOptions carries the wire options of a put request (spec.md §6).
type PutOptions struct {
	// RemoteNodes forces alien writes to each named node instead of a
	// local write; the put aborts on the first failure (§9 open
	// question, pinned to sequential semantics).
	RemoteNodes []string
}

// GetOptions carries the wire options of a get request (spec.md §6).
type GetOptions struct {
	Normal     bool
	Alien      bool
	RemoteNode string // which alien origin to read, when Alien is set
}

// Dispatcher is the Backend Dispatcher (C6). It is written against the
// Engine capability set rather than any one storage variant, so the same
// dispatch, fallback, and batching logic runs unchanged over pearl,
// in-memory, or stub backends (spec.md §9 "Polymorphic storage backends").
type Dispatcher struct {
	pm     *placement.Map
	engine Engine
	self   string
	mx     *stats.Metrics
}

// NewDispatcher constructs a Dispatcher over engine, using pm for
// placement lookups and self as this node's name (used to tag the
// local-alien fallback with its origin).
func NewDispatcher(pm *placement.Map, engine Engine, self string, mx *stats.Metrics) *Dispatcher {
	if mx == nil {
		mx = stats.NewMetrics()
	}
	return &Dispatcher{pm: pm, engine: engine, self: self, mx: mx}
}

// Put implements spec.md §4.6 put: remote-node alien fan-out takes
// priority over local placement; a local write failure (other than
// DuplicateKey) falls back to a local-alien write tagged with this node's
// name, and on fallback failure the *original* error is surfaced.
func (d *Dispatcher) Put(key cmn.Key, data cmn.Payload, opts PutOptions) error {
	vdisk, local := d.pm.Operation(key)
	label := stats.VDiskLabel(vdisk)
	d.mx.PutTotal.WithLabelValues(label).Inc()

	if len(opts.RemoteNodes) > 0 {
		for _, node := range opts.RemoteNodes {
			op := cmn.Operation{VDisk: vdisk, RemoteNode: node}
			if err := d.engine.PutAlien(op, key, data); err != nil {
				d.mx.PutErrors.WithLabelValues(label).Inc()
				return err
			}
			d.mx.AlienPutTotal.WithLabelValues(label).Inc()
		}
		return nil
	}

	if local == nil {
		d.mx.PutErrors.WithLabelValues(label).Inc()
		return cmn.NewError(cmn.KindInternal, "no local or remote target for key")
	}

	op := cmn.Operation{VDisk: vdisk, Disk: *local}
	err := d.engine.Put(op, key, data)
	if err == nil {
		return nil
	}
	if !cmn.NeedsAlienFallback(err) {
		// DuplicateKey: surfaced as-is, never triggers alien fallback.
		return err
	}

	nlog.Warningf("backend: local put failed for vdisk %d disk %s: %v, falling back to local alien", vdisk, local.Name, err)
	fallbackOp := cmn.Operation{VDisk: vdisk, RemoteNode: d.self}
	if ferr := d.engine.PutAlien(fallbackOp, key, data); ferr != nil {
		d.mx.PutErrors.WithLabelValues(label).Inc()
		return err // original error, per spec.md §7
	}
	d.mx.AlienPutTotal.WithLabelValues(label).Inc()
	return nil
}

// Get implements spec.md §4.6 get.
func (d *Dispatcher) Get(key cmn.Key, opts GetOptions) (cmn.Payload, error) {
	vdisk, local := d.pm.Operation(key)
	label := stats.VDiskLabel(vdisk)
	d.mx.GetTotal.WithLabelValues(label).Inc()

	var (
		p   cmn.Payload
		err error
	)
	switch {
	case opts.Normal:
		if local == nil {
			err = cmn.NewError(cmn.KindInternal, "no local target for key")
			break
		}
		p, err = d.engine.Get(cmn.Operation{VDisk: vdisk, Disk: *local}, key)
	case opts.Alien:
		p, err = d.engine.GetAlien(cmn.Operation{VDisk: vdisk, RemoteNode: opts.RemoteNode}, key)
	default:
		err = cmn.NewError(cmn.KindInternal, "neither normal nor alien selector set")
	}
	if err != nil && cmn.KindOf(err) != cmn.KindKeyNotFound {
		d.mx.GetErrors.WithLabelValues(label).Inc()
	}
	return p, err
}

// VDiskFor exposes the placement-derived vdisk id for key, independent of
// whether it resolves to a local disk on this node — used by the router
// to label request-latency metrics by vdisk_id.
func (d *Dispatcher) VDiskFor(key cmn.Key) cmn.VDiskID {
	vdisk, _ := d.pm.Operation(key)
	return vdisk
}

// opKey is the batching key for Exist: (vdisk, disk, remote_node), the
// same fields Operation equality is defined over (spec.md §3).
type opKey struct {
	vdisk cmn.VDiskID
	disk  string
	node  string
}

// Exist implements spec.md §4.6 exist: group keys by derived Operation,
// call the engine once per group, and scatter results back to the
// original positions by logical OR. Groups are resolved concurrently —
// each is an independent Group lookup, so there is no ordering
// requirement tying them together.
func (d *Dispatcher) Exist(keys []cmn.Key, opts GetOptions) ([]bool, error) {
	groups := make(map[opKey][]int) // op -> indices into keys
	ops := make(map[opKey]cmn.Operation)

	for i, k := range keys {
		vdisk, local := d.pm.Operation(k)
		var op cmn.Operation
		var ok opKey
		switch {
		case opts.Alien:
			op = cmn.Operation{VDisk: vdisk, RemoteNode: opts.RemoteNode}
			ok = opKey{vdisk, "", opts.RemoteNode}
		default:
			if local == nil {
				continue
			}
			op = cmn.Operation{VDisk: vdisk, Disk: *local}
			ok = opKey{vdisk, local.Name, ""}
		}
		groups[ok] = append(groups[ok], i)
		ops[ok] = op
	}

	out := make([]bool, len(keys))
	var mu sync.Mutex
	var eg errgroup.Group
	for ok, idxs := range groups {
		ok, idxs := ok, idxs
		op := ops[ok]
		batch := make([]cmn.Key, len(idxs))
		for j, idx := range idxs {
			batch[j] = keys[idx]
		}
		eg.Go(func() error {
			var (
				res []bool
				err error
			)
			if opts.Alien {
				res, err = d.engine.ExistAlien(op, batch)
			} else {
				res, err = d.engine.Exist(op, batch)
			}
			if err != nil {
				return err
			}
			mu.Lock()
			for j, idx := range idxs {
				out[idx] = out[idx] || res[j]
			}
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
