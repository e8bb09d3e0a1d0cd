// Package grinder is the request-boundary router described in spec.md
// §4.7 ("Grinder"): it chooses between the local backend and a
// cluster-fan-out collaborator based on a per-request flag, recording
// put/get latency per vdisk on either path (Exist is not timed).
/*
 * Copyright (c) 2024, vstore authors. All rights reserved.
 */
package grinder

import (
	"time"

	"github.com/ncarstens/vstore/backend"
	"github.com/ncarstens/vstore/cmn"
	"github.com/ncarstens/vstore/stats"
)

// ClusterFanout is the out-of-scope collaborator that performs cluster
// fan-out when a request is not pinned to this node (spec.md §1: "Inter-
// node client connection pooling... exposed to the core only as a 'send
// to peer' capability"). The core only needs this narrow interface.
type ClusterFanout interface {
	Put(key cmn.Key, data cmn.Payload, opts backend.PutOptions) error
	Get(key cmn.Key, opts backend.GetOptions) (cmn.Payload, error)
	Exist(keys []cmn.Key, opts backend.GetOptions) ([]bool, error)
}

// RequestOptions carries the per-request flags of spec.md §6.
type RequestOptions struct {
	ForceNode bool // FORCE_NODE: route to the local backend unconditionally
	Put       backend.PutOptions
	Get       backend.GetOptions
}

// Router dispatches each request to either the local Dispatcher or the
// cluster fan-out collaborator.
type Router struct {
	local   *backend.Dispatcher
	cluster ClusterFanout
	mx      *stats.Metrics
}

// NewRouter constructs a Router. cluster may be nil if this node never
// needs to fan out (e.g. a single-node deployment); with a nil cluster
// every request goes to the local Dispatcher, whatever ForceNode says.
func NewRouter(local *backend.Dispatcher, cluster ClusterFanout, mx *stats.Metrics) *Router {
	if mx == nil {
		mx = stats.NewMetrics()
	}
	return &Router{local: local, cluster: cluster, mx: mx}
}

func (r *Router) dest(opts RequestOptions) (local bool) {
	return opts.ForceNode || r.cluster == nil
}

// Put routes a put request.
func (r *Router) Put(key cmn.Key, data cmn.Payload, opts RequestOptions) error {
	start := time.Now()
	label := stats.VDiskLabel(r.local.VDiskFor(key))
	defer func() { r.mx.PutLatency.WithLabelValues(label).Observe(time.Since(start).Seconds()) }()

	if r.dest(opts) {
		return r.local.Put(key, data, opts.Put)
	}
	return r.cluster.Put(key, data, opts.Put)
}

// Get routes a get request.
func (r *Router) Get(key cmn.Key, opts RequestOptions) (cmn.Payload, error) {
	start := time.Now()
	label := stats.VDiskLabel(r.local.VDiskFor(key))
	defer func() { r.mx.GetLatency.WithLabelValues(label).Observe(time.Since(start).Seconds()) }()

	if r.dest(opts) {
		return r.local.Get(key, opts.Get)
	}
	return r.cluster.Get(key, opts.Get)
}

// Exist routes a batched exist request.
func (r *Router) Exist(keys []cmn.Key, opts RequestOptions) ([]bool, error) {
	if r.dest(opts) {
		return r.local.Exist(keys, opts.Get)
	}
	return r.cluster.Exist(keys, opts.Get)
}
