// Package stats is the metrics sink described in spec.md §9 "Global
// mutable state": process-wide counters injected into the backend
// dispatcher rather than referenced as global singletons from the core.
/*
 * Copyright (c) 2024, vstore authors. All rights reserved.
 */
package stats

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ncarstens/vstore/cmn"
)

const vdiskLabel = "vdisk_id"

// VDiskLabel formats a vdisk id as the label value every metric below
// expects (SPEC_FULL.md §6: "labeled by vdisk_id where applicable").
func VDiskLabel(id cmn.VDiskID) string {
	return strconv.FormatUint(uint64(id), 10)
}

// Metrics holds every counter/histogram named in SPEC_FULL.md §6, each
// vectored over vdisk_id.
type Metrics struct {
	PutTotal      *prometheus.CounterVec
	PutErrors     *prometheus.CounterVec
	GetTotal      *prometheus.CounterVec
	GetErrors     *prometheus.CounterVec
	AlienPutTotal *prometheus.CounterVec
	HolderReinits *prometheus.CounterVec
	PutLatency    *prometheus.HistogramVec
	GetLatency    *prometheus.HistogramVec
}

// NewMetrics builds a standalone Metrics instance that is not registered
// with any registry; callers that want its metrics exported use Register
// to attach it to a prometheus.Registerer.
func NewMetrics() *Metrics {
	return &Metrics{
		PutTotal:      prometheus.NewCounterVec(prometheus.CounterOpts{Name: "vstore_put_total"}, []string{vdiskLabel}),
		PutErrors:     prometheus.NewCounterVec(prometheus.CounterOpts{Name: "vstore_put_errors_total"}, []string{vdiskLabel}),
		GetTotal:      prometheus.NewCounterVec(prometheus.CounterOpts{Name: "vstore_get_total"}, []string{vdiskLabel}),
		GetErrors:     prometheus.NewCounterVec(prometheus.CounterOpts{Name: "vstore_get_errors_total"}, []string{vdiskLabel}),
		AlienPutTotal: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "vstore_alien_put_total"}, []string{vdiskLabel}),
		HolderReinits: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "vstore_holder_reinit_total"}, []string{vdiskLabel}),
		PutLatency:    prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "vstore_put_latency_seconds"}, []string{vdiskLabel}),
		GetLatency:    prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "vstore_get_latency_seconds"}, []string{vdiskLabel}),
	}
}

// Register attaches every metric to reg, the process-wide registry wired
// up once at startup (lifecycle: init at process start, flush on
// shutdown — spec.md §9).
func (m *Metrics) Register(reg prometheus.Registerer) {
	reg.MustRegister(m.PutTotal, m.PutErrors, m.GetTotal, m.GetErrors,
		m.AlienPutTotal, m.HolderReinits, m.PutLatency, m.GetLatency)
}
