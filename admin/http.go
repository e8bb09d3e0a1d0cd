// Package admin is the thin JSON surface over the administrative
// operations spec.md §6 names. It is the contract the out-of-scope
// HTTP/gRPC layer consumes; the surface itself is kept intentionally
// small since spec.md §1 declares the full administration surface
// external to the core.
/*
 * Copyright (c) 2024, vstore authors. All rights reserved.
 */
package admin

import (
	"net/http"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/ncarstens/vstore/cmn"
	"github.com/ncarstens/vstore/fs"
	"github.com/ncarstens/vstore/pearl"
	"github.com/ncarstens/vstore/placement"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StatusResponse is the "status" endpoint response.
type StatusResponse struct {
	NodeName  string                      `json:"node_name"`
	Address   string                      `json:"address"`
	VDisks    []uint32                    `json:"vdisks"`
	DiskUsage map[string]fs.UsageSnapshot `json:"disk_usage"`
}

// VDiskEntry is one entry of the "vdisks" listing response.
type VDiskEntry struct {
	ID       uint32        `json:"id"`
	Replicas []cmn.Replica `json:"replicas"`
}

// PartitionsResponse is the "vdisks/<id>/partitions" response.
type PartitionsResponse struct {
	VDiskID    uint32  `json:"vdisk_id"`
	NodeName   string  `json:"node_name"`
	DiskName   string  `json:"disk_name"`
	Partitions []int64 `json:"partitions"`
}

// OKResponse is the attach/detach response shape.
type OKResponse struct {
	OK  bool   `json:"ok"`
	Msg string `json:"msg"`
}

// Server implements the administrative HTTP surface over an Engine.
type Server struct {
	pm      *placement.Map
	engine  *pearl.Engine
	address string
}

// NewServer constructs a Server for pm/engine, answering status requests
// with address.
func NewServer(pm *placement.Map, engine *pearl.Engine, address string) *Server {
	return &Server{pm: pm, engine: engine, address: address}
}

// Handler returns the http.Handler implementing spec.md §6's admin
// surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/vdisks", s.handleVDisks)
	mux.HandleFunc("/vdisks/", s.handleVDiskSub)
	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	var ids []uint32
	for _, g := range s.engine.VDisksGroups() {
		ids = append(ids, uint32(g.VDisk))
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		NodeName:  s.pm.Self(),
		Address:   s.address,
		VDisks:    ids,
		DiskUsage: s.engine.DiskUsage(),
	})
}

func (s *Server) handleVDisks(w http.ResponseWriter, _ *http.Request) {
	all := s.pm.AllVDisks()
	out := make([]VDiskEntry, len(all))
	for i, vd := range all {
		out[i] = VDiskEntry{ID: uint32(vd.ID), Replicas: vd.Replicas}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleVDiskSub dispatches /vdisks/<id>/partitions[/<start>[/attach|detach]].
func (s *Server) handleVDiskSub(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/vdisks/")
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[1] != "partitions" {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		http.Error(w, "bad vdisk id", http.StatusBadRequest)
		return
	}
	vdisk := cmn.VDiskID(id)
	group := s.findGroup(vdisk)
	if group == nil {
		http.NotFound(w, r)
		return
	}

	switch {
	case len(parts) == 2:
		writeJSON(w, http.StatusOK, PartitionsResponse{
			VDiskID: uint32(vdisk), NodeName: s.pm.Self(), DiskName: group.DiskName,
			Partitions: group.Partitions(),
		})
	case len(parts) == 3:
		start, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			http.Error(w, "bad start timestamp", http.StatusBadRequest)
			return
		}
		for _, p := range group.Partitions() {
			if p == start {
				writeJSON(w, http.StatusOK, map[string]any{"vdisk_id": vdisk, "timestamp": start})
				return
			}
		}
		http.NotFound(w, r)
	case len(parts) == 4 && r.Method == http.MethodPost:
		start, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			http.Error(w, "bad start timestamp", http.StatusBadRequest)
			return
		}
		var opErr error
		switch parts[3] {
		case "attach":
			opErr = group.Attach(start)
		case "detach":
			opErr = group.Detach(start)
		default:
			http.NotFound(w, r)
			return
		}
		if opErr != nil {
			writeJSON(w, http.StatusOK, OKResponse{OK: false, Msg: opErr.Error()})
			return
		}
		writeJSON(w, http.StatusOK, OKResponse{OK: true})
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) findGroup(vdisk cmn.VDiskID) *pearl.Group {
	for _, g := range s.engine.VDisksGroups() {
		if g.VDisk == vdisk {
			return g
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
