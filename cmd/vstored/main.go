// Command vstored runs the vstore placement/storage node: it loads a
// cluster config, brings up the pearl engine, and serves the
// administrative HTTP surface.
/*
 * Copyright (c) 2024, vstore authors. All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ncarstens/vstore/admin"
	"github.com/ncarstens/vstore/backend"
	"github.com/ncarstens/vstore/cmn"
	"github.com/ncarstens/vstore/cmn/nlog"
	"github.com/ncarstens/vstore/config"
	"github.com/ncarstens/vstore/fs"
	"github.com/ncarstens/vstore/grinder"
	"github.com/ncarstens/vstore/pearl"
	"github.com/ncarstens/vstore/stats"
)

func main() {
	configPath := flag.String("config", "cluster.yaml", "path to the cluster config file")
	listenAddr := flag.String("listen", ":8080", "administrative HTTP listen address")
	flag.Parse()
	defer nlog.Flush()

	cfg, err := config.Load(*configPath)
	if err != nil {
		nlog.Errorf("vstored: %v", err)
		return
	}

	pm := cfg.PlacementMap()

	usages := make(map[string]*fs.Usage, len(cfg.Disks))
	for _, d := range cfg.Disks {
		usages[d.Name] = &fs.Usage{}
	}
	usageOf := func(name string) *fs.Usage {
		u, ok := usages[name]
		if !ok {
			u = &fs.Usage{}
			usages[name] = u
		}
		return u
	}

	var (
		mx          = stats.NewMetrics()
		engine      backend.Engine
		pearlEngine *pearl.Engine // non-nil only for backend_type: pearl; admin's partitions/attach/detach surface needs it
	)
	mx.Register(prometheus.DefaultRegisterer)

	switch cfg.BackendType {
	case config.BackendInMemory:
		engine = backend.NewMemEngine()
	case config.BackendStub:
		engine = backend.NewStubEngine(cmn.Payload{})
	default: // config.BackendPearl, validated at load time
		layout, err := cfg.PearlLayout()
		if err != nil {
			nlog.Errorf("vstored: %v", err)
			return
		}
		pearlEngine = pearl.NewEngine(layout, pm, usageOf, mx)
		if err := pearlEngine.Run(context.Background(), cfg.Disks); err != nil {
			nlog.Errorf("vstored: engine bootstrap failed: %v", err)
			return
		}
		engine = pearlEngine
	}

	dispatcher := backend.NewDispatcher(pm, engine, pm.Self(), mx)
	router := grinder.NewRouter(dispatcher, nil, mx)
	_ = router // wired for request handling by the (out-of-scope) wire protocol layer

	var handler http.Handler
	if pearlEngine != nil {
		handler = admin.NewServer(pm, pearlEngine, *listenAddr).Handler()
	} else {
		mux := http.NewServeMux()
		mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "admin vdisk/partition introspection requires backend_type: pearl", http.StatusNotImplemented)
		})
		handler = mux
	}

	nlog.Infof("vstored: serving admin surface on %s", *listenAddr)
	if err := http.ListenAndServe(*listenAddr, handler); err != nil {
		nlog.Errorf("vstored: %v", err)
	}
}
