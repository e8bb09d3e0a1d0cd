// Package nlog is the process-wide logger every vstore package imports
// instead of reaching for glog directly, mirroring the teacher's own
// 3rdparty/glog indirection: one place to swap the backing library, one
// place to add prefixes.
/*
 * Copyright (c) 2024, vstore authors. All rights reserved.
 */
package nlog

import "github.com/golang/glog"

func Infof(format string, args ...any)  { glog.Infof(format, args...) }
func Infoln(args ...any)                { glog.Infoln(args...) }
func Warningf(format string, args ...any) { glog.Warningf(format, args...) }
func Errorf(format string, args ...any) { glog.Errorf(format, args...) }

// V reports whether verbosity level l is enabled, matching glog.V so call
// sites can write `if nlog.V(1) { nlog.Infof(...) }` around anything
// expensive to format.
func V(l glog.Level) bool { return bool(glog.V(l)) }

// Flush flushes any buffered log entries; called on shutdown.
func Flush() { glog.Flush() }
