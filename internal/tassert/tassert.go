// Package tassert is a minimal assertion helper in the same spirit as the
// teacher's own tutils/tassert package used throughout its filesystem
// tests: small, test-only, no assertion-library dependency.
/*
 * Copyright (c) 2024, vstore authors. All rights reserved.
 */
package tassert

import "testing"

// Errorf calls t.Errorf(format, args...) if cond is false.
func Errorf(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Errorf(format, args...)
	}
}

// CheckFatal calls t.Fatal(err) if err is non-nil.
func CheckFatal(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

// CheckError calls t.Error(err) if err is non-nil.
func CheckError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Error(err)
	}
}
