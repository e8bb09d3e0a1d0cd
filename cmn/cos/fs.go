// Package cos ("common OS") holds the small filesystem helpers that the
// directory scanner and pearl engine share, in the same spirit as the
// teacher's cmn/cos split of filesystem utilities out of the main cmn
// package.
/*
 * Copyright (c) 2024, vstore authors. All rights reserved.
 */
package cos

import (
	"os"
	"path/filepath"
)

// CreateDir ensures dir exists, creating parents as needed.
func CreateDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// PathExists reports whether path exists on disk.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// Subdirs lists the immediate subdirectory names of dir, skipping regular
// files. Returns an empty slice (not an error) if dir does not exist.
func Subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// JoinDir joins base with each of parts into one filesystem path.
func JoinDir(base string, parts ...string) string {
	all := append([]string{base}, parts...)
	return filepath.Join(all...)
}
