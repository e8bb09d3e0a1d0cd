package fs

import "sync/atomic"

// Usage is a per-DiskPath capacity accounting record (SPEC_FULL.md §4.1).
// It is purely informational: nothing in placement or routing consults it,
// matching the teacher's mountpath capacity fields being reported but
// never driving HRW placement decisions.
type Usage struct {
	Capacity int64 // configured total bytes, 0 if unknown
	used     int64 // atomic
}

// AddUsed records n additional bytes written to the disk (n may be
// negative when reclaiming space, e.g. after a detach).
func (u *Usage) AddUsed(n int64) { atomic.AddInt64(&u.used, n) }

// Used returns the bytes currently accounted for.
func (u *Usage) Used() int64 { return atomic.LoadInt64(&u.used) }

// Available returns Capacity-Used, or -1 if Capacity is unknown.
func (u *Usage) Available() int64 {
	if u.Capacity == 0 {
		return -1
	}
	return u.Capacity - u.Used()
}

// UsageSnapshot is a JSON-friendly, point-in-time copy of a Usage record
// (the admin status surface can't serialize Usage itself: used is behind
// an atomic and unexported).
type UsageSnapshot struct {
	Capacity  int64 `json:"capacity"`
	Used      int64 `json:"used"`
	Available int64 `json:"available"`
}

// Snapshot reads u's fields into a UsageSnapshot.
func (u *Usage) Snapshot() UsageSnapshot {
	if u == nil {
		return UsageSnapshot{}
	}
	return UsageSnapshot{Capacity: u.Capacity, Used: u.Used(), Available: u.Available()}
}
