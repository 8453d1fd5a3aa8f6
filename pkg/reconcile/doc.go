// Package reconcile translates user log times into kernel time.
//
// The user log is stamped with wall clock time and the kernel log with
// seconds since boot. Anchors pair the two domains: the kernel marker maps
// its own user time to zero, and the first bridging event captured in both
// logs gives the offset in force from that point on. Offsets change in steps
// at anchor times; nothing is interpolated.
//
// An optional time correction event fixes a wall clock that was wrong early
// in boot by shifting every user time up to that event.
package reconcile
