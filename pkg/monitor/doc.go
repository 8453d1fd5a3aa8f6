// Package monitor decides when a bug report should be captured.
//
// Limits are in milliseconds and are checked in their configured order. For
// each limit the user durations are consulted first, then the kernel
// durations, then the timeline. The first breach raises a Request and ends
// the walk. A breach never invalidates the iteration.
package monitor
