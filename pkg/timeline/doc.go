// Package timeline assembles the boot timeline of one iteration from the
// reconciled user log, the kernel log and the device boot-time properties.
package timeline
