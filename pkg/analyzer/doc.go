// Package analyzer drives boot measurements on one device.
//
// An iteration optionally reboots the device while a shutdown collector
// reads its user log, then tails the kernel and user logs concurrently
// until their stop events arrive. The captured events are reconciled into
// kernel time, assembled into a timeline and checked against thresholds;
// a breach captures a bug report.
//
// Run repeats iterations, retrying those whose clock domains could not be
// correlated, and aggregates the accepted ones into a report.
//
//	a, err := analyzer.New(opts, lib, device.New(opts.Serial), analyzer.WithOutput(os.Stdout))
//	if err != nil {
//	    return err
//	}
//	rep, err := a.Run(ctx)
package analyzer
