// Package report aggregates iterations into mean and population standard
// deviation per name and renders per-iteration and summary tables.
//
// A Report carries a BootReport header and can be written through the
// serializer package in any supported format; the table format uses
// Report.RenderTable.
package report
