// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/NVIDIA/bootanalyze/pkg/defaults"
	"github.com/NVIDIA/bootanalyze/pkg/event"
	"github.com/NVIDIA/bootanalyze/pkg/pattern"
	"github.com/NVIDIA/bootanalyze/pkg/timeline"
)

const rule = "-----------------"

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', 5, 64)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// RenderTable writes the aggregated sections as aligned text.
func (r *Report) RenderTable(w io.Writer) error {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%d of %d runs accepted", r.Summary.Accepted, r.Summary.Requested)
	if r.Summary.Failed > 0 {
		fmt.Fprintf(w, ", %d failed", r.Summary.Failed)
	}
	fmt.Fprintln(w)

	sections := []struct {
		title string
		stats []Stat
	}{
		{"Shutdown events", r.ShutdownEvents},
		{"Shutdown timing events", r.ShutdownDurations},
		{"ro.boottime.*", r.BootTimes},
		{"Kernel timing in order (ms)", r.KernelDurations},
		{"Kernel timing top items (ms)", topStats(r.KernelDurations)},
		{"User timing in order (ms)", r.UserDurations},
		{"User timing top items (ms)", topStats(r.UserDurations)},
		{"Timeline", r.Timeline},
	}
	for _, s := range sections {
		if len(s.stats) == 0 {
			continue
		}
		if err := writeStats(w, s.title, s.stats); err != nil {
			return err
		}
	}
	return nil
}

func writeStats(w io.Writer, title string, stats []Stat) error {
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, title)
	tw := newTable(w)
	fmt.Fprintln(tw, "Event\tMean\tStddev\tRuns\t")
	for _, s := range stats {
		note := ""
		if s.Note != "" {
			note = "*" + s.Note
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", s.Name, num(s.Mean), num(s.Stddev), s.Runs, note)
	}
	return tw.Flush()
}

// topStats returns the stats at or above the timing threshold, largest first.
func topStats(stats []Stat) []Stat {
	var out []Stat
	for _, s := range stats {
		if s.Mean >= defaults.TimingPrintThreshold {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Mean > out[j].Mean
	})
	return out
}

// WriteBootTimes writes one iteration's boot-time properties.
func WriteBootTimes(w io.Writer, v *event.Values) error {
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "ro.boottime.*: time")
	tw := newTable(w)
	for _, e := range v.Entries() {
		note := ""
		if strings.HasPrefix(e.Name, "init.") {
			note = "*" + NoteTimeTaken
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, num(e.Value), note)
	}
	return tw.Flush()
}

// WriteTimeline writes one iteration's timeline. Kernel-sourced values are
// starred; the user log value as logged follows in parentheses.
func WriteTimeline(w io.Writer, tl *timeline.Timeline) error {
	fmt.Fprintln(w, rule)
	tw := newTable(w)
	for _, e := range tl.Entries() {
		mark := ""
		if e.Provenance == timeline.ProvenanceKernel {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t(%s)\n", e.Name, num(e.Value), mark, num(e.RawUserValue))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w, "\n* - event time was obtained from the kernel log")
	return nil
}

// WriteDurations writes one iteration's durations in capture order, then
// those at or above the timing threshold, largest first.
func WriteDurations(w io.Writer, label string, v *event.Values) error {
	fmt.Fprintf(w, "%s event timing in time order, key: time\n", label)
	tw := newTable(w)
	for _, e := range v.Entries() {
		fmt.Fprintf(tw, "%s\t%s\n", e.Name, num(e.Value))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w, rule)

	fmt.Fprintf(w, "%s event timing top items\n", label)
	top := v.SortedByValue().Entries()
	tw = newTable(w)
	for i := len(top) - 1; i >= 0; i-- {
		if top[i].Value < defaults.TimingPrintThreshold {
			break
		}
		fmt.Fprintf(tw, "%s\t%s\n", top[i].Name, num(top[i].Value))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w, rule)
	return nil
}

// WriteContentions writes monitor contentions above the contention threshold.
func WriteContentions(w io.Writer, cs []pattern.Contention) {
	fmt.Fprintf(w, "Monitor contentions over %sms:\n", num(defaults.ContentionPrintThreshold))
	for _, c := range cs {
		if c.Value > defaults.ContentionPrintThreshold {
			fmt.Fprintf(w, "%-7sms: %s\n", num(c.Value), c.Line)
		}
	}
	fmt.Fprintln(w, rule)
}

// WriteShutdown writes one shutdown capture.
func WriteShutdown(w io.Writer, events, durations *event.Values) error {
	fmt.Fprintln(w, "\nshutdown events: time")
	tw := newTable(w)
	for _, e := range events.Entries() {
		fmt.Fprintf(tw, "%s\t%s\n", e.Name, num(e.Value))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w, "\nshutdown timing events: time")
	tw = newTable(w)
	for _, e := range durations.Entries() {
		fmt.Fprintf(tw, "%s\t%s\n", e.Name, num(e.Value))
	}
	return tw.Flush()
}
