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

package monitor

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/NVIDIA/bootanalyze/pkg/config"
	"github.com/NVIDIA/bootanalyze/pkg/defaults"
	"github.com/NVIDIA/bootanalyze/pkg/event"
	"github.com/NVIDIA/bootanalyze/pkg/pattern"
)

const (
	// BootCompleteEvent is the milestone checked against the error time.
	BootCompleteEvent = "BootComplete"
	// FsStatEvent carries the file system check status in its first capture.
	FsStatEvent = "FsStat"
	// HintBootTooLong is the capture hint for a boot past the error time.
	HintBootTooLong = "bootuptoolong"
)

// Source names where a breaching metric was measured.
type Source string

const (
	SourceUserDurations   Source = "user_durations"
	SourceKernelDurations Source = "kernel_durations"
	SourceTimeline        Source = "timeline"
	SourceBootTime        Source = "boot_time"
	SourceFsStat          Source = "fs_stat"
)

// Request asks for a bug report capture.
type Request struct {
	Hint   string  `json:"hint" yaml:"hint"`
	Value  float64 `json:"value" yaml:"value"`
	Source Source  `json:"source" yaml:"source"`
}

// Input is what one iteration measured. Durations are in milliseconds and
// timeline values in seconds.
type Input struct {
	UserDurations   *event.Values
	KernelDurations *event.Values
	Timeline        *event.Values
	// UserEvents is the raw user event table, read for the fs_stat check.
	UserEvents *event.Table
}

// Monitor compares measured values against limits.
type Monitor struct {
	limits    []config.Limit
	errorTime float64
	ignore    bool
	fsCheck   bool
	events    pattern.Group
}

// New returns a Monitor for the limits and checks enabled in opts. events
// supplies the FsStat pattern.
func New(opts config.Options, events pattern.Group) *Monitor {
	errorTime := opts.ErrorTime
	if errorTime <= 0 {
		errorTime = defaults.ErrorTime
	}
	return &Monitor{
		limits:    append([]config.Limit(nil), opts.Limits...),
		errorTime: errorTime,
		ignore:    opts.Ignore,
		fsCheck:   opts.FsCheck,
		events:    events,
	}
}

// Evaluate runs every enabled check and returns the capture requests in the
// order they fire: boot too long, first breached limit, fs_stat.
func (m *Monitor) Evaluate(in Input) []Request {
	var out []Request
	if r, ok := m.CheckBootTime(in.Timeline); ok {
		out = append(out, r)
	}
	if r, ok := m.CheckLimits(in); ok {
		out = append(out, r)
	}
	if r, ok := m.CheckFsStat(in.UserEvents); ok {
		out = append(out, r)
	}
	for _, r := range out {
		monitorBreachesTotal.WithLabelValues(string(r.Source)).Inc()
	}
	return out
}

// CheckBootTime requests a capture when BootComplete is past the error time,
// unless ignored.
func (m *Monitor) CheckBootTime(timeline *event.Values) (Request, bool) {
	if m.ignore {
		return Request{}, false
	}
	v, ok := timeline.Get(BootCompleteEvent)
	if !ok || v <= m.errorTime {
		return Request{}, false
	}
	slog.Warn("boot up time too big", "boot_complete", v, "error_time", m.errorTime)
	return Request{Hint: HintBootTooLong, Value: v, Source: SourceBootTime}, true
}

// CheckLimits walks the limits in order and, for each, looks in the user
// durations, the kernel durations and the timeline, in that order. The first
// breach wins and no further limits are checked.
func (m *Monitor) CheckLimits(in Input) (Request, bool) {
	for _, l := range m.limits {
		if v, ok := in.UserDurations.Get(l.Name); ok && v != 0 && v > l.Value {
			return m.breach(l, v, SourceUserDurations), true
		}
		if v, ok := in.KernelDurations.Get(l.Name); ok && v != 0 && v > l.Value {
			return m.breach(l, v, SourceKernelDurations), true
		}
		if v, ok := in.Timeline.Get(l.Name); ok && v*1000 > l.Value {
			return m.breach(l, v, SourceTimeline), true
		}
	}
	return Request{}, false
}

func (m *Monitor) breach(l config.Limit, v float64, src Source) Request {
	slog.Warn("component over limit", "component", l.Name, "measured", v, "limit_ms", l.Value, "source", src)
	return Request{
		Hint:   fmt.Sprintf("%s-%s", l.Name, strconv.FormatFloat(v, 'f', -1, 64)),
		Value:  v,
		Source: src,
	}
}

// CheckFsStat requests a capture when the fs_stat value has bits set outside
// defaults.FsStatCleanMask.
func (m *Monitor) CheckFsStat(events *event.Table) (Request, bool) {
	if !m.fsCheck || events == nil {
		return Request{}, false
	}
	ev, ok := events.Get(FsStatEvent)
	if !ok {
		slog.Info("fs_stat not captured")
		return Request{}, false
	}
	sub, ok := m.events.Submatch(FsStatEvent, ev.Line)
	if !ok || len(sub) < 2 || sub[1] == "" {
		slog.Warn("fs_stat line without a status", "line", ev.Line)
		return Request{}, false
	}
	raw := sub[1]
	val, err := strconv.ParseInt(raw, 0, 64)
	if err != nil {
		slog.Warn("unparsable fs_stat", "value", raw, "error", err)
		return Request{}, false
	}
	slog.Info("fs_stat", "value", raw)
	if val&^defaults.FsStatCleanMask == 0 {
		return Request{}, false
	}
	return Request{Hint: "fs_stat_" + raw, Value: float64(val), Source: SourceFsStat}, true
}
