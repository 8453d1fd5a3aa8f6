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

package reconcile

import (
	"log/slog"
	"slices"
	"sort"

	"github.com/NVIDIA/bootanalyze/pkg/defaults"
	"github.com/NVIDIA/bootanalyze/pkg/errors"
	"github.com/NVIDIA/bootanalyze/pkg/event"
	"github.com/NVIDIA/bootanalyze/pkg/pattern"
)

// KernelMarker is the user log event logged when the kernel starts. Its user
// time is kernel time zero.
const KernelMarker = "kernel"

// Bridge pairs an event name in the user log with the name of the same
// milestone in the kernel log.
type Bridge struct {
	User   string
	Kernel string
}

// DefaultBridges lists the bridging events in priority order.
var DefaultBridges = []Bridge{
	{User: "BootAnimEnd", Kernel: "BootAnimEnd"},
	{User: "BootComplete", Kernel: "BootComplete_kernel"},
	{User: "android_init_2st_stage", Kernel: "android_init_2st_stage"},
}

// Anchor maps user clock time to kernel time from UserTime on, until the next
// anchor: kernel = user - Offset.
type Anchor struct {
	UserTime float64 `json:"userTime" yaml:"userTime"`
	Offset   float64 `json:"offset" yaml:"offset"`
}

// Anchors is ordered by UserTime.
type Anchors []Anchor

// Correct translates user time t into kernel time using the anchor in force
// at t, or the first anchor when t precedes all of them. A negative result no
// further below zero than tolerance is clamped to zero. Beyond that the
// previous anchor's offset is used instead.
func (a Anchors) Correct(t, tolerance float64) float64 {
	v, _ := a.correct(t, tolerance)
	return v
}

type adjustment int

const (
	adjustNone adjustment = iota
	adjustClamped
	adjustReverted
)

func (a Anchors) correct(t, tolerance float64) (float64, adjustment) {
	if len(a) == 0 {
		return t, adjustNone
	}
	i := 0
	for i+1 < len(a) && a[i+1].UserTime <= t {
		i++
	}
	cur, prev := a[i], a[i]
	if i > 0 {
		prev = a[i-1]
	}

	v := t - cur.Offset
	if v >= 0 {
		return v, adjustNone
	}
	if v < -tolerance {
		return v + cur.Offset - prev.Offset, adjustReverted
	}
	return 0, adjustClamped
}

// TimeCorrection is the wall clock fix applied to early user events.
type TimeCorrection struct {
	// Offset is added to every user time at or before At.
	Offset float64 `json:"offset" yaml:"offset"`
	At     float64 `json:"at" yaml:"at"`
}

// Result is the user log translated into kernel time.
type Result struct {
	// Corrected holds every timed user event in user log order. Events that
	// also appear in the kernel log keep their raw user value; the timeline
	// takes the kernel value for them.
	Corrected *event.Values
	// Raw holds the user times as logged.
	Raw *event.Values
	// Kernel holds the kernel event times.
	Kernel  *event.Values
	Anchors Anchors
	// Bridge is the bridging event the second anchor was built from.
	Bridge         Bridge
	TimeCorrection *TimeCorrection
}

// InKernel reports whether name was captured in the kernel log.
func (r *Result) InKernel(name string) bool {
	return r.Kernel.Has(name)
}

// Reconciler translates user log times into kernel time.
type Reconciler struct {
	library   *pattern.Library
	marker    string
	bridges   []Bridge
	tolerance float64
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithBridges replaces the bridging events. Order is priority.
func WithBridges(b ...Bridge) Option {
	return func(r *Reconciler) {
		r.bridges = slices.Clone(b)
	}
}

// WithKernelMarker replaces the kernel marker event name.
func WithKernelMarker(name string) Option {
	return func(r *Reconciler) {
		r.marker = name
	}
}

// New returns a Reconciler. The library supplies the time correction pattern
// and may be nil when no correction is configured.
func New(lib *pattern.Library, opts ...Option) *Reconciler {
	r := &Reconciler{
		library:   lib,
		marker:    KernelMarker,
		bridges:   DefaultBridges,
		tolerance: defaults.NegativeOvershootTolerance,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile builds the anchors from the two tables and corrects every
// user-only event. It returns a CORRELATION error when no bridging event was
// captured in both logs.
func (r *Reconciler) Reconcile(user, kernel *event.Table) (*Result, error) {
	userTimes := user.Times()
	kernelTimes := kernel.Times()

	res := &Result{Kernel: kernelTimes, Raw: userTimes.Clone()}
	res.TimeCorrection = r.applyTimeCorrection(user, userTimes)

	anchors, bridge, err := r.anchors(userTimes, kernelTimes)
	if err != nil {
		reconcileCorrelationFailuresTotal.Inc()
		return res, err
	}
	res.Anchors = anchors
	res.Bridge = bridge

	corrected := event.NewValues()
	for _, e := range userTimes.Entries() {
		if kernelTimes.Has(e.Name) {
			corrected.Set(e.Name, e.Value)
			continue
		}
		v, adj := anchors.correct(e.Value, r.tolerance)
		switch adj {
		case adjustClamped:
			reconcileAdjustmentsTotal.WithLabelValues("clamped").Inc()
			slog.Debug("negative corrected time clamped", "event", e.Name, "user_time", e.Value)
		case adjustReverted:
			reconcileAdjustmentsTotal.WithLabelValues("reverted").Inc()
			slog.Debug("negative corrected time, used previous anchor", "event", e.Name, "user_time", e.Value, "corrected", v)
		}
		corrected.Set(e.Name, v)
	}
	res.Corrected = corrected

	slog.Debug("clock domains reconciled",
		"bridge", bridge.User,
		"anchors", len(anchors),
		"corrected", corrected.Len())
	return res, nil
}

// applyTimeCorrection shifts every user time at or before the correction
// event by the offset captured from that event's line.
func (r *Reconciler) applyTimeCorrection(user *event.Table, times *event.Values) *TimeCorrection {
	if r.library == nil || r.library.TimeCorrectionKey == "" {
		return nil
	}
	key := r.library.TimeCorrectionKey
	ev, ok := user.Get(key)
	if !ok {
		return nil
	}
	at, ok := times.Get(key)
	if !ok || at == 0 {
		return nil
	}
	offset, ok := r.library.TimeCorrection(ev.Line)
	if !ok {
		slog.Warn("time correction event without a usable offset", "event", key, "line", ev.Line)
		return nil
	}

	for _, e := range times.Entries() {
		if e.Value <= at {
			times.Set(e.Name, e.Value+offset)
		}
	}
	slog.Info("user clock corrected", "event", key, "offset", offset, "at", at)
	return &TimeCorrection{Offset: offset, At: at}
}

func (r *Reconciler) anchors(user, kernel *event.Values) (Anchors, Bridge, error) {
	var anchors Anchors
	if t, ok := user.Get(r.marker); ok {
		anchors = append(anchors, Anchor{UserTime: t, Offset: t})
	} else {
		slog.Warn("kernel marker not captured in user log", "event", r.marker)
	}

	for _, b := range r.bridges {
		ut, uok := user.Get(b.User)
		kt, kok := kernel.Get(b.Kernel)
		if !uok || !kok {
			continue
		}
		anchors = append(anchors, Anchor{UserTime: ut, Offset: ut - kt})
		sort.SliceStable(anchors, func(i, j int) bool {
			return anchors[i].UserTime < anchors[j].UserTime
		})
		return anchors, b, nil
	}

	return nil, Bridge{}, errors.NewWithContext(errors.ErrCodeCorrelation,
		"no bridging event captured in both logs, cannot get time difference",
		map[string]any{
			"bridges": r.bridgeNames(),
			"user":    user.Names(),
			"kernel":  kernel.Names(),
		})
}

func (r *Reconciler) bridgeNames() []string {
	out := make([]string, 0, len(r.bridges))
	for _, b := range r.bridges {
		out = append(out, b.User+"/"+b.Kernel)
	}
	return out
}
