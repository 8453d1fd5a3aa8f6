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
	"math"
	"sort"
	"strings"

	"github.com/NVIDIA/bootanalyze/pkg/event"
	"github.com/NVIDIA/bootanalyze/pkg/header"
)

// Mean returns the arithmetic mean of xs, 0 when empty.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Stddev returns the population standard deviation of xs, 0 when empty.
func Stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	avg := Mean(xs)
	var sq float64
	for _, x := range xs {
		sq += (x - avg) * (x - avg)
	}
	return math.Sqrt(sq / float64(len(xs)))
}

// series collects samples per name in first-seen order.
type series struct {
	order   []string
	samples map[string][]float64
}

func newSeries() *series {
	return &series{samples: make(map[string][]float64)}
}

func (s *series) add(v *event.Values) {
	for _, e := range v.Entries() {
		if _, ok := s.samples[e.Name]; !ok {
			s.order = append(s.order, e.Name)
		}
		s.samples[e.Name] = append(s.samples[e.Name], e.Value)
	}
}

func (s *series) stats() []Stat {
	out := make([]Stat, 0, len(s.order))
	for _, name := range s.order {
		xs := s.samples[name]
		out = append(out, Stat{Name: name, Mean: Mean(xs), Stddev: Stddev(xs), Runs: len(xs)})
	}
	return out
}

// Sample is what one accepted iteration contributes.
type Sample struct {
	Timeline        *event.Values
	BootTimes       *event.Values
	UserDurations   *event.Values
	KernelDurations *event.Values
}

// Aggregator accumulates iterations into a Report. It is not safe for
// concurrent use.
type Aggregator struct {
	timeline, bootTimes, user, kernel *series
	shutdownEvents, shutdownDurations *series
	accepted, failed                  int
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		timeline:          newSeries(),
		bootTimes:         newSeries(),
		user:              newSeries(),
		kernel:            newSeries(),
		shutdownEvents:    newSeries(),
		shutdownDurations: newSeries(),
	}
}

// Add records an accepted iteration.
func (a *Aggregator) Add(s Sample) {
	a.accepted++
	a.timeline.add(s.Timeline)
	a.bootTimes.add(s.BootTimes)
	a.user.add(s.UserDurations)
	a.kernel.add(s.KernelDurations)
}

// AddShutdown records shutdown results. It is independent of Add so a
// failed iteration still contributes its shutdown timing.
func (a *Aggregator) AddShutdown(events, durations *event.Values) {
	a.shutdownEvents.add(events)
	a.shutdownDurations.add(durations)
}

// Fail counts an iteration that produced no usable timeline.
func (a *Aggregator) Fail() {
	a.failed++
}

// Accepted returns the number of accepted iterations so far.
func (a *Aggregator) Accepted() int {
	return a.accepted
}

// Build returns the report for requested iterations. Duration sections are
// left out unless timings is set.
func (a *Aggregator) Build(requested int, timings bool, opts ...header.Option) *Report {
	r := &Report{
		Header: *header.New(append([]header.Option{header.WithKind(header.KindBootReport)}, opts...)...),
		Summary: Summary{
			Requested: requested,
			Accepted:  a.accepted,
			Failed:    a.failed,
		},
		Timeline:          a.timeline.stats(),
		BootTimes:         a.bootTimes.stats(),
		ShutdownEvents:    a.shutdownEvents.stats(),
		ShutdownDurations: a.shutdownDurations.stats(),
	}
	sort.SliceStable(r.Timeline, func(i, j int) bool {
		return r.Timeline[i].Mean < r.Timeline[j].Mean
	})
	for i := range r.BootTimes {
		if strings.HasPrefix(r.BootTimes[i].Name, "init.") {
			r.BootTimes[i].Note = NoteTimeTaken
		}
	}
	if timings {
		r.UserDurations = a.user.stats()
		r.KernelDurations = a.kernel.stats()
	}
	return r
}
