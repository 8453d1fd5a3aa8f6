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
	"github.com/NVIDIA/bootanalyze/pkg/header"
)

// NoteTimeTaken marks boot-time properties that are durations rather than
// points in time.
const NoteTimeTaken = "time taken"

// Report is the aggregated result of a run.
type Report struct {
	header.Header `json:",inline" yaml:",inline"`

	// Summary counts requested, accepted and failed iterations.
	Summary Summary `json:"summary" yaml:"summary"`

	// Timeline is ordered by mean, ascending.
	Timeline []Stat `json:"timeline" yaml:"timeline"`

	// BootTimes holds the ro.boottime.* properties in first-seen order.
	BootTimes []Stat `json:"bootTimes" yaml:"bootTimes"`

	// UserDurations and KernelDurations are in milliseconds, in first-seen
	// order. They are omitted when timing output is disabled.
	UserDurations   []Stat `json:"userDurations,omitempty" yaml:"userDurations,omitempty"`
	KernelDurations []Stat `json:"kernelDurations,omitempty" yaml:"kernelDurations,omitempty"`

	// ShutdownEvents and ShutdownDurations come from the reboot path and
	// include iterations that later failed.
	ShutdownEvents    []Stat `json:"shutdownEvents,omitempty" yaml:"shutdownEvents,omitempty"`
	ShutdownDurations []Stat `json:"shutdownDurations,omitempty" yaml:"shutdownDurations,omitempty"`
}

// Summary counts iterations.
type Summary struct {
	Requested int `json:"requested" yaml:"requested"`
	Accepted  int `json:"accepted" yaml:"accepted"`
	Failed    int `json:"failed" yaml:"failed"`
}

// Stat is the aggregate of one name across iterations.
type Stat struct {
	Name   string  `json:"name" yaml:"name"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Stddev float64 `json:"stddev" yaml:"stddev"`
	Runs   int     `json:"runs" yaml:"runs"`
	Note   string  `json:"note,omitempty" yaml:"note,omitempty"`
}
