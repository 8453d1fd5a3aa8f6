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

package tailer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tailerLinesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bootanalyze_tailer_lines_total",
			Help: "Lines read from log processes",
		},
		[]string{"channel"},
	)

	tailerEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bootanalyze_tailer_events_total",
			Help: "Lines that matched an event pattern",
		},
		[]string{"channel"},
	)

	tailerReplayedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bootanalyze_tailer_replayed_lines_total",
			Help: "Matched lines seen again after a reconnect and skipped",
		},
		[]string{"channel"},
	)

	tailerReconnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bootanalyze_tailer_reconnects_total",
			Help: "Log process restarts after the transport dropped",
		},
		[]string{"channel"},
	)

	tailerTimeoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bootanalyze_tailer_timeouts_total",
			Help: "Tails that ran out of budget with stop events pending",
		},
		[]string{"channel"},
	)
)
