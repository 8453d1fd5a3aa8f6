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

package analyzer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultAccepted = "accepted"
	resultFailed   = "failed"
	resultTimedOut = "timed_out"
)

var (
	iterationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bootanalyze_iterations_total",
			Help: "Iterations by outcome",
		},
		[]string{"result"},
	)

	iterationRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bootanalyze_iteration_retries_total",
			Help: "Iterations repeated because the clock domains could not be correlated",
		},
	)

	iterationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bootanalyze_iteration_duration_seconds",
			Help:    "Wall time of one iteration, reboot included",
			Buckets: prometheus.LinearBuckets(10, 20, 12),
		},
	)
)
