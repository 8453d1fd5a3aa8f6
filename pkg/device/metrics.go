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

package device

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deviceCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bootanalyze_device_commands_total",
			Help: "Device bridge commands executed",
		},
		[]string{"command"},
	)

	deviceCommandErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bootanalyze_device_command_errors_total",
			Help: "Device bridge commands that failed",
		},
		[]string{"command"},
	)

	deviceCommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bootanalyze_device_command_duration_seconds",
			Help:    "Device bridge command duration",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		},
		[]string{"command"},
	)

	deviceRebootAttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bootanalyze_device_reboot_attempts_total",
			Help: "Reboot triggers issued",
		},
	)

	deviceBugreportsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bootanalyze_device_bugreports_total",
			Help: "Bug reports captured",
		},
	)
)
