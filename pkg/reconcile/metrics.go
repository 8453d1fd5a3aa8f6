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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reconcileCorrelationFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bootanalyze_reconcile_correlation_failures_total",
			Help: "Iterations where no bridging event was captured in both logs",
		},
	)

	reconcileAdjustmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bootanalyze_reconcile_adjustments_total",
			Help: "Corrected times that came out negative, by how they were adjusted",
		},
		[]string{"adjustment"},
	)
)
