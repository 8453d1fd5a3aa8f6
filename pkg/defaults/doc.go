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

// Package defaults provides centralized configuration constants for bootanalyze.
//
// This package defines capture budgets, retry counts, reboot sequencing
// intervals, and analysis thresholds used across the codebase.
//
// # Categories
//
//   - Capture budgets: how long tailers wait for stop events and how often
//     they may reconnect
//   - Reboot sequencing: device-gone polling, shutdown listener readiness
//   - Analysis limits: retry count, negative overshoot tolerance, dump thresholds
//   - Kubernetes timeouts: ConfigMap report output and configuration input
//
// # Usage
//
//	import "github.com/NVIDIA/bootanalyze/pkg/defaults"
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.DeviceCommandTimeout)
//	defer cancel()
package defaults
