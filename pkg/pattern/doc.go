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

// Package pattern compiles the configured pattern groups and matches log
// lines against them.
//
// A Group tries its patterns in configuration order and reports the first
// hit. Duration patterns must define the named groups "name" and "time";
// MatchDuration applies three naming and scaling rules:
//
//   - a line from the asynchronous system server timer gets its name wrapped
//     in parentheses
//   - a pattern key ending in "_secs" reports seconds, scaled to milliseconds
//   - a pattern key starting with "long_monitor_contention" is a contention
//     sample, kept out of the main duration table by Reduce
package pattern
