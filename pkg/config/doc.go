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

// Package config loads the pattern configuration and defines the run options.
//
// The pattern configuration is a YAML (or JSON) document with three ordered
// groups of named regular expressions and an optional time correction key:
//
//	time_correction_key: correction
//	events:
//	  kernel: Linux version
//	  BootComplete: Starting phase 1000
//	timings:
//	  init_command_ms: init\s+:\s*Command '(?P<name>.+)' action=.* took (?P<time>[0-9]+)ms
//	shutdown_events:
//	  ShutdownStart: ShutdownThread:\s*Shutting down\s*$
//
// Order matters: a line is attributed to the first entry whose pattern
// matches it. Load accepts a local path or a cm://namespace/name ConfigMap
// URI and falls back to an embedded default when no path is given.
//
// Options is a plain value built once by the CLI and copied into each
// component; nothing reads configuration from package state.
package config
