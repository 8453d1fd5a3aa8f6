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

package pattern

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/NVIDIA/bootanalyze/pkg/config"
	"github.com/NVIDIA/bootanalyze/pkg/errors"
)

// Library holds the compiled pattern groups of one configuration.
// It is built once before capture and only read afterwards.
type Library struct {
	Events   Group
	Timings  Group
	Shutdown Group

	// TimeCorrectionKey names the event carrying a wall clock correction.
	TimeCorrectionKey string
}

// Compile validates f and compiles its groups. Any problem is an
// INVALID_CONFIG error and no capture should start.
func Compile(f *config.File) (*Library, error) {
	if f == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "no pattern configuration")
	}
	events, err := NewGroup(KindEvents, f.Events)
	if err != nil {
		return nil, err
	}
	if events.Len() == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "configuration defines no events")
	}
	timings, err := NewGroup(KindTimings, f.Timings)
	if err != nil {
		return nil, err
	}
	shutdown, err := NewGroup(KindShutdown, f.ShutdownEvents)
	if err != nil {
		return nil, err
	}

	lib := &Library{
		Events:            events,
		Timings:           timings,
		Shutdown:          shutdown,
		TimeCorrectionKey: f.TimeCorrectionKey,
	}
	if key := f.TimeCorrectionKey; key != "" {
		p, ok := events.Lookup(key)
		if !ok {
			return nil, errors.NewWithContext(errors.ErrCodeInvalidConfig,
				"time_correction_key does not name an event", map[string]any{"key": key})
		}
		if p.Expr.NumSubexp() < 1 {
			return nil, errors.NewWithContext(errors.ErrCodeInvalidConfig,
				"time correction pattern needs a capture group for the offset", map[string]any{"key": key})
		}
	}

	slog.Debug("compiled pattern library",
		"events", events.Len(),
		"timings", timings.Len(),
		"shutdown_events", shutdown.Len())
	return lib, nil
}

// RequireEvents fails when any of names is not an event pattern.
func (l *Library) RequireEvents(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := l.Events.Lookup(n); !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return errors.NewWithContext(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("configuration is missing required events %v", missing),
			map[string]any{"missing": missing})
	}
	return nil
}

// TimeCorrection extracts the correction offset, in seconds, from the line
// recorded for the time correction event.
func (l *Library) TimeCorrection(line string) (float64, bool) {
	if l.TimeCorrectionKey == "" {
		return 0, false
	}
	m, ok := l.Events.Submatch(l.TimeCorrectionKey, line)
	if !ok || len(m) < 2 {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
