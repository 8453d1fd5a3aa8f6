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

	"github.com/NVIDIA/bootanalyze/pkg/event"
)

// Contention is one monitor contention sample.
type Contention struct {
	Line  string  `json:"line" yaml:"line"`
	Value float64 `json:"value" yaml:"value"`
}

// Durations is the reduced form of a duration sample table.
type Durations struct {
	// Timings maps duration name to milliseconds in sample order. Repeated
	// names are suffixed #1, #2, ...
	Timings *event.Values
	// Contentions are kept apart from Timings.
	Contentions []Contention
}

// Reduce folds the raw duration lines into named millisecond values.
func Reduce(samples *event.Samples, g Group) Durations {
	out := Durations{Timings: event.NewValues()}
	if samples == nil {
		return out
	}
	for _, key := range samples.Keys() {
		for _, line := range samples.Lines(key) {
			d, ok := g.MatchDuration(line)
			if !ok {
				slog.Debug("duration line without name or time", "key", key, "line", line)
				continue
			}
			if d.Contention {
				out.Contentions = append(out.Contentions, Contention{Line: line, Value: d.Value})
				continue
			}
			name := d.Name
			for i := 1; out.Timings.Has(name); i++ {
				name = fmt.Sprintf("%s#%d", d.Name, i)
			}
			out.Timings.Set(name, d.Value)
		}
	}
	return out
}
