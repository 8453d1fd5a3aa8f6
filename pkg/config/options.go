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

package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/NVIDIA/bootanalyze/pkg/defaults"
	"github.com/NVIDIA/bootanalyze/pkg/errors"
)

// Limit is one monitored metric and its threshold in milliseconds.
type Limit struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

// ParseLimits parses "name=ms,name=ms". Order is kept; it is the priority
// order used when checking for breaches.
func ParseLimits(s string) ([]Limit, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []Limit
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, raw, ok := strings.Cut(item, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
				"monitor entry must be name=milliseconds", map[string]any{"entry": item})
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest,
				"invalid monitor limit", err, map[string]any{"entry": item})
		}
		out = append(out, Limit{Name: name, Value: v})
	}
	return out, nil
}

// LimitFor returns the configured limit for name.
func LimitFor(limits []Limit, name string) (float64, bool) {
	for _, l := range limits {
		if l.Name == name {
			return l.Value, true
		}
	}
	return 0, false
}

// Options is the immutable run configuration. It is built once from flags and
// passed by value to every component.
type Options struct {
	// Serial selects the device when more than one is attached.
	Serial string
	// Iterations is the number of measurement iterations.
	Iterations int
	// MaxWait is the per-tailer budget for seeing all stop events.
	MaxWait time.Duration
	// ErrorTime is the BootComplete value, in seconds, treated as a failed boot.
	ErrorTime float64
	// Retries bounds attempts of one iteration on correlation failure.
	Retries int

	Reboot     bool
	AdbReboot  bool
	Permissive bool
	// BufferSize is passed to logcat -G after each reboot when set.
	BufferSize string

	FsCheck     bool
	CarWatchdog bool
	// Limits are the monitored metrics in priority order.
	Limits []Limit
	// Ignore disables the boot-too-long bug report.
	Ignore bool
	// Timings enables per-iteration duration dumps.
	Timings bool

	// OutputDir receives shutdown logs.
	OutputDir string
	// BugreportDir receives bug reports.
	BugreportDir string
}

// DefaultOptions returns the defaults used when no flag overrides them.
func DefaultOptions() Options {
	return Options{
		Iterations:   defaults.Iterations,
		MaxWait:      defaults.MaxWaitTime,
		ErrorTime:    defaults.ErrorTime,
		Retries:      defaults.MaxRetries,
		Timings:      true,
		OutputDir:    ".",
		BugreportDir: ".",
	}
}

// Validate reports the first invalid field.
func (o Options) Validate() error {
	switch {
	case o.Iterations < 1:
		return errors.New(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("iterations must be at least 1, got %d", o.Iterations))
	case o.MaxWait <= 0:
		return errors.New(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("max wait must be positive, got %s", o.MaxWait))
	case o.ErrorTime <= 0:
		return errors.New(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("error time must be positive, got %v", o.ErrorTime))
	case o.Retries < 1:
		return errors.New(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("retries must be at least 1, got %d", o.Retries))
	}
	return nil
}

// Normalized returns a copy with derived settings applied: more than one
// iteration always reboots between measurements.
func (o Options) Normalized() Options {
	if o.Iterations > 1 {
		o.Reboot = true
	}
	if o.OutputDir == "" {
		o.OutputDir = "."
	}
	if o.BugreportDir == "" {
		o.BugreportDir = o.OutputDir
	}
	o.Limits = append([]Limit(nil), o.Limits...)
	return o
}
