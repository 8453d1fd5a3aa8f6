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

package report

import (
	"fmt"
	"io"

	"github.com/NVIDIA/bootanalyze/pkg/event"
	"github.com/NVIDIA/bootanalyze/pkg/header"
	"github.com/NVIDIA/bootanalyze/pkg/shutdown"
)

// ShutdownReport is the result of a standalone shutdown capture.
type ShutdownReport struct {
	header.Header `json:",inline" yaml:",inline"`

	Events    []event.Entry `json:"events" yaml:"events"`
	Durations []event.Entry `json:"durations" yaml:"durations"`
	Errored   bool          `json:"errored" yaml:"errored"`
	LogPath   string        `json:"logPath,omitempty" yaml:"logPath,omitempty"`
}

// NewShutdownReport wraps res. A nil res yields an empty report.
func NewShutdownReport(res *shutdown.Result, opts ...header.Option) *ShutdownReport {
	r := &ShutdownReport{
		Header:    *header.New(append([]header.Option{header.WithKind(header.KindShutdownReport)}, opts...)...),
		Events:    []event.Entry{},
		Durations: []event.Entry{},
	}
	if res == nil {
		return r
	}
	r.Events = append(r.Events, res.Events.Entries()...)
	r.Durations = append(r.Durations, res.Durations.Entries()...)
	r.Errored = res.Errored
	r.LogPath = res.LogPath
	return r
}

// RenderTable writes the shutdown events and durations.
func (r *ShutdownReport) RenderTable(w io.Writer) error {
	if err := WriteShutdown(w, event.ValuesOf(r.Events...), event.ValuesOf(r.Durations...)); err != nil {
		return err
	}
	if r.LogPath != "" {
		fmt.Fprintf(w, "\nshutdown log saved to %s\n", r.LogPath)
	}
	return nil
}
