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

// Package zygote attributes zygote events to the primary or secondary
// zygote process.
//
// The two zygote processes cannot be told apart until the second one logs,
// so the first pid seen may later turn out to be the secondary. When that
// happens, every zygote event already recorded is renamed with the
// "-secondary" suffix.
package zygote

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/NVIDIA/bootanalyze/pkg/event"
)

const (
	// Prefix marks event names handled by the Disambiguator.
	Prefix = "zygote"
	// SecondarySuffix is appended to events of the secondary zygote.
	SecondarySuffix = "-secondary"
)

// IsZygoteEvent reports whether name is routed through a Disambiguator.
func IsZygoteEvent(name string) bool {
	return strings.HasPrefix(name, Prefix)
}

// Disambiguator tracks up to two zygote pids for one log stream.
// It is not safe for concurrent use; each tailer owns its own.
type Disambiguator struct {
	// pids is empty, [first], or [primary, secondary].
	pids []int
}

// New returns a Disambiguator with no known pids.
func New() *Disambiguator {
	return &Disambiguator{}
}

// Primary returns the primary pid once both are known.
func (d *Disambiguator) Primary() (int, bool) {
	if len(d.pids) != 2 {
		return 0, false
	}
	return d.pids[0], true
}

// Secondary returns the secondary pid once both are known.
func (d *Disambiguator) Secondary() (int, bool) {
	if len(d.pids) != 2 {
		return 0, false
	}
	return d.pids[1], true
}

// Record stores ev in t under name or its secondary form and returns the
// name used. The pid is the second whitespace separated field of the line.
func (d *Disambiguator) Record(t *event.Table, name string, ev event.RawEvent) string {
	pid, ok := linePID(ev.Line)
	if !ok {
		slog.Warn("zygote event without pid, recorded as is", "event", name, "line", ev.Line)
		t.Set(name, ev)
		return name
	}

	switch len(d.pids) {
	case 0:
		d.pids = append(d.pids, pid)
	case 1:
		known := d.pids[0]
		if known == pid {
			break
		}
		primary, secondary := min(known, pid), max(known, pid)
		d.pids = []int{primary, secondary}
		if pid == primary {
			d.demote(t, primary, secondary)
		} else {
			name += SecondarySuffix
		}
	default:
		if pid == d.pids[1] {
			name += SecondarySuffix
		}
	}

	t.Set(name, ev)
	return name
}

// demote renames every recorded zygote event to its secondary form, since
// they all came from the pid now known to be the secondary.
func (d *Disambiguator) demote(t *event.Table, primary, secondary int) {
	for _, name := range t.Names() {
		if !IsZygoteEvent(name) || strings.HasSuffix(name, SecondarySuffix) {
			continue
		}
		ev, _ := t.Get(name)
		t.Delete(name)
		target := name + SecondarySuffix
		if t.Has(target) {
			slog.Warn("secondary zygote event already recorded, keeping existing entry",
				"event", target,
				"dropped_line", ev.Line,
				"primary_pid", primary,
				"secondary_pid", secondary)
			continue
		}
		t.Set(target, ev)
	}
	slog.Debug("zygote pids resolved", "primary", primary, "secondary", secondary)
}

func linePID(line string) (int, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, false
	}
	pid, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, false
	}
	return pid, true
}
