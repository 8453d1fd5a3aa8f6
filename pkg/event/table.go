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

package event

import (
	"fmt"
	"log/slog"
)

// Table is an insertion-ordered mapping of event name to RawEvent.
type Table struct {
	order  []string
	events map[string]RawEvent
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{events: make(map[string]RawEvent)}
}

// Len returns the number of events.
func (t *Table) Len() int {
	return len(t.order)
}

// Has reports whether name is recorded.
func (t *Table) Has(name string) bool {
	_, ok := t.events[name]
	return ok
}

// Get returns the event recorded under name.
func (t *Table) Get(name string) (RawEvent, bool) {
	ev, ok := t.events[name]
	return ev, ok
}

// Set records ev under name. An existing entry keeps its position.
func (t *Table) Set(name string, ev RawEvent) {
	if _, ok := t.events[name]; !ok {
		t.order = append(t.order, name)
	}
	t.events[name] = ev
}

// Delete removes name and reports whether it was present.
func (t *Table) Delete(name string) bool {
	if _, ok := t.events[name]; !ok {
		return false
	}
	delete(t.events, name)
	for i, n := range t.order {
		if n == name {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// Names returns the event names in insertion order.
func (t *Table) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// UniqueName returns name, or name_1, name_2, ... for the first one not yet recorded.
func (t *Table) UniqueName(name string) string {
	candidate := name
	for i := 1; t.Has(candidate); i++ {
		candidate = fmt.Sprintf("%s_%d", name, i)
	}
	return candidate
}

// Times returns the timestamp of every event in insertion order.
// Events whose line carried no parseable timestamp are left out with a warning.
func (t *Table) Times() *Values {
	out := NewValues()
	for _, name := range t.order {
		ev := t.events[name]
		if !ev.HasTime {
			slog.Warn("no timestamp for event, dropped from timeline",
				"event", name,
				"channel", ev.Channel,
				"line", ev.Line)
			continue
		}
		out.Set(name, ev.Time)
	}
	return out
}
