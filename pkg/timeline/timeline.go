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

package timeline

import (
	"sort"

	"github.com/NVIDIA/bootanalyze/pkg/event"
	"github.com/NVIDIA/bootanalyze/pkg/reconcile"
)

// Provenance tells where a timeline value came from.
type Provenance string

const (
	// ProvenanceKernel marks a value read directly from the kernel log.
	ProvenanceKernel Provenance = "kernel"
	// ProvenanceCorrected marks a user log value translated into kernel time.
	ProvenanceCorrected Provenance = "corrected"
)

// BootloaderProperty is the boot-time property holding the bootloader duration.
const BootloaderProperty = "bootloader"

// Composite adds a boot-time property to a milestone. The sum is not a
// kernel log value, so it is always marked ProvenanceCorrected.
type Composite struct {
	Name      string
	Milestone string
	Property  string
}

// DefaultComposites are appended to every timeline whose operands exist.
var DefaultComposites = []Composite{
	{Name: "*BootComplete+Bootloader", Milestone: "BootComplete", Property: BootloaderProperty},
	{Name: "*LauncherStart+Bootloader", Milestone: "LauncherStart", Property: BootloaderProperty},
}

// Entry is one timeline point, in seconds since kernel start.
type Entry struct {
	Name       string     `json:"name" yaml:"name"`
	Value      float64    `json:"value" yaml:"value"`
	Provenance Provenance `json:"provenance" yaml:"provenance"`
	// RawUserValue is the user log timestamp as logged, zero for composites.
	RawUserValue float64 `json:"rawUserValue" yaml:"rawUserValue"`
}

// Timeline is the ordered boot timeline of one iteration.
type Timeline struct {
	entries []Entry
	index   map[string]int
}

// Assemble merges the reconciled user events with the kernel events, sorts
// them by value and appends the composites that have both operands. A name
// captured in the kernel log always takes its kernel value.
func Assemble(res *reconcile.Result, bootTimes *event.Values, composites ...Composite) *Timeline {
	if composites == nil {
		composites = DefaultComposites
	}

	entries := make([]Entry, 0, res.Corrected.Len()+len(composites))
	for _, e := range res.Corrected.Entries() {
		raw, _ := res.Raw.Get(e.Name)
		entry := Entry{Name: e.Name, Value: e.Value, Provenance: ProvenanceCorrected, RawUserValue: raw}
		if k, ok := res.Kernel.Get(e.Name); ok {
			entry.Value = k
			entry.Provenance = ProvenanceKernel
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Value < entries[j].Value
	})

	tl := &Timeline{entries: entries}
	for _, c := range composites {
		m, ok := tl.value(c.Milestone)
		if !ok || m == 0 {
			continue
		}
		p, ok := bootTimes.Get(c.Property)
		if !ok || p == 0 {
			continue
		}
		tl.entries = append(tl.entries, Entry{Name: c.Name, Value: m + p, Provenance: ProvenanceCorrected})
	}

	tl.index = make(map[string]int, len(tl.entries))
	for i, e := range tl.entries {
		tl.index[e.Name] = i
	}
	return tl
}

func (t *Timeline) value(name string) (float64, bool) {
	for _, e := range t.entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return 0, false
}

// Len returns the number of entries.
func (t *Timeline) Len() int {
	return len(t.entries)
}

// Get returns the entry for name.
func (t *Timeline) Get(name string) (Entry, bool) {
	i, ok := t.index[name]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

// Entries returns a copy of the entries in timeline order.
func (t *Timeline) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Values returns the entry values by name, in timeline order.
func (t *Timeline) Values() *event.Values {
	v := event.NewValues()
	for _, e := range t.entries {
		v.Set(e.Name, e.Value)
	}
	return v
}
