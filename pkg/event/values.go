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

import "sort"

// Entry is one name/value pair of a Values mapping.
type Entry struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

// Values is an insertion-ordered mapping of name to float64.
type Values struct {
	order []string
	vals  map[string]float64
}

// NewValues returns an empty Values.
func NewValues() *Values {
	return &Values{vals: make(map[string]float64)}
}

// ValuesOf builds a Values from entries, keeping their order.
func ValuesOf(entries ...Entry) *Values {
	v := NewValues()
	for _, e := range entries {
		v.Set(e.Name, e.Value)
	}
	return v
}

// Len returns the number of entries.
func (v *Values) Len() int {
	if v == nil {
		return 0
	}
	return len(v.order)
}

// Has reports whether name is present.
func (v *Values) Has(name string) bool {
	if v == nil {
		return false
	}
	_, ok := v.vals[name]
	return ok
}

// Get returns the value for name.
func (v *Values) Get(name string) (float64, bool) {
	if v == nil {
		return 0, false
	}
	x, ok := v.vals[name]
	return x, ok
}

// Set stores value under name. An existing entry keeps its position.
func (v *Values) Set(name string, value float64) {
	if _, ok := v.vals[name]; !ok {
		v.order = append(v.order, name)
	}
	v.vals[name] = value
}

// Names returns the names in order.
func (v *Values) Names() []string {
	if v == nil {
		return nil
	}
	out := make([]string, len(v.order))
	copy(out, v.order)
	return out
}

// Entries returns the pairs in order.
func (v *Values) Entries() []Entry {
	if v == nil {
		return nil
	}
	out := make([]Entry, 0, len(v.order))
	for _, name := range v.order {
		out = append(out, Entry{Name: name, Value: v.vals[name]})
	}
	return out
}

// Clone returns an independent copy.
func (v *Values) Clone() *Values {
	return ValuesOf(v.Entries()...)
}

// SortedByValue returns a copy ordered ascending by value. Ties keep
// insertion order.
func (v *Values) SortedByValue() *Values {
	entries := v.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Value < entries[j].Value
	})
	return ValuesOf(entries...)
}

// Samples is an insertion-ordered mapping of duration pattern key to the raw
// lines that matched it, in arrival order.
type Samples struct {
	order []string
	lines map[string][]string
}

// NewSamples returns an empty Samples.
func NewSamples() *Samples {
	return &Samples{lines: make(map[string][]string)}
}

// Append adds line under key.
func (s *Samples) Append(key, line string) {
	if _, ok := s.lines[key]; !ok {
		s.order = append(s.order, key)
	}
	s.lines[key] = append(s.lines[key], line)
}

// Keys returns the keys in first-seen order.
func (s *Samples) Keys() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Lines returns the lines recorded under key.
func (s *Samples) Lines(key string) []string {
	return s.lines[key]
}

// Len returns the total number of lines.
func (s *Samples) Len() int {
	n := 0
	for _, l := range s.lines {
		n += len(l)
	}
	return n
}
