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
	"regexp"
	"strconv"
	"strings"

	"github.com/NVIDIA/bootanalyze/pkg/config"
	"github.com/NVIDIA/bootanalyze/pkg/errors"
)

// Kind identifies a pattern group.
type Kind string

const (
	KindEvents   Kind = "events"
	KindTimings  Kind = "timings"
	KindShutdown Kind = "shutdown_events"
)

// Named capture groups of a duration pattern.
const (
	GroupName = "name"
	GroupTime = "time"
)

// kindRules lists, per group kind, the named capture groups every pattern
// of that kind must define.
var kindRules = map[Kind][]string{
	KindEvents:   nil,
	KindTimings:  {GroupName, GroupTime},
	KindShutdown: nil,
}

// Pattern is one compiled, named regular expression.
type Pattern struct {
	Name string
	Expr *regexp.Regexp
}

// Group is an ordered list of patterns; the first match wins.
type Group struct {
	kind     Kind
	patterns []Pattern
}

// NewGroup compiles set as a group of the given kind.
func NewGroup(kind Kind, set config.PatternSet) (Group, error) {
	required, ok := kindRules[kind]
	if !ok {
		return Group{}, errors.New(errors.ErrCodeInternal, fmt.Sprintf("unknown pattern group %q", kind))
	}
	g := Group{kind: kind, patterns: make([]Pattern, 0, len(set))}
	for _, e := range set {
		if strings.TrimSpace(e.Name) == "" {
			return Group{}, errors.NewWithContext(errors.ErrCodeInvalidConfig,
				"pattern with empty name", map[string]any{"group": kind})
		}
		re, err := regexp.Compile(e.Expr)
		if err != nil {
			return Group{}, errors.WrapWithContext(errors.ErrCodeInvalidConfig,
				"invalid pattern", err, map[string]any{"group": kind, "name": e.Name})
		}
		for _, sub := range required {
			if re.SubexpIndex(sub) < 0 {
				return Group{}, errors.NewWithContext(errors.ErrCodeInvalidConfig,
					fmt.Sprintf("pattern is missing named group %q", sub),
					map[string]any{"group": kind, "name": e.Name})
			}
		}
		g.patterns = append(g.patterns, Pattern{Name: e.Name, Expr: re})
	}
	return g, nil
}

// Kind returns the group kind.
func (g Group) Kind() Kind {
	return g.kind
}

// Len returns the number of patterns.
func (g Group) Len() int {
	return len(g.patterns)
}

// Names returns the pattern names in matching order.
func (g Group) Names() []string {
	out := make([]string, 0, len(g.patterns))
	for _, p := range g.patterns {
		out = append(out, p.Name)
	}
	return out
}

// Lookup returns the pattern called name.
func (g Group) Lookup(name string) (Pattern, bool) {
	for _, p := range g.patterns {
		if p.Name == name {
			return p, true
		}
	}
	return Pattern{}, false
}

// Match returns the name of the first pattern found in line.
func (g Group) Match(line string) (string, bool) {
	for _, p := range g.patterns {
		if p.Expr.MatchString(line) {
			return p.Name, true
		}
	}
	return "", false
}

// Submatch returns the capture groups of the pattern called name in line.
func (g Group) Submatch(name, line string) ([]string, bool) {
	p, ok := g.Lookup(name)
	if !ok {
		return nil, false
	}
	m := p.Expr.FindStringSubmatch(line)
	return m, m != nil
}

const (
	asyncMarker      = "SystemServerTimingAsync"
	secondsSuffix    = "_secs"
	contentionPrefix = "long_monitor_contention"
)

// Duration is one reported elapsed time extracted from a line.
type Duration struct {
	// Key is the name of the pattern that matched.
	Key string
	// Name is the captured name, in parentheses for asynchronous variants.
	Name string
	// Value is the captured time in milliseconds.
	Value float64
	// Contention marks values that belong in the monitor contention table.
	Contention bool
}

// MatchDuration applies the first matching pattern of g to line and returns
// its captured name and time. Empty names and zero times do not count as a match.
func (g Group) MatchDuration(line string) (Duration, bool) {
	for _, p := range g.patterns {
		m := p.Expr.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		ni, ti := p.Expr.SubexpIndex(GroupName), p.Expr.SubexpIndex(GroupTime)
		if ni < 0 || ti < 0 {
			return Duration{}, false
		}
		name := m[ni]
		v, err := strconv.ParseFloat(m[ti], 64)
		if name == "" || err != nil || v == 0 {
			return Duration{}, false
		}
		if strings.Contains(line, asyncMarker) {
			name = "(" + name + ")"
		}
		if strings.HasSuffix(p.Name, secondsSuffix) {
			v *= 1000
		}
		return Duration{
			Key:        p.Name,
			Name:       name,
			Value:      v,
			Contention: strings.HasPrefix(p.Name, contentionPrefix),
		}, true
	}
	return Duration{}, false
}
