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
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/bootanalyze/pkg/errors"
	"github.com/NVIDIA/bootanalyze/pkg/serializer"
)

//go:embed data/patterns.yaml
var defaultPatterns []byte

// PatternEntry is one named regular expression.
type PatternEntry struct {
	Name string
	Expr string
}

// PatternSet is a name to regular expression mapping that keeps the order
// in which entries appear in the document. Matching tries entries in that order.
type PatternSet []PatternEntry

// Names returns the entry names in document order.
func (s PatternSet) Names() []string {
	out := make([]string, 0, len(s))
	for _, e := range s {
		out = append(out, e.Name)
	}
	return out
}

// Lookup returns the expression for name.
func (s PatternSet) Lookup(name string) (string, bool) {
	for _, e := range s {
		if e.Name == name {
			return e.Expr, true
		}
	}
	return "", false
}

// UnmarshalYAML decodes a YAML mapping node keeping key order.
func (s *PatternSet) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping of name to pattern", node.Line)
	}
	out := make(PatternSet, 0, len(node.Content)/2)
	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: pattern %q must be a string", v.Line, k.Value)
		}
		if seen[k.Value] {
			return fmt.Errorf("line %d: duplicate pattern name %q", k.Line, k.Value)
		}
		seen[k.Value] = true
		out = append(out, PatternEntry{Name: k.Value, Expr: v.Value})
	}
	*s = out
	return nil
}

// MarshalYAML encodes the set as a mapping in document order.
func (s PatternSet) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range s {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: e.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Value: e.Expr},
		)
	}
	return node, nil
}

// UnmarshalJSON decodes a JSON object keeping key order.
func (s *PatternSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected an object of name to pattern")
	}
	var out PatternSet
	seen := make(map[string]bool)
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var expr string
		if err := dec.Decode(&expr); err != nil {
			return fmt.Errorf("pattern %q: %w", name, err)
		}
		if seen[name] {
			return fmt.Errorf("duplicate pattern name %q", name)
		}
		seen[name] = true
		out = append(out, PatternEntry{Name: name, Expr: expr})
	}
	*s = out
	return nil
}

// MarshalJSON encodes the set as an object in document order.
func (s PatternSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Expr)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// File is the pattern configuration document.
type File struct {
	// TimeCorrectionKey names the event whose first capture group is a wall
	// clock correction, in seconds, for every earlier user-log timestamp.
	TimeCorrectionKey string `json:"time_correction_key,omitempty" yaml:"time_correction_key,omitempty"`

	Events         PatternSet `json:"events" yaml:"events"`
	Timings        PatternSet `json:"timings" yaml:"timings"`
	ShutdownEvents PatternSet `json:"shutdown_events" yaml:"shutdown_events"`
}

// Default returns the embedded default configuration.
func Default() (*File, error) {
	return Parse(defaultPatterns)
}

// Parse decodes a YAML (or JSON) configuration document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, "failed to parse pattern configuration", err)
	}
	return &f, nil
}

// Load reads the configuration from path, which may be a local YAML or JSON
// file or a cm://namespace/name ConfigMap URI. An empty path selects the
// embedded default.
func Load(path string) (*File, error) {
	return LoadWithKubeconfig(path, "")
}

// LoadWithKubeconfig is Load with an explicit kubeconfig for ConfigMap URIs.
func LoadWithKubeconfig(path, kubeconfig string) (*File, error) {
	if strings.TrimSpace(path) == "" {
		slog.Debug("using embedded default pattern configuration")
		return Default()
	}
	f, err := serializer.FromFileWithKubeconfig[File](path, kubeconfig)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInvalidConfig,
			"failed to load pattern configuration", err,
			map[string]any{"path": path})
	}
	slog.Debug("loaded pattern configuration",
		"path", path,
		"events", len(f.Events),
		"timings", len(f.Timings),
		"shutdown_events", len(f.ShutdownEvents))
	return f, nil
}
