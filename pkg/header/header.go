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

package header

// APIVersion is the schema version stamped on every document this module emits.
const APIVersion = "bootanalyze.nvidia.com/v1alpha1"

// Metadata keys written by the analyzer and the CLI.
const (
	MetadataTimestamp = "timestamp"
	MetadataVersion   = "version"
	MetadataRunID     = "run-id"
	MetadataSerial    = "serial"
)

// Kind identifies the document type carried under a Header.
type Kind string

const (
	// KindBootReport is the aggregated report over all iterations of a run.
	KindBootReport Kind = "BootReport"
	// KindShutdownReport is the result of a standalone shutdown capture.
	KindShutdownReport Kind = "ShutdownReport"
	// KindPatternConfig is a compiled pattern configuration summary.
	KindPatternConfig Kind = "PatternConfig"
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid checks if the Kind is one of the recognized kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindBootReport, KindShutdownReport, KindPatternConfig:
		return true
	default:
		return false
	}
}

// Option configures a Header built by New.
type Option func(*Header)

// WithMetadata sets one metadata entry.
func WithMetadata(key, value string) Option {
	return func(h *Header) {
		if h.Metadata == nil {
			h.Metadata = make(map[string]string)
		}
		h.Metadata[key] = value
	}
}

// WithKind sets the document kind.
func WithKind(kind Kind) Option {
	return func(h *Header) {
		h.Kind = kind
	}
}

// WithAPIVersion overrides the API version.
func WithAPIVersion(version string) Option {
	return func(h *Header) {
		h.APIVersion = version
	}
}

// GetKind returns the document kind.
func (h *Header) GetKind() Kind {
	return h.Kind
}

// GetMetadata returns the metadata map.
func (h *Header) GetMetadata() map[string]string {
	return h.Metadata
}

// New builds a Header with the current API version and the given options applied.
func New(opts ...Option) *Header {
	h := &Header{
		APIVersion: APIVersion,
		Metadata:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Header is embedded at the top of every emitted document.
type Header struct {
	// Kind is the document type.
	Kind Kind `json:"kind,omitempty" yaml:"kind,omitempty"`

	// APIVersion is the schema version of the document.
	APIVersion string `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`

	// Metadata holds the timestamp, build version, run id, and device serial.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}
