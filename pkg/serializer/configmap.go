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

package serializer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	accorev1 "k8s.io/client-go/applyconfigurations/core/v1"

	"github.com/NVIDIA/bootanalyze/pkg/defaults"
	"github.com/NVIDIA/bootanalyze/pkg/header"
	"github.com/NVIDIA/bootanalyze/pkg/k8s/client"
)

const (
	// ConfigMapURIScheme prefixes cm://namespace/name destinations and sources.
	ConfigMapURIScheme = "cm://"

	// ReportDataKey is the data key prefix reports are stored under.
	ReportDataKey = "report"
	// ConfigDataKey is the data key prefix pattern configuration is read from.
	ConfigDataKey = "config"

	fieldManager = "bootanalyze"
	appName      = "bootanalyze"
)

// ConfigMapWriter stores serialized values in a ConfigMap using server-side apply.
type ConfigMapWriter struct {
	namespace  string
	name       string
	format     Format
	kubeconfig string
	client     client.Interface
}

// ConfigMapOption configures ConfigMap access.
type ConfigMapOption func(*ConfigMapWriter)

// WithKubeconfig selects the kubeconfig used to build the client.
func WithKubeconfig(path string) ConfigMapOption {
	return func(w *ConfigMapWriter) {
		w.kubeconfig = path
	}
}

// WithClient uses cs instead of building a client.
func WithClient(cs client.Interface) ConfigMapOption {
	return func(w *ConfigMapWriter) {
		w.client = cs
	}
}

// NewConfigMapWriter returns a writer for namespace/name.
func NewConfigMapWriter(namespace, name string, format Format, opts ...ConfigMapOption) *ConfigMapWriter {
	w := &ConfigMapWriter{
		namespace: namespace,
		name:      name,
		format:    normalize(format),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *ConfigMapWriter) kubeClient() (client.Interface, error) {
	if w.client != nil {
		return w.client, nil
	}
	cs, cfg, err := client.Get(w.kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to get kubernetes client: %w", err)
	}
	slog.Info("configmap operation",
		"namespace", w.namespace,
		"name", w.name,
		"auth_method", client.AuthMethod(cfg),
		"format", w.format)
	return cs, nil
}

// Serialize applies v under the data key report.<ext>, with format and
// timestamp entries alongside. Values carrying a header label the
// ConfigMap with their kind and version.
func (w *ConfigMapWriter) Serialize(ctx context.Context, v any) error {
	writeCtx, cancel := context.WithTimeout(ctx, defaults.ConfigMapWriteTimeout)
	defer cancel()

	cs, err := w.kubeClient()
	if err != nil {
		return err
	}

	content, err := encode(w.format, v)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	kind, version, timestamp := "", "unknown", ""
	if h, ok := v.(interface {
		GetKind() header.Kind
		GetMetadata() map[string]string
	}); ok {
		kind = h.GetKind().String()
		md := h.GetMetadata()
		if s := md[header.MetadataVersion]; s != "" {
			version = s
		}
		timestamp = md[header.MetadataTimestamp]
	}
	if kind == "" {
		kind = header.KindBootReport.String()
	}
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	cm := accorev1.ConfigMap(w.name, w.namespace).
		WithLabels(map[string]string{
			"app.kubernetes.io/name":      appName,
			"app.kubernetes.io/component": kind,
			"app.kubernetes.io/version":   version,
		}).
		WithData(map[string]string{
			ReportDataKey + "." + w.format.Extension(): string(content),
			"format":    string(w.format),
			"timestamp": timestamp,
		})

	slog.Info("applying ConfigMap", "namespace", w.namespace, "name", w.name, "format", w.format)

	_, err = cs.CoreV1().ConfigMaps(w.namespace).Apply(writeCtx, cm, metav1.ApplyOptions{
		FieldManager: fieldManager,
		Force:        true,
	})
	if err != nil {
		return fmt.Errorf("failed to apply ConfigMap %s/%s: %w", w.namespace, w.name, err)
	}
	return nil
}

// Close is a no-op.
func (w *ConfigMapWriter) Close() error {
	return nil
}

func parseConfigMapURI(uri string) (namespace, name string, err error) {
	if !strings.HasPrefix(uri, ConfigMapURIScheme) {
		return "", "", fmt.Errorf("invalid ConfigMap URI: must start with %s", ConfigMapURIScheme)
	}

	parts := strings.SplitN(strings.TrimPrefix(uri, ConfigMapURIScheme), "/", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid ConfigMap URI format: expected %snamespace/name, got %s", ConfigMapURIScheme, uri)
	}

	namespace = strings.TrimSpace(parts[0])
	name = strings.TrimSpace(parts[1])

	if namespace == "" {
		return "", "", fmt.Errorf("invalid ConfigMap URI: namespace cannot be empty")
	}
	if name == "" {
		return "", "", fmt.Errorf("invalid ConfigMap URI: name cannot be empty")
	}
	return namespace, name, nil
}
