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

package client

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
)

// Interface is kubernetes.Interface, aliased so callers and tests can pass a
// fake clientset.
type Interface = kubernetes.Interface

type cached struct {
	client Interface
	config *rest.Config
	err    error
}

var (
	mu      sync.Mutex
	clients = map[string]cached{}
)

// Get returns a client for kubeconfig, building it on first use. An empty
// kubeconfig uses KUBECONFIG, then ~/.kube/config, then the in-cluster
// service account. Results, failures included, are cached per path.
func Get(kubeconfig string) (Interface, *rest.Config, error) {
	mu.Lock()
	defer mu.Unlock()
	if c, ok := clients[kubeconfig]; ok {
		return c.client, c.config, c.err
	}
	cs, cfg, err := Build(kubeconfig)
	c := cached{config: cfg, err: err}
	if cs != nil {
		c.client = cs
	}
	clients[kubeconfig] = c
	return c.client, c.config, c.err
}

// Build creates an uncached client from kubeconfig, resolved as in Get.
func Build(kubeconfig string) (*kubernetes.Clientset, *rest.Config, error) {
	path := resolve(kubeconfig)

	var (
		cfg *rest.Config
		err error
	)
	if path == "" {
		cfg, err = rest.InClusterConfig()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get in-cluster config: %w", err)
		}
	} else {
		cfg, err = clientcmd.BuildConfigFromFlags("", path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build kube config from %s: %w", path, err)
		}
	}

	cs, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	return cs, cfg, nil
}

func resolve(kubeconfig string) string {
	if kubeconfig != "" {
		return kubeconfig
	}
	if env := os.Getenv("KUBECONFIG"); env != "" {
		return env
	}
	home := filepath.Join(homedir.HomeDir(), ".kube", "config")
	if _, err := os.Stat(home); err == nil {
		return home
	}
	return ""
}

// AuthMethod names how cfg authenticates, for audit logging.
func AuthMethod(cfg *rest.Config) string {
	switch {
	case cfg == nil:
		return "none"
	case cfg.AuthProvider != nil:
		return cfg.AuthProvider.Name
	case cfg.ExecProvider != nil:
		return "exec"
	case cfg.BearerToken != "" || cfg.BearerTokenFile != "":
		return "bearer-token"
	case cfg.CertData != nil || cfg.CertFile != "":
		return "cert"
	default:
		return "default"
	}
}

// reset drops every cached client.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	clients = map[string]cached{}
}
