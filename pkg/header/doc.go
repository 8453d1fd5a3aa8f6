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

// Package header provides the common document header for bootanalyze output.
//
// Every serialized document (the aggregated BootReport, shutdown captures,
// pattern configuration summaries) starts with the same three fields:
//
//	kind: BootReport
//	apiVersion: bootanalyze.nvidia.com/v1alpha1
//	metadata:
//	  timestamp: "2025-01-15T10:30:00Z"
//	  version: v0.1.0
//	  run-id: 6f1c...
//	  serial: emulator-5554
//
// The serializer's ConfigMap writer reads Kind and Metadata through GetKind
// and GetMetadata to label the ConfigMap it applies.
package header
