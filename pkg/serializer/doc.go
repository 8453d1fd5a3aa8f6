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

// Package serializer writes reports and reads configuration in JSON, YAML
// or a plain text table.
//
// Destinations are picked from a path: empty means stdout, cm://namespace/name
// means a ConfigMap updated with server-side apply, anything else is a file.
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatYAML, "cm://boot/last-run")
//	if err := w.Serialize(ctx, rep); err != nil {
//	    return err
//	}
//
// The table format is write-only and needs values implementing
// TableRenderer; anything else is rejected with INVALID_REQUEST.
//
// Reading mirrors writing:
//
//	f, err := serializer.FromFile[config.File]("cm://boot/patterns")
package serializer
