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

package tailer

import (
	"context"

	"github.com/NVIDIA/bootanalyze/pkg/event"
)

// Process is a running log producer.
type Process interface {
	// Lines delivers output lines in order and is closed when the process exits.
	Lines() <-chan string
	// Terminate stops the process. It is safe to call after the process exited.
	Terminate() error
}

// Transport starts log processes on the device and waits for it to return
// after a disconnect.
type Transport interface {
	StartLogProcess(ctx context.Context, ch event.Channel) (Process, error)
	WaitForDevice(ctx context.Context) error
}
