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

package defaults

import "time"

const (
	// MaxWaitTime is the default budget for one tailer to see all of its stop
	// events, including any reconnects.
	MaxWaitTime = 200 * time.Second

	// ErrorTime is the default BootComplete value, in seconds, above which a
	// boot is treated as too long and a bug report is captured.
	ErrorTime = 2000.0

	// ReconnectInterval paces transport reconnect attempts.
	ReconnectInterval = 1 * time.Second

	// ProcessStopTimeout is how long a terminated log process may take to exit
	// before it is killed.
	ProcessStopTimeout = 5 * time.Second
)

const (
	// RebootAttempts is how many times the reboot trigger is retried when the
	// device does not appear to go away.
	RebootAttempts = 5

	// DeviceGonePollInterval is the period between adb devices checks after a
	// reboot was triggered.
	DeviceGonePollInterval = 1 * time.Second

	// DeviceGoneTimeout bounds the wait for the device to leave adb after a
	// reboot was triggered.
	DeviceGoneTimeout = 20 * DeviceGonePollInterval

	// ShutdownReadyTimeout bounds the wait for the shutdown collector to start
	// listening before the reboot is triggered anyway.
	ShutdownReadyTimeout = 10 * time.Second

	// DeviceCommandTimeout bounds one-shot device commands such as getprop.
	DeviceCommandTimeout = 30 * time.Second

	// BugreportTimeout bounds a bug report capture.
	BugreportTimeout = 10 * time.Minute
)

const (
	// ConfigMapWriteTimeout is the timeout for writing to ConfigMaps.
	ConfigMapWriteTimeout = 30 * time.Second

	// ConfigMapReadTimeout is the timeout for reading configuration from ConfigMaps.
	ConfigMapReadTimeout = 15 * time.Second
)

// FileTimestampLayout stamps captured artifact names.
// FileTimestampLayout stamps bug report and shutdown log file names.
const FileTimestampLayout = "2006-01-02-15-04-05"
