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

import (
	"testing"
	"time"
)

func TestTimeoutConstants(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		minValue time.Duration
		maxValue time.Duration
	}{
		// Capture budgets
		{"MaxWaitTime", MaxWaitTime, 30 * time.Second, 30 * time.Minute},
		{"ReconnectInterval", ReconnectInterval, 100 * time.Millisecond, 10 * time.Second},
		{"ProcessStopTimeout", ProcessStopTimeout, 1 * time.Second, 30 * time.Second},

		// Reboot sequencing
		{"DeviceGonePollInterval", DeviceGonePollInterval, 100 * time.Millisecond, 5 * time.Second},
		{"DeviceGoneTimeout", DeviceGoneTimeout, 5 * time.Second, 2 * time.Minute},
		{"ShutdownReadyTimeout", ShutdownReadyTimeout, 1 * time.Second, time.Minute},
		{"DeviceCommandTimeout", DeviceCommandTimeout, 5 * time.Second, 2 * time.Minute},
		{"BugreportTimeout", BugreportTimeout, 1 * time.Minute, 30 * time.Minute},

		// K8s timeouts
		{"ConfigMapWriteTimeout", ConfigMapWriteTimeout, 10 * time.Second, 60 * time.Second},
		{"ConfigMapReadTimeout", ConfigMapReadTimeout, 5 * time.Second, 60 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.timeout < tt.minValue {
				t.Errorf("%s (%v) is below minimum expected value (%v)", tt.name, tt.timeout, tt.minValue)
			}
			if tt.timeout > tt.maxValue {
				t.Errorf("%s (%v) is above maximum expected value (%v)", tt.name, tt.timeout, tt.maxValue)
			}
		})
	}
}

func TestDeviceGoneTimeoutCoversPolls(t *testing.T) {
	// adb devices is checked 20 times, one second apart.
	if DeviceGoneTimeout/DeviceGonePollInterval != 20 {
		t.Errorf("DeviceGoneTimeout (%v) should allow 20 polls of %v",
			DeviceGoneTimeout, DeviceGonePollInterval)
	}
}

func TestMaxWaitBelowErrorTime(t *testing.T) {
	if MaxWaitTime.Seconds() >= ErrorTime {
		t.Errorf("MaxWaitTime (%v) should be below ErrorTime (%vs)", MaxWaitTime, ErrorTime)
	}
}

func TestNegativeOvershootTolerance(t *testing.T) {
	if NegativeOvershootTolerance != 0.1 {
		t.Errorf("NegativeOvershootTolerance = %v, want 0.1", NegativeOvershootTolerance)
	}
}
