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

package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/bootanalyze/pkg/event"
	"github.com/NVIDIA/bootanalyze/pkg/reconcile"
)

func values(pairs ...any) *event.Values {
	v := event.NewValues()
	for i := 0; i < len(pairs); i += 2 {
		v.Set(pairs[i].(string), pairs[i+1].(float64))
	}
	return v
}

func result() *reconcile.Result {
	return &reconcile.Result{
		Corrected: values(
			"kernel", 0.0,
			"BootAnimEnd", 1020.0,
			"LauncherStart", 23.0,
			"BootComplete", 28.0,
			"zygote_start", 4.25,
		),
		Raw: values(
			"kernel", 1000.0,
			"BootAnimEnd", 1020.0,
			"LauncherStart", 1025.0,
			"BootComplete", 1030.0,
			"zygote_start", 1004.5,
		),
		Kernel: values(
			"BootAnimEnd", 18.0,
			"zygote_start", 4.125,
			"BootComplete_kernel", 28.5,
		),
	}
}

func TestAssembleKernelWins(t *testing.T) {
	tl := Assemble(result(), nil)

	for _, name := range []string{"BootAnimEnd", "zygote_start"} {
		e, ok := tl.Get(name)
		require.True(t, ok)
		k, _ := result().Kernel.Get(name)
		assert.Equal(t, k, e.Value, name)
		assert.Equal(t, ProvenanceKernel, e.Provenance, name)
	}

	e, ok := tl.Get("LauncherStart")
	require.True(t, ok)
	assert.Equal(t, ProvenanceCorrected, e.Provenance)
	assert.Equal(t, 1025.0, e.RawUserValue)

	// kernel-only events are not part of the timeline
	_, ok = tl.Get("BootComplete_kernel")
	assert.False(t, ok)
}

func TestAssembleSortedByValue(t *testing.T) {
	tl := Assemble(result(), nil)
	assert.Equal(t, []string{"kernel", "zygote_start", "BootAnimEnd", "LauncherStart", "BootComplete"}, tl.Values().Names())
}

func TestAssembleComposites(t *testing.T) {
	tests := []struct {
		name      string
		bootTimes *event.Values
		want      []string
	}{
		{
			name:      "bootloader known",
			bootTimes: values("bootloader", 1.5, "init.first_stage", 0.3),
			want:      []string{"*BootComplete+Bootloader", "*LauncherStart+Bootloader"},
		},
		{
			name:      "no bootloader",
			bootTimes: values("init.first_stage", 0.3),
			want:      nil,
		},
		{
			name:      "no properties",
			bootTimes: nil,
			want:      nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := Assemble(result(), tt.bootTimes)
			var got []string
			for _, c := range DefaultComposites {
				if e, ok := tl.Get(c.Name); ok {
					assert.Equal(t, ProvenanceCorrected, e.Provenance, c.Name)
					got = append(got, e.Name)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}

	tl := Assemble(result(), values("bootloader", 1.5))
	e, ok := tl.Get("*BootComplete+Bootloader")
	require.True(t, ok)
	assert.InDelta(t, 29.5, e.Value, 1e-9)
	assert.Equal(t, ProvenanceCorrected, e.Provenance)
	// composites follow the sorted events
	assert.Equal(t, "*LauncherStart+Bootloader", tl.Entries()[tl.Len()-1].Name)
}

func TestAssembleCompositeNeedsMilestone(t *testing.T) {
	res := result()
	res.Corrected = values("kernel", 0.0, "BootComplete", 28.0)
	tl := Assemble(res, values("bootloader", 1.5))

	_, ok := tl.Get("*BootComplete+Bootloader")
	assert.True(t, ok)
	_, ok = tl.Get("*LauncherStart+Bootloader")
	assert.False(t, ok)
}
