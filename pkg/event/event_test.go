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

package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelParseTime(t *testing.T) {
	tests := []struct {
		name    string
		channel Channel
		line    string
		want    float64
		ok      bool
	}{
		{"dmesg padded", ChannelKernel, "[    2.345678] init: init second stage started!", 2.345678, true},
		{"dmesg no padding", ChannelKernel, "[12.5] foo", 12.5, true},
		{"dmesg without stamp", ChannelKernel, "init: no stamp", 0, false},
		{"logcat epoch", ChannelUser, "1697040000.123  1234  1234 I Zygote  : begin preload", 1697040000.123, true},
		{"logcat integer", ChannelUser, "1697040000 1 1 I x", 1697040000, true},
		{"logcat without digits", ChannelUser, "--------- beginning of main", 0, false},
		{"unknown channel", Channel("radio"), "1.0", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.channel.ParseTime(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestChannelIsValid(t *testing.T) {
	for _, c := range Channels() {
		assert.True(t, c.IsValid(), c.String())
	}
	assert.False(t, Channel("radio").IsValid())
}

func TestTableOrderAndReplace(t *testing.T) {
	tbl := NewTable()
	tbl.Set("kernel", NewRawEvent(ChannelUser, "100.0 1 1 I kernel"))
	tbl.Set("BootComplete", NewRawEvent(ChannelUser, "130.0 1 1 I phase 1000"))
	tbl.Set("kernel", NewRawEvent(ChannelUser, "101.0 1 1 I kernel"))

	assert.Equal(t, []string{"kernel", "BootComplete"}, tbl.Names())
	ev, ok := tbl.Get("kernel")
	require.True(t, ok)
	assert.InDelta(t, 101.0, ev.Time, 1e-9)

	assert.True(t, tbl.Delete("kernel"))
	assert.False(t, tbl.Delete("kernel"))
	assert.Equal(t, []string{"BootComplete"}, tbl.Names())
	assert.Equal(t, 1, tbl.Len())
}

func TestTableUniqueName(t *testing.T) {
	tbl := NewTable()
	assert.Equal(t, "BootAnimEnd", tbl.UniqueName("BootAnimEnd"))

	tbl.Set("BootAnimEnd", RawEvent{})
	assert.Equal(t, "BootAnimEnd_1", tbl.UniqueName("BootAnimEnd"))

	tbl.Set("BootAnimEnd_1", RawEvent{})
	assert.Equal(t, "BootAnimEnd_2", tbl.UniqueName("BootAnimEnd"))
}

func TestTableTimesSkipsUnparsed(t *testing.T) {
	tbl := NewTable()
	tbl.Set("a", NewRawEvent(ChannelKernel, "[ 1.000000] a"))
	tbl.Set("b", NewRawEvent(ChannelKernel, "no stamp b"))
	tbl.Set("c", NewRawEvent(ChannelKernel, "[ 0.500000] c"))

	times := tbl.Times()
	assert.Equal(t, []string{"a", "c"}, times.Names())
	v, _ := times.Get("c")
	assert.InDelta(t, 0.5, v, 1e-9)
}

func TestValuesSortedByValueIsStable(t *testing.T) {
	v := ValuesOf(
		Entry{"c", 3},
		Entry{"a", 1},
		Entry{"b", 1},
	)
	sorted := v.SortedByValue()
	assert.Equal(t, []string{"a", "b", "c"}, sorted.Names())
	// source untouched
	assert.Equal(t, []string{"c", "a", "b"}, v.Names())
}

func TestValuesNilSafe(t *testing.T) {
	var v *Values
	assert.Equal(t, 0, v.Len())
	assert.False(t, v.Has("x"))
	assert.Nil(t, v.Entries())
}

func TestSamples(t *testing.T) {
	s := NewSamples()
	s.Append("init_command_ms", "l1")
	s.Append("SystemServerTiming", "l2")
	s.Append("init_command_ms", "l3")

	assert.Equal(t, []string{"init_command_ms", "SystemServerTiming"}, s.Keys())
	assert.Equal(t, []string{"l1", "l3"}, s.Lines("init_command_ms"))
	assert.Equal(t, 3, s.Len())
}
