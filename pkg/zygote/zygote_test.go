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

package zygote

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/bootanalyze/pkg/event"
)

func userLine(ts float64, pid int, msg string) event.RawEvent {
	return event.NewRawEvent(event.ChannelUser, fmt.Sprintf("%.3f  %d  %d I Zygote  : %s", ts, pid, pid, msg))
}

func TestRecordSequence(t *testing.T) {
	tbl := event.NewTable()
	d := New()

	// first pid is recorded unmodified
	got := d.Record(tbl, "zygote_preload_start", userLine(10, 100, "begin preload"))
	assert.Equal(t, "zygote_preload_start", got)
	_, ok := d.Primary()
	assert.False(t, ok)

	// same pid again is a no-op for identity
	got = d.Record(tbl, "zygote_preload_end", userLine(11, 100, "end preload"))
	assert.Equal(t, "zygote_preload_end", got)

	// larger pid becomes the secondary
	got = d.Record(tbl, "zygote_preload_start", userLine(12, 150, "begin preload"))
	assert.Equal(t, "zygote_preload_start-secondary", got)
	p, _ := d.Primary()
	s, _ := d.Secondary()
	assert.Equal(t, 100, p)
	assert.Equal(t, 150, s)

	// third pid classified against the secondary only
	got = d.Record(tbl, "zygote_preload_end", userLine(13, 200, "end preload"))
	assert.Equal(t, "zygote_preload_end", got)
	p, _ = d.Primary()
	s, _ = d.Secondary()
	assert.Equal(t, 100, p, "no re-promotion")
	assert.Equal(t, 150, s, "no re-promotion")

	got = d.Record(tbl, "zygote_preload_end", userLine(14, 150, "end preload"))
	assert.Equal(t, "zygote_preload_end-secondary", got)

	assert.Equal(t, []string{
		"zygote_preload_start",
		"zygote_preload_end",
		"zygote_preload_start-secondary",
		"zygote_preload_end-secondary",
	}, tbl.Names())
}

func TestRecordDemotesEarlierPid(t *testing.T) {
	tbl := event.NewTable()
	tbl.Set("BootAnimStart", userLine(1, 7, "other"))
	d := New()

	d.Record(tbl, "zygote_preload_start", userLine(10, 300, "begin preload"))
	d.Record(tbl, "zygote_preload_end", userLine(11, 300, "end preload"))

	// smaller pid arrives: the earlier one was the secondary
	got := d.Record(tbl, "zygote_preload_start", userLine(12, 250, "begin preload"))
	assert.Equal(t, "zygote_preload_start", got)

	assert.True(t, tbl.Has("BootAnimStart"))
	assert.True(t, tbl.Has("zygote_preload_start-secondary"))
	assert.True(t, tbl.Has("zygote_preload_end-secondary"))
	assert.False(t, tbl.Has("zygote_preload_end"))

	ev, ok := tbl.Get("zygote_preload_start")
	require.True(t, ok)
	assert.Contains(t, ev.Line, " 250 ")

	moved, _ := tbl.Get("zygote_preload_start-secondary")
	assert.Contains(t, moved.Line, " 300 ")

	p, _ := d.Primary()
	assert.Equal(t, 250, p)
}

func TestRecordDemoteCollisionKeepsExisting(t *testing.T) {
	tbl := event.NewTable()
	existing := userLine(5, 999, "preexisting")
	tbl.Set("zygote_x-secondary", existing)
	d := New()

	d.Record(tbl, "zygote_x", userLine(10, 300, "a"))
	d.Record(tbl, "zygote_y", userLine(11, 200, "b"))

	got, ok := tbl.Get("zygote_x-secondary")
	require.True(t, ok)
	assert.Equal(t, existing.Line, got.Line)
	assert.False(t, tbl.Has("zygote_x"))
	assert.True(t, tbl.Has("zygote_y"))
}

func TestRecordWithoutPid(t *testing.T) {
	tbl := event.NewTable()
	d := New()

	got := d.Record(tbl, "zygote_odd", event.RawEvent{Line: "zygote"})
	assert.Equal(t, "zygote_odd", got)

	got = d.Record(tbl, "zygote_odd2", event.RawEvent{Line: "1.0 notapid x"})
	assert.Equal(t, "zygote_odd2", got)
	_, ok := d.Secondary()
	assert.False(t, ok)
}

func TestIsZygoteEvent(t *testing.T) {
	assert.True(t, IsZygoteEvent("zygote_preload_start"))
	assert.False(t, IsZygoteEvent("starting_zygote"))
}
