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

package shutdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/bootanalyze/pkg/config"
	"github.com/NVIDIA/bootanalyze/pkg/errors"
	"github.com/NVIDIA/bootanalyze/pkg/event"
	"github.com/NVIDIA/bootanalyze/pkg/pattern"
	"github.com/NVIDIA/bootanalyze/pkg/tailer"
)

type process struct {
	ch   chan string
	once sync.Once
}

func (p *process) Lines() <-chan string { return p.ch }

func (p *process) Terminate() error {
	p.once.Do(func() { close(p.ch) })
	return nil
}

type transport struct {
	lines   []string
	hold    bool
	channel event.Channel
	err     error
}

func (f *transport) StartLogProcess(_ context.Context, ch event.Channel) (tailer.Process, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.channel = ch
	p := &process{ch: make(chan string, len(f.lines))}
	for _, l := range f.lines {
		p.ch <- l
	}
	if !f.hold {
		p.once.Do(func() { close(p.ch) })
	}
	return p, nil
}

func (f *transport) WaitForDevice(context.Context) error { return nil }

func shutdownGroup(t *testing.T) pattern.Group {
	t.Helper()
	f, err := config.Default()
	require.NoError(t, err)
	lib, err := pattern.Compile(f)
	require.NoError(t, err)
	return lib.Shutdown
}

func ul(ts float64, msg string) string {
	return fmt.Sprintf("%.3f  1021  1187 I ShutdownThread: %s", ts, msg)
}

func fixedNow() time.Time {
	return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
}

func TestCollectPairsDurations(t *testing.T) {
	tr := &transport{lines: []string{
		"1700000000.000  1021  1021 I ActivityManager: unrelated",
		ul(1700000100.000, "Shutting down"),
		ul(1700000100.250, "Sending shutdown broadcast"),
		ul(1700000100.750, "Shutdown broadcast done"),
		ul(1700000101.000, "Shutting down activity manager"),
		ul(1700000101.500, "Activity manager shutdown done"),
		ul(1700000102.000, "Performing low-level shutdown"),
	}}
	dir := t.TempDir()
	c := New(tr, shutdownGroup(t), nil, dir)

	res, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, event.ChannelUser, tr.channel)
	assert.Equal(t, []string{
		"ShutdownStart", "ShutdownBroadcast", "ShutdownBroadcastDone",
		"ShutdownActivityManager", "ShutdownActivityManagerDone", "ShutdownPowerOff",
	}, res.Events.Names())
	v, _ := res.Events.Get("ShutdownPowerOff")
	assert.InDelta(t, 2.0, v, 1e-6)

	assert.Equal(t, []string{"ShutdownBroadcastDuration", "ShutdownActivityManagerDuration"}, res.Durations.Names())
	v, _ = res.Durations.Get("ShutdownBroadcastDuration")
	assert.InDelta(t, 0.5, v, 1e-6)

	assert.False(t, res.Errored)
	assert.Empty(t, res.LogPath)
	assert.Equal(t, 7, res.Lines)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	select {
	case <-c.Ready():
	default:
		t.Fatal("collector never signaled readiness")
	}
}

func TestCollectTimeoutSavesErrorLog(t *testing.T) {
	tr := &transport{lines: []string{
		ul(50.0, "Shutting down"),
		ul(51.0, "Waiting for Radio"),
		ul(63.0, "Timed out waiting for Radio"),
	}}
	dir := t.TempDir()
	c := New(tr, shutdownGroup(t), nil, dir)
	c.now = fixedNow

	res, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Errored)
	v, ok := res.Durations.Get("ShutdownRadioDuration")
	require.True(t, ok)
	assert.InDelta(t, 12.0, v, 1e-6)

	assert.Equal(t, filepath.Join(dir, "shutdownlog-error-2026-01-02-03-04-05.txt"), res.LogPath)
	data, err := os.ReadFile(res.LogPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Timed out waiting for Radio")
}

func TestCollectLimitSavesLog(t *testing.T) {
	tr := &transport{lines: []string{
		ul(10.0, "Shutting down vold"),
		ul(13.5, "Vold shutdown done"),
	}}
	dir := t.TempDir()
	limits, err := config.ParseLimits("ShutdownVoldDuration=3000")
	require.NoError(t, err)
	c := New(tr, shutdownGroup(t), limits, dir)
	c.now = fixedNow

	res, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Errored)
	assert.Equal(t, filepath.Join(dir, "shutdownlog-2026-01-02-03-04-05.txt"), res.LogPath)
}

func TestCollectDoneWithoutStart(t *testing.T) {
	tr := &transport{lines: []string{
		ul(10.0, "Shutting down"),
		ul(11.0, "Vold shutdown done"),
	}}
	res, err := New(tr, shutdownGroup(t), nil, t.TempDir()).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Durations.Len())
	assert.True(t, res.Events.Has("ShutdownVoldDone"))
}

func TestCollectCanceled(t *testing.T) {
	tr := &transport{lines: []string{ul(10.0, "Shutting down")}, hold: true}
	ctx, cancel := context.WithCancel(context.Background())
	c := New(tr, shutdownGroup(t), nil, t.TempDir())
	go func() {
		<-c.Ready()
		cancel()
	}()

	res, err := c.Collect(ctx)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeCanceled))
	require.NotNil(t, res)
}

func TestCollectStartFailure(t *testing.T) {
	tr := &transport{err: fmt.Errorf("device offline")}
	_, err := New(tr, shutdownGroup(t), nil, t.TempDir()).Collect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeTransport))
}
