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
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/NVIDIA/bootanalyze/pkg/config"
	"github.com/NVIDIA/bootanalyze/pkg/defaults"
	"github.com/NVIDIA/bootanalyze/pkg/errors"
	"github.com/NVIDIA/bootanalyze/pkg/event"
	"github.com/NVIDIA/bootanalyze/pkg/pattern"
	"github.com/NVIDIA/bootanalyze/pkg/tailer"
)

const (
	doneSuffix     = "Done"
	timeoutSuffix  = "Timeout"
	durationSuffix = "Duration"
)

// Result is what was seen while the device shut down.
type Result struct {
	// Events maps shutdown event names to seconds since the first one.
	Events *event.Values
	// Durations maps <Name>Duration to the seconds between <Name> and its
	// Done or Timeout event.
	Durations *event.Values
	// Errored is set when a Timeout event was seen.
	Errored bool
	// LogPath is the saved log, empty unless a capture was triggered.
	LogPath string
	Lines   int
}

// Collector reads the user log while the device goes down for a reboot.
type Collector struct {
	transport tailer.Transport
	group     pattern.Group
	limits    []config.Limit
	outputDir string
	now       func() time.Time

	ready     chan struct{}
	readyOnce sync.Once
}

// New returns a Collector matching lines against the shutdown pattern group.
// A limit, in milliseconds, on a shutdown event or <Name>Duration saves the
// log when reached.
func New(transport tailer.Transport, group pattern.Group, limits []config.Limit, outputDir string) *Collector {
	return &Collector{
		transport: transport,
		group:     group,
		limits:    limits,
		outputDir: outputDir,
		now:       time.Now,
		ready:     make(chan struct{}),
	}
}

// Ready is closed once the log process is running. The reboot should not be
// triggered before that.
func (c *Collector) Ready() <-chan struct{} {
	return c.ready
}

// Collect reads the user log until the log process ends, which happens when
// the device drops off the bridge.
func (c *Collector) Collect(ctx context.Context) (*Result, error) {
	p, err := c.transport.StartLogProcess(ctx, event.ChannelUser)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransport, "failed to start shutdown log process", err)
	}
	defer func() {
		if termErr := p.Terminate(); termErr != nil {
			slog.Debug("failed to terminate shutdown log process", "error", termErr)
		}
	}()
	c.readyOnce.Do(func() { close(c.ready) })

	s := &collection{
		c:         c,
		events:    event.NewValues(),
		durations: event.NewValues(),
	}

	lines := p.Lines()
	for open := true; open; {
		select {
		case <-ctx.Done():
			return s.result(), errors.Wrap(errors.ErrCodeCanceled, "shutdown collection interrupted", ctx.Err())
		case line, ok := <-lines:
			if !ok {
				open = false
				continue
			}
			s.process(line)
		}
	}

	res := s.result()
	if s.capture {
		path, err := c.saveLog(s.log, s.errored)
		if err != nil {
			return res, err
		}
		res.LogPath = path
	}
	for _, e := range res.Events.Entries() {
		slog.Debug("shutdown event", "event", e.Name, "time", e.Value)
	}
	for _, e := range res.Durations.Entries() {
		slog.Info("shutdown timing", "event", e.Name, "duration", e.Value)
	}
	return res, nil
}

type collection struct {
	c         *Collector
	events    *event.Values
	durations *event.Values
	log       []string
	start     float64
	started   bool
	errored   bool
	capture   bool
}

func (s *collection) process(raw string) {
	line := strings.TrimSpace(raw)
	s.log = append(s.log, line)

	name, ok := s.c.group.Match(line)
	if !ok {
		return
	}
	t, ok := event.ChannelUser.ParseTime(line)
	if !ok {
		slog.Warn("cannot get time from shutdown event", "event", name, "line", line)
		return
	}
	if !s.started {
		s.start, s.started = t, true
	}
	rel := t - s.start
	s.events.Set(name, rel)
	s.checkLimit(name, rel)

	var pair string
	switch {
	case strings.HasSuffix(name, doneSuffix):
		pair = strings.TrimSuffix(name, doneSuffix)
	case strings.HasSuffix(name, timeoutSuffix):
		pair = strings.TrimSuffix(name, timeoutSuffix)
		s.errored, s.capture = true, true
		shutdownTimeoutsTotal.Inc()
		slog.Warn("shutdown step timed out", "event", name)
	default:
		return
	}

	started, ok := s.events.Get(pair)
	if !ok {
		slog.Warn("no start event for shutdown event", "event", name, "expected", pair)
		return
	}
	key := pair + durationSuffix
	spent := rel - started
	s.durations.Set(key, spent)
	s.checkLimit(key, spent)
}

func (s *collection) checkLimit(name string, seconds float64) {
	limit, ok := config.LimitFor(s.c.limits, name)
	if ok && limit <= seconds*1000 {
		slog.Warn("shutdown event over limit", "event", name, "seconds", seconds, "limit_ms", limit)
		s.capture = true
	}
}

func (s *collection) result() *Result {
	return &Result{
		Events:    s.events,
		Durations: s.durations,
		Errored:   s.errored,
		Lines:     len(s.log),
	}
}

func (c *Collector) saveLog(lines []string, errored bool) (string, error) {
	prefix := "shutdownlog-"
	if errored {
		prefix = "shutdownlog-error-"
	}
	path := filepath.Join(c.outputDir, fmt.Sprintf("%s%s.txt", prefix, c.now().Format(defaults.FileTimestampLayout)))
	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, "failed to create output directory", err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return "", errors.WrapWithContext(errors.ErrCodeInternal, "failed to write shutdown log", err,
			map[string]any{"path": path})
	}
	slog.Warn("shutdown problem, log captured", "path", path, "lines", len(lines))
	return path, nil
}
