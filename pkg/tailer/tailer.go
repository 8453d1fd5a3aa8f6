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
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"k8s.io/utils/clock"

	"github.com/NVIDIA/bootanalyze/pkg/defaults"
	"github.com/NVIDIA/bootanalyze/pkg/errors"
	"github.com/NVIDIA/bootanalyze/pkg/event"
	"github.com/NVIDIA/bootanalyze/pkg/pattern"
	"github.com/NVIDIA/bootanalyze/pkg/zygote"
)

// ZygoteStartEvent is the event after which kernel timing samples may be suppressed.
const ZygoteStartEvent = "starting_zygote"

// Request describes one tail.
type Request struct {
	Channel event.Channel
	// StopEvents ends the tail once seen: all of them when CollectsAll is
	// set, any one of them otherwise.
	StopEvents  []string
	CollectsAll bool
	// MaxWait bounds the whole tail, reconnects included.
	MaxWait time.Duration
	// DisableTimingAfterZygote drops duration samples once ZygoteStartEvent was seen.
	DisableTimingAfterZygote bool
}

// Result is what a tail collected. It is returned on timeout and
// cancellation as well, with whatever was gathered up to that point.
type Result struct {
	Channel    event.Channel
	Events     *event.Table
	Samples    *event.Samples
	Remaining  []string
	TimedOut   bool
	Reconnects int
	Lines      int
}

// Complete reports whether every required stop event was seen.
func (r *Result) Complete() bool {
	return len(r.Remaining) == 0
}

type state int

const (
	stateInit state = iota
	statePolling
	stateReconnecting
	stateDone
)

func (s state) String() string {
	switch s {
	case stateInit:
		return "init"
	case statePolling:
		return "polling"
	case stateReconnecting:
		return "reconnecting"
	default:
		return "done"
	}
}

// Tailer runs one log process at a time for a single channel and matches
// its output against a pattern library.
type Tailer struct {
	transport Transport
	library   *pattern.Library
	clock     clock.Clock
	limiter   *rate.Limiter

	ready     chan struct{}
	readyOnce sync.Once
}

// Option configures a Tailer.
type Option func(*Tailer)

// WithClock sets the clock used for the wait budget.
func WithClock(c clock.Clock) Option {
	return func(t *Tailer) {
		t.clock = c
	}
}

// WithReconnectInterval sets the minimum spacing between reconnect
// attempts. Zero disables pacing.
func WithReconnectInterval(d time.Duration) Option {
	return func(t *Tailer) {
		if d <= 0 {
			t.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		t.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// New returns a Tailer reading through transport.
func New(transport Transport, library *pattern.Library, opts ...Option) *Tailer {
	t := &Tailer{
		transport: transport,
		library:   library,
		clock:     clock.RealClock{},
		limiter:   rate.NewLimiter(rate.Every(defaults.ReconnectInterval), 1),
		ready:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Ready is closed once the first log process has started.
func (t *Tailer) Ready() <-chan struct{} {
	return t.ready
}

func (t *Tailer) markReady() {
	t.readyOnce.Do(func() { close(t.ready) })
}

// Tail runs the capture state machine until the stop condition holds, the
// budget is spent, or ctx is canceled. Only a failure to start the very
// first process, or cancellation, is returned as an error.
func (t *Tailer) Tail(ctx context.Context, req Request) (*Result, error) {
	if !req.Channel.IsValid() {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "unknown channel "+req.Channel.String())
	}
	if req.MaxWait <= 0 {
		req.MaxWait = defaults.MaxWaitTime
	}

	s := newSession(req, t.library)
	label := req.Channel.String()

	budgetCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	timer := t.clock.NewTimer(req.MaxWait)
	defer timer.Stop()
	var expired sync.WaitGroup
	expired.Add(1)
	timedOut := make(chan struct{})
	go func() {
		defer expired.Done()
		select {
		case <-timer.C():
			close(timedOut)
			cancel()
		case <-budgetCtx.Done():
		}
	}()

	if req.CollectsAll {
		slog.Info("waiting for all stop events", "channel", label, "stop_events", s.pendingList())
	} else {
		slog.Info("waiting for any stop event", "channel", label, "stop_events", s.pendingList())
	}

	var (
		proc    Process
		lines   <-chan string
		started bool
		err     error
		st      = stateInit
	)

	prev := st
	for st != stateDone {
		if st != prev {
			slog.Debug("tailer state", "channel", label, "from", prev.String(), "to", st.String())
			prev = st
		}
		switch st {
		case stateInit:
			p, startErr := t.transport.StartLogProcess(budgetCtx, req.Channel)
			if startErr != nil {
				if !started && budgetCtx.Err() == nil {
					err = errors.WrapWithContext(errors.ErrCodeTransport, "failed to start log process",
						startErr, map[string]any{"channel": label})
					st = stateDone
					continue
				}
				slog.Warn("failed to restart log process", "channel", label, "error", startErr)
				st = stateReconnecting
				continue
			}
			proc, lines, started = p, p.Lines(), true
			t.markReady()
			st = statePolling

		case statePolling:
			if s.finished() || budgetCtx.Err() != nil {
				st = stateDone
				continue
			}
			select {
			case <-budgetCtx.Done():
				st = stateDone
			case line, ok := <-lines:
				if !ok {
					if s.finished() {
						st = stateDone
						continue
					}
					slog.Warn("log process exited with stop events pending, reconnecting",
						"channel", label, "remaining", s.pendingList())
					st = stateReconnecting
					continue
				}
				tailerLinesTotal.WithLabelValues(label).Inc()
				s.process(line)
			}

		case stateReconnecting:
			if proc != nil {
				if termErr := proc.Terminate(); termErr != nil {
					slog.Debug("terminate after exit", "channel", label, "error", termErr)
				}
				proc, lines = nil, nil
			}
			if waitErr := t.limiter.Wait(budgetCtx); waitErr != nil {
				st = stateDone
				continue
			}
			s.reconnects++
			tailerReconnectsTotal.WithLabelValues(label).Inc()
			if waitErr := t.transport.WaitForDevice(budgetCtx); waitErr != nil {
				if budgetCtx.Err() != nil {
					st = stateDone
					continue
				}
				slog.Warn("wait for device failed, retrying", "channel", label, "error", waitErr)
				continue
			}
			slog.Info("device reconnected", "channel", label, "reconnects", s.reconnects)
			st = stateInit
		}
	}

	if proc != nil {
		if termErr := proc.Terminate(); termErr != nil {
			slog.Debug("failed to terminate log process", "channel", label, "error", termErr)
		}
	}
	cancel()
	expired.Wait()

	res := s.result()
	select {
	case <-timedOut:
		if !s.finished() {
			res.TimedOut = true
			tailerTimeoutsTotal.WithLabelValues(label).Inc()
			slog.Warn("timeout waiting for stop events",
				"channel", label,
				"max_wait", req.MaxWait,
				"remaining", res.Remaining,
				"events", res.Events.Names(),
				"timing_keys", res.Samples.Keys())
		}
	default:
	}
	if err == nil && ctx.Err() != nil && !s.finished() {
		err = errors.WrapWithContext(errors.ErrCodeCanceled, "tail interrupted", ctx.Err(),
			map[string]any{"channel": label, "remaining": res.Remaining})
	}
	return res, err
}

// session is the mutable state of one Tail call. It is owned by the
// calling goroutine.
type session struct {
	req        Request
	library    *pattern.Library
	events     *event.Table
	samples    *event.Samples
	zygotes    *zygote.Disambiguator
	pending    []string
	stopped    bool
	seen       map[string]struct{}
	zygote     bool
	anyLine    bool
	lines      int
	reconnects int
}

func newSession(req Request, lib *pattern.Library) *session {
	pending := make([]string, 0, len(req.StopEvents))
	for _, n := range req.StopEvents {
		if !slices.Contains(pending, n) {
			pending = append(pending, n)
		}
	}
	return &session{
		req:     req,
		library: lib,
		events:  event.NewTable(),
		samples: event.NewSamples(),
		zygotes: zygote.New(),
		pending: pending,
		seen:    make(map[string]struct{}),
	}
}

func (s *session) finished() bool {
	return s.stopped || len(s.pending) == 0
}

func (s *session) pendingList() []string {
	if s.stopped {
		return nil
	}
	return slices.Clone(s.pending)
}

func (s *session) process(raw string) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return
	}
	s.lines++
	label := s.req.Channel.String()
	if !s.anyLine {
		s.anyLine = true
		slog.Info("collecting data samples", "channel", label)
	}
	if _, dup := s.seen[line]; dup {
		tailerReplayedTotal.WithLabelValues(label).Inc()
		return
	}

	matched := false
	if name, ok := s.library.Events.Match(line); ok {
		matched = true
		tailerEventsTotal.WithLabelValues(label).Inc()
		ev := event.NewRawEvent(s.req.Channel, line)
		stored := name
		switch {
		case name == ZygoteStartEvent:
			s.events.Set(name, ev)
			s.zygote = true
		case zygote.IsZygoteEvent(name):
			stored = s.zygotes.Record(s.events, name, ev)
		default:
			stored = s.events.UniqueName(name)
			s.events.Set(stored, ev)
		}
		slog.Debug("event captured", "channel", label, "event", stored, "line", line)
		s.stop(name)
	}

	if key, ok := s.library.Timings.Match(line); ok {
		matched = true
		if !s.req.DisableTimingAfterZygote || !s.zygote {
			s.samples.Append(key, line)
			slog.Debug("timing captured", "channel", label, "key", key, "line", line)
		}
	}

	if matched {
		s.seen[line] = struct{}{}
	}
}

func (s *session) stop(name string) {
	i := slices.Index(s.pending, name)
	if i < 0 || s.stopped {
		return
	}
	if !s.req.CollectsAll {
		s.stopped = true
		slog.Info("stop event seen", "channel", s.req.Channel, "event", name)
		return
	}
	s.pending = slices.Delete(s.pending, i, i+1)
	slog.Info("stop event seen", "channel", s.req.Channel, "event", name, "remaining", s.pending)
}

func (s *session) result() *Result {
	return &Result{
		Channel:    s.req.Channel,
		Events:     s.events,
		Samples:    s.samples,
		Remaining:  s.pendingList(),
		Reconnects: s.reconnects,
		Lines:      s.lines,
	}
}
