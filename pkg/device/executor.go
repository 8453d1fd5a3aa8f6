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

package device

import (
	"bufio"
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/NVIDIA/bootanalyze/pkg/defaults"
	"github.com/NVIDIA/bootanalyze/pkg/tailer"
)

// maxLineBytes bounds a single log line; logcat can emit very long lines.
const maxLineBytes = 1024 * 1024

// Executor abstracts command execution for testability.
type Executor interface {
	// ExecuteCommand runs command to completion and returns its combined output.
	ExecuteCommand(ctx context.Context, command string, args []string) ([]byte, error)
	// StreamCommand starts command and streams its stdout line by line.
	StreamCommand(ctx context.Context, command string, args []string) (tailer.Process, error)
}

// execExecutor implements Executor using os/exec.
type execExecutor struct{}

func (execExecutor) ExecuteCommand(ctx context.Context, command string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	return cmd.CombinedOutput()
}

func (execExecutor) StreamCommand(ctx context.Context, command string, args []string) (tailer.Process, error) {
	pctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(pctx, command, args...)
	// interrupt first so adb can tear down the remote side, kill after the grace period
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = defaults.ProcessStopTimeout

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, err
	}

	p := &execProcess{
		cmd:    cmd,
		cancel: cancel,
		lines:  make(chan string, 256),
		done:   make(chan struct{}),
	}
	go p.read(pctx, stdout)
	return p, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	lines  chan string
	done   chan struct{}
	err    error
}

func (p *execProcess) Lines() <-chan string {
	return p.lines
}

func (p *execProcess) read(ctx context.Context, r io.Reader) {
	defer close(p.done)
	defer close(p.lines)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	for sc.Scan() {
		select {
		case p.lines <- sc.Text():
		case <-ctx.Done():
			p.err = p.cmd.Wait()
			return
		}
	}
	if err := sc.Err(); err != nil {
		slog.Debug("log stream read ended", "command", p.cmd.Path, "error", err)
	}
	p.err = p.cmd.Wait()
}

// Terminate stops the process and waits for it to exit. Exit statuses are
// expected here and not reported.
func (p *execProcess) Terminate() error {
	p.cancel()
	<-p.done
	var exitErr *exec.ExitError
	if p.err != nil && !stderrors.As(p.err, &exitErr) && !stderrors.Is(p.err, context.Canceled) {
		return p.err
	}
	return nil
}
