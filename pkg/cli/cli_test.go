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

package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/bootanalyze/pkg/config"
	"github.com/NVIDIA/bootanalyze/pkg/defaults"
	"github.com/NVIDIA/bootanalyze/pkg/serializer"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    serializer.Format
		wantErr bool
	}{
		{name: "default", args: []string{"test"}, want: serializer.FormatYAML},
		{name: "json", args: []string{"test", "--format", "json"}, want: serializer.FormatJSON},
		{name: "table", args: []string{"test", "-t", "table"}, want: serializer.FormatTable},
		{name: "unknown", args: []string{"test", "--format", "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				got    serializer.Format
				gotErr error
			)
			cmd := &cli.Command{
				Name:  "test",
				Flags: outputFlags(false),
				Action: func(_ context.Context, cmd *cli.Command) error {
					got, gotErr = parseOutputFormat(cmd)
					return nil
				},
			}
			require.NoError(t, cmd.Run(context.Background(), tt.args))
			if tt.wantErr {
				assert.Error(t, gotErr)
				return
			}
			require.NoError(t, gotErr)
			assert.Equal(t, tt.want, got)
		})
	}
}

func runOptions(t *testing.T, args ...string) (config.Options, error) {
	t.Helper()
	var (
		opts   config.Options
		optErr error
	)
	cmd := &cli.Command{
		Name:  "test",
		Flags: runFlags(false),
		Action: func(_ context.Context, cmd *cli.Command) error {
			opts, optErr = optionsFromCmd(cmd)
			return nil
		},
	}
	require.NoError(t, cmd.Run(context.Background(), append([]string{"test"}, args...)))
	return opts, optErr
}

func TestOptionsFromCmd_Defaults(t *testing.T) {
	opts, err := runOptions(t)
	require.NoError(t, err)

	assert.Equal(t, defaults.Iterations, opts.Iterations)
	assert.Equal(t, defaults.MaxWaitTime, opts.MaxWait)
	assert.Equal(t, defaults.ErrorTime, opts.ErrorTime)
	assert.Equal(t, defaults.MaxRetries, opts.Retries)
	assert.True(t, opts.Timings)
	assert.False(t, opts.Reboot)
	assert.Equal(t, ".", opts.OutputDir)
	assert.Equal(t, ".", opts.BugreportDir)
	assert.Empty(t, opts.Limits)
}

func TestOptionsFromCmd_Flags(t *testing.T) {
	opts, err := runOptions(t,
		"-n", "3",
		"-s", "emulator-5554",
		"--max-wait", "90s",
		"--error-time", "45.5",
		"--retries", "2",
		"--timings=false",
		"--fs-check",
		"--monitor", "BootComplete=15000, PackageManagerInit=2000",
		"--output-dir", "/tmp/boot")
	require.NoError(t, err)

	assert.Equal(t, 3, opts.Iterations)
	assert.True(t, opts.Reboot, "more than one iteration reboots")
	assert.Equal(t, "emulator-5554", opts.Serial)
	assert.Equal(t, 90*time.Second, opts.MaxWait)
	assert.InDelta(t, 45.5, opts.ErrorTime, 1e-9)
	assert.Equal(t, 2, opts.Retries)
	assert.False(t, opts.Timings)
	assert.True(t, opts.FsCheck)
	assert.Equal(t, "/tmp/boot", opts.BugreportDir)
	assert.Equal(t, []config.Limit{
		{Name: "BootComplete", Value: 15000},
		{Name: "PackageManagerInit", Value: 2000},
	}, opts.Limits)
}

func TestOptionsFromCmd_Invalid(t *testing.T) {
	_, err := runOptions(t, "--iterations", "0")
	assert.Error(t, err)

	_, err = runOptions(t, "--monitor", "BootComplete")
	assert.Error(t, err)
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd()
	assert.Equal(t, name, root.Name)
	assert.NotNil(t, root.Action)

	names := make([]string, 0, len(root.Commands))
	for _, c := range root.Commands {
		names = append(names, c.Name)
		assert.NotNil(t, c.Action, c.Name)
	}
	assert.Equal(t, []string{"run", "check-config", "shutdown"}, names)

	assert.True(t, hasFlag(root, flagIterations))
	assert.True(t, hasFlag(root, flagLogLevel))
	assert.False(t, hasFlag(root.Commands[2], flagIterations))
}

func TestCheckConfig_Default(t *testing.T) {
	var buf bytes.Buffer
	root := newRootCmd()
	root.Writer = &buf

	err := root.Run(context.Background(), []string{name, "check-config", "--fs-check", "--carwatchdog"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "kind: PatternConfig")
	assert.Contains(t, out, "BootComplete_kernel")
	assert.Contains(t, out, "CarWatchdogBootupProfilingComplete")
	assert.Contains(t, out, "timeCorrectionKey: correction")
}

func TestCheckConfig_MissingFile(t *testing.T) {
	root := newRootCmd()
	root.Writer = &bytes.Buffer{}

	err := root.Run(context.Background(), []string{name, "check-config", "--config", "/does/not/exist.yaml"})
	assert.Error(t, err)
}

func TestPatternSummary_RenderTable(t *testing.T) {
	s := &PatternSummary{
		TimeCorrectionKey: "correction",
		Events:            []string{"a", "b"},
		Timings:           []string{"t"},
	}
	var buf bytes.Buffer
	require.NoError(t, s.RenderTable(&buf))
	assert.Contains(t, buf.String(), "time correction key: correction")
	assert.Contains(t, buf.String(), "events (2): [a b]")
	assert.Contains(t, buf.String(), "shutdown events (0): []")
}

func TestWriteMetrics(t *testing.T) {
	require.NoError(t, writeMetrics(""))

	path := t.TempDir() + "/metrics.prom"
	require.NoError(t, writeMetrics(path))
}
