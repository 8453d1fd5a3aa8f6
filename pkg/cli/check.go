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
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/bootanalyze/pkg/analyzer"
	"github.com/NVIDIA/bootanalyze/pkg/header"
	"github.com/NVIDIA/bootanalyze/pkg/pattern"
	"github.com/NVIDIA/bootanalyze/pkg/serializer"
)

// PatternSummary describes a compiled pattern configuration.
type PatternSummary struct {
	header.Header `json:",inline" yaml:",inline"`

	TimeCorrectionKey string   `json:"timeCorrectionKey,omitempty" yaml:"timeCorrectionKey,omitempty"`
	Events            []string `json:"events" yaml:"events"`
	Timings           []string `json:"timings" yaml:"timings"`
	ShutdownEvents    []string `json:"shutdownEvents" yaml:"shutdownEvents"`
	KernelStopEvents  []string `json:"kernelStopEvents" yaml:"kernelStopEvents"`
	UserStopEvents    []string `json:"userStopEvents" yaml:"userStopEvents"`
}

// RenderTable writes the summary as one line per group.
func (s *PatternSummary) RenderTable(w io.Writer) error {
	rows := []struct {
		name  string
		names []string
	}{
		{"events", s.Events},
		{"timings", s.Timings},
		{"shutdown events", s.ShutdownEvents},
		{"kernel stop events", s.KernelStopEvents},
		{"user stop events", s.UserStopEvents},
	}
	if s.TimeCorrectionKey != "" {
		if _, err := fmt.Fprintf(w, "time correction key: %s\n", s.TimeCorrectionKey); err != nil {
			return err
		}
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%s (%d): %v\n", r.name, len(r.names), r.names); err != nil {
			return err
		}
	}
	return nil
}

func newPatternSummary(lib *pattern.Library, kernel, user []string) *PatternSummary {
	return &PatternSummary{
		Header: *header.New(
			header.WithKind(header.KindPatternConfig),
			header.WithMetadata(header.MetadataVersion, version)),
		TimeCorrectionKey: lib.TimeCorrectionKey,
		Events:            lib.Events.Names(),
		Timings:           lib.Timings.Names(),
		ShutdownEvents:    lib.Shutdown.Names(),
		KernelStopEvents:  kernel,
		UserStopEvents:    user,
	}
}

func checkConfigCmd() *cli.Command {
	return &cli.Command{
		Name:                  "check-config",
		EnableShellCompletion: true,
		Usage:                 "Validate a pattern configuration without touching a device.",
		Description: `Load and compile the pattern configuration, then check that it defines
every stop event the given options need. Prints a summary of the pattern
names on success.

Examples:

  bootanalyze check-config
  bootanalyze check-config --config patterns.yaml --fs-check --carwatchdog
  bootanalyze check-config --config cm://boot/patterns --format json`,
		Flags: append([]cli.Flag{
			configFlag(false),
			&cli.BoolFlag{
				Name:  flagFsCheck,
				Usage: "Also require the fs_stat stop event",
			},
			&cli.BoolFlag{
				Name:  flagCarWatchdog,
				Usage: "Also require the car watchdog stop event",
			},
		}, outputFlags(false)...),
		Action: checkConfigAction,
	}
}

func checkConfigAction(ctx context.Context, cmd *cli.Command) error {
	outFormat, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}
	lib, err := loadLibrary(cmd.String(flagConfig), cmd.String(flagKubeconfig))
	if err != nil {
		return err
	}

	opts, err := optionsFromCmd(cmd)
	if err != nil {
		return err
	}
	opts.FsCheck = cmd.Bool(flagFsCheck)
	opts.CarWatchdog = cmd.Bool(flagCarWatchdog)

	kernel, user := analyzer.StopEvents(opts)
	if err := lib.RequireEvents(append(kernel, user...)...); err != nil {
		return err
	}
	slog.Debug("pattern configuration is valid",
		"events", lib.Events.Len(),
		"timings", lib.Timings.Len(),
		"shutdown_events", lib.Shutdown.Len())

	summary := newPatternSummary(lib, kernel, user)
	if cmd.String(flagOutput) != "" {
		return writeOutput(ctx, cmd, outFormat, summary)
	}
	return serializer.NewWriter(outFormat, cmd.Root().Writer).Serialize(ctx, summary)
}
