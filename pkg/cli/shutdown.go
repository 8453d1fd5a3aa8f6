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
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/bootanalyze/pkg/analyzer"
	"github.com/NVIDIA/bootanalyze/pkg/device"
	"github.com/NVIDIA/bootanalyze/pkg/header"
	"github.com/NVIDIA/bootanalyze/pkg/report"
)

func shutdownCmd() *cli.Command {
	return &cli.Command{
		Name:                  "shutdown",
		EnableShellCompletion: true,
		Usage:                 "Reboot the device once and report its shutdown events.",
		Description: `Follow the user log while the device shuts down and report the shutdown
events and durations seen. Durations above a --monitor limit mark the
capture as errored; the raw log is saved under --output-dir either way.

Examples:

  bootanalyze shutdown
  bootanalyze shutdown --monitor ShutdownBroadcast=3000 --output-dir /tmp/boot`,
		Flags:  append([]cli.Flag{configFlag(false)}, deviceFlags(false)...),
		Action: shutdownAction,
	}
}

func shutdownAction(ctx context.Context, cmd *cli.Command) error {
	opts, err := optionsFromCmd(cmd)
	if err != nil {
		return err
	}
	lib, err := loadLibrary(cmd.String(flagConfig), cmd.String(flagKubeconfig))
	if err != nil {
		return err
	}

	dev := device.New(opts.Serial, device.WithCommand(cmd.String(flagAdb)))
	a, err := analyzer.New(opts, lib, dev, analyzer.WithVersion(version))
	if err != nil {
		return err
	}

	res, err := a.RebootWithShutdown(ctx)
	rep := report.NewShutdownReport(res,
		header.WithMetadata(header.MetadataRunID, a.RunID()),
		header.WithMetadata(header.MetadataVersion, version),
		header.WithMetadata(header.MetadataSerial, dev.Serial()))
	if rerr := rep.RenderTable(cmd.Root().Writer); rerr != nil {
		slog.Warn("failed to print shutdown report", "error", rerr)
	}
	return err
}
