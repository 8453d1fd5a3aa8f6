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
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/bootanalyze/pkg/logging"
)

const (
	name           = "bootanalyze"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Execute runs the command tree with a context canceled on SIGINT/SIGTERM.
// It is called by main.main().
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, stopping capture...")
		cancel()
	}()

	if err := newRootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Usage:                 "Measure Android boot performance from kernel and user logs",
		Version:               fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		EnableShellCompletion: true,
		Description: `bootanalyze tails the kernel log (dmesg) and the user log (logcat) of a
device over adb, matches boot events and durations against a pattern
configuration, translates user log timestamps into kernel time and prints
the boot timeline.

Without a command it runs "run" with the flags given.

# Examples

Measure the current boot:
  bootanalyze

Reboot five times and write the aggregated report to a ConfigMap:
  bootanalyze -n 5 --output cm://boot/last-run --format yaml

Capture a bug report when a duration exceeds its limit:
  bootanalyze --reboot --monitor PackageManagerInit=2000,BootComplete=15000`,
		Flags:  append(globalFlags(), runFlags(true)...),
		Before: initLogger,
		Action: runAction,
		Commands: []*cli.Command{
			runCmd(),
			checkConfigCmd(),
			shutdownCmd(),
		},
	}
}

// initLogger configures slog once flags are parsed so --log-level and
// --debug apply before any command runs.
func initLogger(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level := cmd.String(flagLogLevel)
	if cmd.Bool(flagDebug) {
		level = "debug"
	}
	logging.SetDefaultStructuredLoggerWithLevel(name, version, level)
	return ctx, nil
}
