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
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/NVIDIA/bootanalyze/pkg/event"
)

// BootloaderKey names the summed bootloader stage time in the boot-time
// properties.
const BootloaderKey = "bootloader"

var (
	bootTimeProp   = regexp.MustCompile(`^\[ro\.boottime\.([^\]]+)\]:\s+\[(\d+)\]`)
	bootloaderProp = regexp.MustCompile(`^\[ro\.boot\.boottime\]:\s+\[([^\]]+)\]`)
)

// Properties reads the device boot-time properties, in seconds.
func (a *Adb) Properties(ctx context.Context) (*event.Values, error) {
	out, err := a.ShellAsRoot(ctx, "getprop")
	if err != nil {
		return nil, err
	}
	return ParseBootTimes(out), nil
}

// ParseBootTimes extracts boot-time properties from getprop output.
// ro.boottime.init.* values are milliseconds, other ro.boottime.* values are
// nanoseconds. The ro.boot.boottime stage list is summed, without the "SW"
// stage, into BootloaderKey. The result holds BootloaderKey first, when non
// zero, followed by the rest ordered by value.
func ParseBootTimes(out string) *event.Values {
	props := event.NewValues()
	bootloader := 0.0

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if m := bootTimeProp.FindStringSubmatch(line); m != nil {
			v, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				continue
			}
			if strings.HasPrefix(m[1], "init.") {
				props.Set(m[1], v/1e3)
			} else {
				props.Set(m[1], v/1e9)
			}
			continue
		}
		if m := bootloaderProp.FindStringSubmatch(line); m != nil {
			for _, item := range strings.Split(m[1], ",") {
				name, ms, ok := strings.Cut(item, ":")
				if !ok {
					slog.Debug("malformed bootloader stage", "item", item)
					continue
				}
				v, err := strconv.ParseFloat(strings.TrimSpace(ms), 64)
				if err != nil {
					slog.Debug("malformed bootloader stage", "item", item)
					continue
				}
				if strings.TrimSpace(name) != "SW" {
					bootloader += v / 1e3
				}
			}
		}
	}

	ordered := event.NewValues()
	if bootloader != 0 {
		ordered.Set(BootloaderKey, bootloader)
	}
	for _, e := range props.SortedByValue().Entries() {
		ordered.Set(e.Name, e.Value)
	}
	return ordered
}
