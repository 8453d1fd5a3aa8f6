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

package event

import (
	"regexp"
	"strconv"
)

// Channel identifies one of the two clock domains a line can come from.
type Channel string

const (
	// ChannelKernel is the kernel ring buffer, stamped with seconds since boot.
	ChannelKernel Channel = "kernel"
	// ChannelUser is the user-space log, stamped with epoch seconds.
	ChannelUser Channel = "user"
)

type timeExtractor func(line string) (float64, bool)

var (
	kernelTime = regexp.MustCompile(`\[\s*(\d+\.\d+)\]`)
	userTime   = regexp.MustCompile(`[0-9]+\.?[0-9]*`)
)

// extractors is the per-channel timestamp parser table.
var extractors = map[Channel]timeExtractor{
	ChannelKernel: func(line string) (float64, bool) {
		m := kernelTime.FindStringSubmatch(line)
		if m == nil {
			return 0, false
		}
		return parseSeconds(m[1])
	},
	ChannelUser: func(line string) (float64, bool) {
		m := userTime.FindString(line)
		if m == "" {
			return 0, false
		}
		return parseSeconds(m)
	},
}

func parseSeconds(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Channels returns every known channel.
func Channels() []Channel {
	return []Channel{ChannelKernel, ChannelUser}
}

// String returns the channel name.
func (c Channel) String() string {
	return string(c)
}

// IsValid reports whether c is a known channel.
func (c Channel) IsValid() bool {
	_, ok := extractors[c]
	return ok
}

// ParseTime extracts the channel-native timestamp from line.
func (c Channel) ParseTime(line string) (float64, bool) {
	ex, ok := extractors[c]
	if !ok {
		return 0, false
	}
	return ex(line)
}

// RawEvent is one matched line with its channel-native timestamp.
type RawEvent struct {
	Channel Channel
	Line    string
	Time    float64
	HasTime bool
}

// NewRawEvent parses the timestamp of line for channel c.
func NewRawEvent(c Channel, line string) RawEvent {
	t, ok := c.ParseTime(line)
	return RawEvent{
		Channel: c,
		Line:    line,
		Time:    t,
		HasTime: ok,
	}
}
