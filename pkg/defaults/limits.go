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

package defaults

const (
	// MaxRetries is how many times an iteration is attempted when the two
	// clock domains cannot be correlated.
	MaxRetries = 5

	// Iterations is the default number of measurement iterations.
	Iterations = 1

	// NegativeOvershootTolerance is the largest negative corrected time, in
	// seconds, that is clamped to zero. Larger overshoots fall back to the
	// previous anchor's offset.
	NegativeOvershootTolerance = 0.1

	// TimingPrintThreshold is the smallest duration, in milliseconds, listed
	// in the "top items" timing dumps.
	TimingPrintThreshold = 5.0

	// ContentionPrintThreshold is the smallest monitor contention, in
	// milliseconds, listed in the contention dump.
	ContentionPrintThreshold = 100.0

	// FsStatCleanMask covers the fs_stat bits that do not indicate a problem.
	FsStatCleanMask = 0x17
)
