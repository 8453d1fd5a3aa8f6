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

package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeNotFound, "event not captured")

	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "event not captured" {
		t.Errorf("expected message 'event not captured', got %s", err.Message)
	}
	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("adb: device offline")
	err := Wrap(ErrCodeTransport, "logcat exited", cause)

	if err.Code != ErrCodeTransport {
		t.Errorf("expected code %s, got %s", ErrCodeTransport, err.Code)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be wrapped")
	}
}

func TestWrapWithContext(t *testing.T) {
	cause := context.DeadlineExceeded
	ctx := map[string]any{
		"channel": "user",
		"pending": []string{"BootComplete"},
	}

	err := WrapWithContext(ErrCodeTimeout, "stop events not seen", cause, ctx)

	if err.Code != ErrCodeTimeout {
		t.Errorf("expected code %s, got %s", ErrCodeTimeout, err.Code)
	}
	if err.Context == nil {
		t.Fatal("expected context to be set")
	}
	if err.Context["channel"] != "user" {
		t.Errorf("expected channel to be user")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded in chain")
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		err      *StructuredError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(ErrCodeCorrelation, "no bridging event"),
			expected: "[CORRELATION] no bridging event",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeInvalidConfig, "bad pattern", errors.New("missing )")),
			expected: "[INVALID_CONFIG] bad pattern: missing )",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestHasCode(t *testing.T) {
	inner := New(ErrCodeCorrelation, "no bridging event")
	outer := Wrap(ErrCodeInternal, "iteration failed", inner)
	plain := fmt.Errorf("iteration 2: %w", outer)

	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"outer code", outer, ErrCodeInternal, true},
		{"inner code", outer, ErrCodeCorrelation, true},
		{"through fmt wrapping", plain, ErrCodeCorrelation, true},
		{"absent code", outer, ErrCodeTimeout, false},
		{"plain error", errors.New("x"), ErrCodeInternal, false},
		{"nil error", nil, ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasCode(tt.err, tt.code); got != tt.want {
				t.Errorf("HasCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", New(ErrCodeCanceled, "interrupted"))
	if got := CodeOf(err); got != ErrCodeCanceled {
		t.Errorf("CodeOf() = %s, want %s", got, ErrCodeCanceled)
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("CodeOf() = %s, want empty", got)
	}
}
