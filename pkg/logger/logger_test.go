// Copyright 2026 The Paperdex Authors
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

package logger

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseLevel(tt.input), tt.input)
	}
}

func TestTextHandler_Simple(t *testing.T) {
	var buf strings.Builder
	h := &textHandler{
		handler: slog.NewTextHandler(&buf, nil),
		writer:  &buf,
	}

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "Robot starting", 0)
	record.AddAttrs(slog.String("robot", "pdf-extractor"))
	require.NoError(t, h.Handle(context.Background(), record))

	assert.Equal(t, "INFO Robot starting robot=pdf-extractor\n", buf.String())
}

func TestTextHandler_VerboseAddsTimestamp(t *testing.T) {
	var buf strings.Builder
	h := &textHandler{
		handler: slog.NewTextHandler(&buf, nil),
		writer:  &buf,
		verbose: true,
	}

	ts := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	record := slog.NewRecord(ts, slog.LevelWarn, "Handler failed", 0)
	require.NoError(t, h.Handle(context.Background(), record))

	assert.Equal(t, "2026/03/01 12:30:00 WARN Handler failed\n", buf.String())
}

func TestTextHandler_WarningRendersAsWarn(t *testing.T) {
	var buf strings.Builder
	h := &textHandler{
		handler: slog.NewTextHandler(&buf, nil),
		writer:  &buf,
	}

	record := slog.NewRecord(time.Time{}, slog.LevelWarn, "careful", 0)
	require.NoError(t, h.Handle(context.Background(), record))

	assert.True(t, strings.HasPrefix(buf.String(), "WARN "))
}
