// Copyright 2025 walteh LLC
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

package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileLine(symbol, path, state, detail string) string {
	return fmt.Sprintf("    %s %-35s %-15s %-15s", symbol, path, state, detail)
}

func TestLogger(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		quiet    bool
		op       func(t *testing.T, logger *Logger)
		wantLogs []string
	}{
		{
			name: "log_file_operation",
			op: func(t *testing.T, logger *Logger) {
				logger.LogFileOperation(context.Background(), FileOperation{
					Path:   "src/a.c",
					State:  StateModified,
					Detail: "3 edits",
					Edits:  3,
				})
			},
			wantLogs: []string{
				fileLine("✓", "src/a.c", "formatted", "3 edits"),
			},
		},
		{
			name: "log_group",
			op: func(t *testing.T, logger *Logger) {
				logger.LogGroup(context.Background(), GroupOperation{
					Author:  "Alice <alice@example.com>",
					Commits: []string{"0123456789abcdef", "fedcba9876543210"},
					Files:   2,
					Edits:   7,
					Commit:  "aaaaaaaaaaaaaaaa",
				})
				logger.LogGroup(context.Background(), GroupOperation{
					Author:    "Robot",
					Untracked: true,
					Files:     1,
					Edits:     1,
				})
			},
			wantLogs: []string{
				"◆ Alice <alice@example.com> • 7 edits in 2 files • aaaaaaaaaa",
				"◆ untracked (Robot) • 1 edits in 1 files • no commit",
			},
		},
		{
			name:  "quiet_keeps_failures_and_summary",
			quiet: true,
			op: func(t *testing.T, logger *Logger) {
				logger.LogFileOperation(context.Background(), FileOperation{Path: "a.c", State: StateModified})
				logger.LogFileOperation(context.Background(), FileOperation{Path: "b.c", State: StateFailed, Detail: "denied"})
				logger.Info("hidden")
				logger.Summary("1 formatted", false)
			},
			wantLogs: []string{
				fileLine("✗", "b.c", "failed", "denied"),
				"✅ 1 formatted",
			},
		},
		{
			name: "log_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("info message")
				logger.Warning("warning message")
				logger.Error("error message")
				logger.Success("success message")
			},
			wantLogs: []string{
				"ℹ️  info message",
				"⚠️  warning message",
				"❌ error message",
				"✅ success message",
			},
		},
		{
			name: "log_formatted_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Infof("info %s", "test")
				logger.Warningf("warning %s", "test")
				logger.Errorf("error %s", "test")
				logger.Successf("success %s", "test")
			},
			wantLogs: []string{
				"ℹ️  info test",
				"⚠️  warning test",
				"❌ error test",
				"✅ success test",
			},
		},
		{
			name: "log_header",
			op: func(t *testing.T, logger *Logger) {
				logger.Header("formatting 12 files")
			},
			wantLogs: []string{
				"",
				"blamefmt • formatting 12 files",
				"",
			},
		},
		{
			name: "failed_summary",
			op: func(t *testing.T, logger *Logger) {
				logger.Summary("0 formatted, 1 failed", true)
			},
			wantLogs: []string{
				"❌ 0 formatted, 1 failed",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := New(buf, zerolog.Nop()).WithQuiet(tt.quiet)

			tt.op(t, logger)

			lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
			require.Equal(t, len(tt.wantLogs), len(lines), "number of log lines should match: %q", buf.String())
			for i, want := range tt.wantLogs {
				assert.Equal(t, want, lines[i], "log line %d should match", i)
			}
		})
	}
}

func TestLoggerMirrorsToZerolog(t *testing.T) {
	var zbuf bytes.Buffer
	logger := New(io.Discard, zerolog.New(&zbuf))

	logger.LogFileOperation(context.Background(), FileOperation{Path: "a.c", State: StateSkipped, Detail: "oversized"})
	assert.Contains(t, zbuf.String(), `"path":"a.c"`)
	assert.Contains(t, zbuf.String(), `"state":"skipped"`)
	assert.Len(t, logger.Operations(), 1)
}

func TestLoggerContext(t *testing.T) {
	logger := New(io.Discard, zerolog.Nop())

	ctx := NewContext(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx), "logger from context should be the same instance")

	assert.Panics(t, func() {
		FromContext(context.Background())
	}, "FromContext should panic when logger is missing")
}
