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
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // Base width for filename
	typeWidth   = 15 // Width for file status
	statusWidth = 15 // Width for detail text
)

// 🏷️ FileState is the outcome shown for a file
type FileState string

const (
	StateModified  FileState = "formatted"
	StatePlanned   FileState = "planned"
	StateSkipped   FileState = "skipped"
	StateFailed    FileState = "failed"
	StateAmbiguous FileState = "ambiguous"
)

// 🎯 FileOperation represents a file outcome for logging
type FileOperation struct {
	Path   string    // File path
	State  FileState // What happened
	Detail string    // Edit count, skip reason or error
	Edits  int       // Number of edits
}

// 📦 GroupOperation represents a replay group for logging
type GroupOperation struct {
	Author    string   // Author the group is committed as
	Untracked bool     // Whether this is the untracked group
	Commits   []string // Original commits merged into the group
	Files     int      // Files touched
	Edits     int      // Edits applied
	Commit    string   // Commit created, if any
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog       zerolog.Logger
	console    io.Writer
	quiet      bool
	mu         sync.Mutex
	operations []FileOperation
}

// 🏭 New creates a new logger that prints to console and mirrors every line
// into zlog.
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
	}
}

// WithQuiet suppresses per-file and per-group lines; summaries and errors
// are still printed.
func (l *Logger) WithQuiet(quiet bool) *Logger {
	l.quiet = quiet
	return l
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatFileOperation formats a file operation for display
func (l *Logger) formatFileOperation(op FileOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch op.State {
	case StateModified:
		symbol = '✓'
		symbolColor = color.FgGreen
	case StatePlanned:
		symbol = '⟳'
		symbolColor = color.FgBlue
	case StateFailed:
		symbol = '✗'
		symbolColor = color.FgRed
	case StateAmbiguous:
		symbol = '?'
		symbolColor = color.FgMagenta
	default:
		symbol = '-'
		symbolColor = color.FgYellow
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Path),
		color.New(color.FgCyan).Sprint(fmt.Sprintf("%-*s", typeWidth, op.State)),
		fmt.Sprintf("%-*s", statusWidth, op.Detail))
}

// 📝 LogFileOperation logs a file operation
func (l *Logger) LogFileOperation(ctx context.Context, op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.operations = append(l.operations, op)

	if !l.quiet || op.State == StateFailed {
		fmt.Fprintln(l.console, l.formatFileOperation(op))
	}

	ev := l.zlog.Info()
	if op.State == StateFailed {
		ev = l.zlog.Error()
	}
	ev.Str("path", op.Path).
		Str("state", string(op.State)).
		Str("detail", op.Detail).
		Int("edits", op.Edits).
		Msg("file operation")
}

// 📝 LogGroup logs a replayed group
func (l *Logger) LogGroup(ctx context.Context, op GroupOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	name := op.Author
	if op.Untracked {
		name = "untracked (" + op.Author + ")"
	}

	commit := color.New(color.Faint).Sprint("no commit")
	if op.Commit != "" {
		commit = color.New(color.FgYellow).Sprint(shortHash(op.Commit))
	}

	if !l.quiet {
		fmt.Fprintf(l.console, "%s %s %s %d edits in %d files %s %s\n",
			color.New(color.FgMagenta).Sprint("◆"),
			color.New(color.Bold).Sprint(name),
			color.New(color.Faint).Sprint("•"),
			op.Edits,
			op.Files,
			color.New(color.Faint).Sprint("•"),
			commit)
	}

	short := make([]string, 0, len(op.Commits))
	for _, c := range op.Commits {
		short = append(short, shortHash(c))
	}

	l.zlog.Info().
		Str("author", op.Author).
		Bool("untracked", op.Untracked).
		Str("commits", strings.Join(short, ",")).
		Int("files", op.Files).
		Int("edits", op.Edits).
		Str("commit", op.Commit).
		Msg("group replayed")
}

// Operations returns every file operation logged so far
func (l *Logger) Operations() []FileOperation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]FileOperation(nil), l.operations...)
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("blamefmt")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Summary logs the end of run summary
func (l *Logger) Summary(msg string, failed bool) {
	if failed {
		l.Error(msg)
		return
	}
	l.Success(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.quiet {
		fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	}
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}

func shortHash(h string) string {
	if len(h) > 10 {
		return h[:10]
	}
	return h
}
