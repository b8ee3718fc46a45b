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

// Package formatter runs external formatters and turns their output into raw
// replacements.
package formatter

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/blamefmt/pkg/edit"
	"gitlab.com/tozd/go/errors"
)

// ErrFormatterFailed is returned when the formatter process exits non-zero or
// prints something that cannot be parsed.
var ErrFormatterFailed = errors.Base("formatter failed")

const (
	KindClangFormat = "clang-format"
	KindCommand     = "command"
)

// 🎨 Formatter produces the replacements that would format one file.
type Formatter interface {
	Name() string
	// Replacements returns raw edits against content in file order. path is
	// relative to Options.Dir and is only used for style lookup.
	Replacements(ctx context.Context, path string, content []byte) ([]edit.Raw, error)
}

// Options configures a formatter.
type Options struct {
	// Kind is KindClangFormat or KindCommand.
	Kind string
	// Binary overrides the clang-format executable.
	Binary string
	// Style is passed to clang-format as --style.
	Style string
	// Command is the argv of a formatter that reads stdin and prints the
	// formatted file. "{path}" in an argument is replaced with the file path.
	Command []string
	// Dir is the working directory formatters run in.
	Dir string
}

// 🏭 New returns the formatter described by opts.
func New(opts Options) (Formatter, error) {
	switch opts.Kind {
	case "", KindClangFormat:
		return NewClangFormat(opts)
	case KindCommand:
		return NewCommand(opts)
	default:
		return nil, errors.Errorf("unknown formatter %q, options: %s", opts.Kind, strings.Join([]string{KindClangFormat, KindCommand}, ", "))
	}
}

// run pipes stdin through argv and returns stdout.
func run(ctx context.Context, dir string, argv []string, stdin []byte) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	zerolog.Ctx(ctx).Trace().Strs("argv", argv).Msg("running formatter")

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Errorf("running %s: %w", argv[0], ctx.Err())
		}
		return nil, errors.Errorf("%w: %s: %s: %w", ErrFormatterFailed, argv[0], strings.TrimSpace(stderr.String()), err)
	}
	return stdout.Bytes(), nil
}
