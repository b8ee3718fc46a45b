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

package formatter

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/walteh/blamefmt/pkg/edit"
	"gitlab.com/tozd/go/errors"
)

// 🔧 Command runs any formatter that reads a file on stdin and prints the
// formatted file. The replacements are recovered with a diff.
type Command struct {
	argv []string
	dir  string
}

var _ Formatter = (*Command)(nil)

func NewCommand(opts Options) (*Command, error) {
	if len(opts.Command) == 0 {
		return nil, errors.Errorf("command formatter needs a command")
	}
	bin, err := exec.LookPath(opts.Command[0])
	if err != nil {
		return nil, errors.Errorf("finding %s: %w", opts.Command[0], err)
	}
	argv := append([]string{bin}, opts.Command[1:]...)
	return &Command{argv: argv, dir: opts.Dir}, nil
}

func (c *Command) Name() string {
	return KindCommand
}

func (c *Command) Replacements(ctx context.Context, path string, content []byte) ([]edit.Raw, error) {
	argv := make([]string, len(c.argv))
	for i, a := range c.argv {
		argv[i] = strings.ReplaceAll(a, "{path}", path)
	}

	formatted, err := run(ctx, c.dir, argv, content)
	if err != nil {
		return nil, err
	}
	return Diff(content, formatted), nil
}

// 🔀 Diff returns raw replacements that turn original into formatted. Every
// run of deletions and insertions between two equal spans becomes one
// replacement.
//
// Content that is not valid UTF-8 is returned as a single whole-file
// replacement; normalization shrinks it afterwards.
func Diff(original, formatted []byte) []edit.Raw {
	if bytes.Equal(original, formatted) {
		return nil
	}
	if !utf8.Valid(original) || !utf8.Valid(formatted) {
		return []edit.Raw{{Offset: 0, Length: len(original), Text: bytes.Clone(formatted)}}
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(original), string(formatted), false)

	var (
		raws    []edit.Raw
		offset  int
		pending *edit.Raw
	)
	flush := func() {
		if pending != nil {
			raws = append(raws, *pending)
			pending = nil
		}
	}
	open := func() {
		if pending == nil {
			pending = &edit.Raw{Offset: offset, Text: []byte{}}
		}
	}

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			offset += len(d.Text)
		case diffmatchpatch.DiffDelete:
			open()
			pending.Length += len(d.Text)
			offset += len(d.Text)
		case diffmatchpatch.DiffInsert:
			open()
			pending.Text = append(pending.Text, d.Text...)
		}
	}
	flush()

	return raws
}
