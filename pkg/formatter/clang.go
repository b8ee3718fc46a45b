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
	"context"
	"encoding/xml"
	"os/exec"

	"github.com/rs/zerolog"
	"github.com/walteh/blamefmt/pkg/edit"
	"gitlab.com/tozd/go/errors"
)

// 🔧 ClangFormat asks clang-format for its replacement list instead of the
// formatted file, so offsets come straight from the formatter.
type ClangFormat struct {
	binary string
	style  string
	dir    string
}

var _ Formatter = (*ClangFormat)(nil)

func NewClangFormat(opts Options) (*ClangFormat, error) {
	name := opts.Binary
	if name == "" {
		name = "clang-format"
	}
	bin, err := exec.LookPath(name)
	if err != nil {
		return nil, errors.Errorf("finding %s: %w", name, err)
	}
	style := opts.Style
	if style == "" {
		style = "file"
	}
	return &ClangFormat{binary: bin, style: style, dir: opts.Dir}, nil
}

func (c *ClangFormat) Name() string {
	return KindClangFormat
}

func (c *ClangFormat) Replacements(ctx context.Context, path string, content []byte) ([]edit.Raw, error) {
	out, err := run(ctx, c.dir, []string{
		c.binary,
		"--output-replacements-xml",
		"--style=" + c.style,
		"--assume-filename=" + path,
	}, content)
	if err != nil {
		return nil, err
	}

	raws, incomplete, err := ParseReplacementsXML(out)
	if err != nil {
		return nil, errors.Errorf("%w: %s: %w", ErrFormatterFailed, path, err)
	}
	if incomplete {
		zerolog.Ctx(ctx).Warn().Str("path", path).Msg("clang-format reported incomplete formatting")
	}
	return raws, nil
}

type replacementsXML struct {
	XMLName          xml.Name `xml:"replacements"`
	IncompleteFormat bool     `xml:"incomplete_format,attr"`
	Replacements     []struct {
		Offset int    `xml:"offset,attr"`
		Length int    `xml:"length,attr"`
		Text   string `xml:",chardata"`
	} `xml:"replacement"`
}

// 📜 ParseReplacementsXML parses the output of clang-format
// --output-replacements-xml.
//
//	<?xml version='1.0'?>
//	<replacements xml:space='preserve' incomplete_format='false'>
//	<replacement offset='12' length='3'>&#10;  </replacement>
//	</replacements>
func ParseReplacementsXML(data []byte) ([]edit.Raw, bool, error) {
	var doc replacementsXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, false, errors.Errorf("decoding replacements: %w", err)
	}

	raws := make([]edit.Raw, 0, len(doc.Replacements))
	for _, r := range doc.Replacements {
		raws = append(raws, edit.Raw{Offset: r.Offset, Length: r.Length, Text: []byte(r.Text)})
	}
	return raws, doc.IncompleteFormat, nil
}
