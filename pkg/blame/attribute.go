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

package blame

import (
	"bytes"
	"sort"

	"github.com/walteh/blamefmt/pkg/edit"
	"gitlab.com/tozd/go/errors"
)

// 🔎 Attributor maps byte offsets of one file to the commits that last touched
// those lines. It is built once per file and reused for all of its edits.
type Attributor struct {
	path     string
	newlines []int    // offsets of every '\n' in the original bytes
	lines    int      // number of lines in the original bytes
	byLine   []*Entry // 1-based line -> owning entry; index 0 unused
}

// 🏭 NewAttributor expands entries into a line lookup for original.
func NewAttributor(path string, original []byte, entries []Entry) (*Attributor, error) {
	if LineCount(entries) == 0 {
		return nil, errors.Errorf("%w: %s", ErrNoBlame, path)
	}

	byLine := make([]*Entry, 1, LineCount(entries)+1)
	for i := range entries {
		for range entries[i].Lines {
			byLine = append(byLine, &entries[i])
		}
	}

	var newlines []int
	for i := 0; ; {
		j := bytes.IndexByte(original[i:], '\n')
		if j < 0 {
			break
		}
		newlines = append(newlines, i+j)
		i += j + 1
	}

	lines := len(newlines)
	if len(original) > 0 && original[len(original)-1] != '\n' {
		lines++
	}
	if lines == 0 {
		lines = 1
	}

	return &Attributor{
		path:     path,
		newlines: newlines,
		lines:    lines,
		byLine:   byLine,
	}, nil
}

// lineAt returns the 1-based line holding byte offset, clamped to the file.
func (a *Attributor) lineAt(offset int) int {
	// number of newlines strictly before offset
	line := sort.SearchInts(a.newlines, offset) + 1
	if line > a.lines {
		line = a.lines
	}
	return line
}

// Lines returns the first and last line an edit touches.
func (a *Attributor) Lines(e *edit.Edit) (int, int) {
	last := e.Offset + max(e.Length-1, 0)
	return a.lineAt(e.Offset), a.lineAt(last)
}

// 🎯 Attribute picks the commit that owns e.
//
// Every distinct commit covering the touched lines is collected in the order
// it is first seen and the last one wins. Lines the blame does not know about
// (the working tree can be longer than the blamed revision) count as the first
// known commit. When more than one commit is involved the returned Attribution
// carries a Diagnostic.
func (a *Attributor) Attribute(e *edit.Edit) Attribution {
	first, last := a.Lines(e)

	var seen []*Entry
	has := map[string]bool{}
	for line := first; line <= last; line++ {
		owner := a.byLine[1]
		if line < len(a.byLine) {
			owner = a.byLine[line]
		}
		if has[owner.Commit] {
			continue
		}
		has[owner.Commit] = true
		seen = append(seen, owner)
	}

	chosen := seen[len(seen)-1]
	out := Attribution{
		Commit:    chosen.Commit,
		Author:    chosen.Author,
		FirstLine: first,
		LastLine:  last,
	}

	if len(seen) > 1 {
		d := &Diagnostic{
			Path:      a.path,
			FirstLine: first,
			LastLine:  last,
			Chosen:    chosen.Author,
		}
		authors := map[AuthorKey]bool{}
		for _, s := range seen {
			d.Commits = append(d.Commits, s.Commit)
			if authors[s.Author.Key()] {
				continue
			}
			authors[s.Author.Key()] = true
			d.Authors = append(d.Authors, s.Author)
		}
		out.Diagnostic = d
	}

	return out
}

// Attribute is the one-shot form of Attributor.Attribute.
func Attribute(path string, original []byte, entries []Entry, e *edit.Edit) (Attribution, error) {
	a, err := NewAttributor(path, original, entries)
	if err != nil {
		return Attribution{}, err
	}
	return a.Attribute(e), nil
}
