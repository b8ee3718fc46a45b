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

// Package blame decides which historical commit owns each formatter edit.
package blame

import (
	"github.com/walteh/blamefmt/pkg/edit"
	"gitlab.com/tozd/go/errors"
)

// ErrNoBlame is returned when a file has no blamed lines to match edits
// against. Callers treat the file as untracked.
var ErrNoBlame = errors.Base("no blame information")

// 📜 Entry is one contiguous run of lines last changed by a single commit.
// A file's blame is a slice of entries in file order covering every line once.
type Entry struct {
	Commit string
	Author Author
	Lines  []string
}

// 🏷️ AttributedEdit pairs an edit with the commit it is attributed to.
// An empty Commit marks an edit in a file without history.
type AttributedEdit struct {
	Edit   *edit.Edit
	Commit string
	Origin int // offset of the edit before any replay
}

// Untracked returns an AttributedEdit for a file that has no blame.
func Untracked(e *edit.Edit) AttributedEdit {
	return AttributedEdit{Edit: e, Origin: e.Offset}
}

// Attributed returns an AttributedEdit owned by commit.
func Attributed(e *edit.Edit, commit string) AttributedEdit {
	return AttributedEdit{Edit: e, Commit: commit, Origin: e.Offset}
}

// IsUntracked reports whether the edit belongs to a file without history.
func (a AttributedEdit) IsUntracked() bool {
	return a.Commit == ""
}

// Path returns the file the edit belongs to.
func (a AttributedEdit) Path() string {
	return a.Edit.Path
}

// ⚠️ Diagnostic describes an edit that spans lines owned by several commits.
// It is informational only; the edit is still attributed.
type Diagnostic struct {
	Path      string
	FirstLine int
	LastLine  int
	Commits   []string
	Authors   []Author
	Chosen    Author
}

// 🎯 Attribution is the outcome for a single edit.
type Attribution struct {
	Commit     string
	Author     Author
	FirstLine  int
	LastLine   int
	Diagnostic *Diagnostic
}

// LineCount returns the number of lines covered by entries.
func LineCount(entries []Entry) int {
	n := 0
	for _, e := range entries {
		n += len(e.Lines)
	}
	return n
}
