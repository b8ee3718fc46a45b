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

package edit

import (
	"sort"

	"gitlab.com/tozd/go/errors"
)

// 🗂️ Index holds the not yet applied edits of a single file.
//
// Invariants:
//   - entries are sorted by Offset; at a shared offset insertions come first,
//     otherwise ties keep their insertion order
//   - consecutive entries never overlap
//   - removing an entry never reorders the others; only ShiftFrom moves offsets
type Index struct {
	path    string
	entries []*Edit
}

// 🏭 NewIndex sorts the edits of one file and rejects overlaps before anything
// gets written.
func NewIndex(path string, edits []*Edit) (*Index, error) {
	entries := make([]*Edit, len(edits))
	copy(entries, edits)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Offset != entries[j].Offset {
			return entries[i].Offset < entries[j].Offset
		}
		return entries[i].Length == 0 && entries[j].Length > 0
	})

	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		if prev.End() > cur.Offset {
			return nil, errors.Errorf("%w: %s and %s", ErrOverlappingEdit, prev, cur)
		}
	}

	return &Index{path: path, entries: entries}, nil
}

// Compare is the three-way comparator used by every search of the index:
// negative when target sorts before e, zero on an exact offset match.
func Compare(target int, e *Edit) int {
	return target - e.Offset
}

// Path returns the file the index belongs to.
func (x *Index) Path() string {
	return x.path
}

// Len returns the number of pending edits.
func (x *Index) Len() int {
	return len(x.entries)
}

// At returns the pending edit at position i.
func (x *Index) At(i int) *Edit {
	return x.entries[i]
}

// Pending returns the pending edits in offset order.
func (x *Index) Pending() []*Edit {
	out := make([]*Edit, len(x.entries))
	copy(out, x.entries)
	return out
}

// 🔍 Search returns the position of an edit starting exactly at target, or -1.
func (x *Index) Search(target int) int {
	lo, hi := 0, len(x.entries)-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		c := Compare(target, x.entries[mid])
		switch {
		case c == 0:
			return mid
		case c < 0:
			hi = mid - 1
		default:
			lo = mid + 1
		}
	}
	return -1
}

// 🔍 FindFirstAtOrAfter returns the first position whose offset is >= target,
// or -1 when there is none.
func (x *Index) FindFirstAtOrAfter(target int) int {
	lo, hi := 0, len(x.entries)
	for lo < hi {
		mid := lo + (hi-lo)/2
		if Compare(target, x.entries[mid]) > 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == len(x.entries) {
		return -1
	}
	return lo
}

// Locate returns the position of exactly e, or -1. Several edits may share an
// offset (an insertion right before a replacement), so the offset search is
// followed by an identity scan.
func (x *Index) Locate(e *Edit) int {
	i := x.FindFirstAtOrAfter(e.Offset)
	if i < 0 {
		return -1
	}
	for ; i < len(x.entries) && x.entries[i].Offset == e.Offset; i++ {
		if x.entries[i] == e {
			return i
		}
	}
	return -1
}

// ShiftFrom adds delta to the offset of every entry at or after position i.
func (x *Index) ShiftFrom(i int, delta int) {
	if i < 0 || delta == 0 {
		return
	}
	for ; i < len(x.entries); i++ {
		x.entries[i].Offset += delta
	}
}

// Remove drops the entry at position i.
func (x *Index) Remove(i int) {
	if i < 0 || i >= len(x.entries) {
		return
	}
	x.entries = append(x.entries[:i], x.entries[i+1:]...)
}

// ✅ Applied records that e was written to the file: every later pending edit
// moves by delta and e leaves the index.
func (x *Index) Applied(e *Edit, delta int) error {
	i := x.Locate(e)
	if i < 0 {
		return errors.Errorf("edit %s is not pending in %s", e, x.path)
	}
	x.ShiftFrom(i+1, delta)
	x.Remove(i)
	return nil
}
