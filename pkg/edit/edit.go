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
	"fmt"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrInvalidEdit is returned when a formatter reports an offset or length
	// outside of the file it was computed against.
	ErrInvalidEdit = errors.Base("invalid edit")

	// ErrOverlappingEdit is returned when two normalized edits of one file
	// cover the same bytes.
	ErrOverlappingEdit = errors.Base("overlapping edit")
)

// 🧾 Raw is a replacement exactly as reported by the external formatter
type Raw struct {
	Offset int    // byte offset in the original file
	Length int    // number of original bytes replaced
	Text   []byte // replacement bytes
}

// ✂️ Edit replaces Length bytes at Offset in Path with Content.
//
// Offset is the only field that changes after creation: the Index corrects it
// in place whenever an earlier edit of the same file is applied.
type Edit struct {
	Offset  int
	Length  int
	Content []byte
	Path    string
}

// End returns the first byte offset after the replaced span.
func (e *Edit) End() int {
	return e.Offset + e.Length
}

// Delta returns how much the file grows (or shrinks) once the edit is applied.
func (e *Edit) Delta() int {
	return len(e.Content) - e.Length
}

// IsNoop reports whether applying the edit would leave the file unchanged.
func (e *Edit) IsNoop() bool {
	return e.Length == 0 && len(e.Content) == 0
}

// Apply returns a copy of buf with the edit spliced in.
func (e *Edit) Apply(buf []byte) ([]byte, error) {
	if e.Offset < 0 || e.Length < 0 || e.End() > len(buf) {
		return nil, errors.Errorf("%w: %s outside %d bytes", ErrInvalidEdit, e, len(buf))
	}
	out := make([]byte, 0, len(buf)+e.Delta())
	out = append(out, buf[:e.Offset]...)
	out = append(out, e.Content...)
	out = append(out, buf[e.End():]...)
	return out, nil
}

func (e *Edit) String() string {
	return fmt.Sprintf("%s@%d+%d(%d bytes)", e.Path, e.Offset, e.Length, len(e.Content))
}
