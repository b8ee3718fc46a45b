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
	"gitlab.com/tozd/go/errors"
)

// 🔬 Normalize shrinks a raw replacement to the bytes that actually change.
//
// Formatters tend to replace whole lines for a one character change, which
// would attribute untouched lines to the reformat. Matching bytes are first
// trimmed from the end of the replacement (against the bytes just before the
// end of the replaced span), then from the start (against the bytes at the
// start of the span).
func Normalize(original []byte, raw Raw, path string) (*Edit, error) {
	if raw.Offset < 0 || raw.Length < 0 || raw.Offset+raw.Length > len(original) {
		return nil, errors.Errorf("%w: %s offset %d length %d outside %d bytes",
			ErrInvalidEdit, path, raw.Offset, raw.Length, len(original))
	}

	offset, length := raw.Offset, raw.Length
	content := raw.Text

	// trailing bytes
	n := len(content)
	for n > 0 && length > 0 && original[offset+length-1] == content[n-1] {
		n--
		length--
	}
	content = content[:n]

	// leading bytes
	i := 0
	for i < len(content) && length > 0 && original[offset] == content[i] {
		i++
		offset++
		length--
	}
	content = content[i:]

	out := make([]byte, len(content))
	copy(out, content)

	return &Edit{
		Offset:  offset,
		Length:  length,
		Content: out,
		Path:    path,
	}, nil
}

// 📋 NormalizeAll normalizes every raw edit of one file and drops the ones that
// turn out to change nothing.
func NormalizeAll(original []byte, raws []Raw, path string) ([]*Edit, error) {
	edits := make([]*Edit, 0, len(raws))
	for i, raw := range raws {
		e, err := Normalize(original, raw, path)
		if err != nil {
			return nil, errors.Errorf("normalizing replacement %d: %w", i, err)
		}
		if e.IsNoop() {
			continue
		}
		edits = append(edits, e)
	}
	return edits, nil
}
