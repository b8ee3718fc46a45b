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
	"bytes"
	"strconv"
	"strings"
)

const (
	// headerMarker is looked for at the top of a file before a header is added
	headerMarker = "Copyright"
	// headerWindow is how many leading bytes are searched for the marker
	headerWindow = 300
)

// 📜 HasHeader reports whether the first bytes of a file already carry a
// copyright notice.
func HasHeader(original []byte) bool {
	window := original
	if len(window) > headerWindow {
		window = window[:headerWindow]
	}
	return bytes.Contains(window, []byte(headerMarker))
}

// 📜 WithHeader makes sure the file starts with header once the edits are
// applied. An existing edit at offset 0 absorbs the header, otherwise a new
// insertion is placed in front. edits must be sorted by offset.
func WithHeader(original []byte, edits []*Edit, header []byte, path string) []*Edit {
	if len(header) == 0 || HasHeader(original) {
		return edits
	}

	if len(edits) > 0 && edits[0].Offset == 0 {
		first := edits[0]
		content := make([]byte, 0, len(header)+len(first.Content))
		content = append(content, header...)
		content = append(content, first.Content...)
		first.Content = content
		return edits
	}

	out := make([]*Edit, 0, len(edits)+1)
	out = append(out, &Edit{
		Offset:  0,
		Length:  0,
		Content: append([]byte(nil), header...),
		Path:    path,
	})
	return append(out, edits...)
}

// ExpandHeader fills the {year}, {name} and {email} placeholders of tmpl and
// makes sure the header ends with a newline. An empty template stays empty.
func ExpandHeader(tmpl string, year int, name, email string) []byte {
	if strings.TrimSpace(tmpl) == "" {
		return nil
	}
	out := strings.NewReplacer(
		"{year}", strconv.Itoa(year),
		"{name}", name,
		"{email}", email,
	).Replace(tmpl)
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return []byte(out)
}
