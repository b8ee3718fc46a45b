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

package gitcli

import (
	"bufio"
	"bytes"
	"sort"
	"strconv"
	"strings"

	"github.com/walteh/blamefmt/pkg/blame"
	"github.com/walteh/blamefmt/pkg/vcs"
	"gitlab.com/tozd/go/errors"
)

// 📜 ParsePorcelain parses git blame --porcelain output into one Line per
// final line, in file order.
//
// Porcelain format:
//
//	<40-byte SHA> <orig-line> <final-line> [<num-lines>]
//	author <name>            (only the first time a commit shows up)
//	author-mail <<email>>
//	...more headers
//	\t<line content>
func ParsePorcelain(out []byte) ([]vcs.Line, error) {
	type numbered struct {
		final int
		line  vcs.Line
	}

	authors := map[string]*blame.Author{}
	var (
		result []numbered
		sha    string
		final  int
	)

	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()

		if strings.HasPrefix(line, "\t") {
			if sha == "" {
				return nil, errors.Errorf("content line before any commit header")
			}
			result = append(result, numbered{final: final, line: vcs.Line{Commit: sha, Text: line[1:]}})
			continue
		}

		key, value, _ := strings.Cut(line, " ")
		switch key {
		case "author":
			authorOf(authors, sha).Name = value
			continue
		case "author-mail":
			authorOf(authors, sha).Email = strings.TrimSuffix(strings.TrimPrefix(value, "<"), ">")
			continue
		}

		fields := strings.Fields(line)
		if len(fields) >= 3 && isSHA(fields[0]) {
			n, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, errors.Errorf("bad final line number in %q: %w", line, err)
			}
			sha, final = fields[0], n
		}
		// every other header is ignored
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Errorf("reading blame output: %w", err)
	}

	sort.SliceStable(result, func(i, j int) bool { return result[i].final < result[j].final })

	lines := make([]vcs.Line, len(result))
	for i, r := range result {
		r.line.Author = *authorOf(authors, r.line.Commit)
		lines[i] = r.line
	}
	return lines, nil
}

func authorOf(authors map[string]*blame.Author, sha string) *blame.Author {
	a, ok := authors[sha]
	if !ok {
		a = &blame.Author{}
		authors[sha] = a
	}
	return a
}

func isSHA(s string) bool {
	if len(s) != 40 && len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
