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

package plan

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
)

// 🔍 Discover walks dir and returns the regular files matching include,
// relative to root and slash separated. Files that match include but also
// match exclude are returned separately; directories matching exclude are
// not entered. VCS metadata directories are always skipped.
//
// When dir is a regular file it is returned as is: naming a file asks for it
// to be formatted whatever the filters say.
func Discover(root, dir string, include, exclude []string) ([]string, []string, error) {
	if dir == "" {
		dir = root
	}

	if info, err := os.Stat(dir); err == nil && info.Mode().IsRegular() {
		return single(root, dir)
	}

	var files, excluded []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if d.Name() == ".git" || matchAny(exclude, rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !matchAny(include, rel) {
			return nil
		}

		fromRoot, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		fromRoot = filepath.ToSlash(fromRoot)

		if matchAny(exclude, rel) {
			excluded = append(excluded, fromRoot)
			return nil
		}
		files = append(files, fromRoot)
		return nil
	})
	if err != nil {
		return nil, nil, errors.Errorf("walking %s: %w", dir, err)
	}

	sort.Strings(files)
	sort.Strings(excluded)
	return files, excluded, nil
}

func single(root, path string) ([]string, []string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return nil, nil, errors.Errorf("relating %s to %s: %w", path, root, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, nil, errors.Errorf("%s is outside of %s", path, root)
	}
	return []string{filepath.ToSlash(rel)}, nil, nil
}

func matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}
