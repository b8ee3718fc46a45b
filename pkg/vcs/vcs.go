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

// Package vcs is the boundary to the version-control system: blame in,
// commits out. Backends register themselves by name.
package vcs

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/walteh/blamefmt/pkg/blame"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrNotTracked means the path does not exist in the blamed revision.
	ErrNotTracked = errors.Base("path not tracked")
	// ErrNoRepository means the path is not inside a repository.
	ErrNoRepository = errors.Base("not a git repository")
	// ErrNoHead means the repository has no commits yet.
	ErrNoHead = errors.Base("repository has no commits")
)

// 🗃️ Repository is everything the formatter needs from version control.
type Repository interface {
	// Root returns the absolute path of the working tree.
	Root() string
	// Head returns the commit HEAD points to.
	Head(ctx context.Context) (string, error)
	// Blame returns the blame of path at rev in file order, or ErrNotTracked.
	Blame(ctx context.Context, rev, path string) ([]blame.Entry, error)
	// CommitAuthor returns the author of commit.
	CommitAuthor(ctx context.Context, commit string) (blame.Author, error)
	// Commit stages paths and commits them as author.
	Commit(ctx context.Context, paths []string, author blame.Author, message string) (string, error)
	// User returns the configured user identity, if any.
	User(ctx context.Context) (blame.Author, error)
}

// Opener opens the repository containing path.
type Opener func(ctx context.Context, path string) (Repository, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Opener{}
)

// Register makes a backend available to Open.
func Register(name string, opener Opener) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = opener
}

// Backends lists the registered backend names.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// 🔓 Open opens the repository containing path with the named backend.
// It returns ErrNoRepository when path is not inside a repository.
func Open(ctx context.Context, backend, path string) (Repository, error) {
	registryMu.RLock()
	opener, ok := registry[backend]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.Errorf("backend %s not found, options: %s", backend, strings.Join(Backends(), ", "))
	}
	return opener(ctx, path)
}

// Entries folds per-line blame into runs of consecutive lines that share a
// commit. Backends that blame line by line use it to build their result.
func Entries(lines []Line) []blame.Entry {
	var out []blame.Entry
	for _, l := range lines {
		if n := len(out); n > 0 && out[n-1].Commit == l.Commit {
			out[n-1].Lines = append(out[n-1].Lines, l.Text)
			continue
		}
		out = append(out, blame.Entry{Commit: l.Commit, Author: l.Author, Lines: []string{l.Text}})
	}
	return out
}

// Line is the blame of a single line.
type Line struct {
	Commit string
	Author blame.Author
	Text   string
}
