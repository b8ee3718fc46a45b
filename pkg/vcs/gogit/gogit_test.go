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

package gogit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/blamefmt/pkg/blame"
	"github.com/walteh/blamefmt/pkg/vcs"
)

var (
	alice = blame.Author{Name: "Alice", Email: "alice@example.com"}
	bob   = blame.Author{Name: "Bob", Email: "bob@example.com"}
)

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestRepositoryBlame(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	r, err := Init(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, dir, r.Root())

	_, err = r.Head(ctx)
	assert.ErrorIs(t, err, vcs.ErrNoHead, "fresh repository has no HEAD")

	write(t, dir, "src/a.c", "one\ntwo\nthree\n")
	first, err := r.Commit(ctx, []string{"src/a.c"}, alice, "first")
	require.NoError(t, err)

	write(t, dir, "src/a.c", "one\nTWO\nthree\n")
	second, err := r.Commit(ctx, []string{"src/a.c"}, bob, "second")
	require.NoError(t, err)

	head, err := r.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, head)

	entries, err := r.Blame(ctx, head, "src/a.c")
	require.NoError(t, err)
	assert.Equal(t, []blame.Entry{
		{Commit: first, Author: alice, Lines: []string{"one"}},
		{Commit: second, Author: bob, Lines: []string{"TWO"}},
		{Commit: first, Author: alice, Lines: []string{"three"}},
	}, entries)

	_, err = r.Blame(ctx, head, "src/missing.c")
	assert.ErrorIs(t, err, vcs.ErrNotTracked)

	author, err := r.CommitAuthor(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, alice, author)
}

func TestRepositoryCommitOnlyChangedPaths(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	r, err := Init(ctx, dir)
	require.NoError(t, err)

	write(t, dir, "a.c", "a\n")
	write(t, dir, "b.c", "b\n")
	base, err := r.Commit(ctx, []string{"a.c", "b.c"}, alice, "base")
	require.NoError(t, err)

	write(t, dir, "a.c", "A\n")
	write(t, dir, "b.c", "B\n")
	next, err := r.Commit(ctx, []string{"a.c"}, bob, "only a")
	require.NoError(t, err)

	entries, err := r.Blame(ctx, next, "b.c")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, base, entries[0].Commit, "unstaged file is not part of the commit")
	assert.Equal(t, []string{"b"}, entries[0].Lines)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	_, err := Init(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested", "deeper"), 0755))

	r, err := vcs.Open(ctx, Name, filepath.Join(dir, "nested", "deeper"))
	require.NoError(t, err, "registered backend walks up to the repository")
	assert.Equal(t, dir, r.Root())

	_, err = Open(ctx, t.TempDir())
	assert.ErrorIs(t, err, vcs.ErrNoRepository)

	_, err = vcs.Open(ctx, "svn", dir)
	assert.Error(t, err)
}
