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

package replay

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/blamefmt/pkg/blame"
	"github.com/walteh/blamefmt/pkg/edit"
	"github.com/walteh/blamefmt/pkg/group"
	"gitlab.com/tozd/go/errors"
	"pgregory.net/rapid"
)

var (
	xavier   = blame.Author{Name: "Xavier", Email: "x@example.com"}
	yolanda  = blame.Author{Name: "Yolanda", Email: "y@example.com"}
	fallback = blame.Author{Name: "Robot", Email: "robot@example.com"}
)

// 🧪 memWriter keeps files in memory and can be told to fail on a path
type memWriter struct {
	files  map[string][]byte
	failOn map[string]bool
	writes int
}

func newMemWriter(files map[string]string) *memWriter {
	w := &memWriter{files: map[string][]byte{}, failOn: map[string]bool{}}
	for p, c := range files {
		w.files[p] = []byte(c)
	}
	return w
}

func (w *memWriter) Splice(ctx context.Context, path string, offset, length int, content []byte) error {
	if w.failOn[path] {
		return errors.New("disk on fire")
	}
	buf, ok := w.files[path]
	if !ok {
		return errors.Errorf("no such file %s", path)
	}
	if offset < 0 || offset+length > len(buf) {
		return errors.Errorf("splice out of range: %d+%d > %d", offset, length, len(buf))
	}
	out := make([]byte, 0, len(buf)-length+len(content))
	out = append(out, buf[:offset]...)
	out = append(out, content...)
	out = append(out, buf[offset+length:]...)
	w.files[path] = out
	w.writes++
	return nil
}

// 🧪 mockCommitter implements Committer
type mockCommitter struct {
	mock.Mock
}

func (m *mockCommitter) Commit(ctx context.Context, paths []string, author blame.Author, message string) (string, error) {
	args := m.Called(ctx, paths, author, message)
	return args.String(0), args.Error(1)
}

func mustIndexes(t *testing.T, edits ...*edit.Edit) []*edit.Index {
	t.Helper()
	byPath := map[string][]*edit.Edit{}
	var paths []string
	for _, e := range edits {
		if _, ok := byPath[e.Path]; !ok {
			paths = append(paths, e.Path)
		}
		byPath[e.Path] = append(byPath[e.Path], e)
	}
	var out []*edit.Index
	for _, p := range paths {
		x, err := edit.NewIndex(p, byPath[p])
		require.NoError(t, err)
		out = append(out, x)
	}
	return out
}

func authoredGroup(author blame.Author, commit string, edits ...*edit.Edit) *group.ReplayGroup {
	g := &group.ReplayGroup{Key: group.Key{Author: author}, Commits: []string{commit}}
	for _, e := range edits {
		g.Edits = append(g.Edits, blame.Attributed(e, commit))
	}
	return g
}

func pendingOffsets(x *edit.Index) []int {
	out := []int{}
	for _, e := range x.Pending() {
		out = append(out, e.Offset)
	}
	return out
}

// 🧪 TestApplyOffsetShift tests the documented three edit example end to end
func TestApplyOffsetShift(t *testing.T) {
	original := "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWX"
	first := &edit.Edit{Path: "f.c", Offset: 5, Length: 2, Content: []byte("####")}
	second := &edit.Edit{Path: "f.c", Offset: 20, Length: 3, Content: []byte("@")}
	third := &edit.Edit{Path: "f.c", Offset: 50, Length: 1, Content: []byte("!")}

	w := newMemWriter(map[string]string{"f.c": original})
	indexes := mustIndexes(t, first, second, third)
	a := NewApplier(w, nil, indexes, Options{})
	ctx := context.Background()

	_, err := a.Apply(ctx, authoredGroup(xavier, "c1", first))
	require.NoError(t, err)
	assert.Equal(t, []int{22, 52}, pendingOffsets(indexes[0]))

	_, err = a.Apply(ctx, authoredGroup(xavier, "c2", second))
	require.NoError(t, err)
	assert.Equal(t, []int{50}, pendingOffsets(indexes[0]))

	_, err = a.Apply(ctx, authoredGroup(xavier, "c3", third))
	require.NoError(t, err)
	assert.Equal(t, 50, third.Offset)
	assert.Zero(t, indexes[0].Len())

	want := original[:5] + "####" + original[7:20] + "@" + original[23:50] + "!" + original[51:]
	assert.Equal(t, want, string(w.files["f.c"]))
}

// 🧪 TestApplyWriteFailureIsolation tests that a failing file leaves others alone
func TestApplyWriteFailureIsolation(t *testing.T) {
	a1 := &edit.Edit{Path: "a.c", Offset: 2, Length: 1, Content: []byte("AAAA")}
	a2 := &edit.Edit{Path: "a.c", Offset: 10, Length: 1, Content: []byte("A")}
	b1 := &edit.Edit{Path: "b.c", Offset: 3, Length: 1, Content: []byte("BBBB")}
	b2 := &edit.Edit{Path: "b.c", Offset: 20, Length: 2, Content: []byte("B")}

	w := newMemWriter(map[string]string{
		"a.c": "aaaaaaaaaaaaaaaaaaaaaaaaa",
		"b.c": "bbbbbbbbbbbbbbbbbbbbbbbbb",
	})
	w.failOn["a.c"] = true

	committer := &mockCommitter{}
	committer.On("Commit", mock.Anything, []string{"b.c"}, xavier, MessageAuthored).Return("h1", nil).Once()
	committer.On("Commit", mock.Anything, []string{"b.c"}, yolanda, MessageAuthored).Return("h2", nil).Once()

	indexes := mustIndexes(t, a1, a2, b1, b2)
	a := NewApplier(w, committer, indexes, Options{})
	ctx := context.Background()

	first, err := a.Apply(ctx, authoredGroup(xavier, "c1", a1, b1))
	require.NoError(t, err)
	require.Contains(t, first.Failed, "a.c")
	assert.ErrorIs(t, first.Failed["a.c"], ErrWriteFailure)
	assert.Equal(t, []string{"b.c"}, first.Files)
	assert.Equal(t, "h1", first.Commit)

	assert.Equal(t, []int{2, 10}, pendingOffsets(indexes[0]), "failed file keeps its offsets")
	assert.Equal(t, []int{23}, pendingOffsets(indexes[1]), "other file only sees its own delta")

	second, err := a.Apply(ctx, authoredGroup(yolanda, "c2", a2, b2))
	require.NoError(t, err)
	assert.Equal(t, 1, second.Skipped, "failed file is skipped by later groups")
	assert.Equal(t, 1, second.Applied)
	assert.Empty(t, second.Failed)

	assert.Equal(t, "bbbBBBBbbbbbbbbbbbbbbbbBbbb", string(w.files["b.c"]))
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaaaa", string(w.files["a.c"]))
	committer.AssertExpectations(t)
}

// 🧪 TestApplyCommitFailure tests that a rejected commit does not stop the run
func TestApplyCommitFailure(t *testing.T) {
	e1 := &edit.Edit{Path: "a.c", Offset: 0, Length: 1, Content: []byte("1")}
	e2 := &edit.Edit{Path: "u.c", Offset: 0, Length: 1, Content: []byte("2")}

	w := newMemWriter(map[string]string{"a.c": "aa", "u.c": "uu"})
	committer := &mockCommitter{}
	committer.On("Commit", mock.Anything, []string{"a.c"}, xavier, MessageAuthored).Return("", assert.AnError)
	committer.On("Commit", mock.Anything, []string{"u.c"}, fallback, MessageUntracked).Return("h2", nil)

	untracked := &group.ReplayGroup{
		Key:   group.Key{Author: fallback, Untracked: true},
		Edits: []blame.AttributedEdit{blame.Untracked(e2)},
	}

	a := NewApplier(w, committer, mustIndexes(t, e1, e2), Options{})
	out, err := a.Run(context.Background(), []*group.ReplayGroup{authoredGroup(xavier, "c1", e1), untracked})
	require.NoError(t, err)
	require.Len(t, out.Groups, 2)

	assert.ErrorIs(t, out.Groups[0].Err, ErrCommitFailure)
	assert.Equal(t, "1a", string(w.files["a.c"]), "written content is not rolled back")
	assert.Equal(t, "h2", out.Groups[1].Commit)
	assert.Equal(t, 2, out.Applied())
	assert.Empty(t, out.Failed())

	require.Len(t, out.Files, 2)
	assert.Equal(t, []string{"c1"}, out.Files[0].Commits)
	assert.Equal(t, []blame.Author{xavier}, out.Files[0].Authors)
	assert.Empty(t, out.Files[1].Commits, "untracked edits have no original commit")
	committer.AssertExpectations(t)
}

// 🧪 TestApplyWithoutCommits tests no-commit and repository-less runs
func TestApplyWithoutCommits(t *testing.T) {
	tests := []struct {
		name      string
		committer bool
		opts      Options
	}{
		{name: "no_commit", committer: true, opts: Options{NoCommit: true}},
		{name: "no_repository", committer: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &edit.Edit{Path: "a.c", Offset: 1, Length: 0, Content: []byte("+")}
			w := newMemWriter(map[string]string{"a.c": "ab"})

			var c Committer
			mc := &mockCommitter{}
			if tt.committer {
				c = mc
			}

			var seen []string
			tt.opts.OnEdit = func(path string) { seen = append(seen, path) }

			res, err := NewApplier(w, c, mustIndexes(t, e), tt.opts).Apply(context.Background(), authoredGroup(xavier, "c1", e))
			require.NoError(t, err)
			assert.Empty(t, res.Commit)
			assert.Equal(t, "a+b", string(w.files["a.c"]))
			assert.Equal(t, []string{"a.c"}, seen)
			mc.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

// 🧪 TestApplyCancelled tests that cancellation stops between edits
func TestApplyCancelled(t *testing.T) {
	e := &edit.Edit{Path: "a.c", Offset: 0, Length: 1, Content: []byte("z")}
	w := newMemWriter(map[string]string{"a.c": "ab"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := NewApplier(w, nil, mustIndexes(t, e), Options{}).Run(ctx, []*group.ReplayGroup{authoredGroup(xavier, "c1", e)})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, w.writes)
	assert.Len(t, out.Groups, 1)
}

// 🧪 TestApplyMissingIndex tests an edit without a registered file
func TestApplyMissingIndex(t *testing.T) {
	e := &edit.Edit{Path: "ghost.c", Offset: 0, Length: 1, Content: []byte("z")}
	w := newMemWriter(map[string]string{"ghost.c": "g"})

	res, err := NewApplier(w, nil, nil, Options{}).Apply(context.Background(), authoredGroup(xavier, "c1", e))
	require.NoError(t, err)
	assert.ErrorIs(t, res.Failed["ghost.c"], ErrWriteFailure)
	assert.Zero(t, w.writes)
}

// 🧪 TestReplayAnyGroupOrder checks that replaying in any grouping and order
// gives the same bytes as applying every edit at once
func TestReplayAnyGroupOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		original := rapid.SliceOfN(rapid.ByteRange('a', 'e'), 1, 200).Draw(t, "original")

		var edits []*edit.Edit
		for pos := rapid.IntRange(0, 3).Draw(t, "start"); pos <= len(original); {
			length := rapid.IntRange(0, min(4, len(original)-pos)).Draw(t, "length")
			content := rapid.SliceOfN(rapid.ByteRange('V', 'Z'), 0, 6).Draw(t, "content")
			edits = append(edits, &edit.Edit{Path: "f.c", Offset: pos, Length: length, Content: content})
			pos += length + rapid.IntRange(1, 8).Draw(t, "gap")
		}

		// simultaneous application, back to front on the original offsets
		want := bytes.Clone(original)
		for i := len(edits) - 1; i >= 0; i-- {
			var err error
			want, err = edits[i].Apply(want)
			if err != nil {
				t.Fatalf("reference apply: %v", err)
			}
		}

		ngroups := rapid.IntRange(1, 4).Draw(t, "groups")
		groups := make([]*group.ReplayGroup, ngroups)
		for i := range groups {
			groups[i] = &group.ReplayGroup{Key: group.Key{Author: blame.Author{Name: fmt.Sprint(i)}}}
		}
		for _, e := range edits {
			g := groups[rapid.IntRange(0, ngroups-1).Draw(t, "group")]
			g.Edits = append(g.Edits, blame.Attributed(e, "c"))
		}
		for _, g := range groups {
			sort.SliceStable(g.Edits, func(i, j int) bool { return g.Edits[i].Origin < g.Edits[j].Origin })
		}
		order := rapid.Permutation(groups).Draw(t, "order")

		x, err := edit.NewIndex("f.c", edits)
		if err != nil {
			t.Fatalf("index: %v", err)
		}
		w := &memWriter{files: map[string][]byte{"f.c": bytes.Clone(original)}, failOn: map[string]bool{}}
		out, err := NewApplier(w, nil, []*edit.Index{x}, Options{}).Run(context.Background(), order)
		if err != nil {
			t.Fatalf("run: %v", err)
		}

		if out.Applied() != len(edits) {
			t.Fatalf("applied %d of %d edits", out.Applied(), len(edits))
		}
		if !bytes.Equal(want, w.files["f.c"]) {
			t.Fatalf("replay mismatch:\nwant %q\n got %q", want, w.files["f.c"])
		}
	})
}
