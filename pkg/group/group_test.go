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

package group

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/blamefmt/pkg/blame"
	"github.com/walteh/blamefmt/pkg/edit"
)

var (
	xavier   = blame.Author{Name: "Xavier", Email: "x@example.com"}
	yolanda  = blame.Author{Name: "Yolanda", Email: "y@example.com"}
	fallback = blame.Author{Name: "Robot", Email: "robot@example.com"}
)

// 🧪 mockResolver implements AuthorResolver
type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) CommitAuthor(ctx context.Context, commit string) (blame.Author, error) {
	args := m.Called(ctx, commit)
	return args.Get(0).(blame.Author), args.Error(1)
}

func attributed(path string, offset int, commit string) blame.AttributedEdit {
	e := &edit.Edit{Path: path, Offset: offset, Length: 1, Content: []byte("x")}
	if commit == "" {
		return blame.Untracked(e)
	}
	return blame.Attributed(e, commit)
}

func newResolver(authors map[string]blame.Author) *mockResolver {
	r := &mockResolver{}
	for commit, a := range authors {
		r.On("CommitAuthor", mock.Anything, commit).Return(a, nil)
	}
	return r
}

func TestBuildMergesSameAuthor(t *testing.T) {
	r := newResolver(map[string]blame.Author{
		"c1": xavier,
		"c2": xavier,
		"c3": yolanda,
	})

	edits := []blame.AttributedEdit{
		attributed("b.c", 10, "c2"),
		attributed("a.c", 4, "c1"),
		attributed("a.c", 40, "c3"),
		attributed("b.c", 2, "c1"),
	}

	res, err := Build(context.Background(), edits, r, Options{Fallback: fallback})
	require.NoError(t, err)
	require.Len(t, res.Groups, 2)

	x := res.Groups[0]
	assert.Equal(t, Key{Author: xavier}, x.Key)
	assert.Equal(t, []string{"c1", "c2"}, x.Commits, "both commits merged")
	assert.Equal(t, "c1", x.Representative())
	assert.Equal(t, []string{"a.c", "b.c"}, x.Paths())
	require.Len(t, x.Edits, 3)
	assert.Equal(t, "a.c", x.Edits[0].Path())
	assert.Equal(t, 2, x.Edits[1].Origin, "ordered by path then offset")
	assert.Equal(t, 10, x.Edits[2].Origin)

	y := res.Groups[1]
	assert.Equal(t, Key{Author: yolanda}, y.Key)
	assert.Equal(t, []string{"c3"}, y.Commits, "different author is not merged")
	assert.Len(t, y.Edits, 1)

	assert.Equal(t, 4, res.EditCount())
	r.AssertNumberOfCalls(t, "CommitAuthor", 3)
}

func TestBuildUntrackedRouting(t *testing.T) {
	r := newResolver(map[string]blame.Author{"c1": xavier})

	edits := []blame.AttributedEdit{
		attributed("new.c", 0, ""),
		attributed("a.c", 1, "c1"),
		attributed("new.c", 9, ""),
	}

	res, err := Build(context.Background(), edits, r, Options{Fallback: fallback})
	require.NoError(t, err)
	require.Len(t, res.Groups, 2)

	for _, e := range res.Groups[0].Edits {
		assert.NotEqual(t, "new.c", e.Path(), "untracked file must not reach an authored group")
	}

	last := res.Groups[len(res.Groups)-1]
	assert.True(t, last.Key.Untracked, "untracked group comes last")
	assert.Equal(t, fallback, last.Key.Author)
	assert.Empty(t, last.Representative())
	assert.Len(t, last.Edits, 2)
	assert.Equal(t, "untracked", last.Key.String())
}

func TestBuildFallbackAuthor(t *testing.T) {
	tests := []struct {
		name     string
		resolver AuthorResolver
		wantKey  Key
	}{
		{
			name:     "no_repository",
			resolver: nil,
			wantKey:  Key{Author: fallback},
		},
		{
			name: "lookup_fails",
			resolver: func() AuthorResolver {
				r := &mockResolver{}
				r.On("CommitAuthor", mock.Anything, "c1").Return(blame.Author{}, assert.AnError)
				return r
			}(),
			wantKey: Key{Author: fallback},
		},
		{
			name:     "empty_identity",
			resolver: newResolver(map[string]blame.Author{"c1": {}}),
			wantKey:  Key{Author: fallback},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Build(context.Background(), []blame.AttributedEdit{attributed("a.c", 0, "c1")}, tt.resolver, Options{Fallback: fallback})
			require.NoError(t, err)
			require.Len(t, res.Groups, 1)
			assert.Equal(t, tt.wantKey, res.Groups[0].Key)
			assert.False(t, res.Groups[0].Key.Untracked, "unresolved commits stay authored")
			assert.Equal(t, []string{"c1"}, res.Unresolved)
		})
	}
}

func TestBuildFilterAuthor(t *testing.T) {
	r := newResolver(map[string]blame.Author{"c1": xavier, "c2": yolanda})

	edits := []blame.AttributedEdit{
		attributed("a.c", 1, "c1"),
		attributed("a.c", 5, "c2"),
		attributed("u.c", 0, ""),
	}

	res, err := Build(context.Background(), edits, r, Options{Fallback: fallback, FilterAuthor: "y@example.com"})
	require.NoError(t, err)

	require.Len(t, res.Groups, 2)
	assert.Equal(t, yolanda, res.Groups[0].Key.Author)
	assert.True(t, res.Groups[1].Key.Untracked, "untracked group ignores the filter")

	require.Len(t, res.Filtered, 1)
	assert.Equal(t, xavier, res.Filtered[0].Key.Author)
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, []blame.AttributedEdit{attributed("a.c", 0, "c1")}, nil, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildEmpty(t *testing.T) {
	res, err := Build(context.Background(), nil, nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Groups)
	assert.Zero(t, res.EditCount())
}
