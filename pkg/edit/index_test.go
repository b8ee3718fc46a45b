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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
	"pgregory.net/rapid"
)

func offsets(x *Index) []int {
	out := make([]int, 0, x.Len())
	for _, e := range x.Pending() {
		out = append(out, e.Offset)
	}
	return out
}

// 🧪 TestIndexOffsetShift walks three edits through the index in order
func TestIndexOffsetShift(t *testing.T) {
	a := &Edit{Offset: 5, Length: 2, Content: []byte("wxyz")}
	b := &Edit{Offset: 20, Length: 3, Content: []byte("q")}
	c := &Edit{Offset: 50, Length: 1, Content: []byte("r")}

	x, err := NewIndex("f.c", []*Edit{c, a, b})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 20, 50}, offsets(x))

	require.NoError(t, x.Applied(a, a.Delta()))
	assert.Equal(t, []int{22, 52}, offsets(x))

	require.NoError(t, x.Applied(b, b.Delta()))
	assert.Equal(t, []int{50}, offsets(x))

	assert.Equal(t, 50, c.Offset, "third edit lands on its original offset")
	require.NoError(t, x.Applied(c, c.Delta()))
	assert.Equal(t, 0, x.Len())
}

// 🧪 TestIndexSearch tests the binary searches including empty and out of range
func TestIndexSearch(t *testing.T) {
	empty, err := NewIndex("f.c", nil)
	require.NoError(t, err)
	assert.Equal(t, -1, empty.Search(0))
	assert.Equal(t, -1, empty.FindFirstAtOrAfter(0))
	assert.Equal(t, -1, empty.Locate(&Edit{}))

	x, err := NewIndex("f.c", []*Edit{
		{Offset: 2, Length: 1},
		{Offset: 10, Length: 0},
		{Offset: 10, Length: 4},
		{Offset: 30, Length: 1},
	})
	require.NoError(t, err)

	tests := []struct {
		name        string
		target      int
		wantSearch  int
		wantAtAfter int
	}{
		{name: "before_first", target: 0, wantSearch: -1, wantAtAfter: 0},
		{name: "exact_first", target: 2, wantSearch: 0, wantAtAfter: 0},
		{name: "between", target: 5, wantSearch: -1, wantAtAfter: 1},
		{name: "duplicate_offset", target: 10, wantSearch: -2, wantAtAfter: 1},
		{name: "exact_last", target: 30, wantSearch: 3, wantAtAfter: 3},
		{name: "after_last", target: 99, wantSearch: -1, wantAtAfter: -1},
		{name: "negative", target: -7, wantSearch: -1, wantAtAfter: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := x.Search(tt.target)
			if tt.wantSearch == -2 {
				require.GreaterOrEqual(t, got, 0)
				assert.Equal(t, tt.target, x.At(got).Offset)
			} else {
				assert.Equal(t, tt.wantSearch, got)
			}
			assert.Equal(t, tt.wantAtAfter, x.FindFirstAtOrAfter(tt.target))
		})
	}
}

// 🧪 TestIndexLocateSharedOffset tests that identity wins over offset
func TestIndexLocateSharedOffset(t *testing.T) {
	insert := &Edit{Offset: 4, Length: 0, Content: []byte("/*x*/")}
	replace := &Edit{Offset: 4, Length: 2, Content: []byte("y")}
	later := &Edit{Offset: 9, Length: 1, Content: []byte("z")}

	x, err := NewIndex("f.c", []*Edit{insert, replace, later})
	require.NoError(t, err)

	assert.Equal(t, 0, x.Locate(insert))
	assert.Equal(t, 1, x.Locate(replace))
	assert.Equal(t, 2, x.Locate(later))
	assert.Equal(t, -1, x.Locate(&Edit{Offset: 4}))

	reordered, err := NewIndex("f.c", []*Edit{later, replace, insert})
	require.NoError(t, err, "an insertion listed after its neighbour is not an overlap")
	assert.Equal(t, 0, reordered.Locate(insert))

	require.NoError(t, x.Applied(replace, replace.Delta()))
	assert.Equal(t, []int{4, 8}, offsets(x), "insert before the replacement keeps its offset")

	err = x.Applied(replace, 0)
	assert.Error(t, err, "an applied edit is no longer pending")
}

// 🧪 TestIndexRejectsOverlap tests overlap detection
func TestIndexRejectsOverlap(t *testing.T) {
	_, err := NewIndex("f.c", []*Edit{
		{Offset: 0, Length: 5},
		{Offset: 3, Length: 1},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOverlappingEdit))

	_, err = NewIndex("f.c", []*Edit{
		{Offset: 0, Length: 3},
		{Offset: 3, Length: 1},
	})
	assert.NoError(t, err, "touching spans do not overlap")
}

// 🧪 TestIndexShiftAndRemoveBounds tests that out of range positions are ignored
func TestIndexShiftAndRemoveBounds(t *testing.T) {
	x, err := NewIndex("f.c", []*Edit{{Offset: 1}, {Offset: 2}})
	require.NoError(t, err)

	x.ShiftFrom(-1, 5)
	x.ShiftFrom(7, 5)
	x.Remove(-1)
	x.Remove(2)
	assert.Equal(t, []int{1, 2}, offsets(x))

	x.ShiftFrom(1, 3)
	assert.Equal(t, []int{1, 5}, offsets(x))
}

// 🧪 TestIndexAnyOrder checks that applying non overlapping edits in any order
// with offset correction gives the same bytes as applying them back to front
func TestIndexAnyOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		original := rapid.SliceOfN(rapid.SampledFrom([]byte("abc\n")), 1, 64).Draw(t, "original")

		// carve non overlapping spans left to right
		var edits []*Edit
		pos := 0
		for pos < len(original) {
			gap := rapid.IntRange(0, 4).Draw(t, "gap")
			pos += gap
			if pos > len(original) {
				break
			}
			length := rapid.IntRange(0, min(3, len(original)-pos)).Draw(t, "length")
			content := rapid.SliceOfN(rapid.SampledFrom([]byte("xy")), 0, 5).Draw(t, "content")
			edits = append(edits, &Edit{Offset: pos, Length: length, Content: content})
			pos += length + 1
		}

		// expected: apply from the back so earlier offsets stay valid
		want := append([]byte(nil), original...)
		for i := len(edits) - 1; i >= 0; i-- {
			var err error
			want, err = edits[i].Apply(want)
			if err != nil {
				t.Fatalf("reference apply: %v", err)
			}
		}

		x, err := NewIndex("f", edits)
		if err != nil {
			t.Fatalf("index: %v", err)
		}

		order := rapid.Permutation(edits).Draw(t, "order")
		got := append([]byte(nil), original...)
		for _, e := range order {
			got, err = e.Apply(got)
			if err != nil {
				t.Fatalf("apply %v: %v", e, err)
			}
			if err := x.Applied(e, e.Delta()); err != nil {
				t.Fatalf("applied: %v", err)
			}
		}

		if !bytes.Equal(got, want) {
			t.Fatalf("got %q want %q", got, want)
		}
	})
}
