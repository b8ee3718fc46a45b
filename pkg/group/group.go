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

// Package group turns attributed edits into replay groups, one per author.
//
// Edits are first bucketed by the commit they were attributed to. Each commit
// is resolved to its author and every commit of the same person is merged into
// one group, so the rewritten history carries a single commit per author.
// Edits from files without history form one extra group that is always
// replayed last.
package group

import (
	"context"
	"slices"
	"sort"

	"github.com/rs/zerolog"
	"github.com/walteh/blamefmt/pkg/blame"
	"gitlab.com/tozd/go/errors"
)

// 🔑 Key identifies a replay group.
type Key struct {
	Author    blame.Author
	Untracked bool
}

func (k Key) String() string {
	if k.Untracked {
		return "untracked"
	}
	return k.Author.String()
}

// 📦 ReplayGroup is every edit that ends up in one synthesized commit.
type ReplayGroup struct {
	Key Key
	// Commits lists the original commits merged into this group, sorted.
	// Commits[0] is the representative commit.
	Commits []string
	Edits   []blame.AttributedEdit
}

// Representative returns the commit whose metadata stands for the group, or
// "" for the untracked group.
func (g *ReplayGroup) Representative() string {
	if len(g.Commits) == 0 {
		return ""
	}
	return g.Commits[0]
}

// Paths returns the distinct files touched by the group in sorted order.
func (g *ReplayGroup) Paths() []string {
	paths := make([]string, 0, len(g.Edits))
	for _, e := range g.Edits {
		paths = append(paths, e.Path())
	}
	// edits are sorted by path so adjacent dedup is enough
	return slices.Compact(paths)
}

// AuthorResolver looks up who wrote a commit.
type AuthorResolver interface {
	CommitAuthor(ctx context.Context, commit string) (blame.Author, error)
}

// Options controls how groups are built.
type Options struct {
	// Fallback is used for the untracked group and for commits whose author
	// cannot be resolved.
	Fallback blame.Author
	// FilterAuthor, when set, keeps only authored groups whose author matches.
	FilterAuthor string
}

// 📋 Result is the ordered output of Build.
type Result struct {
	// Groups are the groups to replay, in replay order.
	Groups []*ReplayGroup
	// Filtered are the authored groups dropped by Options.FilterAuthor.
	Filtered []*ReplayGroup
	// Unresolved lists commits that fell back to Options.Fallback.
	Unresolved []string
}

// EditCount returns the number of edits across all groups to replay.
func (r *Result) EditCount() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Edits)
	}
	return n
}

// 🏗️ Build partitions edits into replay groups.
//
// A nil resolver means there is no repository; every commit then resolves to
// the fallback author.
func Build(ctx context.Context, edits []blame.AttributedEdit, resolver AuthorResolver, opts Options) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	byCommit := map[string][]blame.AttributedEdit{}
	var commits []string
	var untracked []blame.AttributedEdit
	for _, e := range edits {
		if e.IsUntracked() {
			untracked = append(untracked, e)
			continue
		}
		if _, ok := byCommit[e.Commit]; !ok {
			commits = append(commits, e.Commit)
		}
		byCommit[e.Commit] = append(byCommit[e.Commit], e)
	}
	sort.Strings(commits)

	res := &Result{}
	byAuthor := map[blame.AuthorKey]*ReplayGroup{}
	for _, commit := range commits {
		if err := ctx.Err(); err != nil {
			return nil, errors.Errorf("building groups: %w", err)
		}

		author, ok := resolve(ctx, resolver, commit)
		if !ok {
			logger.Warn().Str("commit", commit).Str("author", opts.Fallback.String()).Msg("commit author unavailable, using fallback")
			author = opts.Fallback
			res.Unresolved = append(res.Unresolved, commit)
		}

		g, ok := byAuthor[author.Key()]
		if !ok {
			g = &ReplayGroup{Key: Key{Author: author}}
			byAuthor[author.Key()] = g
		}
		g.Commits = append(g.Commits, commit)
		g.Edits = append(g.Edits, byCommit[commit]...)
	}

	authored := make([]*ReplayGroup, 0, len(byAuthor))
	for _, g := range byAuthor {
		sortEdits(g.Edits)
		authored = append(authored, g)
	}
	sort.Slice(authored, func(i, j int) bool {
		return authored[i].Key.Author.Key().Compare(authored[j].Key.Author.Key()) < 0
	})

	for _, g := range authored {
		if !g.Key.Author.Matches(opts.FilterAuthor) {
			logger.Debug().Str("group", g.Key.String()).Int("edits", len(g.Edits)).Msg("group filtered by author")
			res.Filtered = append(res.Filtered, g)
			continue
		}
		res.Groups = append(res.Groups, g)
	}

	if len(untracked) > 0 {
		sortEdits(untracked)
		res.Groups = append(res.Groups, &ReplayGroup{
			Key:   Key{Author: opts.Fallback, Untracked: true},
			Edits: untracked,
		})
	}

	logger.Debug().
		Int("groups", len(res.Groups)).
		Int("filtered", len(res.Filtered)).
		Int("edits", res.EditCount()).
		Msg("replay groups built")

	return res, nil
}

func resolve(ctx context.Context, resolver AuthorResolver, commit string) (blame.Author, bool) {
	if resolver == nil {
		return blame.Author{}, false
	}
	author, err := resolver.CommitAuthor(ctx, commit)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("commit", commit).Msg("resolving commit author")
		return blame.Author{}, false
	}
	if author.IsZero() {
		return blame.Author{}, false
	}
	return author, true
}

// sortEdits orders edits by path, then by original offset.
func sortEdits(edits []blame.AttributedEdit) {
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].Path() != edits[j].Path() {
			return edits[i].Path() < edits[j].Path()
		}
		return edits[i].Origin < edits[j].Origin
	})
}
