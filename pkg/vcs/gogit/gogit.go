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

// Package gogit is the pure Go backend, built on go-git.
package gogit

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog"
	"github.com/walteh/blamefmt/pkg/blame"
	"github.com/walteh/blamefmt/pkg/vcs"
	"gitlab.com/tozd/go/errors"
)

const Name = "go-git"

func init() {
	vcs.Register(Name, func(ctx context.Context, path string) (vcs.Repository, error) {
		return Open(ctx, path)
	})
}

var _ vcs.Repository = (*Repository)(nil)

// 🗃️ Repository wraps a go-git repository and its worktree.
type Repository struct {
	// go-git object storage is not safe for concurrent use
	mu   sync.Mutex
	repo *git.Repository
	wt   *git.Worktree
	root string
}

// 🔓 Open finds the repository containing path, walking up to the .git dir.
func Open(ctx context.Context, path string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, errors.Errorf("%w: %s", vcs.ErrNoRepository, path)
		}
		return nil, errors.Errorf("opening repository: %w", err)
	}
	return wrap(ctx, repo)
}

// Init creates a new repository at path.
func Init(ctx context.Context, path string) (*Repository, error) {
	repo, err := git.PlainInit(path, false)
	if err != nil {
		return nil, errors.Errorf("initializing repository: %w", err)
	}
	return wrap(ctx, repo)
}

func wrap(ctx context.Context, repo *git.Repository) (*Repository, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return nil, errors.Errorf("getting worktree: %w", err)
	}
	root := wt.Filesystem.Root()
	zerolog.Ctx(ctx).Debug().Str("root", root).Str("backend", Name).Msg("repository opened")
	return &Repository{repo: repo, wt: wt, root: root}, nil
}

func (r *Repository) Root() string {
	return r.root
}

func (r *Repository) Head(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", errors.Errorf("%w: %s", vcs.ErrNoHead, r.root)
		}
		return "", errors.Errorf("resolving HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// 🔍 Blame blames path, relative to the root, at rev.
func (r *Repository) Blame(ctx context.Context, rev, path string) ([]blame.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	commit, err := r.repo.CommitObject(plumbing.NewHash(rev))
	if err != nil {
		return nil, errors.Errorf("loading commit %s: %w", rev, err)
	}

	path = filepath.ToSlash(path)
	if _, err := commit.File(path); err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, errors.Errorf("%w: %s", vcs.ErrNotTracked, path)
		}
		return nil, errors.Errorf("looking up %s: %w", path, err)
	}

	res, err := git.Blame(commit, path)
	if err != nil {
		return nil, errors.Errorf("blaming %s: %w", path, err)
	}

	lines := make([]vcs.Line, 0, len(res.Lines))
	for _, l := range res.Lines {
		lines = append(lines, vcs.Line{
			Commit: l.Hash.String(),
			Author: blame.Author{Name: l.AuthorName, Email: l.Author},
			Text:   l.Text,
		})
	}
	return vcs.Entries(lines), nil
}

func (r *Repository) CommitAuthor(ctx context.Context, commit string) (blame.Author, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.repo.CommitObject(plumbing.NewHash(commit))
	if err != nil {
		return blame.Author{}, errors.Errorf("loading commit %s: %w", commit, err)
	}
	return blame.Author{Name: c.Author.Name, Email: c.Author.Email}, nil
}

// 📝 Commit stages paths and commits the index as author. go-git always
// commits the whole index, so anything staged beforehand goes along.
func (r *Repository) Commit(ctx context.Context, paths []string, author blame.Author, message string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range paths {
		if _, err := r.wt.Add(filepath.ToSlash(p)); err != nil {
			return "", errors.Errorf("staging %s: %w", p, err)
		}
	}

	hash, err := r.wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  author.Name,
			Email: author.Email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", errors.Errorf("committing: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("commit", hash.String()).Str("author", author.String()).Msg("commit created")
	return hash.String(), nil
}

// User returns user.name and user.email from the repository and global config.
func (r *Repository) User(ctx context.Context) (blame.Author, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := r.repo.ConfigScoped(gitconfig.GlobalScope)
	if err != nil {
		return blame.Author{}, errors.Errorf("reading git config: %w", err)
	}
	return blame.Author{Name: cfg.User.Name, Email: cfg.User.Email}, nil
}
