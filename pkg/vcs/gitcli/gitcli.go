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

// Package gitcli is the backend that shells out to the git binary. It is
// slower to start than go-git but blames large histories much faster.
package gitcli

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/blamefmt/pkg/blame"
	"github.com/walteh/blamefmt/pkg/vcs"
	"gitlab.com/tozd/go/errors"
)

const Name = "git"

func init() {
	vcs.Register(Name, func(ctx context.Context, path string) (vcs.Repository, error) {
		return Open(ctx, path)
	})
}

var _ vcs.Repository = (*Repository)(nil)

// 🗃️ Repository runs git commands inside a working tree.
type Repository struct {
	root string
	git  string
}

// 🔓 Open finds the working tree that contains path.
func Open(ctx context.Context, path string) (*Repository, error) {
	bin, err := exec.LookPath("git")
	if err != nil {
		return nil, errors.Errorf("finding git binary: %w", err)
	}

	out, err := run(ctx, bin, path, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, errors.Errorf("%w: %s: %w", vcs.ErrNoRepository, path, err)
	}

	root := filepath.Clean(strings.TrimSpace(string(out)))
	zerolog.Ctx(ctx).Debug().Str("root", root).Str("backend", Name).Msg("repository opened")
	return &Repository{root: root, git: bin}, nil
}

func (r *Repository) Root() string {
	return r.root
}

func (r *Repository) Head(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--verify", "--quiet", "HEAD")
	if err != nil {
		return "", errors.Errorf("%w: %s", vcs.ErrNoHead, r.root)
	}
	return strings.TrimSpace(string(out)), nil
}

// 🔍 Blame runs git blame --porcelain on path at rev.
func (r *Repository) Blame(ctx context.Context, rev, path string) ([]blame.Entry, error) {
	path = filepath.ToSlash(path)

	if _, err := r.run(ctx, "cat-file", "-e", rev+":"+path); err != nil {
		return nil, errors.Errorf("%w: %s", vcs.ErrNotTracked, path)
	}

	out, err := r.run(ctx, "blame", "--porcelain", rev, "--", path)
	if err != nil {
		return nil, errors.Errorf("blaming %s: %w", path, err)
	}

	lines, err := ParsePorcelain(out)
	if err != nil {
		return nil, errors.Errorf("parsing blame of %s: %w", path, err)
	}
	return vcs.Entries(lines), nil
}

func (r *Repository) CommitAuthor(ctx context.Context, commit string) (blame.Author, error) {
	out, err := r.run(ctx, "show", "-s", "--format=%an%x00%ae", commit)
	if err != nil {
		return blame.Author{}, errors.Errorf("reading author of %s: %w", commit, err)
	}
	name, email, _ := strings.Cut(strings.TrimRight(string(out), "\n"), "\x00")
	return blame.Author{Name: name, Email: email}, nil
}

// 📝 Commit stages paths and commits only those paths as author.
func (r *Repository) Commit(ctx context.Context, paths []string, author blame.Author, message string) (string, error) {
	args := make([]string, 0, len(paths))
	for _, p := range paths {
		args = append(args, filepath.ToSlash(p))
	}

	if _, err := r.run(ctx, append([]string{"add", "--"}, args...)...); err != nil {
		return "", errors.Errorf("staging: %w", err)
	}

	commit := []string{"commit", "--no-verify", "--quiet", "-m", message, "--author", authorArg(author), "--"}
	if _, err := r.run(ctx, append(commit, args...)...); err != nil {
		return "", errors.Errorf("committing: %w", err)
	}

	hash, err := r.Head(ctx)
	if err != nil {
		return "", err
	}

	zerolog.Ctx(ctx).Debug().Str("commit", hash).Str("author", author.String()).Msg("commit created")
	return hash, nil
}

// authorArg always carries the angle brackets. A bare name makes git look
// for an existing author matching it and fail when there is none.
func authorArg(a blame.Author) string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// User returns the configured user.name and user.email.
func (r *Repository) User(ctx context.Context) (blame.Author, error) {
	var a blame.Author
	// git config exits 1 when the key is unset
	if out, err := r.run(ctx, "config", "user.name"); err == nil {
		a.Name = strings.TrimSpace(string(out))
	}
	if out, err := r.run(ctx, "config", "user.email"); err == nil {
		a.Email = strings.TrimSpace(string(out))
	}
	return a, nil
}

func (r *Repository) run(ctx context.Context, args ...string) ([]byte, error) {
	return run(ctx, r.git, r.root, args...)
}

func run(ctx context.Context, bin, dir string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	zerolog.Ctx(ctx).Trace().Strs("args", args).Str("dir", dir).Msg("running git")

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, errors.Errorf("git %s: %w", args[0], err)
		}
		return nil, errors.Errorf("git %s: %s: %w", args[0], msg, err)
	}
	return stdout.Bytes(), nil
}
