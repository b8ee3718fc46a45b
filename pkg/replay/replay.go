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
	"context"
	"sort"

	"github.com/rs/zerolog"
	"github.com/walteh/blamefmt/pkg/blame"
	"github.com/walteh/blamefmt/pkg/edit"
	"github.com/walteh/blamefmt/pkg/group"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrWriteFailure stops the remaining edits of one file. Other files go on.
	ErrWriteFailure = errors.Base("write failure")
	// ErrCommitFailure is reported for a group whose commit was rejected. The
	// written files stay as they are.
	ErrCommitFailure = errors.Base("commit failure")
)

const (
	MessageAuthored  = "blamefmt: reformat, blame preserved"
	MessageUntracked = "blamefmt: format uncommitted code"
)

// 💾 FileWriter replaces length bytes at offset of a file with content.
type FileWriter interface {
	Splice(ctx context.Context, path string, offset, length int, content []byte) error
}

// 📝 Committer stages paths and records them as one commit.
type Committer interface {
	Commit(ctx context.Context, paths []string, author blame.Author, message string) (string, error)
}

// Options for an Applier.
type Options struct {
	// NoCommit writes the edits but never creates commits.
	NoCommit bool
	// OnEdit is called after every edit written to disk.
	OnEdit func(path string)
}

// ⚙️ Applier replays groups against the working tree.
//
// Every file owns an edit.Index holding its pending edits. Writing an edit
// corrects the offsets of the edits still pending in that file and nothing
// else, so groups can be replayed in any order.
type Applier struct {
	writer    FileWriter
	committer Committer
	opts      Options

	indexes map[string]*edit.Index
	failed  map[string]error
	files   map[string]*FileOutcome
}

// 🏭 NewApplier returns an Applier for the given per-file indexes. A nil
// committer means there is no repository to commit to.
func NewApplier(writer FileWriter, committer Committer, indexes []*edit.Index, opts Options) *Applier {
	byPath := make(map[string]*edit.Index, len(indexes))
	for _, x := range indexes {
		byPath[x.Path()] = x
	}
	return &Applier{
		writer:    writer,
		committer: committer,
		opts:      opts,
		indexes:   byPath,
		failed:    map[string]error{},
		files:     map[string]*FileOutcome{},
	}
}

// 📄 FileOutcome is what happened to one file over the whole run.
type FileOutcome struct {
	Path    string
	Applied int
	Commits []string       // original commits the applied edits were attributed to
	Authors []blame.Author // authors of the commits that carry the edits
	Err     error
}

func (f *FileOutcome) addCommit(commit string) {
	if commit == "" {
		return
	}
	for _, c := range f.Commits {
		if c == commit {
			return
		}
	}
	f.Commits = append(f.Commits, commit)
}

func (f *FileOutcome) addAuthor(a blame.Author) {
	for _, have := range f.Authors {
		if have.Equal(a) {
			return
		}
	}
	f.Authors = append(f.Authors, a)
}

// 📦 GroupOutcome is the result of replaying one group.
type GroupOutcome struct {
	Key     group.Key
	Applied int
	Files   []string         // files with at least one edit written
	Failed  map[string]error // files that failed during this group
	Skipped int              // edits not attempted because their file had failed
	Commit  string           // hash of the synthesized commit, if any
	Err     error            // ErrCommitFailure
}

// 📋 Outcome aggregates a whole replay.
type Outcome struct {
	Groups []GroupOutcome
	Files  []*FileOutcome
}

// Failed returns the files that hit a write failure.
func (o *Outcome) Failed() []*FileOutcome {
	var out []*FileOutcome
	for _, f := range o.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// Applied returns the total number of edits written.
func (o *Outcome) Applied() int {
	n := 0
	for _, g := range o.Groups {
		n += g.Applied
	}
	return n
}

// 🔁 Run replays every group in order. It only returns an error when ctx is
// cancelled; per-file and per-commit failures are part of the Outcome.
func (a *Applier) Run(ctx context.Context, groups []*group.ReplayGroup) (*Outcome, error) {
	out := &Outcome{}
	var runErr error
	for _, g := range groups {
		res, err := a.Apply(ctx, g)
		out.Groups = append(out.Groups, res)
		if err != nil {
			runErr = err
			break
		}
	}

	paths := make([]string, 0, len(a.files))
	for p := range a.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		out.Files = append(out.Files, a.files[p])
	}

	return out, runErr
}

// 🎬 Apply writes the edits of one group and commits the touched files.
func (a *Applier) Apply(ctx context.Context, g *group.ReplayGroup) (GroupOutcome, error) {
	logger := zerolog.Ctx(ctx).With().Str("group", g.Key.String()).Logger()

	res := GroupOutcome{Key: g.Key, Failed: map[string]error{}}
	touched := map[string]bool{}

	for _, ae := range g.Edits {
		if err := ctx.Err(); err != nil {
			res.Files = sortedKeys(touched)
			return res, errors.Errorf("replaying %s: %w", g.Key, err)
		}

		path := ae.Path()
		if _, failed := a.failed[path]; failed {
			res.Skipped++
			continue
		}

		if err := a.write(ctx, ae); err != nil {
			logger.Error().Err(err).Str("path", path).Msg("write failed, skipping the rest of the file")
			a.failed[path] = err
			a.file(path).Err = err
			res.Failed[path] = err
			continue
		}

		touched[path] = true
		res.Applied++
		f := a.file(path)
		f.Applied++
		f.addCommit(ae.Commit)
		f.addAuthor(g.Key.Author)

		if a.opts.OnEdit != nil {
			a.opts.OnEdit(path)
		}
	}

	res.Files = sortedKeys(touched)

	if len(res.Files) == 0 || a.committer == nil || a.opts.NoCommit {
		return res, nil
	}

	message := MessageAuthored
	if g.Key.Untracked {
		message = MessageUntracked
	}

	hash, err := a.committer.Commit(ctx, res.Files, g.Key.Author, message)
	if err != nil {
		res.Err = errors.Errorf("%w: %s: %w", ErrCommitFailure, g.Key, err)
		logger.Error().Err(err).Strs("paths", res.Files).Msg("commit failed, files stay written")
		return res, nil
	}

	res.Commit = hash
	logger.Info().Str("commit", hash).Int("edits", res.Applied).Int("files", len(res.Files)).Msg("group committed")
	return res, nil
}

// write splices one edit into its file and corrects the file's pending edits.
func (a *Applier) write(ctx context.Context, ae blame.AttributedEdit) error {
	e := ae.Edit
	x, ok := a.indexes[e.Path]
	if !ok {
		return errors.Errorf("%w: %s has no pending edits", ErrWriteFailure, e.Path)
	}

	if err := a.writer.Splice(ctx, e.Path, e.Offset, e.Length, e.Content); err != nil {
		return errors.Errorf("%w: %s at %d: %w", ErrWriteFailure, e.Path, e.Offset, err)
	}

	delta := e.Delta()
	if err := x.Applied(e, delta); err != nil {
		return errors.Errorf("%w: %w", ErrWriteFailure, err)
	}

	zerolog.Ctx(ctx).Trace().
		Str("path", e.Path).
		Int("offset", e.Offset).
		Int("delta", delta).
		Str("commit", ae.Commit).
		Msg("edit applied")

	return nil
}

func (a *Applier) file(path string) *FileOutcome {
	f, ok := a.files[path]
	if !ok {
		f = &FileOutcome{Path: path}
		a.files[path] = f
	}
	return f
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
