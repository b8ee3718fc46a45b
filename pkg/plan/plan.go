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
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/blamefmt/pkg/blame"
	"github.com/walteh/blamefmt/pkg/edit"
	"github.com/walteh/blamefmt/pkg/formatter"
	"github.com/walteh/blamefmt/pkg/status"
	"github.com/walteh/blamefmt/pkg/vcs"
)

// emptyLimit is the largest file size treated as empty
const emptyLimit = 1

// 🔧 Options configures the generation phase
type Options struct {
	Root      string   // absolute root all paths are relative to
	Dir       string   // directory to walk, defaults to Root
	Include   []string // doublestar globs relative to Dir
	Exclude   []string // doublestar globs relative to Dir
	SizeLimit int64    // bytes, 0 disables the limit
	Jobs      int      // worker count, defaults to NumCPU
	Header    []byte   // expanded header for files without a copyright notice

	// Progress, when set, receives a progress bar.
	Progress io.Writer
}

// 📄 File is the generation outcome of one file.
type File struct {
	Path        string // slash separated, relative to Root
	Size        int64
	Edits       []blame.AttributedEdit
	Untracked   bool
	Diagnostics []blame.Diagnostic

	Skip   status.SkipReason // set when the file was skipped
	Detail string
	Err    error // set when the file failed

	index *edit.Index
}

// Index returns the pending edit index of the file, nil unless it has edits.
func (f *File) Index() *edit.Index {
	return f.index
}

// HasEdits reports whether the file will be rewritten.
func (f *File) HasEdits() bool {
	return f.Err == nil && f.Skip == "" && len(f.Edits) > 0
}

// 📋 Plan is every edit a run would make, before anything is written.
type Plan struct {
	Head  string // revision blame was computed against, empty without history
	Files []*File
}

// Indexes returns the edit index of every file with edits.
func (p *Plan) Indexes() []*edit.Index {
	var out []*edit.Index
	for _, f := range p.Files {
		if f.HasEdits() {
			out = append(out, f.index)
		}
	}
	return out
}

// Edits returns every attributed edit in path order.
func (p *Plan) Edits() []blame.AttributedEdit {
	var out []blame.AttributedEdit
	for _, f := range p.Files {
		if f.HasEdits() {
			out = append(out, f.Edits...)
		}
	}
	return out
}

// Planned returns the files that have edits.
func (p *Plan) Planned() []*File {
	var out []*File
	for _, f := range p.Files {
		if f.HasEdits() {
			out = append(out, f)
		}
	}
	return out
}

// Record adds skipped files, failures and diagnostics to r.
func (p *Plan) Record(r *status.Report) {
	for _, f := range p.Files {
		switch {
		case f.Err != nil:
			r.AddFailed(f.Path, f.Err)
		case f.Skip != "":
			r.AddSkipped(f.Path, f.Skip, f.Detail)
		}
		for _, d := range f.Diagnostics {
			r.AddDiagnostic(d)
		}
	}
}

// 🏗️ Planner runs the generation phase: every file is formatted, normalized
// and attributed independently, in parallel.
type Planner struct {
	repo      vcs.Repository
	formatter formatter.Formatter
	opts      Options
}

// 🏭 New creates a planner. repo may be nil, in which case every file is
// untracked.
func New(repo vcs.Repository, f formatter.Formatter, opts Options) *Planner {
	if opts.Dir == "" {
		opts.Dir = opts.Root
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.NumCPU()
	}
	return &Planner{repo: repo, formatter: f, opts: opts}
}

// 🚀 Run discovers files and plans each of them. Per file problems are
// recorded on the File; only discovery errors and cancellation fail the run.
func (p *Planner) Run(ctx context.Context) (*Plan, error) {
	logger := zerolog.Ctx(ctx)

	paths, excluded, err := Discover(p.opts.Root, p.opts.Dir, p.opts.Include, p.opts.Exclude)
	if err != nil {
		return nil, errors.Errorf("discovering files: %w", err)
	}

	head, err := p.head(ctx)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Int("files", len(paths)).
		Int("excluded", len(excluded)).
		Str("head", head).
		Int("jobs", p.opts.Jobs).
		Msg("planning files")

	files := make([]*File, len(paths))
	progress := status.NewProgress("formatting", len(paths), p.opts.Progress)
	defer progress.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Jobs)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			files[i] = p.planFile(gctx, head, path)
			progress.Increment(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Errorf("planning files: %w", err)
	}

	for _, path := range excluded {
		files = append(files, &File{Path: path, Skip: status.ReasonExcluded})
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	return &Plan{Head: head, Files: files}, nil
}

func (p *Planner) head(ctx context.Context) (string, error) {
	if p.repo == nil {
		return "", nil
	}
	head, err := p.repo.Head(ctx)
	if errors.Is(err, vcs.ErrNoHead) {
		zerolog.Ctx(ctx).Debug().Msg("repository has no commits, every file is untracked")
		return "", nil
	}
	if err != nil {
		return "", errors.Errorf("resolving HEAD: %w", err)
	}
	return head, nil
}

// planFile never fails: the outcome is recorded on the returned File.
func (p *Planner) planFile(ctx context.Context, head, path string) *File {
	logger := zerolog.Ctx(ctx).With().Str("path", path).Logger()
	f := &File{Path: path}

	abs := filepath.Join(p.opts.Root, filepath.FromSlash(path))
	info, err := os.Stat(abs)
	if err != nil {
		f.Err = errors.Errorf("stat %s: %w", path, err)
		return f
	}
	f.Size = info.Size()

	switch {
	case p.opts.SizeLimit > 0 && f.Size > p.opts.SizeLimit:
		f.Skip = status.ReasonOversized
		f.Detail = humanize.Bytes(uint64(f.Size))
		return f
	case f.Size <= emptyLimit:
		f.Skip = status.ReasonEmpty
		return f
	case info.Mode().Perm()&0o200 == 0:
		f.Skip = status.ReasonPermissionDenied
		f.Detail = info.Mode().Perm().String()
		return f
	}

	original, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrPermission) {
		f.Skip = status.ReasonPermissionDenied
		return f
	}
	if err != nil {
		f.Err = errors.Errorf("reading %s: %w", path, err)
		return f
	}

	raws, err := p.formatter.Replacements(ctx, path, original)
	if err != nil {
		f.Err = errors.Errorf("formatting %s: %w", path, err)
		return f
	}

	edits, err := edit.NormalizeAll(original, raws, path)
	if err != nil {
		f.Err = errors.Errorf("normalizing %s: %w", path, err)
		return f
	}
	edits = edit.WithHeader(original, edits, p.opts.Header, path)
	if len(edits) == 0 {
		f.Skip = status.ReasonNoEdits
		return f
	}

	f.index, err = edit.NewIndex(path, edits)
	if err != nil {
		f.Err = err
		return f
	}

	attributor := p.attributor(ctx, head, path, original)
	if attributor == nil {
		f.Untracked = true
		for _, e := range edits {
			f.Edits = append(f.Edits, blame.Untracked(e))
		}
		logger.Debug().Int("edits", len(edits)).Msg("planned untracked file")
		return f
	}

	for _, e := range edits {
		a := attributor.Attribute(e)
		if a.Diagnostic != nil {
			f.Diagnostics = append(f.Diagnostics, *a.Diagnostic)
			logger.Warn().
				Int("first_line", a.FirstLine).
				Int("last_line", a.LastLine).
				Strs("commits", a.Diagnostic.Commits).
				Str("chosen", a.Author.String()).
				Msg("edit spans several commits")
		}
		f.Edits = append(f.Edits, blame.Attributed(e, a.Commit))
	}

	logger.Debug().Int("edits", len(edits)).Int("ambiguous", len(f.Diagnostics)).Msg("planned file")
	return f
}

// attributor returns nil when the file has no usable blame.
func (p *Planner) attributor(ctx context.Context, head, path string, original []byte) *blame.Attributor {
	if p.repo == nil || head == "" {
		return nil
	}

	logger := zerolog.Ctx(ctx)
	entries, err := p.repo.Blame(ctx, head, path)
	if err != nil {
		if !errors.Is(err, vcs.ErrNotTracked) {
			logger.Warn().Err(err).Str("path", path).Msg("blame unavailable, treating file as untracked")
		}
		return nil
	}

	a, err := blame.NewAttributor(path, original, entries)
	if err != nil {
		logger.Debug().Err(err).Str("path", path).Msg("empty blame, treating file as untracked")
		return nil
	}
	return a
}
