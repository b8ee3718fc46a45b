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

package operation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/blamefmt/pkg/blame"
	"github.com/walteh/blamefmt/pkg/edit"
	"github.com/walteh/blamefmt/pkg/group"
	"github.com/walteh/blamefmt/pkg/log"
	"github.com/walteh/blamefmt/pkg/plan"
	"github.com/walteh/blamefmt/pkg/replay"
	"github.com/walteh/blamefmt/pkg/status"
)

// 🎨 NewFormatOperation creates the operation that formats, replays and
// commits. With Config.DryRun set it only reports what it would do.
func NewFormatOperation(opts Options) (*FormatOperation, error) {
	if err := opts.validate(true); err != nil {
		return nil, err
	}
	return &FormatOperation{
		BaseOperation: NewBaseOperation(opts),
		report:        status.NewReport(opts.Config.DryRun),
	}, nil
}

// 🗒️ NewPlanOperation creates a format operation that writes nothing.
func NewPlanOperation(opts Options) (*FormatOperation, error) {
	cfg := *opts.Config
	cfg.DryRun = true
	opts.Config = &cfg
	return NewFormatOperation(opts)
}

// 🎨 FormatOperation runs plan, group, replay and report.
type FormatOperation struct {
	BaseOperation
	report *status.Report
	groups *group.Result
}

// Name implements Operation
func (op *FormatOperation) Name() string {
	if op.Config.DryRun {
		return "plan"
	}
	return "format"
}

// Report returns the outcome of the last Execute
func (op *FormatOperation) Report() *status.Report {
	return op.report
}

// Groups returns the replay groups of the last Execute
func (op *FormatOperation) Groups() *group.Result {
	return op.groups
}

// 🏃 Execute runs the operation. Per file problems do not stop it; they are
// reported and turn into ErrPartialFailure at the end.
func (op *FormatOperation) Execute(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	cfg := op.Config
	fallback := FallbackAuthor(ctx, cfg, op.Repo)

	op.Console.Header(cfg.String())

	dir := cfg.Path
	if !filepath.IsAbs(dir) {
		wd, err := os.Getwd()
		if err != nil {
			return errors.Errorf("getting working directory: %w", err)
		}
		dir = filepath.Join(wd, dir)
	}

	header := edit.ExpandHeader(cfg.Header, op.Now().Year(), fallback.Name, fallback.Email)

	planner := plan.New(op.Repo, op.Formatter, plan.Options{
		Root:      op.Files.BaseDir(),
		Dir:       dir,
		Include:   cfg.Include,
		Exclude:   excludeBackups(cfg.Exclude, dir, cfg.BackupDir),
		SizeLimit: cfg.SizeLimit(),
		Jobs:      cfg.Jobs,
		Header:    header,
		Progress:  op.Progress,
	})

	p, err := planner.Run(ctx)
	if err != nil {
		return errors.Errorf("planning: %w", err)
	}
	p.Record(op.report)
	op.logPlan(ctx, p)

	resolver := group.AuthorResolver(nil)
	if op.Repo != nil {
		resolver = op.Repo
	}
	op.groups, err = group.Build(ctx, p.Edits(), resolver, group.Options{
		Fallback:     fallback,
		FilterAuthor: cfg.FilterAuthor,
	})
	if err != nil {
		return errors.Errorf("grouping edits: %w", err)
	}
	op.recordFiltered(ctx)

	logger.Debug().
		Int("groups", len(op.groups.Groups)).
		Int("filtered", len(op.groups.Filtered)).
		Int("edits", op.groups.EditCount()).
		Msg("edits grouped")

	if cfg.DryRun {
		op.preview(ctx, p)
	} else if err := op.apply(ctx, p); err != nil {
		return err
	}

	op.report.Finish()
	op.Console.LogNewline()
	summary := status.NewDefaultFileFormatter().FormatSummary(op.report)
	if cfg.DryRun {
		summary = "dry run: " + summary
	}
	failed := op.report.Counts().Failed > 0
	op.Console.Summary(summary, failed)

	if failed {
		return errors.Errorf("%w: %d of %d files", ErrPartialFailure, op.report.Counts().Failed, len(p.Files))
	}
	return nil
}

func (op *FormatOperation) logPlan(ctx context.Context, p *plan.Plan) {
	for _, f := range p.Files {
		switch {
		case f.Err != nil:
			op.Console.LogFileOperation(ctx, log.FileOperation{Path: f.Path, State: log.StateFailed, Detail: f.Err.Error()})
		case f.Skip != "":
			detail := string(f.Skip)
			if f.Detail != "" {
				detail += " (" + f.Detail + ")"
			}
			op.Console.LogFileOperation(ctx, log.FileOperation{Path: f.Path, State: log.StateSkipped, Detail: detail})
		}
		for _, d := range f.Diagnostics {
			op.Console.LogFileOperation(ctx, log.FileOperation{
				Path:   f.Path,
				State:  log.StateAmbiguous,
				Detail: fmt.Sprintf("lines %d-%d, %d commits, kept %s", d.FirstLine, d.LastLine, len(d.Commits), d.Chosen),
			})
		}
	}
}

// recordFiltered reports files whose every edit belongs to a filtered group.
func (op *FormatOperation) recordFiltered(ctx context.Context) {
	if len(op.groups.Filtered) == 0 {
		return
	}

	kept := map[string]bool{}
	for _, g := range op.groups.Groups {
		for _, path := range g.Paths() {
			kept[path] = true
		}
	}

	seen := map[string]bool{}
	for _, g := range op.groups.Filtered {
		for _, path := range g.Paths() {
			if kept[path] || seen[path] {
				continue
			}
			seen[path] = true
			op.report.AddSkipped(path, status.ReasonFiltered, g.Key.String())
			op.Console.LogFileOperation(ctx, log.FileOperation{Path: path, State: log.StateSkipped, Detail: string(status.ReasonFiltered)})
		}
	}
}

// preview reports every group and file without touching the tree.
func (op *FormatOperation) preview(ctx context.Context, p *plan.Plan) {
	for _, g := range op.groups.Groups {
		op.Console.LogGroup(ctx, log.GroupOperation{
			Author:    g.Key.Author.String(),
			Untracked: g.Key.Untracked,
			Commits:   g.Commits,
			Files:     len(g.Paths()),
			Edits:     len(g.Edits),
		})
	}

	planned := map[string]*status.Modified{}
	var order []string
	for _, g := range op.groups.Groups {
		for _, ae := range g.Edits {
			m, ok := planned[ae.Path()]
			if !ok {
				m = &status.Modified{Path: ae.Path()}
				planned[ae.Path()] = m
				order = append(order, ae.Path())
			}
			m.Edits++
			m.Commits = appendCommit(m.Commits, ae.Commit)
			m.Authors = appendAuthor(m.Authors, g.Key.Author)
		}
	}

	for _, path := range order {
		m := planned[path]
		op.report.AddModified(*m)
		op.Files.TrackFile(ctx, path, status.FileInfo{Status: status.StatusPlanned, Edits: m.Edits})
		op.Console.LogFileOperation(ctx, log.FileOperation{
			Path:   path,
			State:  log.StatePlanned,
			Detail: plural(m.Edits, "edit"),
			Edits:  m.Edits,
		})
	}
}

// apply snapshots, replays and commits.
func (op *FormatOperation) apply(ctx context.Context, p *plan.Plan) error {
	logger := zerolog.Ctx(ctx)

	for _, g := range op.groups.Groups {
		for _, path := range g.Paths() {
			if err := op.Files.BackupFile(ctx, path); err != nil {
				return errors.Errorf("backing up %s: %w", path, err)
			}
		}
	}

	committer := replay.Committer(nil)
	if op.Repo != nil {
		committer = op.Repo
	}

	progress := status.NewProgress("replaying", op.groups.EditCount(), op.Progress)
	defer progress.Stop()

	applier := replay.NewApplier(op.Files, committer, p.Indexes(), replay.Options{
		NoCommit: op.Config.NoCommit,
		OnEdit:   func(path string) { progress.Increment(path) },
	})

	outcome, runErr := applier.Run(ctx, op.groups.Groups)
	progress.Stop()

	for _, g := range outcome.Groups {
		op.Console.LogGroup(ctx, log.GroupOperation{
			Author:    g.Key.Author.String(),
			Untracked: g.Key.Untracked,
			Files:     len(g.Files),
			Edits:     g.Applied,
			Commit:    g.Commit,
		})
		if g.Commit != "" {
			op.report.AddCommit(g.Commit)
		}
		if g.Err != nil {
			op.Console.Error(g.Err.Error())
		}
	}

	commitFailed := map[string]error{}
	for _, g := range outcome.Groups {
		if g.Err == nil {
			continue
		}
		for _, path := range g.Files {
			commitFailed[path] = g.Err
		}
	}

	for _, f := range outcome.Files {
		err := f.Err
		if err == nil {
			err = commitFailed[f.Path]
		}
		if err != nil {
			op.report.AddFailed(f.Path, err)
			op.Console.LogFileOperation(ctx, log.FileOperation{Path: f.Path, State: log.StateFailed, Detail: err.Error(), Edits: f.Applied})
			continue
		}
		op.report.AddModified(status.Modified{Path: f.Path, Edits: f.Applied, Commits: f.Commits, Authors: f.Authors})
		op.Console.LogFileOperation(ctx, log.FileOperation{
			Path:   f.Path,
			State:  log.StateModified,
			Detail: plural(f.Applied, "edit"),
			Edits:  f.Applied,
		})
	}

	if runErr != nil {
		logger.Warn().Err(runErr).Msg("replay interrupted, written files stay as they are")
		return errors.Errorf("replaying: %w", runErr)
	}
	return nil
}

// excludeBackups keeps snapshots out of the walk when backup_dir lives inside
// the formatted tree.
func excludeBackups(exclude []string, dir, backupDir string) []string {
	if backupDir == "" {
		return exclude
	}
	abs, err := filepath.Abs(backupDir)
	if err != nil {
		return exclude
	}
	rel, err := filepath.Rel(dir, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return exclude
	}
	return append(slices.Clone(exclude), filepath.ToSlash(rel))
}

func appendCommit(commits []string, c string) []string {
	if c == "" {
		return commits
	}
	for _, have := range commits {
		if have == c {
			return commits
		}
	}
	return append(commits, c)
}

func appendAuthor(authors []blame.Author, a blame.Author) []blame.Author {
	for _, have := range authors {
		if have.Equal(a) {
			return authors
		}
	}
	return append(authors, a)
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
