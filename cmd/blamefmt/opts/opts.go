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

package opts

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/blamefmt/pkg/config"
	"github.com/walteh/blamefmt/pkg/formatter"
	"github.com/walteh/blamefmt/pkg/log"
	"github.com/walteh/blamefmt/pkg/operation"
	"github.com/walteh/blamefmt/pkg/status"
	"github.com/walteh/blamefmt/pkg/vcs"
)

// Flags holds every command line flag. Flags that were set override the
// config file.
type Flags struct {
	ConfigFile string
	Debug      bool

	Repo             string
	Include          []string
	Exclude          []string
	SizeLimitKB      int
	Jobs             int
	FilterAuthor     string
	FallbackAuthor   string
	NoCommit         bool
	DryRun           bool
	Header           string
	Formatter        string
	FormatterBinary  string
	FormatterCommand string
	FormatterStyle   string
	Backend          string
	BackupDir        string
	Quiet            bool
}

// Register adds the flags to fs
func (f *Flags) Register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.ConfigFile, "config", "c", "", "config file path (default: .blamefmt.{yaml,yml,hcl,json} if present)")
	fs.BoolVarP(&f.Debug, "debug", "d", false, "enable debug logging")

	fs.StringVar(&f.Repo, "repo", "", "repository root (default: discovered from the path)")
	fs.StringSliceVar(&f.Include, "include", nil, "glob of files to format, repeatable (default: "+config.DefaultInclude+")")
	fs.StringSliceVar(&f.Exclude, "exclude", nil, "glob of files or directories to leave alone, repeatable")
	fs.IntVar(&f.SizeLimitKB, "size-limit-kb", config.DefaultSizeLimitKB, "skip files larger than this")
	fs.IntVarP(&f.Jobs, "jobs", "j", 0, "files formatted in parallel (default: number of CPUs)")
	fs.StringVar(&f.FilterAuthor, "filter-author", "", "only replay edits attributed to this author")
	fs.StringVar(&f.FallbackAuthor, "fallback-author", "", `author for uncommitted code, "Name <email>" (default: git user)`)
	fs.BoolVar(&f.NoCommit, "no-commit", false, "write the edits but create no commits")
	fs.BoolVarP(&f.DryRun, "dry-run", "n", false, "write nothing, report what would change")
	fs.StringVar(&f.Header, "header", "", "copyright header for files without one; {year}, {name} and {email} are filled in")
	fs.StringVar(&f.Formatter, "formatter", config.DefaultFormatter, "clang-format or command")
	fs.StringVar(&f.FormatterBinary, "formatter-binary", "", "clang-format executable")
	fs.StringVar(&f.FormatterCommand, "formatter-command", "", "stdin to stdout formatter for --formatter=command, {path} is the file")
	fs.StringVar(&f.FormatterStyle, "style", config.DefaultFormatterStyle, "clang-format style")
	fs.StringVar(&f.Backend, "backend", config.DefaultBackend, "version control backend: "+strings.Join(vcs.Backends(), ", "))
	fs.StringVar(&f.BackupDir, "backup-dir", "", "snapshot files here before writing, for restore")
	fs.BoolVarP(&f.Quiet, "quiet", "q", false, "only print failures and the summary")
}

// Apply copies the flags that were set on the command line into cfg
func (f *Flags) Apply(fs *pflag.FlagSet, cfg *config.Config) {
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}

	set("repo", func() { cfg.Repo = f.Repo })
	set("include", func() { cfg.Include = f.Include })
	set("exclude", func() { cfg.Exclude = f.Exclude })
	set("size-limit-kb", func() { cfg.SizeLimitKB = f.SizeLimitKB })
	set("jobs", func() { cfg.Jobs = f.Jobs })
	set("filter-author", func() { cfg.FilterAuthor = f.FilterAuthor })
	set("fallback-author", func() { cfg.FallbackAuthor = f.FallbackAuthor })
	set("no-commit", func() { cfg.NoCommit = f.NoCommit })
	set("dry-run", func() { cfg.DryRun = f.DryRun })
	set("header", func() { cfg.Header = f.Header })
	set("formatter", func() { cfg.Formatter = f.Formatter })
	set("formatter-binary", func() { cfg.FormatterBinary = f.FormatterBinary })
	set("formatter-command", func() { cfg.FormatterCommand = strings.Fields(f.FormatterCommand) })
	set("style", func() { cfg.FormatterStyle = f.FormatterStyle })
	set("backend", func() { cfg.Backend = f.Backend })
	set("backup-dir", func() { cfg.BackupDir = f.BackupDir })
	set("quiet", func() { cfg.Quiet = f.Quiet })
}

// RootOpts is shared by every command
type RootOpts struct {
	Flags  Flags
	Logger zerolog.Logger

	// Stdout receives the console output, Stderr the progress bar
	Stdout io.Writer
	Stderr *os.File
}

// 🧰 Session is everything one command run needs
type Session struct {
	Config    *config.Config
	Root      string
	Repo      vcs.Repository
	Files     *status.Manager
	Formatter formatter.Formatter
	Console   *log.Logger
	Progress  io.Writer
}

// Options returns the operation options for the session
func (s *Session) Options() operation.Options {
	return operation.Options{
		Config:    s.Config,
		Repo:      s.Repo,
		Formatter: s.Formatter,
		Files:     s.Files,
		Console:   s.Console,
		Progress:  s.Progress,
	}
}

// 🔓 Open loads the config, applies the flags, opens the repository and
// builds the formatter. args may hold the path to format.
func (o *RootOpts) Open(ctx context.Context, fs *pflag.FlagSet, args []string, needFormatter bool) (*Session, error) {
	logger := zerolog.Ctx(ctx)

	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	target, err := absolute(target)
	if err != nil {
		return nil, errors.Errorf("resolving path: %w", err)
	}

	cfg, err := o.loadConfig(ctx, target)
	if err != nil {
		return nil, err
	}
	o.Flags.Apply(fs, cfg)
	if len(args) > 0 || cfg.Path == "" || cfg.Path == "." {
		cfg.Path = target
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	console := log.New(o.Stdout, *logger).WithQuiet(cfg.Quiet)

	repoPath := cfg.Repo
	if repoPath == "" {
		repoPath = cfg.Path
	}
	repoPath = directory(repoPath)
	root := directory(cfg.Path)
	repo, err := vcs.Open(ctx, cfg.Backend, repoPath)
	switch {
	case errors.Is(err, vcs.ErrNoRepository):
		console.Warning("not inside a git repository: every file is untracked and nothing is committed")
		repo = nil
	case err != nil:
		return nil, errors.Errorf("opening repository: %w", err)
	default:
		root = repo.Root()
	}
	if root, err = absolute(root); err != nil {
		return nil, errors.Errorf("resolving root: %w", err)
	}
	if cfg.Path, err = absolute(cfg.Path); err != nil {
		return nil, errors.Errorf("resolving path: %w", err)
	}

	backupDir := cfg.BackupDir
	if backupDir != "" {
		if backupDir, err = filepath.Abs(backupDir); err != nil {
			return nil, errors.Errorf("resolving backup dir: %w", err)
		}
	}

	s := &Session{
		Config:  cfg,
		Root:    root,
		Repo:    repo,
		Files:   status.New(root, backupDir, logger),
		Console: console,
	}

	if needFormatter {
		s.Formatter, err = formatter.New(formatter.Options{
			Kind:    cfg.Formatter,
			Binary:  cfg.FormatterBinary,
			Style:   cfg.FormatterStyle,
			Command: cfg.FormatterCommand,
			Dir:     root,
		})
		if err != nil {
			return nil, errors.Errorf("creating formatter: %w", err)
		}
	}

	if !cfg.Quiet && status.Interactive(o.Stderr) {
		s.Progress = o.Stderr
	}

	logger.Debug().
		Str("root", root).
		Str("config", cfg.Location()).
		Bool("repository", repo != nil).
		Msg("session ready")

	return s, nil
}

func (o *RootOpts) loadConfig(ctx context.Context, target string) (*config.Config, error) {
	if o.Flags.ConfigFile != "" {
		cfg, err := config.Load(ctx, o.Flags.ConfigFile)
		if err != nil {
			return nil, errors.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.LoadDefault(ctx, directory(target))
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// directory returns path, or its parent when path is a file
func directory(path string) string {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return filepath.Dir(path)
	}
	return path
}

// absolute resolves symlinks so the repository root and the walked paths
// agree on their prefix.
func absolute(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}
