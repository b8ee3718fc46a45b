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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/blamefmt/pkg/blame"
)

// 📏 Defaults
const (
	DefaultInclude        = "**/*.{c,cc,cpp,cxx,h,hh,hpp}"
	DefaultSizeLimitKB    = 256
	DefaultFormatter      = "clang-format"
	DefaultFormatterStyle = "file"
	DefaultBackend        = "go-git"

	FormatterCommand = "command"
)

// DefaultFiles are looked up, in order, when no config file is given.
var DefaultFiles = []string{
	".blamefmt.yaml",
	".blamefmt.yml",
	".blamefmt.hcl",
	".blamefmt.json",
}

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Config represents the complete configuration of a run
type Config struct {
	Repo             string   `json:"repo,omitempty" yaml:"repo,omitempty" hcl:"repo,optional"`                                     // Repository root (discovered from path when empty)
	Path             string   `json:"path,omitempty" yaml:"path,omitempty" hcl:"path,optional"`                                     // Directory to format
	Include          []string `json:"include,omitempty" yaml:"include,omitempty" hcl:"include,optional"`                            // Globs a file must match
	Exclude          []string `json:"exclude,omitempty" yaml:"exclude,omitempty" hcl:"exclude,optional"`                            // Globs that drop a file
	SizeLimitKB      int      `json:"size_limit_kb,omitempty" yaml:"size_limit_kb,omitempty" hcl:"size_limit_kb,optional"`          // Larger files are skipped
	Jobs             int      `json:"jobs,omitempty" yaml:"jobs,omitempty" hcl:"jobs,optional"`                                     // Generation parallelism
	FilterAuthor     string   `json:"filter_author,omitempty" yaml:"filter_author,omitempty" hcl:"filter_author,optional"`          // Only replay this author's group
	FallbackAuthor   string   `json:"fallback_author,omitempty" yaml:"fallback_author,omitempty" hcl:"fallback_author,optional"`    // Author for untracked code
	NoCommit         bool     `json:"no_commit,omitempty" yaml:"no_commit,omitempty" hcl:"no_commit,optional"`                      // Apply edits without committing
	DryRun           bool     `json:"dry_run,omitempty" yaml:"dry_run,omitempty" hcl:"dry_run,optional"`                            // Write nothing
	Header           string   `json:"header,omitempty" yaml:"header,omitempty" hcl:"header,optional"`                               // Copyright header to inject
	Formatter        string   `json:"formatter,omitempty" yaml:"formatter,omitempty" hcl:"formatter,optional"`                      // clang-format or command
	FormatterBinary  string   `json:"formatter_binary,omitempty" yaml:"formatter_binary,omitempty" hcl:"formatter_binary,optional"` // Path to clang-format
	FormatterCommand []string `json:"formatter_command,omitempty" yaml:"formatter_command,omitempty" hcl:"formatter_command,optional"`
	FormatterStyle   string   `json:"formatter_style,omitempty" yaml:"formatter_style,omitempty" hcl:"formatter_style,optional"`
	Backend          string   `json:"backend,omitempty" yaml:"backend,omitempty" hcl:"backend,optional"`          // go-git or git
	BackupDir        string   `json:"backup_dir,omitempty" yaml:"backup_dir,omitempty" hcl:"backup_dir,optional"` // Snapshot directory, empty disables backups
	Quiet            bool     `json:"quiet,omitempty" yaml:"quiet,omitempty" hcl:"quiet,optional"`

	location string
}

// 🏭 Default returns a configuration with every default filled in
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Location returns the file the config was loaded from, if any
func (cfg *Config) Location() string {
	return cfg.location
}

func (cfg *Config) applyDefaults() {
	if len(cfg.Include) == 0 {
		cfg.Include = []string{DefaultInclude}
	}
	if cfg.SizeLimitKB == 0 {
		cfg.SizeLimitKB = DefaultSizeLimitKB
	}
	if cfg.Jobs == 0 {
		cfg.Jobs = runtime.NumCPU()
	}
	if cfg.Formatter == "" {
		cfg.Formatter = DefaultFormatter
	}
	if cfg.FormatterStyle == "" {
		cfg.FormatterStyle = DefaultFormatterStyle
	}
	if cfg.Backend == "" {
		cfg.Backend = DefaultBackend
	}
	if cfg.Path == "" {
		cfg.Path = cfg.Repo
	}
	if cfg.Path == "" {
		cfg.Path = "."
	}
}

// 🔍 Validate fills in defaults and checks that the configuration is usable
func (cfg *Config) Validate() error {
	cfg.applyDefaults()

	if cfg.SizeLimitKB < 0 {
		return errors.Errorf("size_limit_kb must be positive, got %d", cfg.SizeLimitKB)
	}
	if cfg.Jobs < 0 {
		return errors.Errorf("jobs must be positive, got %d", cfg.Jobs)
	}

	for _, pattern := range append(append([]string{}, cfg.Include...), cfg.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("invalid glob pattern %q", pattern)
		}
	}

	switch cfg.Formatter {
	case DefaultFormatter:
	case FormatterCommand:
		if len(cfg.FormatterCommand) == 0 {
			return errors.Errorf("formatter_command is required when formatter is %q", FormatterCommand)
		}
	default:
		return errors.Errorf("unknown formatter %q", cfg.Formatter)
	}

	if cfg.FallbackAuthor != "" {
		if _, err := blame.ParseAuthor(cfg.FallbackAuthor); err != nil {
			return errors.Errorf("fallback_author: %w", err)
		}
	}

	// Clean up paths
	cfg.Path = filepath.Clean(cfg.Path)
	if cfg.Repo != "" {
		cfg.Repo = filepath.Clean(cfg.Repo)
	}
	if cfg.BackupDir != "" {
		cfg.BackupDir = filepath.Clean(cfg.BackupDir)
	}

	return nil
}

// SizeLimit returns the size limit in bytes
func (cfg *Config) SizeLimit() int64 {
	return int64(cfg.SizeLimitKB) * 1024
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	mode := "commit"
	switch {
	case cfg.DryRun:
		mode = "dry-run"
	case cfg.NoCommit:
		mode = "no-commit"
	}
	return fmt.Sprintf("%s [%s] via %s/%s (%s)", cfg.Path, strings.Join(cfg.Include, ","), cfg.Formatter, cfg.Backend, mode)
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Parse config
	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}
	cfg.location = path

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔎 Find returns the first default config file present in dir, or "" when
// there is none.
func Find(dir string) string {
	for _, name := range DefaultFiles {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// 📂 LoadDefault loads the default config file from dir. A missing file is
// not an error: the defaults are returned instead.
func LoadDefault(ctx context.Context, dir string) (*Config, error) {
	path := Find(dir)
	if path == "" {
		zerolog.Ctx(ctx).Debug().Str("dir", dir).Msg("no config file found, using defaults")
		return Default(), nil
	}
	return Load(ctx, path)
}
