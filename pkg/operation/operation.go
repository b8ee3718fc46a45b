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
	"io"
	"os/user"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/blamefmt/pkg/blame"
	"github.com/walteh/blamefmt/pkg/config"
	"github.com/walteh/blamefmt/pkg/formatter"
	"github.com/walteh/blamefmt/pkg/log"
	"github.com/walteh/blamefmt/pkg/status"
	"github.com/walteh/blamefmt/pkg/vcs"
)

// ErrPartialFailure is returned once a run has finished but some files or
// commits failed. The report has the details.
var ErrPartialFailure = errors.Base("some files failed")

// defaultFallbackName is used when no other identity can be found
const defaultFallbackName = "blamefmt"

// 🎯 Operation is one command the tool can run
type Operation interface {
	// Name identifies the operation in logs
	Name() string
	// Execute runs the operation
	Execute(ctx context.Context) error
}

// 🔧 Options contains everything an operation works with
type Options struct {
	// Config is the validated run configuration
	Config *config.Config
	// Repo is the repository being formatted, nil outside of one
	Repo vcs.Repository
	// Formatter produces the raw replacements
	Formatter formatter.Formatter
	// Files reads, splices and snapshots files under the root
	Files *status.Manager
	// Console prints what happens to the user
	Console *log.Logger
	// Progress receives a progress bar, nil for none
	Progress io.Writer
	// Now is the clock, used for header years
	Now func() time.Time
}

func (o Options) validate(needFormatter bool) error {
	if o.Config == nil {
		return errors.Errorf("config is required")
	}
	if o.Files == nil {
		return errors.Errorf("file manager is required")
	}
	if o.Console == nil {
		return errors.Errorf("console logger is required")
	}
	if needFormatter && o.Formatter == nil {
		return errors.Errorf("formatter is required")
	}
	return nil
}

// 🏗️ BaseOperation provides common functionality for operations
type BaseOperation struct {
	Options
}

// 🏭 NewBaseOperation creates a new base operation
func NewBaseOperation(opts Options) BaseOperation {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return BaseOperation{Options: opts}
}

// 👤 FallbackAuthor returns the identity used for untracked code and for
// commits whose author cannot be resolved: the configured fallback, else the
// repository user, else the OS user.
func FallbackAuthor(ctx context.Context, cfg *config.Config, repo vcs.Repository) blame.Author {
	logger := zerolog.Ctx(ctx)

	if cfg.FallbackAuthor != "" {
		if a, err := blame.ParseAuthor(cfg.FallbackAuthor); err == nil {
			return a
		}
	}

	if repo != nil {
		a, err := repo.User(ctx)
		if err == nil && !a.IsZero() {
			return a
		}
		logger.Debug().Err(err).Msg("no repository user configured")
	}

	if u, err := user.Current(); err == nil && u.Username != "" {
		name := u.Name
		if name == "" {
			name = u.Username
		}
		return blame.Author{Name: name}
	}

	return blame.Author{Name: defaultFallbackName}
}
