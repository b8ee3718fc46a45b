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

package commands

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/blamefmt/cmd/blamefmt/opts"
	"github.com/walteh/blamefmt/pkg/operation"
)

// NewFormatCmd creates the format command
func NewFormatCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "format [path]",
		Short: "Format files and commit each edit as the author of the code it touches",
		Long: `Format runs the formatter over every matching file under path and replays
the result as one commit per original author, so blame keeps pointing at the
people who wrote the code instead of the formatting run.
It will:
1. Format, normalize and blame every file in parallel
2. Group the edits by the author of the lines they touch
3. Snapshot the files when --backup-dir is set
4. Write and commit each author's edits, uncommitted code last`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunFormat(cmd, o, args)
		},
	}

	return cmd
}

// RunFormat is the format command body, shared with the root command
func RunFormat(cmd *cobra.Command, o *opts.RootOpts, args []string) error {
	ctx := withCommand(cmd.Context(), "format")

	s, err := o.Open(ctx, cmd.Flags(), args, true)
	if err != nil {
		return err
	}

	op, err := operation.NewFormatOperation(s.Options())
	if err != nil {
		return errors.Errorf("creating format operation: %w", err)
	}

	return run(ctx, op)
}

func withCommand(ctx context.Context, name string) context.Context {
	return zerolog.Ctx(ctx).With().Str("command", name).Logger().WithContext(ctx)
}

// run waits for the operation so a cancelled replay stops between edits
// instead of being abandoned mid-write.
func run(ctx context.Context, op operation.Operation) error {
	return operation.NewRunner(*zerolog.Ctx(ctx), false).Run(ctx, op)
}
