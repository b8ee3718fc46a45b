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
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/blamefmt/cmd/blamefmt/opts"
	"github.com/walteh/blamefmt/pkg/operation"
)

// NewRestoreCmd creates the restore command
func NewRestoreCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore [path]",
		Short: "Copy the snapshots in --backup-dir back over the formatted files",
		Long: `Restore undoes the file contents of a format run that was started with
--backup-dir. Commits already created are left alone; reset them with git.
Each snapshot is consumed by the restore.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withCommand(cmd.Context(), "restore")

			s, err := o.Open(ctx, cmd.Flags(), args, false)
			if err != nil {
				return err
			}

			op, err := operation.NewRestoreOperation(s.Options())
			if err != nil {
				return errors.Errorf("creating restore operation: %w", err)
			}

			return run(ctx, op)
		},
	}

	return cmd
}
