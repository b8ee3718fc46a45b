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

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/blamefmt/pkg/log"
	"github.com/walteh/blamefmt/pkg/status"
)

// ♻️ NewRestoreOperation creates an operation that copies every snapshot
// taken by a previous format run back into the tree.
func NewRestoreOperation(opts Options) (*RestoreOperation, error) {
	if err := opts.validate(false); err != nil {
		return nil, err
	}
	return &RestoreOperation{BaseOperation: NewBaseOperation(opts)}, nil
}

// ♻️ RestoreOperation implements the restore command
type RestoreOperation struct {
	BaseOperation
	restored []string
}

// Name implements Operation
func (op *RestoreOperation) Name() string {
	return "restore"
}

// Restored returns the files put back by the last Execute
func (op *RestoreOperation) Restored() []string {
	return op.restored
}

// 🏃 Execute runs the restore operation
func (op *RestoreOperation) Execute(ctx context.Context) error {
	if op.Config.BackupDir == "" {
		return errors.Errorf("%w: backup_dir is not configured", status.ErrNoBackup)
	}

	// Get list of snapshots
	files, err := op.Files.ListBackups(ctx)
	if err != nil {
		return errors.Errorf("listing backups: %w", err)
	}

	op.Console.Header("restoring " + plural(len(files), "file"))

	if op.Config.DryRun {
		for _, path := range files {
			op.Console.LogFileOperation(ctx, log.FileOperation{Path: path, State: log.StatePlanned, Detail: "would restore"})
		}
		return nil
	}

	// Restore each file
	var failed int
	for _, path := range files {
		if err := op.Files.RestoreFile(ctx, path); err != nil {
			failed++
			op.Console.LogFileOperation(ctx, log.FileOperation{Path: path, State: log.StateFailed, Detail: err.Error()})
			continue
		}
		op.restored = append(op.restored, path)
		op.Console.LogFileOperation(ctx, log.FileOperation{Path: path, State: log.StateModified, Detail: "restored"})
	}

	op.Console.LogNewline()
	op.Console.Summary(plural(len(op.restored), "file")+" restored", failed > 0)

	if failed > 0 {
		return errors.Errorf("%w: %d snapshots could not be restored", ErrPartialFailure, failed)
	}
	return nil
}
