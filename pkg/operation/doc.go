/*
Package operation wires the engine packages into the commands blamefmt runs.

	+-----------+    +-----------+    +-----------+    +-----------+
	|   plan    | -> |   group   | -> |  replay   | -> |  report   |
	| (parallel)|    | (authors) |    | (commits) |    | (summary) |
	+-----------+    +-----------+    +-----------+    +-----------+

🎯 Purpose:
- FormatOperation: formats every matching file, attributes each edit to the
  commit that last touched its lines, and replays the edits as one commit per
  author
- NewPlanOperation: the same run with nothing written
- RestoreOperation: copies the snapshots taken before a replay back

🔄 Flow:
 1. plan.Planner formats, normalizes and blames files in parallel
 2. group.Build merges commits by author; the untracked group goes last
 3. every touched file is snapshotted when backup_dir is set
 4. replay.Applier writes edits through status.Manager and commits through
    the vcs.Repository
 5. status.Report collects modified, skipped and failed files

⚠️ Failures:
A single file never stops the run. Skips, formatter errors, write errors and
rejected commits all land in the report; Execute returns ErrPartialFailure
once the summary has been printed. Cancelling the context stops the replay
between edits and leaves written files as they are.

🔍 Example:

	op, err := operation.NewFormatOperation(operation.Options{
		Config:    cfg,
		Repo:      repo,
		Formatter: fmtr,
		Files:     status.New(repo.Root(), cfg.BackupDir, &logger),
		Console:   log.New(os.Stdout, logger),
	})
	if err != nil {
		return err
	}
	err = operation.NewRunner(logger, true).Run(ctx, op)
*/
package operation
