/*
Package status owns the working tree: reading files, splicing edits into
them, snapshots, progress and the end of run report.

	            +-------------+
	            |   Status    |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+-----+ +----+----+ +-----+-----+
	|   Files   | |Progress | |  Report   |
	| (Splice,  | |(counter,| | (modified,|
	|  backups) | |   bar)  | |  skipped) |
	+-----------+ +---------+ +-----------+

🎯 Purpose:
- Splices replacements into files without changing their permissions
- Snapshots files before the first write when a backup directory is set
- Counts finished files across workers behind a single Increment
- Collects what happened to every file for the final summary

🔄 Flow:
1. The planner reads files and reports skips through Report
2. Workers call Progress.Increment once per file
3. The replay applier writes through Manager.Splice
4. The command prints Report with FileFormatter.FormatSummary

⚡ Notes:
- writes go through a temp file and a rename
- the oldest snapshot of a file wins; restoring removes it
- Progress draws a pterm bar only when handed a writer

🔍 Example:

	mgr := status.New(root, backupDir, zerolog.Ctx(ctx))
	_ = mgr.BackupFile(ctx, "src/a.c")
	_ = mgr.Splice(ctx, "src/a.c", 10, 2, []byte("  "))

	progress := status.NewProgress("formatting", len(files), os.Stderr)
	progress.Increment("src/a.c")
*/
package status
