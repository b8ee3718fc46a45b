/*
Package config loads and validates blamefmt settings.

	            +-------------+
	            |   Config    |
	            | (Settings)  |
	            +------+------+
	                   |
	    +--------------+--------------+
	    |              |              |
	+---+----+     +---+---+     +----+---+
	|  YAML  |     |  HCL  |     |  JSON  |
	| Parser |     | Parser|     | Parser |
	+--------+     +-------+     +--------+

🎯 Purpose:
- Finds .blamefmt.{yaml,yml,hcl,json} next to the code being formatted
- Parses it with the parser registered for its extension
- Fills in defaults and rejects unusable settings

🔄 Flow:
 1. Find looks for a default file (a missing file means defaults)
 2. GetParser picks the parser by extension
 3. Validate fills defaults, checks globs, the formatter and the fallback author
 4. Command line flags are layered on top by the caller

📝 Keys:

	repo              repository root, discovered from path when empty
	path              directory to format
	include           doublestar globs, default **\/*.{c,cc,cpp,cxx,h,hh,hpp}
	exclude           doublestar globs
	size_limit_kb     larger files are skipped (256)
	jobs              generation parallelism (NumCPU)
	filter_author     only replay this author's group
	fallback_author   author for untracked code (git user, else OS user)
	no_commit         apply edits, create no commits
	dry_run           write nothing
	header            copyright header for files without one
	formatter         clang-format or command
	formatter_binary  clang-format executable
	formatter_command argv of a stdin to stdout formatter, {path} is substituted
	formatter_style   clang-format --style (file)
	backend           go-git or git
	backup_dir        snapshot directory for restore
	quiet             only print failures and the summary

🔍 Example:

	include = ["src/**\/*.c"]
	header  = "// Copyright ${year} ${env.USER}"
	backend = "git"
*/
package config
