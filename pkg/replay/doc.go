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

/*
Package replay writes attributed edits to disk, one group at a time, and
synthesizes one commit per group.

🔁 Replay Flow:

	┌──────────────┐   for each edit   ┌──────────────┐
	│ ReplayGroup  │──────────────────▶│  FileWriter  │  splice [off, off+len)
	└──────────────┘                   └──────┬───────┘
	       │                                  │ delta = len(content) - len
	       │                                  ▼
	       │                           ┌──────────────┐
	       │                           │  edit.Index  │  shift later, remove
	       │                           └──────────────┘
	       ▼ after the group
	┌──────────────┐
	│  Committer   │  stage touched files, one commit
	└──────────────┘

⚠️ Failures:

  - a failed write marks the file failed; its remaining edits are skipped in
    this group and in every later group
  - other files keep their own indexes, so their offsets never move
  - a rejected commit is reported; the written files are not rolled back
  - cancellation is checked between edits and stops the run where it is
*/
package replay
