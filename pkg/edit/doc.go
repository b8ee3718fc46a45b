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
Package edit models byte level replacements and keeps their offsets correct
while they are written back to a file one at a time.

	  formatter output            pending edits of one file
	+------------------+        +---------------------------+
	| Raw{off,len,txt} | -----> | Index (sorted by Offset)  |
	+------------------+  Norm  |  [5]  [20]  [50]          |
	                      alize |   |    ^     ^            |
	                            |   +-- apply: shift later  |
	                            +---------------------------+

🎯 Purpose:
- Shrink formatter replacements to the bytes that really change
- Hold the edits of a file in offset order
- Move pending offsets after an edit changes the file length

🔄 Flow:
1. Normalize every Raw replacement against the original bytes
2. Build an Index per file (overlaps are rejected here)
3. After writing an edit call Index.Applied with its length delta

⚡ Invariants:
- Offset + Length never exceeds the current file size
- Index entries never overlap and stay sorted
- Edits can be applied in any order as long as Applied is called after each
*/
package edit
