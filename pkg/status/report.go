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

package status

import (
	"sort"
	"sync"
	"time"

	"github.com/walteh/blamefmt/pkg/blame"
)

// ⏭️ SkipReason says why a file was left alone
type SkipReason string

const (
	ReasonOversized        SkipReason = "oversized"
	ReasonEmpty            SkipReason = "empty"
	ReasonPermissionDenied SkipReason = "permission denied"
	ReasonNoEdits          SkipReason = "no edits produced"
	ReasonExcluded         SkipReason = "excluded"
	ReasonFiltered         SkipReason = "filtered by author"
)

// 📝 Modified is a file that received edits
type Modified struct {
	Path    string         `json:"path"`
	Edits   int            `json:"edits"`
	Commits []string       `json:"commits,omitempty"`
	Authors []blame.Author `json:"authors,omitempty"`
}

// Skipped is a file that was not processed
type Skipped struct {
	Path   string     `json:"path"`
	Reason SkipReason `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}

// Failed is a file that hit an error
type Failed struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

// Counts is the headline of a report
type Counts struct {
	Modified    int
	Skipped     int
	Failed      int
	Commits     int
	Diagnostics int
}

// 📋 Report collects the observable outcome of a run. It is safe for use
// from several goroutines.
type Report struct {
	mu sync.Mutex

	DryRun      bool
	modified    []Modified
	skipped     []Skipped
	failed      []Failed
	commits     []string
	diagnostics []blame.Diagnostic

	started  time.Time
	finished time.Time
}

// NewReport starts the clock on a new report
func NewReport(dryRun bool) *Report {
	return &Report{DryRun: dryRun, started: time.Now()}
}

func (r *Report) AddModified(m Modified) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modified = append(r.modified, m)
}

func (r *Report) AddSkipped(path string, reason SkipReason, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped = append(r.skipped, Skipped{Path: path, Reason: reason, Detail: detail})
}

func (r *Report) AddFailed(path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, Failed{Path: path, Err: err})
}

func (r *Report) AddCommit(hash string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits = append(r.commits, hash)
}

func (r *Report) AddDiagnostic(d blame.Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diagnostics = append(r.diagnostics, d)
}

// Finish stops the clock
func (r *Report) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = time.Now()
}

// Elapsed returns the run time so far, or the total once finished
func (r *Report) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished.IsZero() {
		return time.Since(r.started)
	}
	return r.finished.Sub(r.started)
}

func (r *Report) Counts() Counts {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Counts{
		Modified:    len(r.modified),
		Skipped:     len(r.skipped),
		Failed:      len(r.failed),
		Commits:     len(r.commits),
		Diagnostics: len(r.diagnostics),
	}
}

// Modified returns the modified files sorted by path
func (r *Report) Modified() []Modified {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]Modified(nil), r.modified...)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Skipped returns the skipped files sorted by path
func (r *Report) Skipped() []Skipped {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]Skipped(nil), r.skipped...)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Failed returns the failed files sorted by path
func (r *Report) Failed() []Failed {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]Failed(nil), r.failed...)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (r *Report) Commits() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.commits...)
}

func (r *Report) Diagnostics() []blame.Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]blame.Diagnostic(nil), r.diagnostics...)
}
