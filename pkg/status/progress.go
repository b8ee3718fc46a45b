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
	"io"
	"os"
	"sync"

	"github.com/pterm/pterm"
	"golang.org/x/term"
)

// ⏳ Progress counts finished units of work across goroutines. The only way
// to move it is Increment.
type Progress struct {
	mu    sync.Mutex
	done  int
	total int
	bar   *pterm.ProgressbarPrinter
}

// NewProgress returns a counter for total units. With a non-nil writer a
// progress bar is drawn on it.
func NewProgress(title string, total int, w io.Writer) *Progress {
	p := &Progress{total: total}
	if w == nil || total == 0 {
		return p
	}

	bar, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle(title).
		WithWriter(w).
		WithRemoveWhenDone(true).
		Start()
	if err == nil {
		p.bar = bar
	}
	return p
}

// Increment records one finished unit and returns the new count.
func (p *Progress) Increment(label string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	if p.bar != nil {
		if label != "" {
			p.bar.UpdateTitle(label)
		}
		p.bar.Increment()
	}
	return p.done
}

// Done returns the number of finished units.
func (p *Progress) Done() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Total returns the expected number of units.
func (p *Progress) Total() int {
	return p.total
}

// Stop removes the bar, if any.
func (p *Progress) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_, _ = p.bar.Stop()
		p.bar = nil
	}
}

// Interactive reports whether f is a terminal worth drawing a bar on.
func Interactive(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}
