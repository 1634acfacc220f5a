package erase

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

const barWidth = 30

// Progress counts finished files across concurrently running jobs and redraws
// a single status line. The lock covers the counter and the redraw only.
type Progress struct {
	mu        sync.Mutex
	completed int
	total     int
	out       io.Writer
}

// NewProgress creates an aggregator for total files. A nil writer disables
// rendering.
func NewProgress(total int, out io.Writer) *Progress {
	if total < 0 {
		total = 0
	}
	return &Progress{total: total, out: out}
}

// MarkDone records one finished file, successful or not, and redraws.
func (p *Progress) MarkDone() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.completed < p.total {
		p.completed++
	}
	p.render()
}

// Render redraws the current state without changing it.
func (p *Progress) Render() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.render()
}

func (p *Progress) Completed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed
}

func (p *Progress) Total() int {
	return p.total
}

func (p *Progress) render() {
	if p.out == nil {
		return
	}
	fmt.Fprintf(p.out, "\r%s", FormatBar(p.completed, p.total))
	if p.completed == p.total {
		fmt.Fprintln(p.out)
	}
}

// FormatBar renders "[#####-----] completed/total".
func FormatBar(completed, total int) string {
	filled := barWidth
	if total > 0 {
		filled = completed * barWidth / total
	}
	return fmt.Sprintf("[%s%s] %d/%d",
		strings.Repeat("#", filled),
		strings.Repeat("-", barWidth-filled),
		completed, total)
}
