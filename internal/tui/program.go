// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pdiddy/pdf2jpg/pkg/types"
)

// Program runs a Model and feeds it job snapshots.
type Program struct {
	p      *tea.Program
	cancel func()
}

// NewProgram prepares a terminal program for job. Signals are left to the
// caller, which is expected to cancel the job on interrupt.
func NewProgram(job types.Job, cancel func(), opts ...tea.ProgramOption) *Program {
	opts = append([]tea.ProgramOption{tea.WithoutSignalHandler()}, opts...)
	return &Program{p: tea.NewProgram(New(job, cancel), opts...), cancel: cancel}
}

// Update publishes a job snapshot. It is safe to call from any goroutine
// except the program's own event loop.
func (p *Program) Update(job types.Job) {
	p.p.Send(JobMsg(job))
}

// Run starts work in the background and shows its progress until the user
// quits after it finishes. If the terminal fails, the job is cancelled and
// its result still returned.
func (p *Program) Run(work func() (types.Summary, error)) (types.Summary, error) {
	type result struct {
		summary types.Summary
		err     error
	}
	results := make(chan result, 1)
	go func() {
		s, err := work()
		results <- result{s, err}
		p.p.Send(DoneMsg{Summary: s, Err: err})
	}()

	if _, err := p.p.Run(); err != nil {
		if p.cancel != nil {
			p.cancel()
		}
		r := <-results
		if r.err == nil {
			r.err = fmt.Errorf("progress display: %w", err)
		}
		return r.summary, r.err
	}
	r := <-results
	return r.summary, r.err
}
