// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tui shows a running conversion job in the terminal.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pdiddy/pdf2jpg/pkg/types"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

const (
	maxBarWidth = 60
	nameWidth   = 40
)

// JobMsg carries a fresh job snapshot.
type JobMsg types.Job

// DoneMsg reports that the job has stopped.
type DoneMsg struct {
	Summary types.Summary
	Err     error
}

// Model renders job progress. It never mutates the job; all state arrives
// through JobMsg and DoneMsg.
type Model struct {
	job    types.Job
	bar    progress.Model
	cancel func()

	cancelling bool
	done       bool
	summary    types.Summary
	err        error
}

// New returns a model showing job. cancel is called at most once, off the
// event loop, when the user asks to stop.
func New(job types.Job, cancel func()) Model {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(maxBarWidth))
	return Model{job: job, bar: bar, cancel: cancel}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = min(maxBarWidth, max(10, msg.Width-4))
		return m, nil
	case JobMsg:
		m.job = types.Job(msg)
		return m, nil
	case DoneMsg:
		m.done = true
		m.summary = msg.Summary
		m.err = msg.Err
		return m, nil
	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if m.done {
		switch key {
		case "q", "esc", "ctrl+c", "enter":
			return m, tea.Quit
		}
		return m, nil
	}

	switch key {
	case "c", "esc", "ctrl+c":
		if m.cancelling {
			return m, nil
		}
		m.cancelling = true
		cancel := m.cancel
		return m, func() tea.Msg {
			if cancel != nil {
				cancel()
			}
			return nil
		}
	}
	return m, nil
}

// Done reports whether the job has stopped.
func (m Model) Done() bool { return m.done }

// Result returns the outcome delivered by DoneMsg.
func (m Model) Result() (types.Summary, error) { return m.summary, m.err }

func (m Model) View() string {
	var b strings.Builder

	title := "Converting"
	if folder, ok := m.job.FolderPath(); ok {
		title += " into " + folder
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(m.bar.ViewAs(m.job.Progress()))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %d/%d pages", m.job.CompletedPages(), m.job.TotalPages())))
	b.WriteString("\n\n")

	rows := make([]string, 0, len(m.job.Items))
	for _, it := range m.job.Items {
		rows = append(rows, renderRow(it))
	}
	if len(rows) > 0 {
		b.WriteString(panelStyle.Render(strings.Join(rows, "\n")))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.footer())
	b.WriteString("\n")
	return b.String()
}

func (m Model) footer() string {
	switch {
	case m.done && m.err != nil:
		return errorStyle.Render("Error: "+m.err.Error()) + mutedStyle.Render("  (q to quit)")
	case m.done:
		s := m.summary
		line := fmt.Sprintf("%d completed, %d failed, %d skipped, %d cancelled (total: %d)",
			s.Completed, s.Failed, s.Skipped, s.Cancelled, s.Total())
		style := okStyle
		if s.HasFailures() {
			style = errorStyle
		}
		return style.Render(line) + mutedStyle.Render("  (q to quit)")
	case m.cancelling:
		return warnStyle.Render("Cancelling after the current page...")
	default:
		return mutedStyle.Render("c/esc: cancel")
	}
}

func renderRow(it types.DocumentItem) string {
	name := truncate(it.DisplayName, nameWidth)
	label, style := statusLabel(it.Status)

	detail := ""
	switch it.Status.Kind {
	case types.StatusKindInProgress, types.StatusKindCompleted, types.StatusKindCancelled:
		detail = fmt.Sprintf("%d/%d pages", it.CompletedPages, it.PageCount)
	case types.StatusKindPending:
		detail = fmt.Sprintf("%d pages", it.PageCount)
		if it.Locked {
			detail += ", locked"
		}
	default:
		detail = it.Status.Reason
	}
	if len(it.FailedPages) > 0 {
		detail += fmt.Sprintf(", failed pages %v", it.FailedPages)
	}

	return fmt.Sprintf("%s %-*s %s", style.Render(fmt.Sprintf("%-11s", label)), nameWidth, name, mutedStyle.Render(detail))
}

func statusLabel(s types.ConversionStatus) (string, lipgloss.Style) {
	switch s.Kind {
	case types.StatusKindInProgress:
		return "converting", activeStyle
	case types.StatusKindCompleted:
		return "done", okStyle
	case types.StatusKindFailed:
		return "failed", errorStyle
	case types.StatusKindCancelled:
		return "cancelled", warnStyle
	case types.StatusKindSkipped:
		return "skipped", warnStyle
	default:
		return "waiting", mutedStyle
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
