// Package tui provides the Bubble Tea terminal UI for sitemapcheck,
// displaying live resolution and checking progress and a styled report.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lukemcguire/sitemapcheck/progress"
	"github.com/lukemcguire/sitemapcheck/result"
	"github.com/lukemcguire/sitemapcheck/validator"
)

type phase int

const (
	phaseResolving phase = iota
	phaseChecking
)

// Model is the Bubble Tea model for a validation run.
type Model struct {
	ctx        context.Context
	cancel     context.CancelFunc
	validator  *validator.Validator
	root       string
	spinner    spinner.Model
	progressCh chan progress.Event

	phase     phase
	documents int
	found     int
	checked   int
	total     int
	failed    int
	current   string
	quitting  bool
	done      bool
	report    *result.Report
	err       error
	width     int
}

// NewModel creates a TUI model that runs v against root and listens on
// progressCh, which must be the channel v sends on. The model closes it once
// the run returns.
func NewModel(ctx context.Context, cancel context.CancelFunc, v *validator.Validator, root string, progressCh chan progress.Event) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		ctx:        ctx,
		cancel:     cancel,
		validator:  v,
		root:       root,
		spinner:    spin,
		progressCh: progressCh,
	}
}

// Init starts the spinner, the run, and the progress listener concurrently.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startValidation(), waitForProgress(m.progressCh))
}

// startValidation returns a tea.Cmd that runs the validator and sends DoneMsg.
// An empty sitemap is a result, not a failure.
func (m Model) startValidation() tea.Cmd {
	return func() tea.Msg {
		report, err := m.validator.Run(m.ctx, m.root)
		if m.progressCh != nil {
			close(m.progressCh)
		}
		if errors.Is(err, result.ErrNoURLs) {
			err = nil
		}
		if err != nil {
			err = fmt.Errorf("validate: %w", err)
		}
		return DoneMsg{Report: report, Err: err}
	}
}

// Update handles messages from the Bubble Tea runtime.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case ProgressMsg:
		m.apply(msg.Event)
		return m, waitForProgress(m.progressCh)

	case progressClosedMsg:
		return m, nil

	case DoneMsg:
		m.done = true
		m.report = msg.Report
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) apply(evt progress.Event) {
	switch evt.Kind {
	case progress.FetchStarted:
		m.documents++
		m.current = evt.URL
	case progress.LeafFound:
		m.found++
	case progress.CheckStarted:
		m.phase = phaseChecking
		m.total = evt.Total
	case progress.URLChecked:
		m.phase = phaseChecking
		m.checked = evt.Checked
		m.total = evt.Total
		m.failed = evt.Failed
		m.current = evt.URL
	}
}

// View renders the current TUI state.
func (m Model) View() string {
	if m.done && m.report != nil {
		return RenderSummary(m.report)
	}
	if m.done && m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}

	if m.phase == phaseChecking {
		return fmt.Sprintf("%s Checking URLs... %d/%d checked, %d failed\n%s\n",
			m.spinner.View(), m.checked, m.total, m.failed,
			dimStyle.Render("  "+m.current))
	}
	return fmt.Sprintf("%s Resolving sitemap... %d documents, %d URLs found\n%s\n",
		m.spinner.View(), m.documents, m.found,
		dimStyle.Render("  "+m.current))
}

// HasFailures reports whether the run found any failing URL.
func (m Model) HasFailures() bool {
	return m.report.HasFailures()
}

// Report returns the finished report for output formatting.
func (m Model) Report() *result.Report {
	return m.report
}

// Err returns the error that ended the run, if any.
func (m Model) Err() error {
	return m.err
}
