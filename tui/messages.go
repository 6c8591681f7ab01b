package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lukemcguire/sitemapcheck/progress"
	"github.com/lukemcguire/sitemapcheck/result"
)

// ProgressMsg carries one progress event from the validation run.
type ProgressMsg struct {
	Event progress.Event
}

// DoneMsg signals the validation run has completed.
type DoneMsg struct {
	Report *result.Report
	Err    error
}

// progressClosedMsg is sent once the progress channel is closed. The run's
// outcome always arrives separately as a DoneMsg.
type progressClosedMsg struct{}

// waitForProgress returns a tea.Cmd that reads one event from the progress channel.
func waitForProgress(ch <-chan progress.Event) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return progressClosedMsg{}
		}
		return ProgressMsg{Event: evt}
	}
}
