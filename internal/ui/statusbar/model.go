package statusbar

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/threadline/internal/ui/theme"
)

// Model is the status bar at the bottom of the screen.
type Model struct {
	width      int
	location   string
	mode       string
	newCount   int
	identity   string
	statusText string
	isError    bool
	offline    bool
}

// New creates a new status bar.
func New() Model {
	return Model{}
}

// SetSize sets the width.
func (m *Model) SetSize(w int) {
	m.width = w
}

// SetLocation sets what is being viewed, e.g. a board and thread id.
func (m *Model) SetLocation(location string) {
	m.location = location
}

// SetMode sets the layout label.
func (m *Model) SetMode(mode string) {
	m.mode = mode
}

// SetNewCount sets the number of new items in the open thread.
func (m *Model) SetNewCount(n int) {
	m.newCount = n
}

// SetIdentity sets the identity the viewer posts under.
func (m *Model) SetIdentity(name string) {
	m.identity = name
}

// SetStatus sets a temporary status message.
func (m *Model) SetStatus(text string, isError bool) {
	m.statusText = text
	m.isError = isError
}

// SetOffline sets the offline indicator.
func (m *Model) SetOffline(offline bool) {
	m.offline = offline
}

// Update is a no-op for the status bar.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the status bar.
func (m Model) View() string {
	var left string
	if m.mode != "" {
		left += theme.StatusBarActive.Render(m.mode)
	}
	if m.location != "" {
		left += theme.StatusBarText.Render(m.location)
	}

	var right string
	if m.offline {
		right += theme.ErrorBadge.Render("OFFLINE")
	}
	if m.newCount > 0 {
		right += theme.NewItemsBadge.Render(fmt.Sprintf("%d new", m.newCount))
	}
	if m.identity != "" {
		right += theme.StatusBarText.Render("as " + m.identity)
	}
	if m.statusText != "" {
		if m.isError {
			right += theme.ErrorBadge.Render(m.statusText)
		} else {
			right += theme.StatusBarText.Render(m.statusText)
		}
	}

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	mid := theme.StatusBarStyle.Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, left, mid, right)
}
