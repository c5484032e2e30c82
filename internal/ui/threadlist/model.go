package threadlist

import (
	"context"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fragmede/threadline/internal/thread"
	"github.com/fragmede/threadline/internal/ui/messages"
)

const recentLimit = 50

// Lister lists recently opened threads.
type Lister interface {
	Recent(ctx context.Context, limit int, refresh bool) ([]*thread.Thread, error)
}

// Model is the list of recently opened threads.
type Model struct {
	list    list.Model
	lister  Lister
	loading bool
	width   int
	height  int
}

// New creates a new thread list model.
func New(lister Lister) Model {
	l := list.New(nil, Delegate{}, 0, 0)
	l.Title = "Recent threads"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)

	return Model{list: l, lister: lister}
}

// Init loads the cached threads.
func (m Model) Init() tea.Cmd {
	return m.load(false)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.list.SetSize(w, h)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.ThreadsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.list.Title = "Error: " + msg.Err.Error()
			return m, nil
		}
		items := make([]list.Item, 0, len(msg.Threads))
		for _, t := range msg.Threads {
			if t != nil {
				items = append(items, NewItem(t))
			}
		}
		m.list.Title = "Recent threads"
		return m, m.list.SetItems(items)

	case messages.ThreadUpdatedMsg:
		if msg.Thread == nil {
			return m, nil
		}
		for i, it := range m.list.Items() {
			if item, ok := it.(Item); ok && item.Thread.ThreadID == msg.Thread.ThreadID {
				return m, m.list.SetItem(i, NewItem(msg.Thread))
			}
		}
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(Item); ok {
				id := item.Thread.ThreadID
				return m, func() tea.Msg { return messages.OpenThreadMsg{ThreadID: id} }
			}
		case "r", "ctrl+r":
			m.loading = true
			m.list.Title = "Recent threads (refreshing...)"
			return m, m.load(true)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the thread list.
func (m Model) View() string {
	return m.list.View()
}

// Filtering reports whether the list filter input has focus.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) load(refresh bool) tea.Cmd {
	lister := m.lister
	return func() tea.Msg {
		threads, err := lister.Recent(context.Background(), recentLimit, refresh)
		return messages.ThreadsLoadedMsg{Threads: threads, Err: err}
	}
}
