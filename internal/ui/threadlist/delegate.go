package threadlist

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/threadline/internal/ui/theme"
)

var (
	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(theme.Accent)

	selectedDescStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#CCCCCC"))

	indexStyle = lipgloss.NewStyle().
			Foreground(theme.Accent).
			Width(4).
			Align(lipgloss.Right)
)

// Delegate draws a thread as a numbered title line with its board and
// counters below. Threads with unseen activity get a marker.
type Delegate struct{}

func (d Delegate) Height() int                             { return 2 }
func (d Delegate) Spacing() int                            { return 1 }
func (d Delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d Delegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(Item)
	if !ok {
		return
	}

	idx := indexStyle.Render(fmt.Sprintf("%d.", index+1))

	var title, desc string
	if index == m.Index() {
		title = selectedTitleStyle.Render(item.Title())
		desc = selectedDescStyle.Render(item.Description())
	} else if item.Thread.NewPostsAmount+item.Thread.NewCommentsAmount > 0 {
		title = theme.TitleStyle.Render(item.Title())
		desc = theme.MetaStyle.Render(item.Description())
	} else {
		title = theme.TitleStyle.Render(item.Title())
		desc = theme.DimStyle.Render(item.Description())
	}

	marker := " "
	if item.Thread.NewPostsAmount+item.Thread.NewCommentsAmount > 0 {
		marker = theme.NewBadgeStyle.Render("●")
	}

	fmt.Fprintf(w, "%s%s%s\n     %s", idx, marker, title, desc)
}
