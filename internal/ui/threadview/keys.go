package threadview

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists the thread view bindings.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Home      key.Binding
	End       key.Binding
	Collapse  key.Binding
	FoldAll   key.Binding
	Parent    key.Binding
	NextSib   key.Binding
	NextNew   key.Binding
	Root      key.Binding
	Focus     key.Binding
	Unfocus   key.Binding
	Mode      key.Binding
	Category  key.Binding
	ShowAll   key.Binding
	Contrib   key.Binding
	Comment   key.Binding
	Copy      key.Binding
	Refresh   key.Binding
	ShowHelp  key.Binding
	CloseHelp key.Binding
}

var Keys = KeyMap{
	Up:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
	Down:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
	PageUp:    key.NewBinding(key.WithKeys("ctrl+u", "pgup"), key.WithHelp("ctrl+u", "page up")),
	PageDown:  key.NewBinding(key.WithKeys("ctrl+d", "pgdown"), key.WithHelp("ctrl+d", "page down")),
	Home:      key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
	End:       key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
	Collapse:  key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "collapse")),
	FoldAll:   key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "fold all")),
	Parent:    key.NewBinding(key.WithKeys("[", "p"), key.WithHelp("p", "parent")),
	NextSib:   key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "sibling")),
	NextNew:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next new")),
	Root:      key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "root")),
	Focus:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "focus")),
	Unfocus:   key.NewBinding(key.WithKeys("F"), key.WithHelp("F", "unfocus")),
	Mode:      key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "layout")),
	Category:  key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "toggle category")),
	ShowAll:   key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "all categories")),
	Contrib:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "contribute")),
	Comment:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "comment")),
	Copy:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy text")),
	Refresh:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
	ShowHelp:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
	CloseHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "less")),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.NextNew, k.Collapse, k.Mode, k.Category, k.Contrib, k.Comment, k.ShowHelp}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End},
		{k.Parent, k.NextSib, k.Root, k.NextNew, k.Focus, k.Unfocus},
		{k.Collapse, k.FoldAll, k.Mode, k.Category, k.ShowAll},
		{k.Contrib, k.Comment, k.Copy, k.Refresh, k.CloseHelp},
	}
}
