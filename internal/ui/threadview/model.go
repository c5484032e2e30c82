package threadview

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/threadline/internal/render"
	"github.com/fragmede/threadline/internal/source"
	"github.com/fragmede/threadline/internal/thread"
	"github.com/fragmede/threadline/internal/ui/messages"
	"github.com/fragmede/threadline/internal/ui/theme"
)

const (
	scrollStep = 3
	maxIndent  = 30
)

type entryOffset struct {
	startLine int
	endLine   int
}

// Model is the thread view.
type Model struct {
	viewport    viewport.Model
	help        help.Model
	src         source.Source
	threadID    string
	view        *thread.View
	entries     []Entry
	offsets     []entryOffset
	selectedIdx int
	collapse    CollapseState
	focusID     string
	mode        Mode
	modeSet     bool
	cycler      *thread.Cycler
	loading     bool
	stale       bool
	err         error
	width       int
	height      int
}

// New creates a thread view. threadID may be empty when the source decides
// which thread to show.
func New(threadID string, src source.Source) Model {
	vp := viewport.New(0, 0)
	vp.SetContent("Loading...")

	return Model{
		viewport: vp,
		help:     help.New(),
		src:      src,
		threadID: threadID,
		collapse: make(CollapseState),
		cycler:   thread.NewCycler(nil),
		loading:  true,
	}
}

// Init loads the thread.
func (m Model) Init() tea.Cmd {
	return m.load(false)
}

func (m Model) load(force bool) tea.Cmd {
	src := m.src
	id := m.threadID
	return func() tea.Msg {
		res, err := src.Load(context.Background(), id, force)
		if err != nil {
			return messages.ThreadLoadedMsg{ThreadID: id, Err: err}
		}
		return messages.ThreadLoadedMsg{ThreadID: res.Thread.ThreadID, Thread: res.Thread, Stale: res.Stale}
	}
}

// ThreadID returns the id of the thread being shown.
func (m Model) ThreadID() string {
	return m.threadID
}

// ThreadView returns the derived thread view, or nil before the first load.
func (m Model) ThreadView() *thread.View {
	return m.view
}

// Entries returns the entries currently laid out.
func (m Model) Entries() []Entry {
	return m.entries
}

// Selected returns the selected entry.
func (m Model) Selected() (Entry, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.entries) {
		return Entry{}, false
	}
	return m.entries[m.selectedIdx], true
}

// Mode returns the current layout.
func (m Model) Mode() Mode {
	return m.mode
}

// Stale reports whether the thread is a cached copy the server could not
// refresh.
func (m Model) Stale() bool {
	return m.stale
}

// SetSize updates viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = w
	m.help.Width = w
	m.resizeViewport()
	m.rebuildContent()
}

func (m *Model) resizeViewport() {
	header := m.renderHeader()
	headerLines := strings.Count(header, "\n") + 1
	m.viewport.Height = m.height - headerLines
	if m.viewport.Height < 1 {
		m.viewport.Height = 1
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.ThreadLoadedMsg:
		if m.threadID != "" && msg.ThreadID != m.threadID {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			m.viewport.SetContent("Error loading thread: " + msg.Err.Error())
			return m, nil
		}
		m.err = nil
		m.stale = msg.Stale
		m.threadID = msg.Thread.ThreadID
		previous := m.src.FilterState(m.threadID)
		if m.view != nil {
			previous = m.view.FilterState
		}
		m.apply(msg.Thread, previous)
		return m, m.arrivalStatus()

	case messages.ThreadUpdatedMsg:
		if msg.Thread == nil || msg.Thread.ThreadID != m.threadID {
			return m, nil
		}
		var previous []thread.CategoryFilter
		if m.view != nil {
			previous = m.view.FilterState
		}
		m.stale = false
		m.apply(msg.Thread, previous)
		if msg.AddedPosts == 0 && msg.AddedComments == 0 {
			return m, nil
		}
		text := fmt.Sprintf("%d new posts, %d new comments", msg.AddedPosts, msg.AddedComments)
		return m, statusCmd(text, false)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Down):
		if m.selectedIdx >= 0 && m.selectedIdx < len(m.offsets) {
			off := m.offsets[m.selectedIdx]
			if off.endLine >= m.viewport.YOffset+m.viewport.Height {
				m.viewport.SetYOffset(m.viewport.YOffset + scrollStep)
				return m, nil
			}
		}
		if m.selectedIdx < len(m.entries)-1 {
			m.selectedIdx++
			m.rebuildContent()
			m.scrollToCursor()
		}
		return m, nil

	case key.Matches(msg, Keys.Up):
		if m.selectedIdx >= 0 && m.selectedIdx < len(m.offsets) {
			off := m.offsets[m.selectedIdx]
			if off.startLine < m.viewport.YOffset {
				newOff := m.viewport.YOffset - scrollStep
				if newOff < off.startLine {
					newOff = off.startLine
				}
				m.viewport.SetYOffset(newOff)
				return m, nil
			}
		}
		if m.selectedIdx > 0 {
			m.selectedIdx--
			m.rebuildContent()
			m.scrollToCursor()
		}
		return m, nil

	case key.Matches(msg, Keys.Collapse):
		if e, ok := m.Selected(); ok && e.Comment == nil {
			id := e.Post.PostID
			m.collapse[id] = !m.collapse[id]
			m.rebuildEntries(e.ID())
		}
		return m, nil

	case key.Matches(msg, Keys.FoldAll):
		anyExpanded := false
		for _, e := range m.entries {
			if e.Comment == nil && !e.IsCollapsed && e.Depth > 0 {
				anyExpanded = true
				break
			}
		}
		if m.view != nil {
			for _, p := range m.view.FilteredSequence() {
				if p != m.view.FilteredRoot {
					m.collapse[p.PostID] = anyExpanded
				}
			}
		}
		m.rebuildEntries("")
		if anyExpanded {
			m.viewport.GotoTop()
			m.selectedIdx = 0
			m.rebuildContent()
		}
		return m, nil

	case key.Matches(msg, Keys.Parent):
		if idx := FindParentIndex(m.entries, m.selectedIdx); idx >= 0 {
			m.selectTo(idx)
		}
		return m, nil

	case key.Matches(msg, Keys.NextSib):
		if idx := FindNextSiblingIndex(m.entries, m.selectedIdx); idx >= 0 {
			m.selectTo(idx)
		}
		return m, nil

	case key.Matches(msg, Keys.NextNew):
		return m, m.jumpToNextNew()

	case key.Matches(msg, Keys.Root):
		if m.view != nil && m.view.Root != nil {
			if idx := IndexOfID(m.entries, "p:"+m.view.Root.PostID); idx >= 0 {
				m.selectTo(idx)
			}
		}
		return m, nil

	case key.Matches(msg, Keys.Focus):
		if e, ok := m.Selected(); ok && m.mode == ModeTree {
			m.focusID = e.Post.PostID
			m.rebuildEntries(e.ID())
		}
		return m, nil

	case key.Matches(msg, Keys.Unfocus):
		if m.focusID != "" {
			sel := ""
			if e, ok := m.Selected(); ok {
				sel = e.ID()
			}
			m.focusID = ""
			m.rebuildEntries(sel)
		}
		return m, nil

	case key.Matches(msg, Keys.Mode):
		m.mode = m.mode.Next()
		m.modeSet = true
		sel := ""
		if e, ok := m.Selected(); ok {
			sel = e.ID()
		}
		m.rebuildEntries(sel)
		return m, nil

	case key.Matches(msg, Keys.Category):
		n, _ := strconv.Atoi(msg.String())
		return m, m.toggleCategory(n - 1)

	case key.Matches(msg, Keys.ShowAll):
		if m.view == nil {
			return m, nil
		}
		state := make([]thread.CategoryFilter, len(m.view.FilterState))
		for i, f := range m.view.FilterState {
			state[i] = thread.CategoryFilter{Name: f.Name, Active: true}
		}
		return m, m.setFilter(state)

	case key.Matches(msg, Keys.Contrib):
		e, ok := m.Selected()
		if !ok {
			return m, nil
		}
		target := messages.OpenReplyMsg{
			ThreadID:   m.threadID,
			ReplyTo:    thread.ReplyTo{PostID: e.Post.PostID},
			Categories: e.Post.Categories(),
		}
		return m, func() tea.Msg { return target }

	case key.Matches(msg, Keys.Comment):
		e, ok := m.Selected()
		if !ok {
			return m, nil
		}
		target := messages.OpenReplyMsg{ThreadID: m.threadID, ReplyTo: e.ReplyTo(), AsComment: true}
		return m, func() tea.Msg { return target }

	case key.Matches(msg, Keys.Copy):
		e, ok := m.Selected()
		if !ok {
			return m, nil
		}
		content := e.Post.Content
		if e.Comment != nil {
			content = e.Comment.Content
		}
		text := render.PostToText(content, 0)
		return m, func() tea.Msg {
			if err := clipboard.WriteAll(text); err != nil {
				return messages.StatusMsg{Text: "copy failed: " + err.Error(), IsError: true}
			}
			return messages.StatusMsg{Text: "Copied " + e.ID()}
		}

	case key.Matches(msg, Keys.Refresh):
		m.viewport.SetContent("  Refreshing...")
		return m, m.Reload()

	case key.Matches(msg, Keys.ShowHelp):
		m.help.ShowAll = !m.help.ShowAll
		m.resizeViewport()
		return m, nil

	case key.Matches(msg, Keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, Keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, Keys.Home):
		m.selectedIdx = 0
		m.rebuildContent()
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, Keys.End):
		if len(m.entries) > 0 {
			m.selectedIdx = len(m.entries) - 1
			m.rebuildContent()
			m.viewport.GotoBottom()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the thread view.
func (m Model) View() string {
	header := m.renderHeader()
	return lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View())
}

// apply rebuilds the derived view from a new payload, keeping the
// selection on the same item when it is still shown.
func (m *Model) apply(t *thread.Thread, previous []thread.CategoryFilter) {
	sel := ""
	if e, ok := m.Selected(); ok {
		sel = e.ID()
	}
	m.view = thread.NewView(t, m.threadID, previous)
	if !m.modeSet {
		m.mode = ModeFor(m.view.DefaultView())
	}
	m.cycler = thread.NewCycler(m.view.NewAnswers)
	m.resizeViewport()
	m.rebuildEntries(sel)
}

func (m *Model) rebuildEntries(keepID string) {
	focus := m.focusID
	if m.mode != ModeTree {
		focus = ""
	}
	m.entries = Flatten(m.view, m.mode, m.collapse, focus)
	if keepID != "" {
		if idx := IndexOfID(m.entries, keepID); idx >= 0 {
			m.selectedIdx = idx
		}
	}
	if m.selectedIdx >= len(m.entries) {
		m.selectedIdx = len(m.entries) - 1
	}
	if m.selectedIdx < 0 {
		m.selectedIdx = 0
	}
	m.rebuildContent()
	m.scrollToCursor()
}

func (m *Model) selectTo(idx int) {
	m.selectedIdx = idx
	m.rebuildContent()
	m.scrollToCursor()
}

// jumpToNextNew moves to the next new item that is currently shown,
// wrapping around after the last one.
func (m *Model) jumpToNextNew() tea.Cmd {
	if m.cycler.Len() == 0 {
		return statusCmd("No new items", false)
	}
	for range m.cycler.Len() {
		target, ok := m.cycler.Next()
		if !ok {
			break
		}
		if idx := IndexOf(m.entries, target); idx >= 0 {
			m.selectTo(idx)
			return nil
		}
	}
	return statusCmd("New items are hidden by the current filter", false)
}

func (m *Model) toggleCategory(i int) tea.Cmd {
	if m.view == nil || i < 0 || i >= len(m.view.FilterState) {
		return nil
	}
	return m.setFilter(thread.ToggleCategory(m.view.FilterState, m.view.FilterState[i].Name))
}

func (m *Model) setFilter(state []thread.CategoryFilter) tea.Cmd {
	sel := ""
	if e, ok := m.Selected(); ok {
		sel = e.ID()
	}
	m.view = m.view.WithFilter(state)
	m.resizeViewport()
	m.rebuildEntries(sel)

	src := m.src
	id := m.threadID
	return func() tea.Msg {
		if err := src.SaveFilterState(id, state); err != nil {
			return messages.StatusMsg{Text: "Saving filter: " + err.Error(), IsError: true}
		}
		return nil
	}
}

func (m Model) arrivalStatus() tea.Cmd {
	switch {
	case m.stale:
		return statusCmd("Offline: showing cached copy", true)
	case m.view != nil && m.view.HasNewReplies():
		t := m.view.Thread
		return statusCmd(fmt.Sprintf("%d new posts, %d new comments", t.NewPostsAmount, t.NewCommentsAmount), false)
	}
	return nil
}

func statusCmd(text string, isErr bool) tea.Cmd {
	return func() tea.Msg { return messages.StatusMsg{Text: text, IsError: isErr} }
}

func (m *Model) rebuildContent() {
	if len(m.entries) == 0 {
		m.offsets = nil
		switch {
		case m.loading:
			m.viewport.SetContent("  Loading thread...")
		case m.err != nil:
			m.viewport.SetContent("  Error loading thread: " + m.err.Error())
		default:
			m.viewport.SetContent("  Nothing to show.")
		}
		return
	}

	var sb strings.Builder
	m.offsets = make([]entryOffset, len(m.entries))
	availWidth := m.width - 4
	if availWidth < 20 {
		availWidth = 20
	}

	lineCount := 0
	for i, e := range m.entries {
		startLine := lineCount
		indent := min(e.Depth*2, maxIndent)
		indentStr := strings.Repeat(" ", indent)

		barColor := theme.DepthColor(e.Depth)
		selected := i == m.selectedIdx
		if selected {
			barColor = theme.Accent
		}
		bar := lipgloss.NewStyle().Foreground(barColor).Render("│")
		if e.Comment != nil {
			bar = lipgloss.NewStyle().Foreground(barColor).Render("┆")
		}

		headerLine := indentStr + bar + " " + renderEntryHeader(e)
		if selected {
			headerLine = theme.SelectedStyle.Render(headerLine)
		}
		sb.WriteString(headerLine + "\n")
		lineCount++

		if !e.IsCollapsed {
			bodyWidth := max(availWidth-indent-4, 20)
			for _, line := range strings.Split(entryBody(e, bodyWidth), "\n") {
				bodyLine := indentStr + bar + " " + line
				if selected {
					bodyLine = theme.SelectedStyle.Render(bodyLine)
				}
				sb.WriteString(bodyLine + "\n")
				lineCount++
			}
		}
		sb.WriteString("\n")
		lineCount++

		m.offsets[i] = entryOffset{startLine: startLine, endLine: lineCount - 1}
	}

	m.viewport.SetContent(sb.String())
}

func entryBody(e Entry, width int) string {
	content := e.Post.Content
	if e.Comment != nil {
		content = e.Comment.Content
	}
	body := render.PostToText(content, width)
	if e.Comment == nil && e.Post.Tags != nil && len(e.Post.Tags.ContentWarnings) > 0 {
		body = theme.WarningStyle.Render("CW: "+strings.Join(e.Post.Tags.ContentWarnings, ", ")) + "\n" + body
	}
	return body
}

func identityName(secret thread.Identity, user *thread.Identity) string {
	name := secret.Name
	if name == "" {
		name = "anonymous"
	}
	if user != nil && user.Name != "" {
		name += " (" + user.Name + ")"
	}
	return name
}

// renderEntryHeader builds the one-line header above an entry's body.
func renderEntryHeader(e Entry) string {
	var parts []string
	if e.Comment != nil {
		parts = append(parts,
			theme.CommentAuthorStyle.Render(identityName(e.Comment.SecretIdentity, e.Comment.UserIdentity)),
			theme.MetaStyle.Render(render.TimeAgo(e.Comment.Created.Time)))
	} else {
		parts = append(parts,
			theme.AuthorStyle.Render(identityName(e.Post.SecretIdentity, e.Post.UserIdentity)),
			theme.MetaStyle.Render(render.TimeAgo(e.Post.Created.Time)))
	}
	if e.IsOwn() {
		parts = append(parts, theme.OwnBadgeStyle.Render(" you "))
	}
	if e.IsNew() {
		parts = append(parts, theme.NewBadgeStyle.Render(" new "))
	}
	if e.Comment == nil {
		for _, c := range e.Post.Categories() {
			parts = append(parts, theme.CategoryStyle.Render("#"+c))
		}
		if e.Contributions > 0 {
			badge := fmt.Sprintf("↳%d", e.Contributions)
			if e.NewContributions > 0 {
				badge += fmt.Sprintf(" (+%d)", e.NewContributions)
			}
			parts = append(parts, theme.MetaStyle.Render(badge))
		}
		if n := e.Post.TotalCommentsAmount; n > 0 {
			meta := fmt.Sprintf("%d comments", n)
			if e.Post.NewCommentsAmount > 0 {
				meta += fmt.Sprintf(" (+%d)", e.Post.NewCommentsAmount)
			}
			parts = append(parts, theme.MetaStyle.Render(meta))
		}
	}
	if e.IsCollapsed {
		parts = append(parts, theme.MetaStyle.Render(fmt.Sprintf("[+%d]", e.HiddenCount)))
	}
	if e.Depth > 15 {
		parts = append(parts, theme.MetaStyle.Render(fmt.Sprintf("[d:%d]", e.Depth)))
	}
	return strings.Join(parts, " ")
}

func (m *Model) scrollToCursor() {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.offsets) {
		return
	}
	off := m.offsets[m.selectedIdx]
	if off.startLine < m.viewport.YOffset || off.startLine >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(off.startLine)
	}
}

func (m Model) renderHeader() string {
	if m.view == nil || m.view.Root == nil {
		if m.loading {
			return theme.HeaderStyle.Render("Loading...")
		}
		return theme.HeaderStyle.Render("Thread " + m.threadID)
	}

	var parts []string
	title := render.Snippet(render.PostToText(m.view.Root.Content, 0), max(m.width-4, 20))
	if title == "" {
		title = "Thread " + m.threadID
	}
	parts = append(parts, theme.HeaderStyle.Render(title))

	meta := []string{m.mode.String()}
	if slug := m.view.BoardSlug(); slug != "" {
		meta = append(meta, "!"+slug)
	}
	meta = append(meta, fmt.Sprintf("%d posts", len(m.view.Thread.Posts)))
	if n := m.cycler.Len(); n > 0 {
		meta = append(meta, fmt.Sprintf("%d new", n))
	}
	if id := m.view.PersonalIdentity(); id != nil && id.Name != "" {
		meta = append(meta, "as "+id.Name)
	}
	if m.focusID != "" && m.mode == ModeTree {
		meta = append(meta, "focused")
	}
	if m.stale {
		meta = append(meta, "cached")
	}
	parts = append(parts, theme.MetaStyle.Padding(0, 1).Render(strings.Join(meta, " | ")))

	if bar := m.renderFilterBar(); bar != "" {
		parts = append(parts, bar)
	}
	parts = append(parts, theme.SeparatorStyle.Render(strings.Repeat("─", max(m.width, 0))))
	parts = append(parts, m.help.View(Keys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderFilterBar() string {
	if m.view == nil || len(m.view.Categories) == 0 {
		return ""
	}
	var chips []string
	for i, f := range m.view.FilterState {
		label := f.Name
		if i < 9 {
			label = fmt.Sprintf("%d %s", i+1, f.Name)
		}
		if f.Active {
			chips = append(chips, theme.FilterOnStyle.Render(label))
		} else {
			chips = append(chips, theme.FilterOffStyle.Render(label))
		}
	}
	return " " + strings.Join(chips, " ")
}

// Reload refetches the thread, bypassing the cache.
func (m *Model) Reload() tea.Cmd {
	m.loading = true
	return m.load(true)
}
