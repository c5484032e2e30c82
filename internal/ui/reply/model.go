package reply

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/threadline/internal/api"
	"github.com/fragmede/threadline/internal/render"
	"github.com/fragmede/threadline/internal/thread"
	"github.com/fragmede/threadline/internal/ui/messages"
	"github.com/fragmede/threadline/internal/ui/theme"
)

// ErrCacheUpdate is reported when the server accepted a reply but the
// cached thread could not be patched to show it.
var ErrCacheUpdate = errors.New("cached thread could not be updated")

// ErrReadOnly is returned when there is no server to post to.
var ErrReadOnly = errors.New("replies are disabled for local files")

// chainSeparator splits a comment into a chain of comments.
const chainSeparator = "---"

// Poster publishes posts and comments.
type Poster interface {
	CreatePost(ctx context.Context, replyToPostID string, p api.NewPost) (*thread.Post, error)
	CreateComments(ctx context.Context, replyTo thread.ReplyTo, comments []api.NewComment) ([]thread.Comment, error)
}

// Model is the reply composer view.
type Model struct {
	textarea   textarea.Model
	categories textinput.Model
	target     messages.OpenReplyMsg
	poster     Poster
	store      thread.Store
	err        string
	submitting bool
	width      int
	height     int
}

// New creates a composer for target. poster may be nil, in which case
// submitting reports ErrReadOnly.
func New(target messages.OpenReplyMsg, poster Poster, store thread.Store) Model {
	ta := textarea.New()
	if target.AsComment {
		ta.Placeholder = "Write a comment... (a line with --- starts the next comment in the chain)"
	} else {
		ta.Placeholder = "Write your contribution..."
	}
	ta.Focus()
	ta.SetWidth(80)
	ta.SetHeight(10)

	ti := textinput.New()
	ti.Prompt = "categories: "
	ti.Placeholder = "comma separated"
	ti.SetValue(strings.Join(target.Categories, ", "))

	return Model{
		textarea:   ta,
		categories: ti,
		target:     target,
		poster:     poster,
		store:      store,
	}
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	tw := min(w-4, 100)
	m.textarea.SetWidth(tw)
	m.categories.Width = tw - len(m.categories.Prompt)
	m.textarea.SetHeight(max(h-10, 5))
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+s":
			text := strings.TrimSpace(m.textarea.Value())
			if text == "" {
				m.err = "Reply cannot be empty"
				return m, nil
			}
			if m.submitting {
				return m, nil
			}
			m.submitting = true
			m.err = ""
			return m, m.submit(text)
		case "tab", "shift+tab":
			if m.target.AsComment {
				break
			}
			if m.textarea.Focused() {
				m.textarea.Blur()
				return m, m.categories.Focus()
			}
			m.categories.Blur()
			return m, m.textarea.Focus()
		}

	case messages.ReplyResultMsg:
		m.submitting = false
		if msg.Err != nil {
			m.err = msg.Err.Error()
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.categories.Focused() {
		m.categories, cmd = m.categories.Update(msg)
	} else {
		m.textarea, cmd = m.textarea.Update(msg)
	}
	return m, cmd
}

func (m Model) submit(text string) tea.Cmd {
	poster := m.poster
	store := m.store
	target := m.target
	categories := ParseCategories(m.categories.Value())
	return func() tea.Msg {
		if poster == nil {
			return messages.ReplyResultMsg{ThreadID: target.ThreadID, Err: ErrReadOnly}
		}
		ctx := context.Background()
		if target.AsComment {
			return submitComments(ctx, poster, store, target, text)
		}
		return submitPost(ctx, poster, store, target, text, categories)
	}
}

func submitPost(ctx context.Context, poster Poster, store thread.Store, target messages.OpenReplyMsg, text string, categories []string) messages.ReplyResultMsg {
	res := messages.ReplyResultMsg{ThreadID: target.ThreadID}
	post, err := poster.CreatePost(ctx, target.ReplyTo.PostID, api.NewPost{
		Content: render.TextToDelta(text),
		Tags:    thread.Tags{CategoryTags: categories},
	})
	if err != nil {
		res.Err = err
		return res
	}
	if post.ParentPostID == nil {
		post.ParentPostID = thread.StringPtr(target.ReplyTo.PostID)
	}
	if !thread.UpdatePostCache(store, target.ThreadID, *post) {
		slog.Warn("post created but cache not updated", "thread_id", target.ThreadID, "post_id", post.PostID)
		res.CacheErr = ErrCacheUpdate
	}
	res.Thread = snapshot(store, target.ThreadID)
	return res
}

func submitComments(ctx context.Context, poster Poster, store thread.Store, target messages.OpenReplyMsg, text string) messages.ReplyResultMsg {
	res := messages.ReplyResultMsg{ThreadID: target.ThreadID}
	chain := SplitChain(text)
	contents := make([]api.NewComment, len(chain))
	for i, c := range chain {
		contents[i] = api.NewComment{Content: render.TextToDelta(c)}
	}
	comments, err := poster.CreateComments(ctx, target.ReplyTo, contents)
	if err != nil {
		res.Err = err
		return res
	}
	linkChain(comments, target.ReplyTo)
	if !thread.UpdateCommentCache(store, target.ThreadID, comments, target.ReplyTo) {
		slog.Warn("comments created but cache not updated", "thread_id", target.ThreadID, "post_id", target.ReplyTo.PostID)
		res.CacheErr = ErrCacheUpdate
	}
	res.Thread = snapshot(store, target.ThreadID)
	return res
}

// linkChain fills in reply links the server left out: every comment
// answers replyTo.CommentID and each one follows the previous in the chain.
func linkChain(comments []thread.Comment, replyTo thread.ReplyTo) {
	for i := range comments {
		c := &comments[i]
		if c.ParentCommentID == nil && replyTo.CommentID != "" {
			c.ParentCommentID = thread.StringPtr(replyTo.CommentID)
		}
		if c.ChainParentID == nil && i > 0 {
			c.ChainParentID = thread.StringPtr(comments[i-1].CommentID)
		}
	}
}

func snapshot(store thread.Store, threadID string) *thread.Thread {
	if store == nil {
		return nil
	}
	t, _ := store.Thread(threadID)
	return t
}

// SplitChain splits composer text into chained comments at lines holding
// only the separator. Empty parts are dropped.
func SplitChain(text string) []string {
	var parts []string
	var cur []string
	flush := func() {
		if s := strings.TrimSpace(strings.Join(cur, "\n")); s != "" {
			parts = append(parts, s)
		}
		cur = cur[:0]
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == chainSeparator {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return parts
}

// ParseCategories reads a comma separated category list. Leading '#' and
// duplicates are dropped.
func ParseCategories(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimPrefix(strings.TrimSpace(f), "#")
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// View renders the reply form.
func (m Model) View() string {
	var sb strings.Builder

	title := "Contribute"
	if m.target.AsComment {
		title = "Comment"
	}
	sb.WriteString(theme.AuthorStyle.Render(title))
	sb.WriteString(theme.MetaStyle.Render(fmt.Sprintf("  on post %s", m.target.ReplyTo.PostID)))
	sb.WriteString("\n\n")
	sb.WriteString(m.textarea.View())
	sb.WriteString("\n")
	if !m.target.AsComment {
		sb.WriteString(m.categories.View())
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if m.err != "" {
		sb.WriteString(theme.ErrorStyle.Render(m.err))
		sb.WriteString("\n")
	}

	if m.submitting {
		sb.WriteString("Submitting...")
	} else {
		hint := "Ctrl+S to submit | Esc to cancel"
		if !m.target.AsComment {
			hint += " | Tab to edit categories"
		}
		sb.WriteString(theme.MetaStyle.Render(hint))
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, sb.String())
}
