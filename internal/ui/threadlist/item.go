package threadlist

import (
	"fmt"
	"strings"

	"github.com/fragmede/threadline/internal/render"
	"github.com/fragmede/threadline/internal/thread"
)

// Item wraps a cached thread for the bubbles list.
type Item struct {
	Thread *thread.Thread
	root   *thread.Post
}

// NewItem builds a list item for t.
func NewItem(t *thread.Thread) Item {
	tree := thread.MakePostsTree(t.Posts, t.ThreadID)
	return Item{Thread: t, root: tree.Root}
}

func (i Item) Title() string {
	if i.root != nil {
		if s := render.Snippet(render.PostToText(i.root.Content, 0), 72); s != "" {
			return s
		}
	}
	return "Thread " + i.Thread.ThreadID
}

func (i Item) Description() string {
	parts := make([]string, 0, 4)
	if i.Thread.BoardSlug != "" {
		parts = append(parts, "!"+i.Thread.BoardSlug)
	}
	parts = append(parts, fmt.Sprintf("%d posts", len(i.Thread.Posts)))
	if i.root != nil {
		if ago := render.TimeAgo(i.root.Created.Time); ago != "" {
			parts = append(parts, ago)
		}
	}
	if n := i.Thread.NewPostsAmount + i.Thread.NewCommentsAmount; n > 0 {
		parts = append(parts, fmt.Sprintf("%d new", n))
	}
	return strings.Join(parts, " | ")
}

func (i Item) FilterValue() string {
	return i.Title() + " " + i.Thread.BoardSlug
}
