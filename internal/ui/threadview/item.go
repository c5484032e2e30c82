package threadview

import "github.com/fragmede/threadline/internal/thread"

// Mode is how a thread is laid out.
type Mode int

const (
	ModeTree Mode = iota
	ModeGallery
	ModeTimeline
)

// ModeFor maps a thread's default view to a layout.
func ModeFor(defaultView string) Mode {
	switch defaultView {
	case thread.ViewGallery:
		return ModeGallery
	case thread.ViewTimeline:
		return ModeTimeline
	default:
		return ModeTree
	}
}

func (m Mode) String() string {
	switch m {
	case ModeGallery:
		return "Gallery"
	case ModeTimeline:
		return "Timeline"
	default:
		return "Thread"
	}
}

// Next cycles through the layouts.
func (m Mode) Next() Mode {
	return (m + 1) % 3
}

// Entry is one selectable post or comment in the flattened view. For a
// comment entry Post is the post it hangs off.
type Entry struct {
	Post    *thread.Post
	Comment *thread.Comment
	Depth   int

	// Contributions and NewContributions count the posts below Post.
	Contributions    int
	NewContributions int

	IsCollapsed bool
	HiddenCount int
}

// ID identifies the entry across rebuilds.
func (e Entry) ID() string {
	if e.Comment != nil {
		return "c:" + e.Comment.CommentID
	}
	return "p:" + e.Post.PostID
}

// ParentID returns the ID of the entry this one replies to, or "".
func (e Entry) ParentID() string {
	if e.Comment != nil {
		if p := e.Comment.Parent(); p != "" && p != e.Comment.CommentID {
			return "c:" + p
		}
		return "p:" + e.Post.PostID
	}
	if p := e.Post.Parent(); p != "" {
		return "p:" + p
	}
	return ""
}

// IsNew reports whether the entry is unseen.
func (e Entry) IsNew() bool {
	if e.Comment != nil {
		return e.Comment.IsNew
	}
	return e.Post.IsNew
}

// IsOwn reports whether the viewer wrote the entry.
func (e Entry) IsOwn() bool {
	if e.Comment != nil {
		return e.Comment.IsOwn
	}
	return e.Post.IsOwn
}

// Matches reports whether the entry is the item target points at.
func (e Entry) Matches(target thread.AnswerTarget) bool {
	if target.CommentID != "" {
		return e.Comment != nil && e.Comment.CommentID == target.CommentID
	}
	return e.Comment == nil && e.Post.PostID == target.PostID
}

// ReplyTo returns where a reply to this entry goes.
func (e Entry) ReplyTo() thread.ReplyTo {
	r := thread.ReplyTo{PostID: e.Post.PostID}
	if e.Comment != nil {
		r.CommentID = e.Comment.CommentID
	}
	return r
}
