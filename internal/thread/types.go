// Package thread builds navigable trees out of the flat thread payloads
// served by the board API, and keeps locally cached payloads up to date
// after the user posts.
package thread

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/goccy/go-json"
)

// View modes a thread can be opened in.
const (
	ViewThread   = "thread"
	ViewGallery  = "gallery"
	ViewTimeline = "timeline"
)

// Identity is a display identity attached to a post or comment.
type Identity struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Accessory is an optional decoration shown next to a secret identity.
type Accessory struct {
	ID  string `json:"id,omitempty"`
	URL string `json:"url,omitempty"`
}

// Tags groups the labels attached to a post. Only CategoryTags drive
// filtering.
type Tags struct {
	WhisperTags     []string `json:"whisperTags"`
	IndexTags       []string `json:"indexTags"`
	CategoryTags    []string `json:"categoryTags"`
	ContentWarnings []string `json:"contentWarnings"`
}

// PostOptions are per-post display options.
type PostOptions struct {
	Wide bool `json:"wide,omitempty"`
}

// Post is a single contribution in a thread. ParentPostID is nil for the
// thread root.
type Post struct {
	PostID              string      `json:"postId"`
	ThreadID            string      `json:"threadId"`
	ParentPostID        *string     `json:"parentPostId"`
	SecretIdentity      Identity    `json:"secretIdentity"`
	UserIdentity        *Identity   `json:"userIdentity,omitempty"`
	Accessory           *Accessory  `json:"accessory,omitempty"`
	Content             string      `json:"content"`
	Created             Timestamp   `json:"created"`
	Options             PostOptions `json:"options"`
	Tags                *Tags       `json:"tags,omitempty"`
	IsNew               bool        `json:"isNew"`
	IsOwn               bool        `json:"isOwn"`
	NewCommentsAmount   int         `json:"newCommentsAmount"`
	TotalCommentsAmount int         `json:"totalCommentsAmount"`
	Comments            []Comment   `json:"comments,omitempty"`
}

// Parent returns the parent post id, or "" for the thread root.
func (p *Post) Parent() string {
	if p.ParentPostID == nil {
		return ""
	}
	return *p.ParentPostID
}

// Categories returns the post's category labels. A post without tags has
// no categories.
func (p *Post) Categories() []string {
	if p.Tags == nil {
		return nil
	}
	return p.Tags.CategoryTags
}

// Comment is a lightweight reply attached to a post.
type Comment struct {
	CommentID       string    `json:"commentId"`
	ParentPostID    string    `json:"parentPostId"`
	ParentCommentID *string   `json:"parentCommentId"`
	ChainParentID   *string   `json:"chainParentId"`
	SecretIdentity  Identity  `json:"secretIdentity"`
	UserIdentity    *Identity `json:"userIdentity,omitempty"`
	Content         string    `json:"content"`
	Created         Timestamp `json:"created"`
	IsNew           bool      `json:"isNew"`
	IsOwn           bool      `json:"isOwn"`
}

// Parent returns the parent comment id, or "" for a top-level comment.
func (c *Comment) Parent() string {
	if c.ParentCommentID == nil {
		return ""
	}
	return *c.ParentCommentID
}

// Thread is the flat payload for one thread as served by the API.
type Thread struct {
	ThreadID          string    `json:"threadId"`
	BoardSlug         string    `json:"boardSlug"`
	DefaultView       string    `json:"defaultView"`
	Posts             []Post    `json:"posts"`
	NewPostsAmount    int       `json:"newPostsAmount"`
	NewCommentsAmount int       `json:"newCommentsAmount"`
	PersonalIdentity  *Identity `json:"personalIdentity,omitempty"`
}

// Clone returns a copy of t that shares no slices with it, so it can be
// patched while readers hold on to the original.
func (t *Thread) Clone() *Thread {
	if t == nil {
		return nil
	}
	c := *t
	c.Posts = make([]Post, len(t.Posts))
	for i, p := range t.Posts {
		if p.Comments != nil {
			p.Comments = append([]Comment(nil), p.Comments...)
		}
		c.Posts[i] = p
	}
	return &c
}

// StringPtr is a small helper for building parent references.
func StringPtr(s string) *string {
	return &s
}

// Timestamp is a creation time. The API sends timestamps with and without
// a zone; zoneless values are read as UTC.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// UnmarshalJSON accepts any date layout dateparse understands.
func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		ts.Time = time.Time{}
		return nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return err
	}
	ts.Time = t.UTC()
	return nil
}

// MarshalJSON writes RFC 3339 in UTC.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(ts.UTC().Format(time.RFC3339Nano))
}
