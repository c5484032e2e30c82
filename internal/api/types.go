package api

import "github.com/fragmede/threadline/internal/thread"

// NewPost is the body of a contribution request.
type NewPost struct {
	Content        string             `json:"content"`
	ForceAnonymous bool               `json:"forceAnonymous,omitempty"`
	Identity       string             `json:"identityId,omitempty"`
	Accessory      string             `json:"accessoryId,omitempty"`
	Tags           thread.Tags        `json:"tags"`
	Options        thread.PostOptions `json:"options"`
}

// NewComment is one link of a comment chain.
type NewComment struct {
	Content  string `json:"content"`
	Identity string `json:"identityId,omitempty"`
}

type postResponse struct {
	Contribution *thread.Post `json:"contribution"`
}

type commentRequest struct {
	Contents         []NewComment `json:"contents"`
	ReplyToCommentID *string      `json:"replyToCommentId,omitempty"`
}

type commentResponse struct {
	Comments []thread.Comment `json:"comments"`
}
