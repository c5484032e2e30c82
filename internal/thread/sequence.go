package thread

import "sort"

// AnswerTarget points at one new item: a post or a comment. Exactly one of
// the two ids is set.
type AnswerTarget struct {
	PostID    string `json:"postId,omitempty"`
	CommentID string `json:"commentId,omitempty"`
}

// ExtractAnswersSequence lists the new posts and comments in the order they
// are displayed: each post, when new, followed by its new comments in
// comment tree order.
func ExtractAnswersSequence(displaySequence []*Post, postComments PostComments) []AnswerTarget {
	var targets []AnswerTarget
	for _, post := range displaySequence {
		if post == nil {
			continue
		}
		if post.IsNew {
			targets = append(targets, AnswerTarget{PostID: post.PostID})
		}
		for _, c := range postComments[post.PostID].Sequence() {
			if c.IsNew {
				targets = append(targets, AnswerTarget{CommentID: c.CommentID})
			}
		}
	}
	return targets
}

// ChronologicalPosts returns the posts ordered by creation time, oldest
// first. Posts created at the same instant keep their relative order. The
// input slice is left as is.
func ChronologicalPosts(posts []Post) []*Post {
	out := make([]*Post, len(posts))
	for i := range posts {
		out[i] = &posts[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Created.Before(out[j].Created.Time)
	})
	return out
}

// Cycler steps through a sequence of answer targets, wrapping around at the
// end. The zero value has nothing to cycle through.
type Cycler struct {
	targets []AnswerTarget
	index   int
}

// NewCycler positions a cycler before the first target.
func NewCycler(targets []AnswerTarget) *Cycler {
	return &Cycler{targets: targets, index: -1}
}

// Len returns the number of targets.
func (c *Cycler) Len() int {
	return len(c.targets)
}

// Next advances to the following target. ok is false when there are no
// targets.
func (c *Cycler) Next() (target AnswerTarget, ok bool) {
	if len(c.targets) == 0 {
		return AnswerTarget{}, false
	}
	c.index = (c.index + 1) % len(c.targets)
	return c.targets[c.index], true
}

// Reset replaces the targets and moves back before the first one.
func (c *Cycler) Reset(targets []AnswerTarget) {
	c.targets = targets
	c.index = -1
}
