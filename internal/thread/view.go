package thread

// View holds everything derived from one thread payload snapshot and one
// category filter state. Build a new View whenever either changes.
type View struct {
	ThreadID        string
	Thread          *Thread
	Root            *Post
	ParentChildren  ParentChildren
	DisplaySequence []*Post
	PostComments    PostComments
	Chronological   []*Post
	NewAnswers      []AnswerTarget
	Categories      []string
	FilterState     []CategoryFilter

	FilteredRoot           *Post
	FilteredParentChildren ParentChildren
}

// NewView derives the tree, sequences and filtered tree for t. previous is
// the filter state in use before this payload arrived; known categories
// keep their active flag. A nil payload or empty threadID yields an empty
// view.
func NewView(t *Thread, threadID string, previous []CategoryFilter) *View {
	v := &View{ThreadID: threadID, Thread: t}
	var posts []Post
	if t != nil && threadID != "" {
		posts = t.Posts
	}

	tree := MakePostsTree(posts, threadID)
	v.Root = tree.Root
	v.ParentChildren = tree.ParentChildren
	v.DisplaySequence = tree.DisplaySequence
	v.PostComments = MakePostCommentsMap(posts)
	v.Chronological = ChronologicalPosts(posts)
	v.NewAnswers = ExtractAnswersSequence(tree.DisplaySequence, v.PostComments)
	v.Categories = ExtractCategories(posts)
	if t != nil && threadID != "" {
		v.FilterState = NewFilterState(v.Categories, previous)
	}
	v.FilteredRoot, v.FilteredParentChildren = ApplyCategoriesFilter(v.Root, v.ParentChildren, v.FilterState)
	return v
}

// WithFilter returns a copy of v filtered by state. The unfiltered tree is
// shared with v.
func (v *View) WithFilter(state []CategoryFilter) *View {
	next := *v
	next.FilterState = state
	next.FilteredRoot, next.FilteredParentChildren = ApplyCategoriesFilter(v.Root, v.ParentChildren, state)
	return &next
}

// CurrentRoot returns the post with postID, or the thread root when postID
// is empty or unknown.
func (v *View) CurrentRoot(postID string) *Post {
	if postID != "" && v.Thread != nil {
		for i := range v.Thread.Posts {
			if v.Thread.Posts[i].PostID == postID {
				return &v.Thread.Posts[i]
			}
		}
	}
	return v.Root
}

// FilteredSequence returns the filtered tree in display order.
func (v *View) FilteredSequence() []*Post {
	if v.FilteredRoot == nil {
		return nil
	}
	return preOrder(v.FilteredRoot, v.FilteredParentChildren)
}

// HasNewReplies reports whether the server counted new posts or comments.
func (v *View) HasNewReplies() bool {
	if v.Thread == nil {
		return false
	}
	return v.Thread.NewPostsAmount > 0 || v.Thread.NewCommentsAmount > 0
}

// DefaultView returns the view mode the thread asks to be opened in.
func (v *View) DefaultView() string {
	if v.Thread == nil || v.Thread.DefaultView == "" {
		return ViewThread
	}
	return v.Thread.DefaultView
}

// BoardSlug returns the slug of the board the thread belongs to.
func (v *View) BoardSlug() string {
	if v.Thread == nil {
		return ""
	}
	return v.Thread.BoardSlug
}

// PersonalIdentity returns the viewer's identity in this thread, if any.
func (v *View) PersonalIdentity() *Identity {
	if v.Thread == nil {
		return nil
	}
	return v.Thread.PersonalIdentity
}
