package thread

// PostInfo is the ParentChildren entry for one post.
type PostInfo struct {
	Post     *Post
	Children []*Post
}

// Count returns the number of direct children.
func (pi *PostInfo) Count() int {
	if pi == nil {
		return 0
	}
	return len(pi.Children)
}

// ParentChildren maps a post id to its direct children, in display order.
// It holds one entry per post reachable from the thread root.
type ParentChildren map[string]*PostInfo

// Children returns the direct children of postID. Unknown ids have none.
func (m ParentChildren) Children(postID string) []*Post {
	if pi, ok := m[postID]; ok {
		return pi.Children
	}
	return nil
}

// PostsTree is the result of MakePostsTree.
type PostsTree struct {
	Root            *Post
	ParentChildren  ParentChildren
	DisplaySequence []*Post
}

// MakePostsTree links the flat posts of a thread into a tree rooted at the
// post without a parent. Children keep the relative order they have in
// posts. Posts whose parent chain never reaches the root are left out.
//
// The returned nodes point into posts; callers must not reorder posts while
// the tree is in use.
func MakePostsTree(posts []Post, threadID string) PostsTree {
	empty := PostsTree{ParentChildren: ParentChildren{}}
	if threadID == "" || len(posts) == 0 {
		return empty
	}

	var root *Post
	childrenOf := make(map[string][]*Post)
	for i := range posts {
		post := &posts[i]
		parent := post.Parent()
		if parent == "" {
			if root == nil {
				root = post
			}
			continue
		}
		childrenOf[parent] = append(childrenOf[parent], post)
	}
	if root == nil {
		return empty
	}

	tree := PostsTree{
		Root:           root,
		ParentChildren: make(ParentChildren),
	}
	visited := make(map[string]bool)
	stack := []*Post{root}
	for len(stack) > 0 {
		post := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[post.PostID] {
			continue
		}
		visited[post.PostID] = true
		tree.DisplaySequence = append(tree.DisplaySequence, post)

		var kids []*Post
		for _, kid := range childrenOf[post.PostID] {
			if !visited[kid.PostID] {
				kids = append(kids, kid)
			}
		}
		tree.ParentChildren[post.PostID] = &PostInfo{Post: post, Children: kids}
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return tree
}

// CommentInfo is the comment tree of a single post.
type CommentInfo struct {
	// Roots are the top-level comments, including comments whose parent
	// cannot be found.
	Roots          []*Comment
	ParentChildren map[string][]*Comment
	total          int
}

// Total returns the number of comments the tree was built from.
func (ci *CommentInfo) Total() int {
	if ci == nil {
		return 0
	}
	return ci.total
}

// Sequence returns the comments in depth-first pre-order. Comments caught
// in a parent cycle are not reachable from any root and are skipped.
func (ci *CommentInfo) Sequence() []*Comment {
	if ci == nil {
		return nil
	}
	var out []*Comment
	visited := make(map[string]bool)
	stack := make([]*Comment, 0, len(ci.Roots))
	for i := len(ci.Roots) - 1; i >= 0; i-- {
		stack = append(stack, ci.Roots[i])
	}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[c.CommentID] {
			continue
		}
		visited[c.CommentID] = true
		out = append(out, c)
		kids := ci.ParentChildren[c.CommentID]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return out
}

// MakeCommentsTree links the flat comments of one post. It returns nil when
// there are no comments.
func MakeCommentsTree(comments []Comment) *CommentInfo {
	if len(comments) == 0 {
		return nil
	}
	ids := make(map[string]bool, len(comments))
	for i := range comments {
		ids[comments[i].CommentID] = true
	}

	info := &CommentInfo{
		ParentChildren: make(map[string][]*Comment),
		total:          len(comments),
	}
	for i := range comments {
		c := &comments[i]
		parent := c.Parent()
		if parent == "" || parent == c.CommentID || !ids[parent] {
			info.Roots = append(info.Roots, c)
			continue
		}
		info.ParentChildren[parent] = append(info.ParentChildren[parent], c)
	}
	return info
}

// PostComments maps a post id to that post's comment tree.
type PostComments map[string]*CommentInfo

// MakePostCommentsMap builds a comment tree for every post that carries
// comments.
func MakePostCommentsMap(posts []Post) PostComments {
	m := make(PostComments)
	for i := range posts {
		if info := MakeCommentsTree(posts[i].Comments); info != nil {
			m[posts[i].PostID] = info
		}
	}
	return m
}
