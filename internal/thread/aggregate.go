package thread

// walkDescendants calls fn for every descendant of post. Each post id is
// visited at most once, so a malformed map cannot make it loop.
func walkDescendants(post *Post, m ParentChildren, fn func(*Post)) {
	if post == nil {
		return
	}
	visited := map[string]bool{post.PostID: true}
	stack := append([]*Post(nil), m.Children(post.PostID)...)
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[p.PostID] {
			continue
		}
		visited[p.PostID] = true
		fn(p)
		stack = append(stack, m.Children(p.PostID)...)
	}
}

// TotalContributions counts every post below post, at any depth.
func TotalContributions(post *Post, m ParentChildren) int {
	total := 0
	walkDescendants(post, m, func(*Post) { total++ })
	return total
}

// TotalNewContributions counts the new posts below post plus the new
// comments on every post below it.
func TotalNewContributions(post *Post, m ParentChildren) int {
	total := 0
	walkDescendants(post, m, func(p *Post) {
		if p.IsNew {
			total++
		}
		total += p.NewCommentsAmount
	})
	return total
}
