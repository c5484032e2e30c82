package thread

// UncategorizedLabel is the synthetic filter entry that matches posts
// without any category tag.
const UncategorizedLabel = "uncategorized"

// CategoryFilter is one entry of the category filter state.
type CategoryFilter struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// ExtractCategories returns the distinct category labels used in posts, in
// the order they are first seen.
func ExtractCategories(posts []Post) []string {
	seen := make(map[string]bool)
	var categories []string
	for i := range posts {
		for _, c := range posts[i].Categories() {
			if seen[c] {
				continue
			}
			seen[c] = true
			categories = append(categories, c)
		}
	}
	return categories
}

// NewFilterState builds the filter state for categories followed by the
// uncategorized entry. Entries already present in previous keep their
// active flag; new entries start active.
func NewFilterState(categories []string, previous []CategoryFilter) []CategoryFilter {
	was := make(map[string]bool, len(previous))
	for _, f := range previous {
		was[f.Name] = f.Active
	}
	names := append(append([]string(nil), categories...), UncategorizedLabel)
	state := make([]CategoryFilter, 0, len(names))
	for _, name := range names {
		active, known := was[name]
		state = append(state, CategoryFilter{Name: name, Active: !known || active})
	}
	return state
}

// ToggleCategory returns a copy of state with the named entry flipped.
func ToggleCategory(state []CategoryFilter, name string) []CategoryFilter {
	out := append([]CategoryFilter(nil), state...)
	for i := range out {
		if out[i].Name == name {
			out[i].Active = !out[i].Active
		}
	}
	return out
}

// ApplyCategoriesFilter restricts the tree under root to posts that match an
// active category, plus every ancestor needed to reach them. Posts without
// categories match when the uncategorized entry is active. The root is
// always kept. An empty filter returns the input untouched; otherwise a
// fresh map is returned and m is not modified.
func ApplyCategoriesFilter(root *Post, m ParentChildren, filter []CategoryFilter) (*Post, ParentChildren) {
	if len(filter) == 0 {
		return root, m
	}
	if root == nil {
		return nil, ParentChildren{}
	}

	active := make(map[string]bool, len(filter))
	for _, f := range filter {
		if f.Active {
			active[f.Name] = true
		}
	}
	matches := func(p *Post) bool {
		categories := p.Categories()
		if len(categories) == 0 {
			return active[UncategorizedLabel]
		}
		for _, c := range categories {
			if active[c] {
				return true
			}
		}
		return false
	}

	order := preOrder(root, m)
	survives := make(map[string]bool, len(order))
	// Reverse pre-order sees every child before its parent.
	for i := len(order) - 1; i >= 0; i-- {
		p := order[i]
		if matches(p) {
			survives[p.PostID] = true
			continue
		}
		for _, kid := range m.Children(p.PostID) {
			if survives[kid.PostID] {
				survives[p.PostID] = true
				break
			}
		}
	}
	survives[root.PostID] = true

	filtered := make(ParentChildren)
	for _, p := range order {
		if !survives[p.PostID] {
			continue
		}
		var kids []*Post
		for _, kid := range m.Children(p.PostID) {
			if survives[kid.PostID] {
				kids = append(kids, kid)
			}
		}
		filtered[p.PostID] = &PostInfo{Post: p, Children: kids}
	}
	return root, filtered
}

// preOrder returns the posts reachable from root in display order.
func preOrder(root *Post, m ParentChildren) []*Post {
	var out []*Post
	visited := make(map[string]bool)
	stack := []*Post{root}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[p.PostID] {
			continue
		}
		visited[p.PostID] = true
		out = append(out, p)
		kids := m.Children(p.PostID)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return out
}
