package threadview

import "github.com/fragmede/threadline/internal/thread"

// CollapseState tracks collapsed post IDs.
type CollapseState map[string]bool

// Flatten lays out the filtered view as a flat list for display. focusID
// narrows tree mode to the subtree under that post; "" shows the whole
// thread.
func Flatten(v *thread.View, mode Mode, cs CollapseState, focusID string) []Entry {
	if v == nil || v.FilteredRoot == nil {
		return nil
	}
	switch mode {
	case ModeGallery:
		return flattenGallery(v)
	case ModeTimeline:
		return flattenTimeline(v, cs)
	default:
		return flattenTree(v, cs, focusID)
	}
}

func postEntry(v *thread.View, p *thread.Post, depth int) Entry {
	return Entry{
		Post:             p,
		Depth:            depth,
		Contributions:    thread.TotalContributions(p, v.ParentChildren),
		NewContributions: thread.TotalNewContributions(p, v.ParentChildren),
	}
}

// appendComments adds the comments of p below it, nested by reply depth.
func appendComments(out []Entry, v *thread.View, p *thread.Post, depth int) []Entry {
	seq := v.PostComments[p.PostID].Sequence()
	if len(seq) == 0 {
		return out
	}
	depths := make(map[string]int, len(seq))
	for _, c := range seq {
		d := depth
		if parent, ok := depths[c.Parent()]; ok && c.Parent() != c.CommentID {
			d = parent + 1
		}
		depths[c.CommentID] = d
		out = append(out, Entry{Post: p, Comment: c, Depth: d})
	}
	return out
}

func flattenTree(v *thread.View, cs CollapseState, focusID string) []Entry {
	start := v.FilteredRoot
	// A focused post hidden by the filter has no filtered subtree; show the
	// filtered thread instead.
	if _, visible := v.FilteredParentChildren[focusID]; focusID != "" && visible {
		if p := v.CurrentRoot(focusID); p != nil {
			start = p
		}
	}

	type frame struct {
		post  *thread.Post
		depth int
	}
	var out []Entry
	visited := make(map[string]bool)
	stack := []frame{{start, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[f.post.PostID] {
			continue
		}
		visited[f.post.PostID] = true

		e := postEntry(v, f.post, f.depth)
		kids := v.FilteredParentChildren.Children(f.post.PostID)
		if cs[f.post.PostID] {
			e.IsCollapsed = true
			e.HiddenCount = thread.TotalContributions(f.post, v.FilteredParentChildren) +
				v.PostComments[f.post.PostID].Total()
			out = append(out, e)
			continue
		}
		out = append(out, e)
		out = appendComments(out, v, f.post, f.depth+1)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{kids[i], f.depth + 1})
		}
	}
	return out
}

// flattenGallery shows the root followed by its direct contributions.
func flattenGallery(v *thread.View) []Entry {
	out := []Entry{postEntry(v, v.FilteredRoot, 0)}
	for _, p := range v.FilteredParentChildren.Children(v.FilteredRoot.PostID) {
		out = append(out, postEntry(v, p, 1))
	}
	return out
}

// flattenTimeline shows the posts that pass the filter oldest first, each
// followed by its comments.
func flattenTimeline(v *thread.View, cs CollapseState) []Entry {
	visible := make(map[string]bool)
	for _, p := range v.FilteredSequence() {
		visible[p.PostID] = true
	}
	var out []Entry
	for _, p := range v.Chronological {
		if !visible[p.PostID] {
			continue
		}
		e := postEntry(v, p, 0)
		if cs[p.PostID] {
			e.IsCollapsed = true
			e.HiddenCount = v.PostComments[p.PostID].Total()
			out = append(out, e)
			continue
		}
		out = append(out, e)
		out = appendComments(out, v, p, 1)
	}
	return out
}

// IndexOf returns the index of the entry target points at, or -1.
func IndexOf(entries []Entry, target thread.AnswerTarget) int {
	for i, e := range entries {
		if e.Matches(target) {
			return i
		}
	}
	return -1
}

// IndexOfID returns the index of the entry with the given ID, or -1.
func IndexOfID(entries []Entry, id string) int {
	for i, e := range entries {
		if e.ID() == id {
			return i
		}
	}
	return -1
}

// FindParentIndex returns the index of the entry the current one replies
// to.
func FindParentIndex(entries []Entry, currentIdx int) int {
	if currentIdx < 0 || currentIdx >= len(entries) {
		return -1
	}
	parentID := entries[currentIdx].ParentID()
	if parentID == "" {
		return -1
	}
	for i := currentIdx - 1; i >= 0; i-- {
		if entries[i].ID() == parentID {
			return i
		}
	}
	return -1
}

// FindNextSiblingIndex returns the index of the next entry at the same depth.
func FindNextSiblingIndex(entries []Entry, currentIdx int) int {
	if currentIdx < 0 || currentIdx >= len(entries) {
		return -1
	}
	depth := entries[currentIdx].Depth
	for i := currentIdx + 1; i < len(entries); i++ {
		if entries[i].Depth < depth {
			return -1
		}
		if entries[i].Depth == depth {
			return i
		}
	}
	return -1
}
