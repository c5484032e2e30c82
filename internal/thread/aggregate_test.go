package thread

import "testing"

func TestTotalContributions(t *testing.T) {
	posts := []Post{
		testPost("a", ""),
		testPost("b", "a"),
		testPost("c", "b"),
		testPost("d", "b"),
		testPost("e", "a"),
	}
	posts[2].IsNew = true
	posts[3].NewCommentsAmount = 3
	posts[4].IsNew = true
	posts[4].NewCommentsAmount = 1
	// Comments on b itself are not counted for b.
	posts[1].NewCommentsAmount = 5

	tree := MakePostsTree(posts, "t1")
	tests := []struct {
		id       string
		total    int
		totalNew int
	}{
		{"a", 4, 1 + 5 + 3 + 1 + 1},
		{"b", 2, 1 + 3},
		{"c", 0, 0},
		{"e", 0, 0},
	}
	for _, tt := range tests {
		post := tree.ParentChildren[tt.id].Post
		if got := TotalContributions(post, tree.ParentChildren); got != tt.total {
			t.Errorf("TotalContributions(%s) = %d, want %d", tt.id, got, tt.total)
		}
		if got := TotalNewContributions(post, tree.ParentChildren); got != tt.totalNew {
			t.Errorf("TotalNewContributions(%s) = %d, want %d", tt.id, got, tt.totalNew)
		}
	}
}

func TestTotalContributions_NilPost(t *testing.T) {
	if got := TotalContributions(nil, ParentChildren{}); got != 0 {
		t.Errorf("TotalContributions(nil) = %d, want 0", got)
	}
}

func TestTotalContributions_CyclicMap(t *testing.T) {
	a := &Post{PostID: "a"}
	b := &Post{PostID: "b"}
	m := ParentChildren{
		"a": {Post: a, Children: []*Post{b}},
		"b": {Post: b, Children: []*Post{a}},
	}
	if got := TotalContributions(a, m); got != 1 {
		t.Errorf("TotalContributions on cyclic map = %d, want 1", got)
	}
	if len(m["a"].Children) != 1 || len(m["b"].Children) != 1 {
		t.Error("expected map to be left untouched")
	}
}
