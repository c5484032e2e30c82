package reply

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/fragmede/threadline/internal/api"
	"github.com/fragmede/threadline/internal/thread"
	"github.com/fragmede/threadline/internal/ui/messages"
)

type fakePoster struct {
	post     *thread.Post
	comments []thread.Comment
	err      error

	gotPost     api.NewPost
	gotComments []api.NewComment
}

func (f *fakePoster) CreatePost(_ context.Context, _ string, p api.NewPost) (*thread.Post, error) {
	f.gotPost = p
	return f.post, f.err
}

func (f *fakePoster) CreateComments(_ context.Context, _ thread.ReplyTo, c []api.NewComment) ([]thread.Comment, error) {
	f.gotComments = c
	return f.comments, f.err
}

func seeded() *thread.MemoryStore {
	s := thread.NewMemoryStore()
	s.Put(&thread.Thread{ThreadID: "t1", Posts: []thread.Post{
		{PostID: "a"},
		{PostID: "b", ParentPostID: thread.StringPtr("a"), Comments: []thread.Comment{{CommentID: "c1", ParentPostID: "b"}}},
	}})
	return s
}

func TestSubmitPost_PatchesCache(t *testing.T) {
	store := seeded()
	poster := &fakePoster{post: &thread.Post{PostID: "new", IsOwn: true}}
	target := messages.OpenReplyMsg{ThreadID: "t1", ReplyTo: thread.ReplyTo{PostID: "b"}}

	res := submitPost(context.Background(), poster, store, target, "hello", []string{"meta"})
	if res.Err != nil || res.CacheErr != nil {
		t.Fatalf("errors = %v / %v", res.Err, res.CacheErr)
	}
	if !reflect.DeepEqual(poster.gotPost.Tags.CategoryTags, []string{"meta"}) {
		t.Errorf("sent categories = %v", poster.gotPost.Tags.CategoryTags)
	}
	tree := thread.MakePostsTree(res.Thread.Posts, "t1")
	if kids := tree.ParentChildren.Children("b"); len(kids) != 1 || kids[0].PostID != "new" {
		t.Errorf("children of b = %v, want [new]", kids)
	}
}

func TestSubmitPost_CacheMiss(t *testing.T) {
	poster := &fakePoster{post: &thread.Post{PostID: "new"}}
	target := messages.OpenReplyMsg{ThreadID: "missing", ReplyTo: thread.ReplyTo{PostID: "b"}}
	res := submitPost(context.Background(), poster, seeded(), target, "hello", nil)
	if res.Err != nil {
		t.Fatalf("Err = %v", res.Err)
	}
	if !errors.Is(res.CacheErr, ErrCacheUpdate) {
		t.Errorf("CacheErr = %v, want ErrCacheUpdate", res.CacheErr)
	}
}

func TestSubmitPost_ServerError(t *testing.T) {
	store := seeded()
	poster := &fakePoster{err: errors.New("boom")}
	target := messages.OpenReplyMsg{ThreadID: "t1", ReplyTo: thread.ReplyTo{PostID: "b"}}
	res := submitPost(context.Background(), poster, store, target, "hello", nil)
	if res.Err == nil {
		t.Fatal("expected error")
	}
	if got, _ := store.Thread("t1"); len(got.Posts) != 2 {
		t.Error("expected cache to be untouched")
	}
}

func TestSubmitComments_Chain(t *testing.T) {
	store := seeded()
	poster := &fakePoster{comments: []thread.Comment{{CommentID: "c2"}, {CommentID: "c3"}}}
	target := messages.OpenReplyMsg{
		ThreadID:  "t1",
		ReplyTo:   thread.ReplyTo{PostID: "b", CommentID: "c1"},
		AsComment: true,
	}

	res := submitComments(context.Background(), poster, store, target, "first\n---\nsecond")
	if res.Err != nil || res.CacheErr != nil {
		t.Fatalf("errors = %v / %v", res.Err, res.CacheErr)
	}
	if len(poster.gotComments) != 2 {
		t.Fatalf("sent %d comments, want 2", len(poster.gotComments))
	}
	b := res.Thread.Posts[1]
	if len(b.Comments) != 3 || b.TotalCommentsAmount != 2 {
		t.Fatalf("comments = %+v", b.Comments)
	}
	c3 := b.Comments[2]
	if c3.Parent() != "c1" || c3.ChainParentID == nil || *c3.ChainParentID != "c2" {
		t.Errorf("c3 links = parent %q chain %v", c3.Parent(), c3.ChainParentID)
	}
	seq := thread.MakeCommentsTree(b.Comments).Sequence()
	if len(seq) != 3 || seq[0].CommentID != "c1" {
		t.Errorf("sequence = %v", seq)
	}
}

func TestSubmit_ReadOnly(t *testing.T) {
	m := New(messages.OpenReplyMsg{ThreadID: "t1", ReplyTo: thread.ReplyTo{PostID: "a"}}, nil, nil)
	msg := m.submit("hi")()
	res, ok := msg.(messages.ReplyResultMsg)
	if !ok || !errors.Is(res.Err, ErrReadOnly) {
		t.Errorf("submit = %#v, want ErrReadOnly", msg)
	}
}

func TestSplitChain(t *testing.T) {
	got := SplitChain("one\n\n---\ntwo\nlines\n ---\n\n---")
	want := []string{"one", "two\nlines"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitChain = %q, want %q", got, want)
	}
}

func TestParseCategories(t *testing.T) {
	got := ParseCategories(" #meta, art,, meta ,#")
	want := []string{"meta", "art"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseCategories = %v, want %v", got, want)
	}
}
