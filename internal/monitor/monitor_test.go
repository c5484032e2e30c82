package monitor

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/fragmede/threadline/internal/cache"
	"github.com/fragmede/threadline/internal/config"
	"github.com/fragmede/threadline/internal/thread"
)

type fakeFetcher struct {
	threads map[string]*thread.Thread
	asked   []string
}

func (f *fakeFetcher) BatchGetThreads(_ context.Context, ids []string) ([]*thread.Thread, error) {
	f.asked = append([]string(nil), ids...)
	out := make([]*thread.Thread, len(ids))
	for i, id := range ids {
		if t, ok := f.threads[id]; ok {
			out[i] = t.Clone()
		}
	}
	return out, nil
}

type memCache struct {
	mu      sync.Mutex
	threads map[string]*thread.Thread
}

func (c *memCache) Get(id string) (*thread.Thread, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.threads[id]
	if !ok {
		return nil, false, cache.ErrNotFound
	}
	return t, true, nil
}

func (c *memCache) Put(t *thread.Thread) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.threads[t.ThreadID] = t
	return nil
}

func TestPoll_ReportsAddedItems(t *testing.T) {
	prev := &thread.Thread{ThreadID: "t1", Posts: []thread.Post{
		{PostID: "a", Comments: []thread.Comment{{CommentID: "c1"}}},
	}}
	next := &thread.Thread{ThreadID: "t1", Posts: []thread.Post{
		{PostID: "a", Comments: []thread.Comment{{CommentID: "c1"}, {CommentID: "c2"}}},
		{PostID: "b", ParentPostID: thread.StringPtr("a"), Comments: []thread.Comment{{CommentID: "c3"}}},
	}}
	f := &fakeFetcher{threads: map[string]*thread.Thread{"t1": next}}
	c := &memCache{threads: map[string]*thread.Thread{"t1": prev}}

	m := New(config.Config{MonitorInterval: time.Minute}, f, c)
	m.Watch("t1")
	m.Watch("gone")

	updates := m.Poll(context.Background())
	if !reflect.DeepEqual(f.asked, []string{"gone", "t1"}) {
		t.Errorf("asked = %v, want [gone t1]", f.asked)
	}
	if len(updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(updates))
	}
	if updates[0].AddedPosts != 1 || updates[0].AddedComments != 2 {
		t.Errorf("added = %d posts %d comments, want 1 and 2", updates[0].AddedPosts, updates[0].AddedComments)
	}
	if got, _, _ := c.Get("t1"); len(got.Posts) != 2 {
		t.Error("expected cache to hold the refetched thread")
	}

	if again := m.Poll(context.Background()); len(again) != 0 {
		t.Errorf("second poll updates = %d, want 0", len(again))
	}
}

func TestPoll_FirstSnapshotUsesServerCounters(t *testing.T) {
	f := &fakeFetcher{threads: map[string]*thread.Thread{
		"t1": {ThreadID: "t1", NewPostsAmount: 2, NewCommentsAmount: 5},
		"t2": {ThreadID: "t2"},
	}}
	c := &memCache{threads: map[string]*thread.Thread{}}
	m := New(config.Config{}, f, c)
	m.Watch("t1")
	m.Watch("t2")

	updates := m.Poll(context.Background())
	if len(updates) != 1 || updates[0].Thread.ThreadID != "t1" {
		t.Fatalf("updates = %+v, want one for t1", updates)
	}
	if updates[0].AddedPosts != 2 || updates[0].AddedComments != 5 {
		t.Errorf("added = %+v", updates[0])
	}
}

func TestWatchUnwatch(t *testing.T) {
	m := New(config.Config{}, &fakeFetcher{}, &memCache{threads: map[string]*thread.Thread{}})
	m.Watch("b")
	m.Watch("a")
	m.Watch("")
	m.Unwatch("b")
	if got := m.Watched(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("Watched = %v, want [a]", got)
	}
	if updates := New(config.Config{}, &fakeFetcher{}, nil).Poll(context.Background()); updates != nil {
		t.Errorf("Poll with nothing watched = %v, want nil", updates)
	}
	m.Stop()
	m.Stop()
}
