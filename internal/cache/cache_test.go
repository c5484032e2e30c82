package cache

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/fragmede/threadline/internal/thread"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testThread() *thread.Thread {
	created := thread.NewTimestamp(time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC))
	return &thread.Thread{
		ThreadID:  "t1",
		BoardSlug: "gore",
		Posts: []thread.Post{
			{PostID: "a", Created: created, Tags: &thread.Tags{CategoryTags: []string{"meta"}}},
			{PostID: "b", ParentPostID: thread.StringPtr("a"), Created: created, IsNew: true,
				Comments: []thread.Comment{{CommentID: "c1", ParentPostID: "b", Created: created}}},
		},
	}
}

func TestDB_PutGetThread(t *testing.T) {
	db := openTestDB(t)
	if _, _, err := db.GetThread("t1", time.Minute); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetThread on empty cache err = %v, want ErrNotFound", err)
	}

	want := testThread()
	if err := db.PutThread(want); err != nil {
		t.Fatalf("PutThread: %v", err)
	}
	got, fresh, err := db.GetThread("t1", time.Minute)
	if err != nil {
		t.Fatalf("GetThread: %v", err)
	}
	if !fresh {
		t.Error("expected freshly stored thread to be fresh")
	}
	if len(got.Posts) != 2 || got.Posts[1].Parent() != "a" || !got.Posts[1].IsNew {
		t.Errorf("decoded posts = %+v", got.Posts)
	}
	if !got.Posts[0].Created.Equal(want.Posts[0].Created.Time) {
		t.Errorf("Created = %v, want %v", got.Posts[0].Created.Time, want.Posts[0].Created.Time)
	}
	if len(got.Posts[1].Comments) != 1 {
		t.Errorf("expected comment to survive the round trip")
	}
}

func TestDB_StaleThread(t *testing.T) {
	db := openTestDB(t)
	if err := db.putThread(testThread(), time.Now().Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	_, fresh, err := db.GetThread("t1", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if fresh {
		t.Error("expected hour-old thread to be stale with a minute ttl")
	}
}

func TestDB_InvalidateAndIDs(t *testing.T) {
	db := openTestDB(t)
	other := testThread()
	other.ThreadID = "t2"
	db.putThread(testThread(), time.Now().Add(-time.Minute))
	db.PutThread(other)

	ids, err := db.ThreadIDs()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, []string{"t2", "t1"}) {
		t.Errorf("ThreadIDs = %v, want [t2 t1]", ids)
	}

	if err := db.InvalidateThread("t1"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := db.GetThread("t1", time.Minute); !errors.Is(err, ErrNotFound) {
		t.Errorf("after invalidate err = %v, want ErrNotFound", err)
	}
}

func TestDB_FilterState(t *testing.T) {
	db := openTestDB(t)
	got, err := db.GetFilterState("t1")
	if err != nil || got != nil {
		t.Fatalf("GetFilterState on empty = %v, %v", got, err)
	}
	want := []thread.CategoryFilter{{Name: "meta", Active: false}, {Name: thread.UncategorizedLabel, Active: true}}
	if err := db.PutFilterState("t1", want); err != nil {
		t.Fatal(err)
	}
	got, err = db.GetFilterState("t1")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GetFilterState = %+v, want %+v", got, want)
	}
}

func newTestThreads(t *testing.T) (*Threads, *DB) {
	t.Helper()
	db := openTestDB(t)
	s, err := NewThreads(db, 2, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	return s, db
}

func TestThreads_PatchWritesThrough(t *testing.T) {
	s, db := newTestThreads(t)
	if err := s.Put(testThread()); err != nil {
		t.Fatal(err)
	}
	before, ok := s.Thread("t1")
	if !ok {
		t.Fatal("expected cached thread")
	}

	post := thread.Post{PostID: "new", ParentPostID: thread.StringPtr("b")}
	if !thread.UpdatePostCache(s, "t1", post) {
		t.Fatal("expected UpdatePostCache to succeed")
	}
	if len(before.Posts) != 2 {
		t.Error("expected earlier snapshot to be left alone")
	}

	fromDisk, fresh, err := db.GetThread("t1", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !fresh {
		t.Error("expected patch to keep the thread fresh")
	}
	tree := thread.MakePostsTree(fromDisk.Posts, "t1")
	if kids := tree.ParentChildren.Children("b"); len(kids) != 1 || kids[0].PostID != "new" {
		t.Errorf("children of b on disk = %v", kids)
	}
}

func TestThreads_PatchMissingThread(t *testing.T) {
	s, _ := newTestThreads(t)
	if thread.UpdatePostCache(s, "t1", thread.Post{PostID: "x", ParentPostID: thread.StringPtr("a")}) {
		t.Error("expected failure for an uncached thread")
	}
	ok := thread.UpdateCommentCache(s, "t1", []thread.Comment{{CommentID: "x"}}, thread.ReplyTo{PostID: "a"})
	if ok {
		t.Error("expected comment update to fail for an uncached thread")
	}
}

func TestThreads_ReadsThroughAfterEviction(t *testing.T) {
	s, _ := newTestThreads(t)
	for _, id := range []string{"t1", "t2", "t3"} {
		th := testThread()
		th.ThreadID = id
		if err := s.Put(th); err != nil {
			t.Fatal(err)
		}
	}
	// The memory cache holds two entries; t1 comes back from SQLite.
	got, fresh, err := s.Get("t1")
	if err != nil {
		t.Fatalf("Get(t1): %v", err)
	}
	if got.ThreadID != "t1" || !fresh {
		t.Errorf("Get(t1) = %s fresh=%v", got.ThreadID, fresh)
	}
}

func TestThreads_Invalidate(t *testing.T) {
	s, db := newTestThreads(t)
	s.Put(testThread())
	s.Invalidate("t1")
	if _, ok := s.Thread("t1"); ok {
		t.Error("expected thread to be gone from memory")
	}
	if _, _, err := db.GetThread("t1", time.Minute); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected thread to be gone from disk, err = %v", err)
	}
}
