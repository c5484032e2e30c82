package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fragmede/threadline/internal/cache"
	"github.com/fragmede/threadline/internal/thread"
)

const payload = `{"threadId":"t1","posts":[{"postId":"a"},{"postId":"b","parentPostId":"a","tags":{"categoryTags":["meta"]}}]}`

func writePayload(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFile_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thread.json")
	writePayload(t, path, payload)
	f := NewFile(path)

	res, err := f.Load(context.Background(), "", false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Thread.ThreadID != "t1" || len(res.Thread.Posts) != 2 {
		t.Errorf("Load = %+v", res.Thread)
	}
	if _, ok := f.Store().Thread("t1"); !ok {
		t.Error("expected loaded thread in the store")
	}

	if _, err := f.Load(context.Background(), "other", true); err == nil {
		t.Error("expected error when the file holds a different thread")
	}
}

func TestFile_LoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thread.json")
	writePayload(t, path, `{"posts": []}`)
	if _, err := NewFile(path).Load(context.Background(), "", false); err == nil {
		t.Error("expected error for payload without threadId")
	}
	if _, err := NewFile(filepath.Join(t.TempDir(), "missing.json")).Load(context.Background(), "", false); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFile_FilterState(t *testing.T) {
	f := NewFile("unused.json")
	state := []thread.CategoryFilter{{Name: "meta", Active: false}}
	if err := f.SaveFilterState("t1", state); err != nil {
		t.Fatal(err)
	}
	if got := f.FilterState("t1"); len(got) != 1 || got[0].Active {
		t.Errorf("FilterState = %+v", got)
	}
}

func TestWatchFile_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thread.json")
	writePayload(t, path, payload)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan *thread.Thread, 8)
	done := make(chan error, 1)
	f := NewFile(path)
	go func() {
		done <- f.Watch(ctx, func(th *thread.Thread, err error) {
			if err == nil {
				updates <- th
			}
		})
	}()

	next := `{"threadId":"t1","posts":[{"postId":"a"},{"postId":"b","parentPostId":"a"},{"postId":"c","parentPostId":"a","isNew":true}]}`
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case th := <-updates:
			if len(th.Posts) != 3 {
				continue
			}
			if got, _ := f.Store().Thread("t1"); got == nil || len(got.Posts) != 3 {
				t.Error("expected store to hold the reloaded payload")
			}
			cancel()
			if err := <-done; err != nil {
				t.Errorf("Watch returned %v", err)
			}
			return
		case <-tick.C:
			// The watcher may not be registered yet; keep writing until it is.
			writePayload(t, path, next)
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		}
	}
}

type fakeFetcher struct {
	calls atomic.Int32
	t     *thread.Thread
	err   error
}

func (f *fakeFetcher) GetThread(_ context.Context, id string) (*thread.Thread, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.t.Clone(), nil
}

func (f *fakeFetcher) BatchGetThreads(ctx context.Context, ids []string) ([]*thread.Thread, error) {
	out := make([]*thread.Thread, len(ids))
	for i, id := range ids {
		if f.t != nil && f.t.ThreadID == id {
			out[i], _ = f.GetThread(ctx, id)
		}
	}
	return out, nil
}

func newRemote(t *testing.T, f Fetcher, ttl time.Duration) (*Remote, *cache.DB) {
	t.Helper()
	db, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	threads, err := cache.NewThreads(db, 8, ttl)
	if err != nil {
		t.Fatal(err)
	}
	return NewRemote(f, threads, db), db
}

func TestRemote_LoadCachesAndReuses(t *testing.T) {
	f := &fakeFetcher{t: &thread.Thread{ThreadID: "t1", Posts: []thread.Post{{PostID: "a"}}}}
	r, _ := newRemote(t, f, time.Minute)
	ctx := context.Background()

	if _, err := r.Load(ctx, "t1", false); err != nil {
		t.Fatal(err)
	}
	res, err := r.Load(ctx, "t1", false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Stale || res.Thread.ThreadID != "t1" {
		t.Errorf("Load = %+v", res)
	}
	if got := f.calls.Load(); got != 1 {
		t.Errorf("fetches = %d, want 1", got)
	}

	if _, err := r.Load(ctx, "t1", true); err != nil {
		t.Fatal(err)
	}
	if got := f.calls.Load(); got != 2 {
		t.Errorf("fetches after force = %d, want 2", got)
	}
}

func TestRemote_StaleFallback(t *testing.T) {
	f := &fakeFetcher{t: &thread.Thread{ThreadID: "t1"}}
	r, _ := newRemote(t, f, 0)
	ctx := context.Background()
	if _, err := r.Load(ctx, "t1", false); err != nil {
		t.Fatal(err)
	}

	f.err = errors.New("offline")
	res, err := r.Load(ctx, "t1", false)
	if err != nil {
		t.Fatalf("expected stale fallback, got %v", err)
	}
	if !res.Stale {
		t.Error("expected result to be marked stale")
	}

	if _, err := r.Load(ctx, "t2", false); err == nil {
		t.Error("expected error for uncached thread while offline")
	}
}

func TestRemote_FilterState(t *testing.T) {
	r, _ := newRemote(t, &fakeFetcher{}, time.Minute)
	if got := r.FilterState("t1"); got != nil {
		t.Errorf("FilterState = %v, want nil", got)
	}
	state := []thread.CategoryFilter{{Name: "meta", Active: true}}
	if err := r.SaveFilterState("t1", state); err != nil {
		t.Fatal(err)
	}
	if got := r.FilterState("t1"); len(got) != 1 || got[0].Name != "meta" {
		t.Errorf("FilterState = %+v", got)
	}
}

func TestRemote_Recent(t *testing.T) {
	f := &fakeFetcher{t: &thread.Thread{ThreadID: "t1", NewPostsAmount: 4}}
	r, db := newRemote(t, f, time.Minute)
	if err := db.PutThread(&thread.Thread{ThreadID: "t0"}); err != nil {
		t.Fatal(err)
	}
	if err := db.PutThread(&thread.Thread{ThreadID: "t1"}); err != nil {
		t.Fatal(err)
	}

	got, err := r.Recent(context.Background(), 10, true)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent returned %d threads, want 2", len(got))
	}
	for _, th := range got {
		if th.ThreadID == "t1" && th.NewPostsAmount != 4 {
			t.Errorf("t1 was not refreshed: %+v", th)
		}
	}

	got, err = r.Recent(context.Background(), 1, false)
	if err != nil || len(got) != 1 {
		t.Errorf("Recent(limit 1) = %d threads, %v", len(got), err)
	}
}
