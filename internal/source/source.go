// Package source loads thread payloads for the UI, either from the board
// API through the local cache or from a JSON file on disk.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fragmede/threadline/internal/cache"
	"github.com/fragmede/threadline/internal/thread"
)

// Result is a loaded thread. Stale is set when the payload came from the
// cache past its TTL because the server could not be reached.
type Result struct {
	Thread *thread.Thread
	Stale  bool
}

// Source is where the UI gets threads from and where local patches land.
type Source interface {
	Load(ctx context.Context, threadID string, force bool) (Result, error)
	Store() thread.Store
	FilterState(threadID string) []thread.CategoryFilter
	SaveFilterState(threadID string, state []thread.CategoryFilter) error
}

// Fetcher fetches threads from the server.
type Fetcher interface {
	GetThread(ctx context.Context, threadID string) (*thread.Thread, error)
	BatchGetThreads(ctx context.Context, ids []string) ([]*thread.Thread, error)
}

// Remote serves threads from the cache while fresh and from the server
// otherwise.
type Remote struct {
	fetcher Fetcher
	threads *cache.Threads
	db      *cache.DB
}

var _ Source = (*Remote)(nil)

// NewRemote creates a Source backed by fetcher and the cache.
func NewRemote(fetcher Fetcher, threads *cache.Threads, db *cache.DB) *Remote {
	return &Remote{fetcher: fetcher, threads: threads, db: db}
}

// Load returns the cached thread when it is fresh and force is false.
// Otherwise it refetches, falling back to a stale cached copy when the
// fetch fails.
func (r *Remote) Load(ctx context.Context, threadID string, force bool) (Result, error) {
	cached, fresh, err := r.threads.Get(threadID)
	if err != nil && !errors.Is(err, cache.ErrNotFound) {
		slog.Warn("reading cache", "thread_id", threadID, "err", err)
	}
	if cached != nil && fresh && !force {
		return Result{Thread: cached}, nil
	}

	t, err := r.fetcher.GetThread(ctx, threadID)
	if err != nil {
		if cached != nil {
			slog.Info("serving stale thread", "thread_id", threadID, "err", err)
			return Result{Thread: cached, Stale: true}, nil
		}
		return Result{}, fmt.Errorf("loading thread %s: %w", threadID, err)
	}
	if err := r.threads.Put(t); err != nil {
		slog.Warn("caching thread", "thread_id", threadID, "err", err)
	}
	return Result{Thread: t}, nil
}

// Store returns the cache the Cache Updater patches after posting.
func (r *Remote) Store() thread.Store { return r.threads }

// FilterState returns the persisted category filter for a thread.
func (r *Remote) FilterState(threadID string) []thread.CategoryFilter {
	state, err := r.db.GetFilterState(threadID)
	if err != nil {
		slog.Warn("reading filter state", "thread_id", threadID, "err", err)
		return nil
	}
	return state
}

// SaveFilterState persists the category filter for a thread.
func (r *Remote) SaveFilterState(threadID string, state []thread.CategoryFilter) error {
	return r.db.PutFilterState(threadID, state)
}

// Recent returns up to limit cached threads, most recently fetched first.
// With refresh set they are refetched from the server first; threads the
// server no longer has keep their cached copy.
func (r *Remote) Recent(ctx context.Context, limit int, refresh bool) ([]*thread.Thread, error) {
	ids, err := r.db.ThreadIDs()
	if err != nil {
		return nil, fmt.Errorf("listing cached threads: %w", err)
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	if refresh && len(ids) > 0 {
		fetched, err := r.fetcher.BatchGetThreads(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("refreshing threads: %w", err)
		}
		for _, t := range fetched {
			if t == nil {
				continue
			}
			if err := r.threads.Put(t); err != nil {
				slog.Warn("caching thread", "thread_id", t.ThreadID, "err", err)
			}
		}
	}

	out := make([]*thread.Thread, 0, len(ids))
	for _, id := range ids {
		t, _, err := r.threads.Get(id)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}
