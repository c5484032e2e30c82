package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fragmede/threadline/internal/thread"
)

// Threads is the thread payload repository the UI and the cache updater
// share. Recently used payloads stay decoded in memory; every write goes
// through to SQLite. Payloads handed out are snapshots and are never
// modified in place.
type Threads struct {
	mu     sync.Mutex
	db     *DB
	memory *lru.Cache[string, entry]
	ttl    time.Duration
}

type entry struct {
	thread    *thread.Thread
	fetchedAt time.Time
}

var _ thread.Store = (*Threads)(nil)

// NewThreads layers an in-memory cache of size entries over db.
func NewThreads(db *DB, size int, ttl time.Duration) (*Threads, error) {
	if size < 1 {
		size = 1
	}
	memory, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("creating memory cache: %w", err)
	}
	return &Threads{db: db, memory: memory, ttl: ttl}, nil
}

// Get returns the cached payload and whether it is still fresh. A miss
// returns ErrNotFound.
func (s *Threads) Get(id string) (*thread.Thread, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func (s *Threads) get(id string) (*thread.Thread, bool, error) {
	e, ok := s.memory.Get(id)
	if !ok {
		t, fetchedAt, err := s.db.getThread(id)
		if err != nil {
			return nil, false, err
		}
		e = entry{thread: t, fetchedAt: fetchedAt}
		s.memory.Add(id, e)
	}
	return e.thread, time.Since(e.fetchedAt) < s.ttl, nil
}

// Put stores a freshly fetched payload, replacing whatever was cached.
func (s *Threads) Put(t *thread.Thread) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if err := s.db.putThread(t, now); err != nil {
		return fmt.Errorf("caching thread %s: %w", t.ThreadID, err)
	}
	s.memory.Add(t.ThreadID, entry{thread: t, fetchedAt: now})
	return nil
}

// Thread implements thread.Store.
func (s *Threads) Thread(id string) (*thread.Thread, bool) {
	t, _, err := s.Get(id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Warn("reading cached thread", "thread_id", id, "err", err)
		}
		return nil, false
	}
	return t, true
}

// Patch implements thread.Store. The patched copy replaces the cached
// payload in memory and on disk; the old snapshot stays valid for readers
// still holding it.
func (s *Threads) Patch(id string, fn func(*thread.Thread) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, _, err := s.get(id)
	if err != nil {
		slog.Debug("patch target not cached", "thread_id", id, "err", err)
		return false
	}
	e, _ := s.memory.Peek(id)
	next := current.Clone()
	if !fn(next) {
		return false
	}
	if err := s.db.ReplaceThread(next); err != nil {
		slog.Warn("storing patched thread", "thread_id", id, "err", err)
		return false
	}
	s.memory.Add(id, entry{thread: next, fetchedAt: e.fetchedAt})
	return true
}

// Invalidate implements thread.Store.
func (s *Threads) Invalidate(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memory.Remove(id)
	if err := s.db.InvalidateThread(id); err != nil {
		slog.Warn("invalidating thread", "thread_id", id, "err", err)
	}
}
