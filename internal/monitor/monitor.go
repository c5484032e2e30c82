package monitor

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fragmede/threadline/internal/cache"
	"github.com/fragmede/threadline/internal/config"
	"github.com/fragmede/threadline/internal/thread"
	"github.com/fragmede/threadline/internal/ui/messages"
)

// Fetcher fetches threads in bulk.
type Fetcher interface {
	BatchGetThreads(ctx context.Context, ids []string) ([]*thread.Thread, error)
}

// Cache is where refetched threads are stored.
type Cache interface {
	Get(id string) (*thread.Thread, bool, error)
	Put(t *thread.Thread) error
}

// Monitor polls watched threads for new posts and comments.
type Monitor struct {
	fetcher  Fetcher
	cache    Cache
	interval time.Duration
	send     func(tea.Msg)

	mu      sync.Mutex
	watched map[string]bool
	stopCh  chan struct{}
	once    sync.Once
}

// New creates a new background monitor.
func New(cfg config.Config, fetcher Fetcher, c Cache) *Monitor {
	return &Monitor{
		fetcher:  fetcher,
		cache:    c,
		interval: cfg.MonitorInterval,
		watched:  make(map[string]bool),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background polling loop, sending updates to program.
func (m *Monitor) Start(program *tea.Program) {
	m.send = program.Send
	if m.interval <= 0 {
		return
	}
	go m.loop()
}

// Stop halts the background polling.
func (m *Monitor) Stop() {
	m.once.Do(func() { close(m.stopCh) })
}

// Watch adds a thread to the polling set.
func (m *Monitor) Watch(threadID string) {
	if threadID == "" {
		return
	}
	m.mu.Lock()
	m.watched[threadID] = true
	m.mu.Unlock()
}

// Unwatch removes a thread from the polling set.
func (m *Monitor) Unwatch(threadID string) {
	m.mu.Lock()
	delete(m.watched, threadID)
	m.mu.Unlock()
}

// Watched returns the polled thread ids in sorted order.
func (m *Monitor) Watched() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.watched))
	for id := range m.watched {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithCancel(context.Background())
			go func() {
				select {
				case <-m.stopCh:
					cancel()
				case <-ctx.Done():
				}
			}()
			for _, msg := range m.Poll(ctx) {
				if m.send != nil {
					m.send(msg)
				}
			}
			cancel()
		}
	}
}

// Poll refetches every watched thread once, stores the new payloads and
// returns an update for each thread that gained posts or comments.
func (m *Monitor) Poll(ctx context.Context) []messages.ThreadUpdatedMsg {
	ids := m.Watched()
	if len(ids) == 0 {
		return nil
	}
	fetched, err := m.fetcher.BatchGetThreads(ctx, ids)
	if err != nil {
		slog.Warn("polling threads", "err", err)
		return nil
	}

	var updates []messages.ThreadUpdatedMsg
	for _, t := range fetched {
		if t == nil {
			continue
		}
		prev, _, err := m.cache.Get(t.ThreadID)
		if err != nil && !errors.Is(err, cache.ErrNotFound) {
			slog.Warn("reading cached thread", "thread_id", t.ThreadID, "err", err)
		}
		if err := m.cache.Put(t); err != nil {
			slog.Warn("caching polled thread", "thread_id", t.ThreadID, "err", err)
		}

		posts, comments := countAdded(prev, t)
		if posts == 0 && comments == 0 {
			continue
		}
		slog.Info("thread activity", "thread_id", t.ThreadID, "posts", posts, "comments", comments)
		updates = append(updates, messages.ThreadUpdatedMsg{
			Thread:        t,
			AddedPosts:    posts,
			AddedComments: comments,
		})
	}
	return updates
}

// countAdded counts the posts and comments in next that prev lacks. With
// no previous snapshot the server's new counters are used.
func countAdded(prev, next *thread.Thread) (posts, comments int) {
	if prev == nil {
		return next.NewPostsAmount, next.NewCommentsAmount
	}
	seenPosts := make(map[string]bool, len(prev.Posts))
	seenComments := make(map[string]bool)
	for _, p := range prev.Posts {
		seenPosts[p.PostID] = true
		for _, c := range p.Comments {
			seenComments[c.CommentID] = true
		}
	}
	for _, p := range next.Posts {
		if !seenPosts[p.PostID] {
			posts++
		}
		for _, c := range p.Comments {
			if !seenComments[c.CommentID] {
				comments++
			}
		}
	}
	return posts, comments
}
