package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-json"

	"github.com/fragmede/threadline/internal/thread"
)

// File serves a single thread payload read from disk. Filter state is
// kept in memory only.
type File struct {
	path  string
	store *thread.MemoryStore

	mu      sync.Mutex
	filters map[string][]thread.CategoryFilter
}

var _ Source = (*File)(nil)

// NewFile creates a Source that reads the thread payload at path.
func NewFile(path string) *File {
	return &File{
		path:    path,
		store:   thread.NewMemoryStore(),
		filters: make(map[string][]thread.CategoryFilter),
	}
}

// ReadFile decodes a thread payload from disk.
func ReadFile(path string) (*thread.Thread, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var t thread.Thread
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if t.ThreadID == "" {
		return nil, fmt.Errorf("decoding %s: payload has no threadId", path)
	}
	return &t, nil
}

// Load reads the file unless the thread is already held and force is
// false. threadID may be empty to accept whatever thread the file holds.
func (f *File) Load(_ context.Context, threadID string, force bool) (Result, error) {
	if !force && threadID != "" {
		if t, ok := f.store.Thread(threadID); ok {
			return Result{Thread: t}, nil
		}
	}
	t, err := ReadFile(f.path)
	if err != nil {
		return Result{}, err
	}
	if threadID != "" && t.ThreadID != threadID {
		return Result{}, fmt.Errorf("%s holds thread %s, not %s", f.path, t.ThreadID, threadID)
	}
	f.store.Put(t)
	return Result{Thread: t}, nil
}

// Store returns the in-memory store holding the file's thread.
func (f *File) Store() thread.Store { return f.store }

// FilterState returns the filter last saved for threadID.
func (f *File) FilterState(threadID string) []thread.CategoryFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filters[threadID]
}

// SaveFilterState remembers the filter for threadID.
func (f *File) SaveFilterState(threadID string, state []thread.CategoryFilter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters[threadID] = state
	return nil
}

// Watch reloads the file whenever it changes and hands the new payload to
// onChange. It blocks until ctx is cancelled.
func (f *File) Watch(ctx context.Context, onChange func(*thread.Thread, error)) error {
	return WatchFile(ctx, f.path, func(t *thread.Thread, err error) {
		if err == nil {
			f.store.Put(t)
		}
		onChange(t, err)
	})
}

// WatchFile calls onChange with the decoded payload every time the file
// at path is written or replaced. The parent directory is watched so
// editors that save by rename are picked up. It blocks until ctx is
// cancelled.
func WatchFile(ctx context.Context, path string, onChange func(*thread.Thread, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			t, err := ReadFile(abs)
			if err != nil {
				// Writers often truncate first; the next write event retries.
				slog.Debug("reloading watched file", "path", abs, "err", err)
			}
			onChange(t, err)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("file watcher", "path", abs, "err", err)
		}
	}
}
