package thread

import "sync"

// Store holds the last fetched payload of each thread.
type Store interface {
	// Thread returns the cached payload. Callers must treat it as
	// read-only.
	Thread(threadID string) (*Thread, bool)
	// Patch hands fn a private copy of the cached thread and replaces the
	// cached payload with it when fn returns true. It returns false when
	// the thread is not cached or fn rejects the change.
	Patch(threadID string, fn func(*Thread) bool) bool
	// Invalidate drops the cached payload.
	Invalidate(threadID string)
}

// ReplyTo identifies what new comments answer: a post, and optionally a
// comment on that post.
type ReplyTo struct {
	PostID    string
	CommentID string
}

// UpdatePostCache adds a freshly created post to the cached thread so the
// next tree rebuild shows it without a refetch. It reports false, leaving
// the cache as it was, when the thread is not cached, the parent post is
// unknown or the post id is already taken.
func UpdatePostCache(store Store, threadID string, post Post) bool {
	if store == nil || threadID == "" || post.PostID == "" {
		return false
	}
	return store.Patch(threadID, func(t *Thread) bool {
		parent := post.Parent()
		parentFound := false
		for i := range t.Posts {
			switch t.Posts[i].PostID {
			case post.PostID:
				return false
			case parent:
				parentFound = true
			}
		}
		if parent == "" || !parentFound {
			return false
		}
		if post.ThreadID == "" {
			post.ThreadID = threadID
		}
		t.Posts = append(t.Posts, post)
		if post.IsNew {
			t.NewPostsAmount++
		}
		return true
	})
}

// UpdateCommentCache adds freshly created comments to the post they answer.
// It reports false, leaving the cache as it was, when there is nothing to
// add, the thread or post is not cached, or replyTo names a comment the
// post does not have. A comment whose parent is neither cached nor earlier
// in comments also fails the whole update.
func UpdateCommentCache(store Store, threadID string, comments []Comment, replyTo ReplyTo) bool {
	if store == nil || threadID == "" || replyTo.PostID == "" || len(comments) == 0 {
		return false
	}
	return store.Patch(threadID, func(t *Thread) bool {
		var post *Post
		for i := range t.Posts {
			if t.Posts[i].PostID == replyTo.PostID {
				post = &t.Posts[i]
				break
			}
		}
		if post == nil {
			return false
		}
		existing := make(map[string]bool, len(post.Comments))
		for _, c := range post.Comments {
			existing[c.CommentID] = true
		}
		if replyTo.CommentID != "" && !existing[replyTo.CommentID] {
			return false
		}
		for _, c := range comments {
			if c.CommentID == "" || existing[c.CommentID] {
				return false
			}
			if c.ParentCommentID != nil && !existing[*c.ParentCommentID] {
				return false
			}
			existing[c.CommentID] = true
			if c.ParentPostID == "" {
				c.ParentPostID = post.PostID
			}
			post.Comments = append(post.Comments, c)
			post.TotalCommentsAmount++
			if c.IsNew {
				post.NewCommentsAmount++
				t.NewCommentsAmount++
			}
		}
		return true
	})
}

// MemoryStore is a Store kept in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	threads map[string]*Thread
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{threads: make(map[string]*Thread)}
}

// Put replaces the cached payload for t.ThreadID.
func (s *MemoryStore) Put(t *Thread) {
	if t == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads[t.ThreadID] = t
}

// Thread implements Store.
func (s *MemoryStore) Thread(threadID string) (*Thread, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[threadID]
	return t, ok
}

// Patch implements Store.
func (s *MemoryStore) Patch(threadID string, fn func(*Thread) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[threadID]
	if !ok {
		return false
	}
	next := t.Clone()
	if !fn(next) {
		return false
	}
	s.threads[threadID] = next
	return true
}

// Invalidate implements Store.
func (s *MemoryStore) Invalidate(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.threads, threadID)
}
