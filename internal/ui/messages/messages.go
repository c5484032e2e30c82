package messages

import "github.com/fragmede/threadline/internal/thread"

// View transition messages.
type (
	OpenThreadMsg struct{ ThreadID string }
	GoBackMsg     struct{}

	// OpenReplyMsg opens the composer. A zero ReplyTo.CommentID with
	// AsComment false means a new contribution under ReplyTo.PostID.
	OpenReplyMsg struct {
		ThreadID   string
		ReplyTo    thread.ReplyTo
		AsComment  bool
		Categories []string
	}
)

// Data messages.
type (
	ThreadLoadedMsg struct {
		ThreadID string
		Thread   *thread.Thread
		Stale    bool
		Err      error
	}

	// ThreadUpdatedMsg carries a newer snapshot of a thread that is
	// already open, from the monitor, a file watcher or a local patch.
	ThreadUpdatedMsg struct {
		Thread        *thread.Thread
		AddedPosts    int
		AddedComments int
	}

	ThreadsLoadedMsg struct {
		Threads []*thread.Thread
		Err     error
	}

	ReplyResultMsg struct {
		ThreadID string
		Thread   *thread.Thread
		Err      error
		// CacheErr is set when the server accepted the reply but the
		// cached thread could not be patched.
		CacheErr error
	}

	StatusMsg struct {
		Text    string
		IsError bool
	}
)
