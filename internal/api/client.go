package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/fragmede/threadline/internal/config"
	"github.com/fragmede/threadline/internal/thread"
)

const userAgent = "threadline/1.0"

// ErrNotFound is returned when the server has no such thread or post.
var ErrNotFound = errors.New("not found")

// Client talks to the board server's JSON API.
type Client struct {
	http        *http.Client
	limiter     *rate.Limiter
	baseURL     string
	token       string
	concurrency int
}

// NewClient creates a client from cfg. Transient failures of reads are
// retried up to cfg.RetryMax times and requests are throttled to cfg.RequestsPerSecond.
func NewClient(cfg config.Config) *Client {
	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = cfg.RetryMax
	rc.HTTPClient.Timeout = cfg.RequestTimeout
	rc.CheckRetry = retryPolicy

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	concurrency := cfg.FetchConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Client{
		http:        rc.StandardClient(),
		limiter:     rate.NewLimiter(limit, 1),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		token:       cfg.AuthToken,
		concurrency: concurrency,
	}
}

type retryKey struct{}

// retryPolicy retries only requests do marked as safe to resend. Posting
// twice after a proxy error would publish a duplicate.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ok, _ := ctx.Value(retryKey{}).(bool); !ok {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// do sends a request and decodes the JSON response into dst when dst is
// non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, dst any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var rdr io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		rdr = bytes.NewReader(payload)
	}

	if method == http.MethodGet {
		ctx = context.WithValue(ctx, retryKey{}, true)
	}
	u := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer resp.Body.Close()

	slog.Debug("api request", "method", method, "path", path, "status", resp.StatusCode, "request_id", reqID)

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, u, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, u, strings.TrimSpace(string(msg)))
	}
	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", u, err)
	}
	return nil
}

// GetThread fetches a full thread payload.
func (c *Client) GetThread(ctx context.Context, threadID string) (*thread.Thread, error) {
	if threadID == "" {
		return nil, fmt.Errorf("fetching thread: empty id")
	}
	var t thread.Thread
	if err := c.do(ctx, http.MethodGet, "/threads/"+url.PathEscape(threadID), nil, &t); err != nil {
		return nil, err
	}
	if t.ThreadID == "" {
		t.ThreadID = threadID
	}
	return &t, nil
}

// BatchGetThreads fetches several threads concurrently. Results are in the
// same order as ids; failed fetches are nil.
func (c *Client) BatchGetThreads(ctx context.Context, ids []string) ([]*thread.Thread, error) {
	results := make([]*thread.Thread, len(ids))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, id := range ids {
		g.Go(func() error {
			t, err := c.GetThread(gctx, id)
			if err != nil {
				// One missing thread should not sink the batch.
				slog.Debug("batch fetch failed", "thread_id", id, "err", err)
				return nil
			}
			mu.Lock()
			results[i] = t
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, ctx.Err()
}

// CreatePost publishes a contribution in reply to replyToPostID and
// returns the post as the server stored it.
func (c *Client) CreatePost(ctx context.Context, replyToPostID string, p NewPost) (*thread.Post, error) {
	if replyToPostID == "" {
		return nil, fmt.Errorf("creating post: empty parent id")
	}
	var resp postResponse
	path := "/posts/" + url.PathEscape(replyToPostID) + "/contribute"
	if err := c.do(ctx, http.MethodPost, path, p, &resp); err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}
	if resp.Contribution == nil || resp.Contribution.PostID == "" {
		return nil, fmt.Errorf("creating post: server returned no contribution")
	}
	return resp.Contribution, nil
}

// CreateComments publishes a chain of comments on replyTo.PostID, optionally
// in reply to replyTo.CommentID.
func (c *Client) CreateComments(ctx context.Context, replyTo thread.ReplyTo, comments []NewComment) ([]thread.Comment, error) {
	if replyTo.PostID == "" {
		return nil, fmt.Errorf("creating comments: empty post id")
	}
	if len(comments) == 0 {
		return nil, fmt.Errorf("creating comments: nothing to send")
	}
	req := commentRequest{Contents: comments}
	if replyTo.CommentID != "" {
		req.ReplyToCommentID = &replyTo.CommentID
	}
	var resp commentResponse
	path := "/posts/" + url.PathEscape(replyTo.PostID) + "/comment"
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, fmt.Errorf("creating comments: %w", err)
	}
	return resp.Comments, nil
}
