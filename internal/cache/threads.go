package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/fragmede/threadline/internal/thread"
)

// ErrNotFound is returned when a thread is not in the cache.
var ErrNotFound = errors.New("not in cache")

// GetThread retrieves a cached thread payload. Returns (thread, isFresh,
// error); isFresh tells whether it is within ttl. A miss returns
// ErrNotFound.
func (d *DB) GetThread(id string, ttl time.Duration) (*thread.Thread, bool, error) {
	t, fetchedAt, err := d.getThread(id)
	if err != nil {
		return nil, false, err
	}
	return t, time.Since(fetchedAt) < ttl, nil
}

func (d *DB) getThread(id string) (*thread.Thread, time.Time, error) {
	row := d.db.QueryRow(`SELECT payload, fetched_at FROM threads WHERE id = ?`, id)

	var payload string
	var fetchedAt int64
	err := row.Scan(&payload, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, ErrNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("reading thread %s: %w", id, err)
	}

	var t thread.Thread
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		return nil, time.Time{}, fmt.Errorf("decoding cached thread %s: %w", id, err)
	}
	return &t, time.Unix(fetchedAt, 0), nil
}

// PutThread stores a thread payload, stamping it as fetched now.
func (d *DB) PutThread(t *thread.Thread) error {
	return d.putThread(t, time.Now())
}

func (d *DB) putThread(t *thread.Thread, fetchedAt time.Time) error {
	if t == nil || t.ThreadID == "" {
		return fmt.Errorf("storing thread: missing thread id")
	}
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encoding thread %s: %w", t.ThreadID, err)
	}
	_, err = d.db.Exec(`INSERT OR REPLACE INTO threads (id, board_slug, payload, fetched_at) VALUES (?, ?, ?, ?)`,
		t.ThreadID, nullStr(t.BoardSlug), string(payload), fetchedAt.Unix())
	return err
}

// ReplaceThread stores a locally patched payload without refreshing its
// fetch time, so a patched thread still goes stale on schedule.
func (d *DB) ReplaceThread(t *thread.Thread) error {
	if t == nil || t.ThreadID == "" {
		return fmt.Errorf("storing thread: missing thread id")
	}
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encoding thread %s: %w", t.ThreadID, err)
	}
	res, err := d.db.Exec(`UPDATE threads SET payload = ?, board_slug = ? WHERE id = ?`,
		string(payload), nullStr(t.BoardSlug), t.ThreadID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return d.PutThread(t)
	}
	return nil
}

// InvalidateThread removes a thread from the cache.
func (d *DB) InvalidateThread(id string) error {
	_, err := d.db.Exec(`DELETE FROM threads WHERE id = ?`, id)
	return err
}

// ThreadIDs returns the ids of all cached threads, most recently fetched
// first.
func (d *DB) ThreadIDs() ([]string, error) {
	rows, err := d.db.Query(`SELECT id FROM threads ORDER BY fetched_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetFilterState returns the category filter last used on a thread, or nil.
func (d *DB) GetFilterState(threadID string) ([]thread.CategoryFilter, error) {
	var state string
	err := d.db.QueryRow(`SELECT state FROM filter_state WHERE thread_id = ?`, threadID).Scan(&state)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var filters []thread.CategoryFilter
	if err := json.Unmarshal([]byte(state), &filters); err != nil {
		return nil, fmt.Errorf("decoding filter state for %s: %w", threadID, err)
	}
	return filters, nil
}

// PutFilterState remembers the category filter used on a thread.
func (d *DB) PutFilterState(threadID string, filters []thread.CategoryFilter) error {
	state, err := json.Marshal(filters)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(`INSERT OR REPLACE INTO filter_state (thread_id, state) VALUES (?, ?)`, threadID, string(state))
	return err
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
