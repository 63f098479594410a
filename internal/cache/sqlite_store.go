package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS responses (
	key        TEXT PRIMARY KEY,
	stored_at  INTEGER NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0,
	payload    BLOB NOT NULL
)`

// NewSQLiteStore 在 dir/responses.db 中保存缓存；dir 为文件路径时直接使用该文件。
func NewSQLiteStore(dir string) (Store, error) {
	if dir == "" {
		return nil, errors.New("cache path required")
	}
	dbPath := dir
	if filepath.Ext(dir) == "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache path: %w", err)
		}
		dbPath = filepath.Join(dir, "responses.db")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache table: %w", err)
	}
	return &sqliteStore{db: db, now: time.Now}, nil
}

type sqliteStore struct {
	db  *sql.DB
	now func() time.Time
}

func (s *sqliteStore) Has(ctx context.Context, key string) bool {
	return s.CachedTime(ctx, key) > 0
}

func (s *sqliteStore) CachedTime(ctx context.Context, key string) int64 {
	var storedAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT stored_at FROM responses WHERE key = ? AND (expires_at = 0 OR expires_at > ?)",
		key, s.now().UnixNano()).Scan(&storedAt)
	if err != nil {
		return 0
	}
	return storedAt
}

func (s *sqliteStore) Fetch(ctx context.Context, key string) (*Response, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM responses WHERE key = ? AND (expires_at = 0 OR expires_at > ?)",
		key, s.now().UnixNano()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, ErrNotFound
	}
	return &resp, nil
}

func (s *sqliteStore) Store(ctx context.Context, key string, resp *Response, ttl time.Duration) error {
	if resp == nil {
		return errors.New("response required")
	}
	e := newEntry(resp, ttl, s.now())
	payload, err := json.Marshal(e.Response)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO responses (key, stored_at, expires_at, payload) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET stored_at = excluded.stored_at, expires_at = excluded.expires_at, payload = excluded.payload`,
		key, e.StoredAt, e.ExpiresAt, payload)
	return err
}

func (s *sqliteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM responses WHERE key = ?", key)
	return err
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
