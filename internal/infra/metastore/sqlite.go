package metastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yanqian/blobdrop/internal/domain/post"
)

const (
	sqliteBusyTimeoutMS = 5000
	sqliteMaxOpenConns  = 1
)

// SQLiteStore persists metadata in an embedded SQLite database. Suitable
// for single-node deployments.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the database at path and bootstraps the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	u := url.URL{Scheme: "file", Path: path}
	db, err := sql.Open("sqlite", u.String())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(sqliteMaxOpenConns)

	store := &SQLiteStore{db: db}
	if err := store.configure(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) configure(ctx context.Context) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		fmt.Sprintf("PRAGMA busy_timeout = %d;", sqliteBusyTimeoutMS),
	}
	for _, stmt := range pragmas {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("configure sqlite: %w", err)
		}
	}
	return nil
}

// EnsureSchema creates the metadata tables when missing.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS posts (
			id             TEXT PRIMARY KEY,
			storage_handle TEXT NOT NULL,
			mime_type      TEXT NOT NULL,
			size_bytes     INTEGER NOT NULL DEFAULT 0,
			created_at     TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS posts_storage_handle_idx ON posts (storage_handle)`,
		`CREATE TABLE IF NOT EXISTS keys (
			key        TEXT PRIMARY KEY,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS config (
			id         INTEGER PRIMARY KEY CHECK (id = 1),
			url_prefix TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure metadata schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Create(ctx context.Context, p post.Post) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, storage_handle, mime_type, size_bytes, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.StorageHandle, p.MimeType, p.SizeBytes, p.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: posts.id") {
		return fmt.Errorf("%s: %w", p.ID, ErrDuplicateID)
	}
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (post.Post, bool, error) {
	var (
		p         post.Post
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, storage_handle, mime_type, size_bytes, created_at
		FROM posts
		WHERE id = ?
	`, id).Scan(&p.ID, &p.StorageHandle, &p.MimeType, &p.SizeBytes, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return post.Post{}, false, nil
		}
		return post.Post{}, false, err
	}
	p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return post.Post{}, false, fmt.Errorf("parse created_at of %s: %w", id, err)
	}
	return p, true, nil
}

func (s *SQLiteStore) HandleReferenced(ctx context.Context, handle string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM posts WHERE storage_handle = ? LIMIT 1`, handle)
}

func (s *SQLiteStore) URLPrefix(ctx context.Context) (string, bool, error) {
	var prefix string
	err := s.db.QueryRowContext(ctx, `SELECT url_prefix FROM config WHERE id = 1`).Scan(&prefix)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return prefix, true, nil
}

func (s *SQLiteStore) SetURLPrefix(ctx context.Context, prefix string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (id, url_prefix) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET url_prefix = excluded.url_prefix
	`, prefix)
	return err
}

func (s *SQLiteStore) HasKey(ctx context.Context, key string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM keys WHERE key = ? LIMIT 1`, key)
}

func (s *SQLiteStore) AddKey(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO keys (key, created_at) VALUES (?, ?)
		ON CONFLICT (key) DO NOTHING
	`, key, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (s *SQLiteStore) RevokeKey(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM keys WHERE key = ?`, key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *SQLiteStore) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

var _ Store = (*SQLiteStore)(nil)
