package metastore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/blobdrop/internal/domain/post"
)

const pgUniqueViolation = "23505"

// PostgresStore persists metadata in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs the store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the metadata tables when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS posts (
			id             TEXT PRIMARY KEY,
			storage_handle TEXT NOT NULL,
			mime_type      TEXT NOT NULL,
			size_bytes     BIGINT NOT NULL DEFAULT 0,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS posts_storage_handle_idx ON posts (storage_handle);
		CREATE TABLE IF NOT EXISTS keys (
			key        TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS config (
			id         SMALLINT PRIMARY KEY CHECK (id = 1),
			url_prefix TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("ensure metadata schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, p post.Post) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO posts (id, storage_handle, mime_type, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.StorageHandle, p.MimeType, p.SizeBytes, p.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%s: %w", p.ID, ErrDuplicateID)
	}
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id string) (post.Post, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, storage_handle, mime_type, size_bytes, created_at
		FROM posts
		WHERE id = $1
	`, id)
	var p post.Post
	if err := row.Scan(&p.ID, &p.StorageHandle, &p.MimeType, &p.SizeBytes, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return post.Post{}, false, nil
		}
		return post.Post{}, false, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, true, nil
}

func (s *PostgresStore) HandleReferenced(ctx context.Context, handle string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE storage_handle = $1)`, handle).Scan(&exists)
	return exists, err
}

func (s *PostgresStore) URLPrefix(ctx context.Context) (string, bool, error) {
	var prefix string
	err := s.pool.QueryRow(ctx, `SELECT url_prefix FROM config WHERE id = 1`).Scan(&prefix)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return prefix, true, nil
}

func (s *PostgresStore) SetURLPrefix(ctx context.Context, prefix string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO config (id, url_prefix) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET url_prefix = EXCLUDED.url_prefix
	`, prefix)
	return err
}

func (s *PostgresStore) HasKey(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM keys WHERE key = $1)`, key).Scan(&exists)
	return exists, err
}

func (s *PostgresStore) AddKey(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO keys (key) VALUES ($1) ON CONFLICT (key) DO NOTHING`, key)
	return err
}

func (s *PostgresStore) RevokeKey(ctx context.Context, key string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM keys WHERE key = $1`, key)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

var _ Store = (*PostgresStore)(nil)
