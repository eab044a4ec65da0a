package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/blobdrop/internal/domain/post"
)

const cleanupTimeout = 10 * time.Second

// PostgresStore stores blobs as fixed-size chunk rows. An object row is
// inserted as pending before the first chunk and marked complete after the
// last one, so interrupted writes stay visible to the orphan sweep.
type PostgresStore struct {
	pool      *pgxpool.Pool
	chunkSize int
	logger    *slog.Logger
}

// NewPostgresStore constructs the store. chunkSize <= 0 selects DefaultChunkSize.
func NewPostgresStore(pool *pgxpool.Pool, chunkSize int, logger *slog.Logger) *PostgresStore {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &PostgresStore{pool: pool, chunkSize: chunkSize, logger: logger.With("component", "blobstore.postgres")}
}

// EnsureSchema creates the blob tables when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS blob_objects (
			handle      TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			size_bytes  BIGINT NOT NULL DEFAULT 0,
			chunk_size  INTEGER NOT NULL,
			chunk_count INTEGER NOT NULL DEFAULT 0,
			complete    BOOLEAN NOT NULL DEFAULT FALSE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS blob_chunks (
			handle TEXT NOT NULL REFERENCES blob_objects (handle) ON DELETE CASCADE,
			seq    INTEGER NOT NULL,
			data   BYTEA NOT NULL,
			PRIMARY KEY (handle, seq)
		);
	`)
	if err != nil {
		return fmt.Errorf("ensure blob schema: %w", err)
	}
	return nil
}

// Write streams r into chunk rows.
func (s *PostgresStore) Write(ctx context.Context, name string, r io.Reader) (post.BlobObject, error) {
	handle := uuid.NewString()
	var createdAt time.Time
	err := s.pool.QueryRow(ctx, `
		INSERT INTO blob_objects (handle, name, chunk_size)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, handle, name, s.chunkSize).Scan(&createdAt)
	if err != nil {
		return post.BlobObject{}, fmt.Errorf("create blob object: %w", err)
	}

	size, count, err := writeChunks(ctx, r, s.chunkSize, func(seq int, data []byte) error {
		_, err := s.pool.Exec(ctx, `INSERT INTO blob_chunks (handle, seq, data) VALUES ($1, $2, $3)`, handle, seq, data)
		return err
	})
	if err == nil {
		_, err = s.pool.Exec(ctx, `
			UPDATE blob_objects
			SET size_bytes = $1, chunk_count = $2, complete = TRUE
			WHERE handle = $3
		`, size, count, handle)
	}
	if err != nil {
		s.abandon(ctx, handle)
		return post.BlobObject{}, err
	}

	return post.BlobObject{Handle: handle, Name: name, SizeBytes: size, CreatedAt: createdAt.UTC()}, nil
}

// Open returns a reader that fetches chunks lazily in order.
func (s *PostgresStore) Open(ctx context.Context, handle string) (io.ReadCloser, error) {
	var (
		count    int
		complete bool
	)
	err := s.pool.QueryRow(ctx, `
		SELECT chunk_count, complete FROM blob_objects WHERE handle = $1
	`, handle).Scan(&count, &complete)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", handle, post.ErrBlobNotFound)
		}
		return nil, err
	}
	if !complete {
		return nil, fmt.Errorf("%s is incomplete: %w", handle, post.ErrBlobNotFound)
	}
	return &chunkReader{ctx: ctx, count: count, fetch: s.chunkFetcher(handle)}, nil
}

func (s *PostgresStore) chunkFetcher(handle string) func(context.Context, int) ([]byte, error) {
	return func(ctx context.Context, seq int) ([]byte, error) {
		var data []byte
		err := s.pool.QueryRow(ctx, `
			SELECT data FROM blob_chunks WHERE handle = $1 AND seq = $2
		`, handle, seq).Scan(&data)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s chunk %d missing: %w", handle, seq, post.ErrBlobNotFound)
		}
		return data, err
	}
}

// Delete removes the object and its chunks.
func (s *PostgresStore) Delete(ctx context.Context, handle string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM blob_objects WHERE handle = $1`, handle)
	return err
}

// List returns pending and complete objects ordered by handle.
func (s *PostgresStore) List(ctx context.Context, after string, limit int) ([]post.BlobObject, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT handle, name, size_bytes, created_at
		FROM blob_objects
		WHERE handle > $1
		ORDER BY handle
		LIMIT $2
	`, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []post.BlobObject
	for rows.Next() {
		var obj post.BlobObject
		if err := rows.Scan(&obj.Handle, &obj.Name, &obj.SizeBytes, &obj.CreatedAt); err != nil {
			return nil, err
		}
		obj.CreatedAt = obj.CreatedAt.UTC()
		out = append(out, obj)
	}
	return out, rows.Err()
}

// abandon drops a partially written object. The request context may already
// be cancelled, so cleanup runs detached with its own deadline.
func (s *PostgresStore) abandon(ctx context.Context, handle string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := s.Delete(ctx, handle); err != nil {
		s.logger.Warn("failed to drop partial blob", "handle", handle, "error", err)
	}
}

var _ post.BlobStore = (*PostgresStore)(nil)
