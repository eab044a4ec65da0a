package post

import (
	"context"
	"errors"
	"io"
)

// ErrBlobNotFound is returned by BlobStore implementations for unknown handles.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore persists arbitrary-length payloads addressed by an opaque handle.
type BlobStore interface {
	// Write streams r into a new object named name and returns its handle.
	Write(ctx context.Context, name string, r io.Reader) (BlobObject, error)
	Open(ctx context.Context, handle string) (io.ReadCloser, error)
	Delete(ctx context.Context, handle string) error
	// List returns up to limit objects whose handle sorts after the given one.
	List(ctx context.Context, after string, limit int) ([]BlobObject, error)
}

// Repository persists write-once post records.
type Repository interface {
	Create(ctx context.Context, p Post) error
	Get(ctx context.Context, id string) (Post, bool, error)
	HandleReferenced(ctx context.Context, handle string) (bool, error)
}

// SettingsRepository exposes the singleton config record.
type SettingsRepository interface {
	URLPrefix(ctx context.Context) (string, bool, error)
}

// IDGenerator produces public identifiers.
type IDGenerator interface {
	NewID() string
}
