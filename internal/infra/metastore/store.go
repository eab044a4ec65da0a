package metastore

import (
	"context"
	"errors"

	"github.com/yanqian/blobdrop/internal/domain/admission"
	"github.com/yanqian/blobdrop/internal/domain/post"
)

// ErrDuplicateID is returned when a post id is already taken.
var ErrDuplicateID = errors.New("post id already exists")

// Store is the metadata store: posts, admission keys and the config record.
type Store interface {
	post.Repository
	post.SettingsRepository
	admission.KeyRepository

	AddKey(ctx context.Context, key string) error
	RevokeKey(ctx context.Context, key string) (bool, error)
	SetURLPrefix(ctx context.Context, prefix string) error
}
