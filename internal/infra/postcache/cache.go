package postcache

import (
	"context"
	"log/slog"

	"github.com/yanqian/blobdrop/internal/domain/post"
)

// Cache stores post records by id. Posts are write-once, so entries never
// need invalidation.
type Cache interface {
	Get(ctx context.Context, id string) (post.Post, bool, error)
	Set(ctx context.Context, p post.Post) error
}

// CachedRepository puts a read-through cache in front of a post repository.
// Cache failures are logged and fall back to the repository.
type CachedRepository struct {
	repo   post.Repository
	cache  Cache
	logger *slog.Logger
}

// NewCachedRepository wraps repo with cache.
func NewCachedRepository(repo post.Repository, cache Cache, logger *slog.Logger) *CachedRepository {
	return &CachedRepository{repo: repo, cache: cache, logger: logger.With("component", "postcache")}
}

func (r *CachedRepository) Create(ctx context.Context, p post.Post) error {
	if err := r.repo.Create(ctx, p); err != nil {
		return err
	}
	r.store(ctx, p)
	return nil
}

func (r *CachedRepository) Get(ctx context.Context, id string) (post.Post, bool, error) {
	cached, hit, err := r.cache.Get(ctx, id)
	if err != nil {
		r.logger.Warn("cache read failed", "id", id, "error", err)
	} else if hit {
		return cached, true, nil
	}
	p, found, err := r.repo.Get(ctx, id)
	if err != nil || !found {
		return p, found, err
	}
	r.store(ctx, p)
	return p, true, nil
}

func (r *CachedRepository) HandleReferenced(ctx context.Context, handle string) (bool, error) {
	return r.repo.HandleReferenced(ctx, handle)
}

func (r *CachedRepository) store(ctx context.Context, p post.Post) {
	if err := r.cache.Set(ctx, p); err != nil {
		r.logger.Warn("cache write failed", "id", p.ID, "error", err)
	}
}

var _ post.Repository = (*CachedRepository)(nil)
