package postcache

import (
	"context"
	"sync"

	"github.com/yanqian/blobdrop/internal/domain/post"
)

// MemoryCache is an unbounded in-process cache for tests and local dev.
type MemoryCache struct {
	mu    sync.RWMutex
	posts map[string]post.Post
}

// NewMemoryCache constructs an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{posts: make(map[string]post.Post)}
}

func (c *MemoryCache) Get(_ context.Context, id string) (post.Post, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.posts[id]
	return p, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, p post.Post) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts[p.ID] = p
	return nil
}

var _ Cache = (*MemoryCache)(nil)
