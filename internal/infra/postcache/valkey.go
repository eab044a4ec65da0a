package postcache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/blobdrop/internal/domain/post"
)

// ValkeyCache keeps post records in a Valkey-compatible database.
type ValkeyCache struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeyCache constructs the cache. ttl <= 0 keeps entries forever.
func NewValkeyCache(client valkey.Client, prefix string, ttl time.Duration) *ValkeyCache {
	if prefix == "" {
		prefix = "blobdrop"
	}
	return &ValkeyCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *ValkeyCache) Get(ctx context.Context, id string) (post.Post, bool, error) {
	payload, err := c.client.Do(ctx, c.client.B().Get().Key(c.key(id)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return post.Post{}, false, nil
		}
		return post.Post{}, false, err
	}
	var p post.Post
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return post.Post{}, false, err
	}
	return p, true, nil
}

func (c *ValkeyCache) Set(ctx context.Context, p post.Post) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	builder := c.client.B().Set().Key(c.key(p.ID)).Value(string(payload))
	var cmd valkey.Completed
	if c.ttl > 0 {
		ttl := c.ttl
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return c.client.Do(ctx, cmd).Error()
}

func (c *ValkeyCache) key(id string) string {
	return c.prefix + ":post:" + id
}

var _ Cache = (*ValkeyCache)(nil)
