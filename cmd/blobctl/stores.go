package main

import (
	"context"
	"log/slog"

	"github.com/yanqian/blobdrop/internal/domain/post"
	"github.com/yanqian/blobdrop/internal/infra/backend"
	"github.com/yanqian/blobdrop/internal/infra/config"
	"github.com/yanqian/blobdrop/internal/infra/metastore"
)

// stores bundles the backends a command operates on.
type stores struct {
	meta          metastore.Store
	posts         *post.Service
	defaultPrefix string
}

type storeOpener func(ctx context.Context) (*stores, func(), error)

// openStores connects to the configured backends. The post cache is not
// opened: the CLI never reads posts by id.
func openStores(cfg *config.Config, logger *slog.Logger) storeOpener {
	return func(ctx context.Context) (*stores, func(), error) {
		pool, closePool, err := backend.OpenPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		meta, closeMeta, err := backend.OpenMetaStore(ctx, cfg, pool, logger)
		if err != nil {
			closePool()
			return nil, nil, err
		}
		blobs, err := backend.OpenBlobStore(ctx, cfg, pool, logger)
		if err != nil {
			closeMeta()
			closePool()
			return nil, nil, err
		}
		return newStores(cfg.Upload.DefaultURLPrefix, meta, blobs, logger), func() {
			closeMeta()
			closePool()
		}, nil
	}
}

func newStores(defaultPrefix string, meta metastore.Store, blobs post.BlobStore, logger *slog.Logger) *stores {
	svc := post.NewService(post.Config{DefaultURLPrefix: defaultPrefix}, blobs, meta, meta, post.NewRandomIDGenerator(), logger)
	return &stores{meta: meta, posts: svc, defaultPrefix: defaultPrefix}
}

func withStores(ctx context.Context, open storeOpener, fn func(*stores) error) error {
	s, closeFn, err := open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(s)
}
