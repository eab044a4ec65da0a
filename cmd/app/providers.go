package main

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/blobdrop/internal/domain/admission"
	"github.com/yanqian/blobdrop/internal/domain/post"
	"github.com/yanqian/blobdrop/internal/infra/backend"
	"github.com/yanqian/blobdrop/internal/infra/config"
	"github.com/yanqian/blobdrop/internal/infra/metastore"
)

func providePostgresPool(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, func(), error) {
	return backend.OpenPostgres(ctx, cfg, logger)
}

func provideValkeyClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (valkey.Client, func(), error) {
	return backend.OpenValkey(ctx, cfg, logger)
}

func provideMetaStore(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (metastore.Store, func(), error) {
	return backend.OpenMetaStore(ctx, cfg, pool, logger)
}

func provideBlobStore(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (post.BlobStore, error) {
	return backend.OpenBlobStore(ctx, cfg, pool, logger)
}

func providePostRepository(cfg *config.Config, store metastore.Store, client valkey.Client, logger *slog.Logger) post.Repository {
	return backend.PostRepository(cfg, store, client, logger)
}

func provideSettingsRepository(store metastore.Store) post.SettingsRepository {
	return store
}

func provideKeyRepository(store metastore.Store) admission.KeyRepository {
	return store
}

func providePostConfig(cfg *config.Config) post.Config {
	return post.Config{DefaultURLPrefix: cfg.Upload.DefaultURLPrefix}
}

func provideIDGenerator() post.IDGenerator {
	return post.NewRandomIDGenerator()
}
