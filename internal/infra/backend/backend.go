// Package backend opens the storage backends selected by configuration.
// Both the server and the admin CLI build their stores through it.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/blobdrop/internal/domain/post"
	"github.com/yanqian/blobdrop/internal/infra/blobstore"
	"github.com/yanqian/blobdrop/internal/infra/config"
	"github.com/yanqian/blobdrop/internal/infra/metastore"
	"github.com/yanqian/blobdrop/internal/infra/postcache"
)

const (
	pingTimeout  = 5 * time.Second
	setupTimeout = 30 * time.Second
)

func noop() {}

// OpenPostgres creates the shared pool when any store is backed by Postgres.
// It returns a nil pool otherwise.
func OpenPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, func(), error) {
	if !cfg.UsesPostgres() {
		return nil, noop, nil
	}
	pgCfg := cfg.Metadata.Postgres
	poolConfig, err := pgxpool.ParseConfig(strings.TrimSpace(pgCfg.DSN))
	if err != nil {
		return nil, nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if pgCfg.MaxConns > 0 {
		poolConfig.MaxConns = pgCfg.MaxConns
	}
	if pgCfg.MinConns > 0 {
		poolConfig.MinConns = pgCfg.MinConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("create postgres pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("postgres pool ready", "max_conns", poolConfig.MaxConns)
	return pool, pool.Close, nil
}

// OpenMetaStore builds the metadata store and bootstraps its schema.
func OpenMetaStore(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (metastore.Store, func(), error) {
	setupCtx, cancel := context.WithTimeout(ctx, setupTimeout)
	defer cancel()

	switch cfg.Metadata.Backend {
	case config.BackendPostgres:
		store := metastore.NewPostgresStore(pool)
		if err := store.EnsureSchema(setupCtx); err != nil {
			return nil, nil, fmt.Errorf("postgres metadata schema: %w", err)
		}
		logger.Info("metadata store ready", "backend", config.BackendPostgres)
		return store, noop, nil
	case config.BackendSQLite:
		store, err := metastore.OpenSQLite(setupCtx, cfg.Metadata.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite metadata: %w", err)
		}
		logger.Info("metadata store ready", "backend", config.BackendSQLite, "path", cfg.Metadata.SQLite.Path)
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Error("close sqlite metadata", "error", err)
			}
		}, nil
	default:
		logger.Warn("metadata store is in memory; posts are lost on restart")
		return metastore.NewMemoryStore(), noop, nil
	}
}

// OpenBlobStore builds the blob store and prepares its schema or bucket.
func OpenBlobStore(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (post.BlobStore, error) {
	setupCtx, cancel := context.WithTimeout(ctx, setupTimeout)
	defer cancel()

	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		store := blobstore.NewPostgresStore(pool, cfg.Storage.ChunkSize, logger)
		if err := store.EnsureSchema(setupCtx); err != nil {
			return nil, fmt.Errorf("postgres blob schema: %w", err)
		}
		logger.Info("blob store ready", "backend", config.BackendPostgres)
		return store, nil
	case config.BackendS3:
		s3 := cfg.Storage.S3
		store, err := blobstore.NewS3Store(blobstore.S3Options{
			Endpoint:  s3.Endpoint,
			AccessKey: s3.AccessKey,
			SecretKey: s3.SecretKey,
			Bucket:    s3.Bucket,
			Region:    s3.Region,
			Prefix:    s3.Prefix,
			PartSize:  s3.PartSize,
		}, logger)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(setupCtx); err != nil {
			return nil, fmt.Errorf("s3 bucket: %w", err)
		}
		logger.Info("blob store ready", "backend", config.BackendS3, "bucket", s3.Bucket)
		return store, nil
	default:
		logger.Warn("blob store is in memory; blobs are lost on restart")
		return blobstore.NewMemoryStore(cfg.Storage.ChunkSize), nil
	}
}

// OpenValkey connects the post cache client. It returns a nil client when
// the cache is disabled.
func OpenValkey(ctx context.Context, cfg *config.Config, logger *slog.Logger) (valkey.Client, func(), error) {
	vCfg := cfg.Cache.Valkey
	if !vCfg.Enabled {
		return nil, noop, nil
	}
	opt, err := valkeyOptions(vCfg.Addr)
	if err != nil {
		return nil, nil, fmt.Errorf("parse valkey address: %w", err)
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, nil, fmt.Errorf("create valkey client: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Do(pingCtx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("ping valkey: %w", err)
	}
	logger.Info("post cache enabled", "addr", vCfg.Addr)
	return client, client.Close, nil
}

// PostRepository layers the valkey cache over the metadata store when a
// client is available.
func PostRepository(cfg *config.Config, store metastore.Store, client valkey.Client, logger *slog.Logger) post.Repository {
	if client == nil {
		return store
	}
	cache := postcache.NewValkeyCache(client, cfg.Cache.Valkey.Prefix, cfg.Cache.Valkey.TTL)
	return postcache.NewCachedRepository(store, cache, logger)
}

func valkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}
