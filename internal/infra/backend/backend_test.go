package backend

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/blobdrop/internal/infra/blobstore"
	"github.com/yanqian/blobdrop/internal/infra/config"
	"github.com/yanqian/blobdrop/internal/infra/metastore"
)

func testConfig() *config.Config {
	return &config.Config{
		Storage:  config.StorageConfig{Backend: config.BackendMemory},
		Metadata: config.MetadataConfig{Backend: config.BackendMemory},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemoryBackendsNeedNoConnections(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()

	pool, cleanup, err := OpenPostgres(ctx, cfg, discardLogger())
	require.NoError(t, err)
	require.Nil(t, pool)
	cleanup()

	client, cleanup, err := OpenValkey(ctx, cfg, discardLogger())
	require.NoError(t, err)
	require.Nil(t, client)
	cleanup()

	store, cleanup, err := OpenMetaStore(ctx, cfg, nil, discardLogger())
	require.NoError(t, err)
	defer cleanup()
	require.IsType(t, &metastore.MemoryStore{}, store)

	blobs, err := OpenBlobStore(ctx, cfg, nil, discardLogger())
	require.NoError(t, err)
	require.IsType(t, &blobstore.MemoryStore{}, blobs)

	require.Same(t, store, PostRepository(cfg, store, nil, discardLogger()))
}

func TestOpenMetaStoreSQLite(t *testing.T) {
	cfg := testConfig()
	cfg.Metadata.Backend = config.BackendSQLite
	cfg.Metadata.SQLite.Path = filepath.Join(t.TempDir(), "meta.db")

	store, cleanup, err := OpenMetaStore(context.Background(), cfg, nil, discardLogger())
	require.NoError(t, err)
	defer cleanup()

	require.NoError(t, store.AddKey(context.Background(), "k"))
	ok, err := store.HasKey(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestValkeyOptions(t *testing.T) {
	opt, err := valkeyOptions("localhost:6379")
	require.NoError(t, err)
	require.Equal(t, []string{"localhost:6379"}, opt.InitAddress)

	opt, err = valkeyOptions("redis://cache.internal:6380/0")
	require.NoError(t, err)
	require.Equal(t, []string{"cache.internal:6380"}, opt.InitAddress)
}
