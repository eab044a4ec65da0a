package blobstore

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/blobdrop/internal/domain/post"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(4)
	ctx := context.Background()
	payload := []byte("hello test")

	obj, err := store.Write(ctx, "AbCdEfGhIjKlMnOp", bytes.NewReader(payload))
	require.NoError(t, err)
	require.NotEmpty(t, obj.Handle)
	require.Equal(t, "AbCdEfGhIjKlMnOp", obj.Name)
	require.EqualValues(t, len(payload), obj.SizeBytes)

	rc, err := store.Open(ctx, obj.Handle)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestMemoryStoreOpenUnknownHandle(t *testing.T) {
	store := NewMemoryStore(0)
	_, err := store.Open(context.Background(), "missing")
	require.ErrorIs(t, err, post.ErrBlobNotFound)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()
	obj, err := store.Write(ctx, "x", bytes.NewReader([]byte("payload")))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, obj.Handle))
	require.NoError(t, store.Delete(ctx, obj.Handle))
	_, err = store.Open(ctx, obj.Handle)
	require.ErrorIs(t, err, post.ErrBlobNotFound)
	require.Zero(t, store.Len())
}

func TestMemoryStoreListPages(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := store.Write(ctx, "obj", bytes.NewReader([]byte{byte(i)}))
		require.NoError(t, err)
	}

	var seen []string
	after := ""
	for {
		page, err := store.List(ctx, after, 2)
		require.NoError(t, err)
		for _, obj := range page {
			seen = append(seen, obj.Handle)
			after = obj.Handle
		}
		if len(page) < 2 {
			break
		}
	}
	require.Len(t, seen, 5)
	require.IsIncreasing(t, seen)
}

func TestMemoryStoreFailedWriteStoresNothing(t *testing.T) {
	store := NewMemoryStore(2)
	_, err := store.Write(context.Background(), "x", io.MultiReader(bytes.NewReader([]byte("abc")), errReader{}))
	require.Error(t, err)
	require.Zero(t, store.Len())
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, io.ErrClosedPipe }
