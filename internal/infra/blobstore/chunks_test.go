package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"
)

func TestWriteChunksSplitsPayload(t *testing.T) {
	payload := bytes.Repeat([]byte("abcdefghij"), 7) // 70 bytes
	var chunks [][]byte
	size, count, err := writeChunks(context.Background(), iotest.HalfReader(bytes.NewReader(payload)), 32, func(seq int, data []byte) error {
		require.Equal(t, len(chunks), seq)
		chunks = append(chunks, data)
		return nil
	})
	require.NoError(t, err)
	require.EqualValues(t, 70, size)
	require.Equal(t, 3, count)
	require.Len(t, chunks[0], 32)
	require.Len(t, chunks[1], 32)
	require.Len(t, chunks[2], 6)
	require.Equal(t, payload, bytes.Join(chunks, nil))
}

func TestWriteChunksEmptyPayload(t *testing.T) {
	size, count, err := writeChunks(context.Background(), bytes.NewReader(nil), 8, func(int, []byte) error {
		t.Fatal("put must not be called for an empty payload")
		return nil
	})
	require.NoError(t, err)
	require.Zero(t, size)
	require.Zero(t, count)
}

func TestWriteChunksPropagatesSourceError(t *testing.T) {
	src := io.MultiReader(bytes.NewReader([]byte("partial")), iotest.ErrReader(io.ErrUnexpectedEOF))
	_, _, err := writeChunks(context.Background(), src, 4, func(int, []byte) error { return nil })
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestWriteChunksPropagatesPutError(t *testing.T) {
	boom := errors.New("disk full")
	_, count, err := writeChunks(context.Background(), bytes.NewReader([]byte("0123456789")), 4, func(seq int, _ []byte) error {
		if seq == 1 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, count)
}

func TestWriteChunksStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := writeChunks(ctx, bytes.NewReader([]byte("data")), 4, func(int, []byte) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}

func TestChunkReaderReassembles(t *testing.T) {
	chunks := [][]byte{[]byte("hel"), []byte("lo "), []byte("test")}
	r := &chunkReader{
		ctx:   context.Background(),
		count: len(chunks),
		fetch: func(_ context.Context, seq int) ([]byte, error) { return chunks[seq], nil },
	}
	require.NoError(t, iotest.TestReader(r, []byte("hello test")))
}

func TestChunkReaderSurfacesFetchError(t *testing.T) {
	missing := errors.New("chunk missing")
	r := &chunkReader{
		ctx:   context.Background(),
		count: 2,
		fetch: func(_ context.Context, seq int) ([]byte, error) {
			if seq == 1 {
				return nil, missing
			}
			return []byte("first"), nil
		},
	}
	_, err := io.ReadAll(r)
	require.ErrorIs(t, err, missing)
}
