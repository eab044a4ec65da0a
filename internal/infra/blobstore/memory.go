package blobstore

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/blobdrop/internal/domain/post"
	"github.com/yanqian/blobdrop/pkg/util"
)

// MemoryStore keeps chunked blobs in memory. Useful for tests and local dev.
type MemoryStore struct {
	mu        sync.RWMutex
	chunkSize int
	objects   map[string]memoryObject
	now       func() time.Time
}

type memoryObject struct {
	info   post.BlobObject
	chunks [][]byte
}

// NewMemoryStore constructs the store. chunkSize <= 0 selects DefaultChunkSize.
func NewMemoryStore(chunkSize int) *MemoryStore {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &MemoryStore{
		chunkSize: chunkSize,
		objects:   make(map[string]memoryObject),
		now:       util.NowUTC,
	}
}

// Write buffers r chunk by chunk and publishes the object once fully read.
func (s *MemoryStore) Write(ctx context.Context, name string, r io.Reader) (post.BlobObject, error) {
	var chunks [][]byte
	size, _, err := writeChunks(ctx, r, s.chunkSize, func(_ int, data []byte) error {
		chunks = append(chunks, data)
		return nil
	})
	if err != nil {
		return post.BlobObject{}, err
	}
	info := post.BlobObject{
		Handle:    uuid.NewString(),
		Name:      name,
		SizeBytes: size,
		CreatedAt: s.now(),
	}
	s.mu.Lock()
	s.objects[info.Handle] = memoryObject{info: info, chunks: chunks}
	s.mu.Unlock()
	return info, nil
}

// Open returns a reader over the stored chunks.
func (s *MemoryStore) Open(ctx context.Context, handle string) (io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objects[handle]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", handle, post.ErrBlobNotFound)
	}
	chunks := obj.chunks
	return &chunkReader{
		ctx:   ctx,
		count: len(chunks),
		fetch: func(_ context.Context, seq int) ([]byte, error) {
			return chunks[seq], nil
		},
	}, nil
}

// Delete removes the blob. Unknown handles are ignored.
func (s *MemoryStore) Delete(_ context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, handle)
	return nil
}

// List returns objects ordered by handle.
func (s *MemoryStore) List(_ context.Context, after string, limit int) ([]post.BlobObject, error) {
	s.mu.RLock()
	out := make([]post.BlobObject, 0, len(s.objects))
	for handle, obj := range s.objects {
		if handle > after {
			out = append(out, obj.info)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len reports the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

var _ post.BlobStore = (*MemoryStore)(nil)
