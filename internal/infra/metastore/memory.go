package metastore

import (
	"context"
	"sync"

	"github.com/yanqian/blobdrop/internal/domain/post"
)

// MemoryStore keeps metadata in process memory for tests and local dev.
type MemoryStore struct {
	mu        sync.RWMutex
	posts     map[string]post.Post
	handles   map[string]string
	keys      map[string]struct{}
	urlPrefix *string
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		posts:   make(map[string]post.Post),
		handles: make(map[string]string),
		keys:    make(map[string]struct{}),
	}
}

func (s *MemoryStore) Create(_ context.Context, p post.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.posts[p.ID]; exists {
		return ErrDuplicateID
	}
	s.posts[p.ID] = p
	s.handles[p.StorageHandle] = p.ID
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (post.Post, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	return p, ok, nil
}

func (s *MemoryStore) HandleReferenced(_ context.Context, handle string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.handles[handle]
	return ok, nil
}

func (s *MemoryStore) URLPrefix(_ context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.urlPrefix == nil {
		return "", false, nil
	}
	return *s.urlPrefix, true, nil
}

func (s *MemoryStore) SetURLPrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urlPrefix = &prefix
	return nil
}

func (s *MemoryStore) HasKey(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[key]
	return ok, nil
}

func (s *MemoryStore) AddKey(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = struct{}{}
	return nil
}

func (s *MemoryStore) RevokeKey(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[key]
	delete(s.keys, key)
	return ok, nil
}

// Len reports the number of stored posts.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}

var _ Store = (*MemoryStore)(nil)
