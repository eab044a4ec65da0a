package post

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"
)

type stubBlobStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	infos     map[string]BlobObject
	writes    int
	writeErr  error
	deleteErr error
	deleted   []string
	seq       int
}

func newStubBlobStore() *stubBlobStore {
	return &stubBlobStore{objects: map[string][]byte{}, infos: map[string]BlobObject{}}
}

func (s *stubBlobStore) Write(_ context.Context, name string, r io.Reader) (BlobObject, error) {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	data, err := io.ReadAll(r)
	if err != nil {
		return BlobObject{}, err
	}
	if s.writeErr != nil {
		return BlobObject{}, s.writeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	obj := BlobObject{Handle: fmt.Sprintf("h%04d", s.seq), Name: name, SizeBytes: int64(len(data)), CreatedAt: time.Now().UTC()}
	s.objects[obj.Handle] = data
	s.infos[obj.Handle] = obj
	return obj, nil
}

func (s *stubBlobStore) Open(_ context.Context, handle string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[handle]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *stubBlobStore) Delete(_ context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, handle)
	delete(s.objects, handle)
	delete(s.infos, handle)
	return nil
}

func (s *stubBlobStore) List(_ context.Context, after string, limit int) ([]BlobObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []BlobObject
	for handle, info := range s.infos {
		if handle > after {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubBlobStore) put(obj BlobObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[obj.Handle] = make([]byte, obj.SizeBytes)
	s.infos[obj.Handle] = obj
}

type stubRepo struct {
	mu        sync.Mutex
	posts     map[string]Post
	createErr error
	getErr    error
}

func newStubRepo() *stubRepo {
	return &stubRepo{posts: map[string]Post{}}
}

func (r *stubRepo) Create(_ context.Context, p Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.posts[p.ID]; ok {
		return errors.New("duplicate id")
	}
	r.posts[p.ID] = p
	return nil
}

func (r *stubRepo) Get(_ context.Context, id string) (Post, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return Post{}, false, r.getErr
	}
	p, ok := r.posts[id]
	return p, ok, nil
}

func (r *stubRepo) HandleReferenced(_ context.Context, handle string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.posts {
		if p.StorageHandle == handle {
			return true, nil
		}
	}
	return false, nil
}

type stubSettings struct {
	prefix string
	found  bool
	err    error
}

func (s stubSettings) URLPrefix(context.Context) (string, bool, error) {
	return s.prefix, s.found, s.err
}

type fixedIDs struct{ ids []string }

func (f *fixedIDs) NewID() string {
	id := f.ids[0]
	f.ids = f.ids[1:]
	return id
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
