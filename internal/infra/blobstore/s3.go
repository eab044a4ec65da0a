package blobstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yanqian/blobdrop/internal/domain/post"
)

const (
	minPartSize     = 5 * 1024 * 1024
	defaultPartSize = 16 * 1024 * 1024
)

// S3Options configures an S3-compatible bucket (AWS, R2, MinIO).
type S3Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Prefix    string
	PartSize  uint64
}

// S3Store streams blobs into an S3-compatible bucket. The client splits
// uploads of unknown length into multipart chunks.
type S3Store struct {
	client   *minio.Client
	bucket   string
	prefix   string
	partSize uint64
	logger   *slog.Logger
}

// NewS3Store constructs the storage adapter.
func NewS3Store(opts S3Options, logger *slog.Logger) (*S3Store, error) {
	cleanEndpoint := sanitizeEndpoint(opts.Endpoint)
	useSSL := !strings.HasPrefix(strings.ToLower(strings.TrimSpace(opts.Endpoint)), "http://")
	client, err := minio.New(cleanEndpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure:       useSSL,
		Region:       opts.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	// minio sizes parts for a 5 TiB object when the length is unknown, so
	// pin the part size to keep per-upload buffering bounded.
	partSize := opts.PartSize
	switch {
	case partSize == 0:
		partSize = defaultPartSize
	case partSize < minPartSize:
		partSize = minPartSize
	}
	return &S3Store{
		client:   client,
		bucket:   opts.Bucket,
		prefix:   opts.Prefix,
		partSize: partSize,
		logger:   logger.With("component", "blobstore.s3"),
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err == nil && exists {
		return nil
	}
	err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
		return err
	}
	return nil
}

// Write uploads r under prefix+name.
func (s *S3Store) Write(ctx context.Context, name string, r io.Reader) (post.BlobObject, error) {
	key := s.prefix + name
	info, err := s.client.PutObject(ctx, s.bucket, key, r, -1, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
		PartSize:    s.partSize,
	})
	if err != nil {
		return post.BlobObject{}, err
	}
	return post.BlobObject{
		Handle:    key,
		Name:      name,
		SizeBytes: info.Size,
		CreatedAt: info.LastModified.UTC(),
	}, nil
}

// Open fetches an object for reading.
func (s *S3Store) Open(ctx context.Context, handle string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, handle, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat surfaces a missing key before streaming starts.
	if _, statErr := obj.Stat(); statErr != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(statErr).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%s: %w", handle, post.ErrBlobNotFound)
		}
		return nil, statErr
	}
	return obj, nil
}

// Delete removes an object.
func (s *S3Store) Delete(ctx context.Context, handle string) error {
	return s.client.RemoveObject(ctx, s.bucket, handle, minio.RemoveObjectOptions{})
}

// List walks keys under the configured prefix in lexical order.
func (s *S3Store) List(ctx context.Context, after string, limit int) ([]post.BlobObject, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var out []post.BlobObject
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:     s.prefix,
		StartAfter: after,
		Recursive:  true,
		MaxKeys:    limit,
	}) {
		if info.Err != nil {
			return nil, info.Err
		}
		out = append(out, post.BlobObject{
			Handle:    info.Key,
			Name:      strings.TrimPrefix(info.Key, s.prefix),
			SizeBytes: info.Size,
			CreatedAt: info.LastModified.UTC(),
		})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

var _ post.BlobStore = (*S3Store)(nil)

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if strings.Contains(raw, "/") {
		parts := strings.Split(raw, "/")
		raw = parts[0]
	}
	return raw
}
