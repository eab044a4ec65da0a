package post

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newSweepFixture(t *testing.T) (*Service, *stubBlobStore, *stubRepo) {
	t.Helper()
	blobs := newStubBlobStore()
	posts := newStubRepo()
	svc := NewService(Config{}, blobs, posts, nil, NewRandomIDGenerator(), discardLogger())
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	old := now.Add(-2 * time.Hour)
	blobs.put(BlobObject{Handle: "a-referenced", SizeBytes: 10, CreatedAt: old})
	blobs.put(BlobObject{Handle: "b-orphan", SizeBytes: 20, CreatedAt: old})
	blobs.put(BlobObject{Handle: "c-fresh-orphan", SizeBytes: 40, CreatedAt: now.Add(-time.Minute)})
	blobs.put(BlobObject{Handle: "d-orphan", SizeBytes: 80, CreatedAt: old})
	require.NoError(t, posts.Create(context.Background(), Post{ID: "AbCdEfGhIjKlMnOp", StorageHandle: "a-referenced", MimeType: "text/plain"}))
	return svc, blobs, posts
}

func TestSweepOrphansDryRun(t *testing.T) {
	svc, blobs, _ := newSweepFixture(t)
	res, err := svc.SweepOrphans(context.Background(), SweepOptions{BatchSize: 2})
	require.NoError(t, err)
	require.True(t, res.DryRun)
	require.Equal(t, 4, res.Scanned)
	require.Equal(t, 2, res.Candidates)
	require.Zero(t, res.Deleted)
	require.EqualValues(t, 100, res.ReclaimedBytes)
	require.Empty(t, blobs.deleted)
}

func TestSweepOrphansApply(t *testing.T) {
	svc, blobs, _ := newSweepFixture(t)
	res, err := svc.SweepOrphans(context.Background(), SweepOptions{BatchSize: 1, Apply: true})
	require.NoError(t, err)
	require.False(t, res.DryRun)
	require.Equal(t, 2, res.Deleted)
	require.ElementsMatch(t, []string{"b-orphan", "d-orphan"}, blobs.deleted)
	require.Contains(t, blobs.infos, "a-referenced")
	require.Contains(t, blobs.infos, "c-fresh-orphan")
}

func TestSweepOrphansCountsFailedDeletes(t *testing.T) {
	svc, blobs, _ := newSweepFixture(t)
	blobs.deleteErr = errors.New("permission denied")
	res, err := svc.SweepOrphans(context.Background(), SweepOptions{Apply: true})
	require.NoError(t, err)
	require.Equal(t, 2, res.Failed)
	require.Zero(t, res.Deleted)
}
