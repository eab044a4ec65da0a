package post

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/blobdrop/pkg/errors"
)

var locationPattern = regexp.MustCompile(`^https://files\.example/[A-Za-z0-9]{16}$`)

type fixture struct {
	svc   *Service
	blobs *stubBlobStore
	posts *stubRepo
}

func newFixture(settings SettingsRepository) fixture {
	blobs := newStubBlobStore()
	posts := newStubRepo()
	svc := NewService(Config{DefaultURLPrefix: "https://default.example"}, blobs, posts, settings, NewRandomIDGenerator(), discardLogger())
	return fixture{svc: svc, blobs: blobs, posts: posts}
}

func dataPart(body, mime string) Part {
	return Part{Name: FieldName, ContentType: mime, Body: strings.NewReader(body)}
}

func TestUploadThenDownloadRoundTrip(t *testing.T) {
	f := newFixture(stubSettings{prefix: "https://files.example", found: true})
	ctx := context.Background()

	res, err := f.svc.Upload(ctx, []Part{dataPart("hello test", "text/plain")})
	require.NoError(t, err)
	require.True(t, res.Created)
	require.Regexp(t, locationPattern, res.Location)
	require.EqualValues(t, 10, res.Post.SizeBytes)

	dl, err := f.svc.Download(ctx, res.Post.ID)
	require.NoError(t, err)
	defer dl.Body.Close()
	body, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	require.Equal(t, "hello test", string(body))
	require.Equal(t, "text/plain", dl.Post.MimeType)
}

func TestUploadFallsBackToDefaultPrefix(t *testing.T) {
	f := newFixture(stubSettings{})
	res, err := f.svc.Upload(context.Background(), []Part{dataPart("x", "image/png")})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(res.Location, "https://default.example/"))
}

func TestUploadTrimsTrailingSlashFromPrefix(t *testing.T) {
	f := newFixture(stubSettings{prefix: "https://files.example/", found: true})
	res, err := f.svc.Upload(context.Background(), []Part{dataPart("x", "image/png")})
	require.NoError(t, err)
	require.Regexp(t, locationPattern, res.Location)
}

func TestUploadReadsPrefixOnEveryCall(t *testing.T) {
	settings := &mutableSettings{prefix: "https://one.example"}
	f := newFixture(settings)
	first, err := f.svc.Upload(context.Background(), []Part{dataPart("a", "text/plain")})
	require.NoError(t, err)
	settings.prefix = "https://two.example"
	second, err := f.svc.Upload(context.Background(), []Part{dataPart("b", "text/plain")})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(first.Location, "https://one.example/"))
	require.True(t, strings.HasPrefix(second.Location, "https://two.example/"))
}

type mutableSettings struct{ prefix string }

func (m *mutableSettings) URLPrefix(context.Context) (string, bool, error) {
	return m.prefix, true, nil
}

func TestUploadWithoutPartsAcknowledges(t *testing.T) {
	f := newFixture(stubSettings{})
	res, err := f.svc.Upload(context.Background(), nil)
	require.NoError(t, err)
	require.False(t, res.Created)
	require.Equal(t, "ok", res.Location)
	require.Zero(t, f.blobs.writes)
	require.Empty(t, f.posts.posts)
}

func TestUploadRejectsMalformedRequests(t *testing.T) {
	tests := []struct {
		name  string
		parts []Part
		code  string
	}{
		{
			name:  "two valid parts",
			parts: []Part{dataPart("a", "text/plain"), dataPart("b", "text/plain")},
			code:  CodeTooManyFields,
		},
		{
			name:  "extra part after data",
			parts: []Part{dataPart("a", "text/plain"), {Name: "other", ContentType: "text/plain", Body: strings.NewReader("b")}},
			code:  CodeTooManyFields,
		},
		{
			name:  "wrong field name",
			parts: []Part{{Name: "file", ContentType: "text/plain", Body: strings.NewReader("a")}},
			code:  CodeUnknownField,
		},
		{
			name:  "field name is case sensitive",
			parts: []Part{{Name: "Data", ContentType: "text/plain", Body: strings.NewReader("a")}},
			code:  CodeUnknownField,
		},
		{
			name:  "missing content type",
			parts: []Part{dataPart("a", "")},
			code:  CodeMissingMimeType,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(stubSettings{})
			_, err := f.svc.Upload(context.Background(), tc.parts)
			require.True(t, apperrors.IsCode(err, tc.code), "got %v", err)
			require.Zero(t, f.blobs.writes)
			require.Empty(t, f.posts.posts)
		})
	}
}

func TestUploadSourceReadFailure(t *testing.T) {
	f := newFixture(stubSettings{})
	part := Part{Name: FieldName, ContentType: "text/plain", Body: io.MultiReader(strings.NewReader("abc"), failingReader{err: io.ErrUnexpectedEOF})}
	_, err := f.svc.Upload(context.Background(), []Part{part})
	require.True(t, apperrors.IsCode(err, CodeUploadRead), "got %v", err)
	require.Empty(t, f.posts.posts)
}

func TestUploadBlobStoreFailure(t *testing.T) {
	f := newFixture(stubSettings{})
	f.blobs.writeErr = errors.New("bucket unreachable")
	_, err := f.svc.Upload(context.Background(), []Part{dataPart("abc", "text/plain")})
	require.True(t, apperrors.IsCode(err, CodeStoreUnavailable), "got %v", err)
	require.Empty(t, f.posts.posts)
}

func TestUploadSettingsFailureWritesNothing(t *testing.T) {
	f := newFixture(stubSettings{err: errors.New("db down")})
	_, err := f.svc.Upload(context.Background(), []Part{dataPart("abc", "text/plain")})
	require.True(t, apperrors.IsCode(err, CodeStoreUnavailable))
	require.Zero(t, f.blobs.writes)
}

func TestUploadMetadataFailureDiscardsBlob(t *testing.T) {
	f := newFixture(stubSettings{})
	f.posts.createErr = errors.New("insert failed")
	_, err := f.svc.Upload(context.Background(), []Part{dataPart("abc", "text/plain")})
	require.True(t, apperrors.IsCode(err, CodeStoreUnavailable))
	require.Len(t, f.blobs.deleted, 1)
	require.Empty(t, f.blobs.objects)
}

func TestUploadIDCollisionFails(t *testing.T) {
	blobs := newStubBlobStore()
	posts := newStubRepo()
	ids := &fixedIDs{ids: []string{"AAAAAAAAAAAAAAAA", "AAAAAAAAAAAAAAAA"}}
	svc := NewService(Config{}, blobs, posts, nil, ids, discardLogger())

	_, err := svc.Upload(context.Background(), []Part{dataPart("first", "text/plain")})
	require.NoError(t, err)
	_, err = svc.Upload(context.Background(), []Part{dataPart("second", "text/plain")})
	require.True(t, apperrors.IsCode(err, CodeStoreUnavailable))

	p, found, _ := posts.Get(context.Background(), "AAAAAAAAAAAAAAAA")
	require.True(t, found)
	dl, err := svc.Download(context.Background(), p.ID)
	require.NoError(t, err)
	body, _ := io.ReadAll(dl.Body)
	require.Equal(t, "first", string(body))
}

func TestDownloadUnknownID(t *testing.T) {
	f := newFixture(stubSettings{})
	for _, id := range []string{"AbCdEfGhIjKlMnOp", "does-not-exist-id", ""} {
		_, err := f.svc.Download(context.Background(), id)
		require.True(t, apperrors.IsCode(err, CodeNotFound), id)
	}
}

func TestDownloadStoreFailure(t *testing.T) {
	f := newFixture(stubSettings{})
	f.posts.getErr = errors.New("db down")
	_, err := f.svc.Download(context.Background(), "AbCdEfGhIjKlMnOp")
	require.True(t, apperrors.IsCode(err, CodeStoreUnavailable))
}

func TestDownloadMissingBlobIsInternal(t *testing.T) {
	f := newFixture(stubSettings{})
	require.NoError(t, f.posts.Create(context.Background(), Post{ID: "AbCdEfGhIjKlMnOp", StorageHandle: "gone", MimeType: "text/plain"}))
	_, err := f.svc.Download(context.Background(), "AbCdEfGhIjKlMnOp")
	require.True(t, apperrors.IsCode(err, CodeStoreUnavailable))
	require.ErrorIs(t, err, ErrBlobNotFound)
}
