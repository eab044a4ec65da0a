package post

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/yanqian/blobdrop/pkg/errors"
	"github.com/yanqian/blobdrop/pkg/util"
)

// DefaultURLPrefix is used when neither the config record nor the service
// configuration provide one.
const DefaultURLPrefix = "https://i.kalkafox.dev"

const discardTimeout = 10 * time.Second

// Config drives the upload pipeline.
type Config struct {
	DefaultURLPrefix string
}

// Service runs the upload and download pipelines.
type Service struct {
	cfg      Config
	blobs    BlobStore
	posts    Repository
	settings SettingsRepository
	ids      IDGenerator
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a Service.
func NewService(cfg Config, blobs BlobStore, posts Repository, settings SettingsRepository, ids IDGenerator, logger *slog.Logger) *Service {
	if strings.TrimSpace(cfg.DefaultURLPrefix) == "" {
		cfg.DefaultURLPrefix = DefaultURLPrefix
	}
	return &Service{
		cfg:      cfg,
		blobs:    blobs,
		posts:    posts,
		settings: settings,
		ids:      ids,
		logger:   logger.With("component", "post.service"),
		now:      util.NowUTC,
	}
}

// Upload validates the decoded parts, streams the single data part into the
// blob store and publishes the post record. The caller must have admitted
// the request already.
func (s *Service) Upload(ctx context.Context, parts []Part) (UploadResult, error) {
	switch len(parts) {
	case 0:
		s.logger.Warn("upload without parts acknowledged, nothing stored")
		return UploadResult{Location: "ok"}, nil
	case 1:
	default:
		return UploadResult{}, apperrors.Wrap(CodeTooManyFields, "upload accepts a single field", nil)
	}

	part := parts[0]
	if part.Name != FieldName {
		return UploadResult{}, apperrors.Wrap(CodeUnknownField, "unknown field "+part.Name, nil)
	}
	mimeType := strings.TrimSpace(part.ContentType)
	if mimeType == "" {
		return UploadResult{}, apperrors.Wrap(CodeMissingMimeType, "part has no content type", nil)
	}
	if part.Body == nil {
		return UploadResult{}, apperrors.Wrap(CodeUploadRead, "part has no body", nil)
	}

	prefix, err := s.urlPrefix(ctx)
	if err != nil {
		return UploadResult{}, apperrors.Wrap(CodeStoreUnavailable, "failed to load url prefix", err)
	}

	id := s.ids.NewID()
	src := &sourceReader{r: part.Body}
	obj, err := s.blobs.Write(ctx, id, src)
	if err != nil {
		if src.err != nil || errors.Is(err, context.Canceled) {
			return UploadResult{}, apperrors.Wrap(CodeUploadRead, "failed to read upload", err)
		}
		return UploadResult{}, apperrors.Wrap(CodeStoreUnavailable, "failed to store blob", err)
	}

	p := Post{
		ID:            id,
		StorageHandle: obj.Handle,
		MimeType:      mimeType,
		SizeBytes:     obj.SizeBytes,
		CreatedAt:     s.now(),
	}
	if err := s.posts.Create(ctx, p); err != nil {
		s.discardBlob(ctx, obj.Handle)
		return UploadResult{}, apperrors.Wrap(CodeStoreUnavailable, "failed to persist post", err)
	}

	s.logger.Info("post created", "id", p.ID, "mime_type", p.MimeType, "size_bytes", p.SizeBytes)
	return UploadResult{
		Created:  true,
		Post:     p,
		Location: strings.TrimRight(prefix, "/") + "/" + p.ID,
	}, nil
}

// Download resolves id and opens its blob for streaming.
func (s *Service) Download(ctx context.Context, id string) (Download, error) {
	if !ValidID(id) {
		return Download{}, apperrors.Wrap(CodeNotFound, "post not found", nil)
	}
	p, found, err := s.posts.Get(ctx, id)
	if err != nil {
		return Download{}, apperrors.Wrap(CodeStoreUnavailable, "failed to load post", err)
	}
	if !found {
		return Download{}, apperrors.Wrap(CodeNotFound, "post not found", nil)
	}
	body, err := s.blobs.Open(ctx, p.StorageHandle)
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			s.logger.Error("post references missing blob", "id", p.ID, "handle", p.StorageHandle)
		}
		return Download{}, apperrors.Wrap(CodeStoreUnavailable, "failed to open blob", err)
	}
	return Download{Post: p, Body: body}, nil
}

func (s *Service) urlPrefix(ctx context.Context) (string, error) {
	if s.settings == nil {
		return s.cfg.DefaultURLPrefix, nil
	}
	prefix, found, err := s.settings.URLPrefix(ctx)
	if err != nil {
		return "", err
	}
	if !found || strings.TrimSpace(prefix) == "" {
		return s.cfg.DefaultURLPrefix, nil
	}
	return prefix, nil
}

// discardBlob removes a blob whose post record could not be written. Any
// failure leaves an orphan for SweepOrphans.
func (s *Service) discardBlob(ctx context.Context, handle string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), discardTimeout)
	defer cancel()
	if err := s.blobs.Delete(ctx, handle); err != nil {
		s.logger.Warn("orphaned blob left behind", "handle", handle, "error", err)
	}
}

// sourceReader remembers the first read failure of the client stream so a
// failed write can be blamed on the client or on the store.
type sourceReader struct {
	r   io.Reader
	err error
}

func (r *sourceReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if err != nil && err != io.EOF && r.err == nil {
		r.err = err
	}
	return n, err
}
