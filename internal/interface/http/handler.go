package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/blobdrop/internal/domain/post"
	"github.com/yanqian/blobdrop/internal/infra/config"
)

// Handler wires the HTTP transport to the post pipelines.
type Handler struct {
	posts        *post.Service
	maxBodyBytes int64
	static       *staticFiles
	logger       *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(cfg *config.Config, posts *post.Service, logger *slog.Logger) *Handler {
	return &Handler{
		posts:        posts,
		maxBodyBytes: cfg.Upload.MaxBodyBytes,
		static:       newStaticFiles(cfg.Static.Dir),
		logger:       logger.With("component", "http.handler"),
	}
}

// Upload accepts a single multipart field named "data" and replies with the download link.
func (h *Handler) Upload(c *gin.Context) {
	if c.Request.ContentLength > h.maxBodyBytes {
		abortWithError(c, NewHTTPError(http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", nil))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)

	parts, err := readParts(c.Request)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}

	result, err := h.posts.Upload(c.Request.Context(), parts)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}

	c.String(http.StatusOK, result.Location)
}

// Download streams a stored blob back with its original content type.
// Paths that cannot be post ids fall through to the static frontend.
func (h *Handler) Download(c *gin.Context) {
	id := c.Param("id")
	if !post.ValidID(id) {
		h.static.serve(c)
		return
	}

	dl, err := h.posts.Download(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	defer dl.Body.Close()

	c.DataFromReader(http.StatusOK, dl.Post.SizeBytes, dl.Post.MimeType, dl.Body, map[string]string{
		"Cache-Control": "public, max-age=31536000, immutable",
	})
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// NotFound serves the static frontend for unmatched routes.
func (h *Handler) NotFound(c *gin.Context) {
	h.static.serve(c)
}
