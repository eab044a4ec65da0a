package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/blobdrop/internal/domain/admission"
	"github.com/yanqian/blobdrop/internal/domain/post"
	apperrors "github.com/yanqian/blobdrop/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause.
func (e *HTTPError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "something went wrong",
		Err:     err,
	}
}

// fromDomainError maps pipeline errors onto fixed client facing messages.
// The cause is kept on the HTTPError for logging only.
func fromDomainError(err error) *HTTPError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return NewHTTPError(http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", err)
	}

	switch apperrors.CodeOf(err) {
	case admission.CodeUnauthorized:
		return NewHTTPError(http.StatusUnauthorized, admission.CodeUnauthorized, "unauthorized", err)
	case post.CodeTooManyFields:
		return NewHTTPError(http.StatusBadRequest, post.CodeTooManyFields, "only one field is allowed", err)
	case post.CodeUnknownField:
		return NewHTTPError(http.StatusNotFound, post.CodeUnknownField, "unknown field", err)
	case post.CodeMissingMimeType:
		return NewHTTPError(http.StatusBadRequest, post.CodeMissingMimeType, "field has no content type", err)
	case post.CodeUploadRead:
		return NewHTTPError(http.StatusBadRequest, post.CodeUploadRead, "could not read upload", err)
	case post.CodeInvalidInput:
		return NewHTTPError(http.StatusBadRequest, post.CodeInvalidInput, "invalid request", err)
	case post.CodeNotFound:
		return NewHTTPError(http.StatusNotFound, post.CodeNotFound, "not found", err)
	case post.CodeStoreUnavailable:
		return NewHTTPError(http.StatusServiceUnavailable, post.CodeStoreUnavailable, "storage unavailable", err)
	default:
		return asHTTPError(err)
	}
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
