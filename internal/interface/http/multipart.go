package http

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/yanqian/blobdrop/internal/domain/post"
	apperrors "github.com/yanqian/blobdrop/pkg/errors"
)

// readParts decodes every part of a multipart/form-data body. Part bodies are
// buffered so the field count is known before anything is persisted; the
// caller bounds the total with http.MaxBytesReader.
func readParts(r *http.Request) ([]post.Part, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, apperrors.Wrap(post.CodeInvalidInput, "expected a multipart/form-data body", err)
	}

	var parts []post.Part
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return parts, nil
		}
		if err != nil {
			return nil, decodeError(err)
		}

		var buf bytes.Buffer
		_, err = io.Copy(&buf, part)
		_ = part.Close()
		if err != nil {
			return nil, decodeError(err)
		}

		parts = append(parts, post.Part{
			Name:        part.FormName(),
			ContentType: part.Header.Get("Content-Type"),
			Body:        &buf,
		})
	}
}

func decodeError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return apperrors.Wrap(post.CodeUploadRead, "read multipart body", err)
}
