package admission

import (
	"context"
	"log/slog"

	apperrors "github.com/yanqian/blobdrop/pkg/errors"
)

// CodeUnauthorized is returned for every rejected credential.
const CodeUnauthorized = "unauthorized"

// Service gates uploads on a caller supplied API key.
type Service struct {
	keys   KeyRepository
	logger *slog.Logger
}

// NewService constructs the admission gate.
func NewService(keys KeyRepository, logger *slog.Logger) *Service {
	return &Service{keys: keys, logger: logger.With("component", "admission.service")}
}

// Admit returns nil when credential is a provisioned key. Unknown keys and
// lookup failures produce the same error so callers cannot tell them apart.
func (s *Service) Admit(ctx context.Context, credential string) error {
	if credential == "" {
		return apperrors.Wrap(CodeUnauthorized, "unauthorized", nil)
	}
	ok, err := s.keys.HasKey(ctx, credential)
	if err != nil {
		s.logger.Error("key lookup failed", "error", err)
		return apperrors.Wrap(CodeUnauthorized, "unauthorized", nil)
	}
	if !ok {
		s.logger.Warn("invalid api key presented")
		return apperrors.Wrap(CodeUnauthorized, "unauthorized", nil)
	}
	return nil
}
