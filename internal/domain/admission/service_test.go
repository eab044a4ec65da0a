package admission

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/blobdrop/pkg/errors"
)

type stubKeys struct {
	keys  map[string]bool
	err   error
	calls int
}

func (s *stubKeys) HasKey(_ context.Context, key string) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.keys[key], nil
}

func newTestService(keys KeyRepository) *Service {
	return NewService(keys, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAdmitAcceptsProvisionedKey(t *testing.T) {
	svc := newTestService(&stubKeys{keys: map[string]bool{"secret": true}})
	require.NoError(t, svc.Admit(context.Background(), "secret"))
}

func TestAdmitRequiresExactMatch(t *testing.T) {
	svc := newTestService(&stubKeys{keys: map[string]bool{"secret": true}})
	for _, candidate := range []string{"Secret", "secret ", " secret", "secre"} {
		err := svc.Admit(context.Background(), candidate)
		require.True(t, apperrors.IsCode(err, CodeUnauthorized), candidate)
	}
}

func TestAdmitEmptyCredentialSkipsLookup(t *testing.T) {
	keys := &stubKeys{}
	svc := newTestService(keys)
	err := svc.Admit(context.Background(), "")
	require.True(t, apperrors.IsCode(err, CodeUnauthorized))
	require.Zero(t, keys.calls)
}

func TestAdmitHidesStoreFailure(t *testing.T) {
	storeErr := errors.New("connection refused")
	svc := newTestService(&stubKeys{err: storeErr})

	failed := svc.Admit(context.Background(), "secret")
	rejected := newTestService(&stubKeys{}).Admit(context.Background(), "secret")

	require.True(t, apperrors.IsCode(failed, CodeUnauthorized))
	require.NotErrorIs(t, failed, storeErr)
	require.Equal(t, rejected.Error(), failed.Error())
}
