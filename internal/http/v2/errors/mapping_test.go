package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellocoop/internal/domain/repository"
	"github.com/dropDatabas3/hellocoop/internal/http/v2/services/account"
	"github.com/dropDatabas3/hellocoop/internal/session"
	"github.com/dropDatabas3/hellocoop/internal/settings"
)

func TestFromError_Status(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"payload", fmt.Errorf("%w: missing sub", account.ErrPayloadInvalid), http.StatusBadRequest},
		{"fetch", fmt.Errorf("%w: status 404", account.ErrPictureFetch), http.StatusBadGateway},
		{"ingest", account.ErrPictureIngest, http.StatusInternalServerError},
		{"conflict", fmt.Errorf("%w: create: %w", account.ErrPersistence, repository.ErrConflict), http.StatusConflict},
		{"persistence", fmt.Errorf("%w: save: disk full", account.ErrPersistence), http.StatusInternalServerError},
		{"settings", fmt.Errorf("%w: bad route", settings.ErrInvalid), http.StatusBadRequest},
		{"no session", session.ErrNoSession, http.StatusUnauthorized},
		{"not found", repository.ErrNotFound, http.StatusNotFound},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"app error", ErrForbidden, http.StatusForbidden},
		{"unknown", stderrors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FromError(tt.err).HTTPStatus)
		})
	}
}

func TestFromError_KeepsCause(t *testing.T) {
	cause := fmt.Errorf("%w: create: %w", account.ErrPersistence, repository.ErrConflict)
	appErr := FromError(cause)
	require.ErrorIs(t, appErr, repository.ErrConflict)
	require.Equal(t, "CONFLICT", ErrConflict.Code)
	require.Nil(t, ErrConflict.Err, "base value must not be mutated")
}

func TestHelloMapper(t *testing.T) {
	status, code := HelloMapper(account.ErrPictureFetch)
	require.Equal(t, http.StatusBadGateway, status)
	require.Equal(t, "picture_fetch_failed", code)
}

func TestWriteError_JSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrNotFound.WithDetail("no such route"))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	require.Contains(t, rec.Body.String(), `"NOT_FOUND"`)
	require.Contains(t, rec.Body.String(), "no such route")
}
