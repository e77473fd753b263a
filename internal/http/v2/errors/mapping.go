package errors

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/dropDatabas3/hellocoop/internal/domain/repository"
	"github.com/dropDatabas3/hellocoop/internal/http/v2/helpers"
	"github.com/dropDatabas3/hellocoop/internal/http/v2/services/account"
	"github.com/dropDatabas3/hellocoop/internal/session"
	"github.com/dropDatabas3/hellocoop/internal/settings"
)

// Map traduce errores del dominio. Devuelve nil si no conoce el error.
// El orden importa: un ErrPersistence que envuelve ErrConflict es 409.
func Map(err error) *AppError {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, account.ErrPayloadInvalid):
		return ErrPayloadInvalid
	case stderrors.Is(err, account.ErrPictureFetch):
		return ErrPictureFetch
	case stderrors.Is(err, account.ErrPictureIngest):
		return ErrPictureIngest
	case stderrors.Is(err, account.ErrPersistence) && repository.IsConflict(err):
		return ErrConflict
	case stderrors.Is(err, account.ErrPersistence):
		return ErrPersistence
	case stderrors.Is(err, settings.ErrInvalid):
		return ErrInvalidSettings
	case stderrors.Is(err, helpers.ErrInvalidJSON):
		return ErrInvalidJSON
	case stderrors.Is(err, helpers.ErrBodyTooBig):
		return ErrBodyTooLarge
	case stderrors.Is(err, helpers.ErrContentType):
		return ErrUnsupportedMediaType
	case session.IsNoSession(err):
		return ErrUnauthorized
	case repository.IsNotFound(err):
		return ErrNotFound
	case stderrors.Is(err, context.DeadlineExceeded):
		return ErrGatewayTimeout
	}
	return nil
}

// HelloMapper adapta Map a hello.ErrorMapper: status + código en minúsculas
// para la página de error.
func HelloMapper(err error) (int, string) {
	appErr := FromError(err)
	return appErr.HTTPStatus, strings.ToLower(appErr.Code)
}
